// Package recs produces recommendation lists for a session, either locally or
// through the external recommendation service, and talks to that service's
// interview and insight tools.
package recs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/job-recommender/internal/schemas"
	"github.com/jonathan/job-recommender/internal/types"
	"github.com/jonathan/job-recommender/internal/upstream"
)

// ErrInsightFailed is returned when the insight tools answer without success.
var ErrInsightFailed = errors.New("insight lookup failed")

// Client calls the tools of the external recommendation service.
type Client struct {
	up *upstream.Client
}

// NewClient wraps an upstream client pointed at the recommendation service.
func NewClient(up *upstream.Client) *Client {
	return &Client{up: up}
}

type rerankUser struct {
	Skills []string `json:"skills"`
	Years  *float64 `json:"years"`
	Region string   `json:"region,omitempty"`
	Role   string   `json:"role,omitempty"`
}

type rerankRequest struct {
	SessionID  string                 `json:"sessionId"`
	User       rerankUser             `json:"user"`
	Candidates []types.CandidateScore `json:"candidates"`
	TopK       int                    `json:"topK"`
}

type rerankResponse struct {
	Ranked []types.RankedCandidate `json:"ranked"`
}

// Rerank asks the service to personalize candidates.
func (c *Client) Rerank(ctx context.Context, sessionID string, user *types.UserProfile, candidates []types.CandidateScore, topK int) ([]types.RankedCandidate, error) {
	req := rerankRequest{
		SessionID:  sessionID,
		Candidates: candidates,
		TopK:       topK,
	}
	if user != nil {
		req.User = rerankUser{Skills: user.Skills, Years: user.Years, Region: user.Region, Role: user.Role}
	}

	var resp rerankResponse
	if err := c.up.PostJSON(ctx, "rerank_jobs", "/tools/rerank_jobs", req, schemas.RerankResponse, &resp); err != nil {
		return nil, err
	}
	return resp.Ranked, nil
}

type feedbackRequest struct {
	SessionID string                `json:"sessionId"`
	Type      types.FeedbackType    `json:"type"`
	Target    *types.FeedbackTarget `json:"target"`
}

// Feedback forwards a feedback event so the service's own profile stays in step.
func (c *Client) Feedback(ctx context.Context, sessionID string, kind types.FeedbackType, target *types.FeedbackTarget) error {
	return c.up.PostJSON(ctx, "feedback", "/tools/feedback",
		feedbackRequest{SessionID: sessionID, Type: kind, Target: target}, "", nil)
}

// InterviewRequest is the payload of the interview generation tool.
type InterviewRequest struct {
	SessionID       string             `json:"sessionId"`
	UserProfile     *types.UserProfile `json:"userProfile"`
	JobDetails      *types.JobPosting  `json:"jobDetails"`
	CompanyInfo     *types.Company     `json:"companyInfo"`
	InterviewConfig InterviewConfig    `json:"interviewConfig"`
}

// InterviewConfig tunes question generation.
type InterviewConfig struct {
	QuestionCount                int    `json:"questionCount"`
	Difficulty                   string `json:"difficulty"`
	IncludeCompanySpecific       bool   `json:"includeCompanySpecific"`
	IncludeTechnicalQuestions    bool   `json:"includeTechnicalQuestions"`
	IncludeBehavioralQuestions   bool   `json:"includeBehavioralQuestions"`
	IncludeRoleSpecificQuestions bool   `json:"includeRoleSpecificQuestions"`
}

type interviewResponse struct {
	Interview struct {
		Questions        []types.InterviewQuestion `json:"questions"`
		Strategy         any                       `json:"strategy"`
		JobMatchAnalysis any                       `json:"job_match_analysis"`
	} `json:"interview"`
}

// GenerateInterview calls the service's interview generator.
func (c *Client) GenerateInterview(ctx context.Context, req *InterviewRequest) (*types.Interview, error) {
	var resp interviewResponse
	if err := c.up.PostJSON(ctx, "gpt_generate_interview", "/tools/gpt_generate_interview", req, schemas.InterviewResponse, &resp); err != nil {
		return nil, err
	}
	return &types.Interview{
		Questions:        resp.Interview.Questions,
		Strategy:         resp.Interview.Strategy,
		JobMatchAnalysis: resp.Interview.JobMatchAnalysis,
	}, nil
}

// CompanyReviews returns the raw company review document.
func (c *Client) CompanyReviews(ctx context.Context, company string) (json.RawMessage, error) {
	return c.insight(ctx, "get_company_reviews", map[string]string{"company_name": company})
}

// JobEssays returns accepted cover letters for a company and position.
func (c *Client) JobEssays(ctx context.Context, company, position string) (json.RawMessage, error) {
	return c.insight(ctx, "get_job_essays", map[string]string{"company_name": company, "job_position": position})
}

// JobTips returns application tips for a company and position.
func (c *Client) JobTips(ctx context.Context, company, position string) (json.RawMessage, error) {
	return c.insight(ctx, "get_job_tips", map[string]string{"company_name": company, "job_position": position})
}

func (c *Client) insight(ctx context.Context, tool string, body map[string]string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.up.PostJSON(ctx, tool, "/tools/"+tool, body, schemas.InsightResponse, &raw); err != nil {
		return nil, err
	}

	var status struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &status); err != nil || !status.Success {
		return nil, fmt.Errorf("%w: %s returned no data", ErrInsightFailed, tool)
	}
	return raw, nil
}
