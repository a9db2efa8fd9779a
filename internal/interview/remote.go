package interview

import (
	"context"

	"github.com/jonathan/job-recommender/internal/recs"
	"github.com/jonathan/job-recommender/internal/types"
)

// RemoteClient is the interview tool of the recommendation service.
// *recs.Client satisfies it.
type RemoteClient interface {
	GenerateInterview(ctx context.Context, req *recs.InterviewRequest) (*types.Interview, error)
}

// Remote delegates generation to the recommendation service.
type Remote struct {
	client RemoteClient
}

// NewRemote creates a Remote generator.
func NewRemote(client RemoteClient) *Remote {
	return &Remote{client: client}
}

// Name implements Generator.
func (r *Remote) Name() string { return "remote" }

// Generate implements Generator.
func (r *Remote) Generate(ctx context.Context, in *Input) (*types.Interview, error) {
	return r.client.GenerateInterview(ctx, &recs.InterviewRequest{
		SessionID:   in.SessionID,
		UserProfile: in.User,
		JobDetails:  in.Job,
		CompanyInfo: in.Company,
		InterviewConfig: recs.InterviewConfig{
			QuestionCount:                in.QuestionCount,
			Difficulty:                   in.Difficulty,
			IncludeCompanySpecific:       in.Company != nil,
			IncludeTechnicalQuestions:    true,
			IncludeBehavioralQuestions:   true,
			IncludeRoleSpecificQuestions: true,
		},
	})
}
