package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/job-recommender/internal/llm"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/prompts"
	"github.com/jonathan/job-recommender/internal/schemas"
	"github.com/jonathan/job-recommender/internal/types"
)

// maxPromptSkills bounds how many skills the prompt lists.
const maxPromptSkills = 8

// maxPromptSummary bounds the posting and company text quoted in the prompt.
const maxPromptSummary = 400

// Gemini generates questions with an LLM.
type Gemini struct {
	client llm.Client
}

// NewGemini creates a Gemini generator.
func NewGemini(client llm.Client) *Gemini {
	return &Gemini{client: client}
}

// Name implements Generator.
func (g *Gemini) Name() string { return "gemini" }

type generatedQuestion struct {
	Q   string `json:"q"`
	Why string `json:"why"`
}

type generatedInterview struct {
	TechQuestions   []generatedQuestion `json:"tech_questions"`
	Behavioral      []generatedQuestion `json:"behavioral"`
	CompanySpecific []generatedQuestion `json:"company_specific"`
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, in *Input) (*types.Interview, error) {
	prompt, err := prompts.Render(prompts.InterviewFile, prompts.InterviewQuestionsKey, promptData(in))
	if err != nil {
		return nil, err
	}

	text, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(schemas.GeneratedInterview, []byte(text)); err != nil {
		return nil, err
	}

	var out generatedInterview
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("failed to decode generated interview: %w", err)
	}

	var questions []types.InterviewQuestion
	questions = appendQuestions(questions, CategoryTech, out.TechQuestions)
	questions = appendQuestions(questions, CategoryBehavioral, out.Behavioral)
	questions = appendQuestions(questions, CategoryCompanySpecific, out.CompanySpecific)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &types.Interview{Questions: questions}, nil
}

func appendQuestions(dst []types.InterviewQuestion, category string, src []generatedQuestion) []types.InterviewQuestion {
	for _, q := range src {
		dst = append(dst, types.InterviewQuestion{Category: category, Question: q.Q, Why: q.Why})
	}
	return dst
}

func promptData(in *Input) map[string]string {
	var skills []string
	if in.Job != nil && len(in.Job.Skills) > 0 {
		skills = in.Job.Skills
	} else if in.User != nil {
		skills = in.User.Skills
	}
	skillText := "N/A"
	if len(skills) > 0 {
		skillText = strings.Join(skills[:min(maxPromptSkills, len(skills))], ", ")
	}

	var overview, summary string
	if in.Company != nil {
		overview = observability.Truncate(in.Company.Overview, maxPromptSummary)
	}
	if in.Job != nil {
		summary = observability.Truncate(in.Job.Description, maxPromptSummary)
	}

	return map[string]string{
		"Role":            firstNonEmpty(userRole(in.User), jobTitle(in.Job), "지원 직무"),
		"Skills":          skillText,
		"Company":         firstNonEmpty(companyName(in.Company), jobCompany(in.Job), "지원 기업"),
		"CompanyOverview": firstNonEmpty(overview, "N/A"),
		"JobSummary":      firstNonEmpty(summary, "N/A"),
		"Difficulty":      in.Difficulty,
		"QuestionCount":   strconv.Itoa(in.QuestionCount),
	}
}
