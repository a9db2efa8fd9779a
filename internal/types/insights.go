package types

import "github.com/go-playground/validator/v10"

// InsightRequest asks the insight service about a company and, optionally, a position.
type InsightRequest struct {
	CompanyName string `json:"company_name" validate:"required,max=200"`
	JobPosition string `json:"job_position,omitempty" validate:"max=200"`
}

// Validate validates the InsightRequest using the validator.
func (r *InsightRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// PositionOrAll returns the position, or the catch-all label used upstream.
func (r *InsightRequest) PositionOrAll() string {
	if r.JobPosition == "" {
		return "All positions"
	}
	return r.JobPosition
}

// InterviewQuestion is one generated interview question with its rationale.
type InterviewQuestion struct {
	Category string `json:"category"`
	Question string `json:"q"`
	Why      string `json:"why"`
}

// Interview is a generated interview question set for one posting. Strategy
// and JobMatchAnalysis are free-form and passed through as generated.
type Interview struct {
	Questions        []InterviewQuestion `json:"questions"`
	Strategy         any                 `json:"strategy,omitempty"`
	JobMatchAnalysis any                 `json:"job_match_analysis,omitempty"`
	Source           string              `json:"source"`
}
