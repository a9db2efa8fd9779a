// Package types provides type definitions for structured data used throughout the job recommender.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrBadInput indicates a malformed profile or request submission.
var ErrBadInput = errors.New("bad input")

// UserProfile is the session-scoped profile a recommendation is computed for.
// Empty Region and Role mean absent.
type UserProfile struct {
	Skills      []string     `json:"skills"`
	Years       *float64     `json:"years"`
	Region      string       `json:"region,omitempty"`
	Role        string       `json:"role,omitempty"`
	ResumeText  string       `json:"resumeText,omitempty"`
	ResumeHints *ResumeHints `json:"resumeHints"`
}

// ResumeHints holds what the normalizer could pull out of a pasted resume.
type ResumeHints struct {
	Skills  []string `json:"skills"`
	Summary string   `json:"summary,omitempty"`
}

// ProfileRequest is the body of a profile submission.
type ProfileRequest struct {
	SessionID  string   `json:"sessionId" validate:"required"`
	Skills     []string `json:"skills" validate:"omitempty,dive,required,max=100"`
	Years      *float64 `json:"years" validate:"omitempty,gte=0,lte=80"`
	Region     string   `json:"region" validate:"max=100"`
	Role       string   `json:"role" validate:"max=200"`
	ResumeText string   `json:"resumeText" validate:"max=100000"`
}

// Validate validates the ProfileRequest using the validator.
func (r *ProfileRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrBadInput, describeValidation(err))
	}
	return nil
}

// Profile builds the stored profile. Absent skills become an empty list.
func (r *ProfileRequest) Profile() *UserProfile {
	skills := r.Skills
	if skills == nil {
		skills = []string{}
	}
	return &UserProfile{
		Skills:     skills,
		Years:      r.Years,
		Region:     r.Region,
		Role:       r.Role,
		ResumeText: r.ResumeText,
	}
}

// describeValidation reports the first failing field.
func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return fmt.Sprintf("%s failed on %s", ve.Field(), ve.Tag())
	}
	return "invalid request"
}
