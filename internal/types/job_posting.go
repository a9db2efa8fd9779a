package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Source identifies how a job posting entered the session.
type Source string

// Posting sources
const (
	SourceFile Source = "file"
	SourceURL  Source = "url"
)

// JobPosting is a normalized job posting ingested into a session.
type JobPosting struct {
	JobID          string   `json:"job_id"`
	CompanyID      string   `json:"company_id"`
	Company        string   `json:"company,omitempty"`
	Title          string   `json:"title"`
	Skills         []string `json:"skills"`
	Region         string   `json:"region,omitempty"`
	YearsMin       *float64 `json:"years_min"`
	YearsMax       *float64 `json:"years_max"`
	Description    string   `json:"description"`
	EmploymentType string   `json:"employment_type,omitempty"`
	WorkMode       string   `json:"work_mode,omitempty"`
	SalaryText     string   `json:"salary_text,omitempty"`
	Deadline       string   `json:"deadline,omitempty"`
	Source         Source   `json:"source"`
	SourceURL      string   `json:"source_url,omitempty"`
}

// Company is a company document ingested into a session.
type Company struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Overview  string `json:"overview,omitempty"`
	Culture   string `json:"culture,omitempty"`
	Values    string `json:"values,omitempty"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CompanyID derives the session-local company key from a display name.
func CompanyID(company string) string {
	if company == "" {
		company = "unknown"
	}
	return whitespaceRun.ReplaceAllString(strings.ToLower(company), "-")
}

// NewJobID derives a job id from the company and the ingestion time.
// Two postings of the same company ingested within the same millisecond collide.
func NewJobID(company string, at time.Time) string {
	return fmt.Sprintf("%s_%d", CompanyID(company), at.UnixMilli())
}
