// Package ingestion turns resumes, job postings and company documents into
// normalized records, either through the external ingestion service or with
// the built-in rule-based normalizer.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/jonathan/job-recommender/internal/types"
)

// Errors returned by normalizers.
var (
	ErrEmptyInput      = errors.New("empty input")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// NormalizedJob is the loosely structured record a document normalizes to.
// Fields the normalizer could not determine are left zero.
type NormalizedJob struct {
	Title          string   `mapstructure:"title"`
	Company        string   `mapstructure:"company"`
	Region         string   `mapstructure:"region"`
	YearsMin       *float64 `mapstructure:"years_min"`
	YearsMax       *float64 `mapstructure:"years_max"`
	Skills         []string `mapstructure:"skills"`
	EmploymentType string   `mapstructure:"employment_type"`
	WorkMode       string   `mapstructure:"work_mode"`
	SalaryText     string   `mapstructure:"salary_text"`
	PostedAt       string   `mapstructure:"posted_at"`
	Deadline       string   `mapstructure:"deadline"`
	Description    string   `mapstructure:"description"`
}

// Normalizer converts raw documents into NormalizedJob records.
type Normalizer interface {
	NormalizeText(ctx context.Context, text string) (*NormalizedJob, error)
	NormalizeURL(ctx context.Context, rawURL string) (*NormalizedJob, error)
	NormalizeFile(ctx context.Context, filename string, content []byte) (*NormalizedJob, error)
}

// Decode converts a loosely typed record, as produced by the ingestion
// service, into a NormalizedJob. Numbers given as strings and skills given as
// a comma-separated string are accepted; nulls become zero values.
func Decode(raw map[string]any) (*NormalizedJob, error) {
	var job NormalizedJob
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &job,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			blankToNilHook,
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode normalized job: %w", err)
	}

	job.Skills = cleanSkills(job.Skills)
	return &job, nil
}

// blankToNilHook drops empty strings aimed at numeric pointers so that "" means
// unknown rather than a decode error.
func blankToNilHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Ptr {
		return data, nil
	}
	if s, ok := data.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return data, nil
}

func cleanSkills(skills []string) []string {
	if skills == nil {
		return nil
	}
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// unknownCompanyDisplay names company documents that carry no company.
const unknownCompanyDisplay = "기업"

var companyDocPattern = regexp.MustCompile(`(?i)회사 소개|기업 소개|culture|value|vision|연봉 보고서|리포트`)

// IsCompanyDocument reports whether a normalized document describes a company
// rather than a posting.
func IsCompanyDocument(job *NormalizedJob) bool {
	return companyDocPattern.MatchString(job.Title + " " + job.Description)
}

// ToJobPosting builds a session job from a normalized record.
func ToJobPosting(job *NormalizedJob, source types.Source, sourceURL string, at time.Time) types.JobPosting {
	return types.JobPosting{
		JobID:          types.NewJobID(job.Company, at),
		CompanyID:      types.CompanyID(job.Company),
		Company:        job.Company,
		Title:          job.Title,
		Skills:         job.Skills,
		Region:         job.Region,
		YearsMin:       job.YearsMin,
		YearsMax:       job.YearsMax,
		Description:    job.Description,
		EmploymentType: job.EmploymentType,
		WorkMode:       job.WorkMode,
		SalaryText:     job.SalaryText,
		Deadline:       job.Deadline,
		Source:         source,
		SourceURL:      sourceURL,
	}
}

// ToCompany builds a session company from a normalized company document.
func ToCompany(job *NormalizedJob) types.Company {
	name := job.Company
	if name == "" {
		name = unknownCompanyDisplay
	}
	return types.Company{
		CompanyID: types.CompanyID(job.Company),
		Name:      name,
		Overview:  job.Description,
	}
}

// ResumeHints derives profile hints from a normalized resume.
func ResumeHints(job *NormalizedJob) *types.ResumeHints {
	return &types.ResumeHints{
		Skills:  job.Skills,
		Summary: job.Description,
	}
}
