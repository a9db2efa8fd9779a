package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/job-recommender/internal/fetch"
)

const (
	maxTextRunes        = 8000
	maxDescriptionRunes = 500

	defaultTitle   = "채용 공고"
	defaultCompany = "회사명 미상"
)

var (
	titlePattern   = regexp.MustCompile(`(백엔드|프론트엔드|데이터).*개발자`)
	companyPattern = regexp.MustCompile(`회사명[:\s]*([\w가-힣()·& ]{2,30})`)
	yearsRange     = regexp.MustCompile(`(\d{1,2})\s*(?:년)?\s*[~\-]\s*(\d{1,2})\s*년`)
	yearsAtLeast   = regexp.MustCompile(`(?:경력\s*)?(\d{1,2})\s*년\s*이상`)
)

// knownRegions are matched literally against posting text, in order.
var knownRegions = []string{
	"서울", "경기", "인천", "부산", "대구", "대전", "광주", "울산", "세종",
	"강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

// knownSkills maps a lowercase token to its display form.
var knownSkills = map[string]string{
	"go": "Go", "golang": "Go", "java": "Java", "kotlin": "Kotlin", "python": "Python",
	"javascript": "JavaScript", "typescript": "TypeScript", "react": "React",
	"vue": "Vue", "node.js": "Node.js", "spring": "Spring", "django": "Django",
	"sql": "SQL", "mysql": "MySQL", "postgresql": "PostgreSQL", "redis": "Redis",
	"kafka": "Kafka", "spark": "Spark", "hadoop": "Hadoop", "airflow": "Airflow",
	"docker": "Docker", "kubernetes": "Kubernetes", "aws": "AWS", "gcp": "GCP",
	"tensorflow": "TensorFlow", "pytorch": "PyTorch", "swift": "Swift", "c++": "C++",
}

var skillToken = regexp.MustCompile(`[A-Za-z][A-Za-z0-9.+#]*`)

// LocalNormalizer extracts postings with fixed rules, without any external service.
type LocalNormalizer struct {
	page fetch.PageOptions
}

// NewLocalNormalizer creates a rule-based normalizer. URL pages are fetched
// with the given options.
func NewLocalNormalizer(page fetch.PageOptions) *LocalNormalizer {
	return &LocalNormalizer{page: page}
}

// NormalizeText normalizes pasted text.
func (n *LocalNormalizer) NormalizeText(_ context.Context, text string) (*NormalizedJob, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	return normalizeRules(text), nil
}

// NormalizeURL fetches a posting page and normalizes its text.
func (n *LocalNormalizer) NormalizeURL(ctx context.Context, rawURL string) (*NormalizedJob, error) {
	doc, err := fetch.Page(ctx, rawURL, n.page)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(doc.Title + "\n" + doc.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: page has no text", ErrEmptyInput)
	}
	return normalizeRules(text), nil
}

// NormalizeFile normalizes an uploaded plain-text or HTML document.
func (n *LocalNormalizer) NormalizeFile(_ context.Context, filename string, content []byte) (*NormalizedJob, error) {
	text, err := fileText(filename, content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	return normalizeRules(text), nil
}

func fileText(filename string, content []byte) (string, error) {
	kind := strings.ToLower(filepath.Ext(filename))
	if kind == "" {
		kind = http.DetectContentType(content)
	}

	switch {
	case kind == ".html" || kind == ".htm" || strings.HasPrefix(kind, "text/html"):
		doc, err := fetch.ExtractMainText(string(content), fetch.JobPostingSelectors())
		if err != nil {
			return "", err
		}
		return doc.Title + "\n" + doc.Text, nil
	case kind == ".txt" || kind == ".md" || strings.HasPrefix(kind, "text/"):
		if !utf8.Valid(content) {
			return "", fmt.Errorf("%w: %s is not UTF-8 text", ErrUnsupportedType, filename)
		}
		return CleanText(string(content)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
	}
}

func normalizeRules(text string) *NormalizedJob {
	t := truncateRunes(text, maxTextRunes)

	job := &NormalizedJob{
		Title:       defaultTitle,
		Company:     defaultCompany,
		Description: truncateRunes(t, maxDescriptionRunes),
	}
	if m := titlePattern.FindString(t); m != "" {
		job.Title = m
	}
	if m := companyPattern.FindStringSubmatch(t); m != nil {
		job.Company = m[1]
	}
	job.Region = detectRegion(t)
	job.YearsMin, job.YearsMax = detectYears(t)
	job.Skills = detectSkills(t)
	return job
}

func detectRegion(text string) string {
	for _, region := range knownRegions {
		if strings.Contains(text, region) {
			return region
		}
	}
	return ""
}

func detectYears(text string) (minYears, maxYears *float64) {
	if m := yearsRange.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		if lo <= hi {
			return &lo, &hi
		}
	}
	if m := yearsAtLeast.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		return &lo, nil
	}
	return nil, nil
}

// detectSkills returns known skills in order of first appearance, or nil when
// none are found.
func detectSkills(text string) []string {
	var skills []string
	seen := map[string]bool{}
	for _, tok := range skillToken.FindAllString(text, -1) {
		name, ok := knownSkills[strings.ToLower(strings.TrimRight(tok, "."))]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		skills = append(skills, name)
	}
	return skills
}
