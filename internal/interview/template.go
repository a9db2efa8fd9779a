package interview

import (
	"context"
	"strings"

	"github.com/jonathan/job-recommender/internal/types"
)

// Template builds a fixed five-question set from the profile, posting and
// company names.
type Template struct{}

// Name implements Generator.
func (Template) Name() string { return "template" }

// Generate implements Generator. It never fails.
func (Template) Generate(_ context.Context, in *Input) (*types.Interview, error) {
	role := firstNonEmpty(userRole(in.User), jobTitle(in.Job), "지원 직무")
	company := firstNonEmpty(companyName(in.Company), jobCompany(in.Job), "지원 기업")
	stack := techStack(in)

	questions := []types.InterviewQuestion{
		{Category: CategoryBehavioral, Question: "자기소개를 1분 이내로 해주세요.", Why: "커뮤니케이션과 핵심 요약 능력을 평가"},
		{Category: CategoryCompanySpecific, Question: role + " 역할에 지원한 동기를 말씀해주세요.", Why: "직무 적합성과 동기 파악"},
		{Category: CategoryTech, Question: "최근에 " + stack + " 관련해서 해결한 문제 하나를 상세히 설명해주세요.", Why: "문제해결/구현 역량 확인"},
		{Category: CategoryBehavioral, Question: "팀에서 갈등이 있었던 경험과 해결 과정을 설명해주세요.", Why: "협업/조율 능력 평가"},
		{Category: CategoryCompanySpecific, Question: company + "의 제품/서비스 중 개선하고 싶은 점은 무엇인가요?", Why: "회사 이해도와 비판적 사고"},
	}
	if in.QuestionCount > 0 && in.QuestionCount < len(questions) {
		questions = questions[:in.QuestionCount]
	}
	return &types.Interview{Questions: questions}, nil
}

// techStack previews up to three posting skills, or the user's when the
// posting lists none.
func techStack(in *Input) string {
	var skills []string
	if in.Job != nil && len(in.Job.Skills) > 0 {
		skills = in.Job.Skills
	} else if in.User != nil {
		skills = in.User.Skills
	}
	if len(skills) == 0 {
		return "핵심 기술"
	}
	return strings.Join(skills[:min(3, len(skills))], ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func userRole(u *types.UserProfile) string {
	if u == nil {
		return ""
	}
	return u.Role
}

func jobTitle(j *types.JobPosting) string {
	if j == nil {
		return ""
	}
	return j.Title
}

func jobCompany(j *types.JobPosting) string {
	if j == nil {
		return ""
	}
	return j.Company
}

func companyName(c *types.Company) string {
	if c == nil {
		return ""
	}
	return c.Name
}
