// Package ranking scores ingested job postings against a user profile and
// re-ranks them with personalization boosts.
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/jonathan/job-recommender/internal/types"
)

// Weights of the score_v1 components. They sum to 1.
const (
	skillWeight   = 0.4
	textFitWeight = 0.25
	yearsWeight   = 0.15
	regionWeight  = 0.1
)

// unfinishedSignalWeight is reserved for a fifth signal that has not been
// designed yet. It always multiplies zero.
const unfinishedSignalWeight = 0.1

// textFitPlaceholder stands in for a text-similarity signal.
const textFitPlaceholder = 0.7

// neutralFit is returned when a fit cannot be judged.
const neutralFit = 0.5

// DefaultCandidateLimit is how many scored candidates are handed to the re-ranker.
const DefaultCandidateLimit = 100

// SkillMatchScore returns the share of the user's skills that the job asks for,
// compared case-insensitively.
func SkillMatchScore(userSkills, jobSkills []string) float64 {
	if userSkills == nil || jobSkills == nil {
		return 0
	}

	jobSet := make(map[string]struct{}, len(jobSkills))
	for _, s := range jobSkills {
		jobSet[strings.ToLower(s)] = struct{}{}
	}

	matched := 0
	for _, s := range userSkills {
		if _, ok := jobSet[strings.ToLower(s)]; ok {
			matched++
		}
	}

	return float64(matched) / float64(max(1, len(userSkills)))
}

// YearsFit rates the user's experience against the posting's range, allowing
// one year of slack on either side at half credit.
func YearsFit(userYears, minYears, maxYears *float64) float64 {
	if userYears == nil || minYears == nil || maxYears == nil {
		return neutralFit
	}

	y, lo, hi := *userYears, *minYears, *maxYears
	if y < lo-1 || y > hi+1 {
		return 0
	}
	if y >= lo && y <= hi {
		return 1
	}
	return neutralFit
}

// RegionFit is 1 when the job region contains the user region verbatim.
func RegionFit(userRegion, jobRegion string) float64 {
	if userRegion == "" || jobRegion == "" {
		return neutralFit
	}
	if strings.Contains(jobRegion, userRegion) {
		return 1
	}
	return neutralFit
}

// ScoreV1 computes the unpersonalized match score of a job for a user.
func ScoreV1(user *types.UserProfile, job *types.JobPosting) float64 {
	var (
		userSkills []string
		userYears  *float64
		userRegion string
	)
	if user != nil {
		userSkills = nonNil(user.Skills)
		userYears = user.Years
		userRegion = user.Region
	}

	skill := SkillMatchScore(userSkills, nonNil(job.Skills))
	years := YearsFit(userYears, job.YearsMin, job.YearsMax)
	region := RegionFit(userRegion, job.Region)

	score := skillWeight*skill +
		textFitWeight*textFitPlaceholder +
		yearsWeight*years +
		regionWeight*region +
		unfinishedSignalWeight*0

	return Round4(score)
}

// ScoreJobs scores every job, orders them by score (stable), and keeps at most limit.
// A non-positive limit keeps everything.
func ScoreJobs(user *types.UserProfile, jobs []types.JobPosting, limit int) []types.CandidateScore {
	candidates := make([]types.CandidateScore, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		candidates = append(candidates, types.CandidateScore{
			JobID:       job.JobID,
			CompanyID:   job.CompanyID,
			Title:       job.Title,
			Skills:      nonNil(job.Skills),
			Region:      job.Region,
			YearsMin:    job.YearsMin,
			YearsMax:    job.YearsMax,
			Description: job.Description,
			ScoreV1:     ScoreV1(user, job),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ScoreV1 > candidates[j].ScoreV1
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Round4 rounds to four decimal places.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
