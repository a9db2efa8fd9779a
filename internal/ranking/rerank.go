package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/job-recommender/internal/types"
)

// ErrNoCandidates is returned when there is nothing to rank.
var ErrNoCandidates = errors.New("no candidates")

// DefaultTopK is the list size callers use when the client does not ask for one.
const DefaultTopK = 20

// reasonSeparator joins the parts of a ranking reason.
const reasonSeparator = " · "

// maxReasonSkills is how many skills a reason previews.
const maxReasonSkills = 3

// BoostSource provides the personalization boosts of a session.
// The feedback store satisfies it.
type BoostSource interface {
	Boosts(sessionID string) (types.Boosts, bool)
}

// Rerank applies session boosts to scored candidates and returns the topK best.
// Sessions without feedback get zero boosts. Ties keep input order. A topK of
// zero or less yields an empty list.
func Rerank(candidates []types.CandidateScore, sessionID string, topK int, source BoostSource) ([]types.RankedCandidate, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	var boosts types.Boosts
	if source != nil && sessionID != "" {
		boosts, _ = source.Boosts(sessionID)
	}

	ranked := make([]types.RankedCandidate, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		b := boostFor(c, boosts)
		ranked = append(ranked, types.RankedCandidate{
			JobID:      c.JobID,
			FinalScore: Round4(c.ScoreV1 + b),
			Reason:     reasonFor(c, b),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	return ranked[:min(max(topK, 0), len(ranked))], nil
}

// boostFor adds the company boost to the single strongest skill boost.
// Skill boosts do not stack.
func boostFor(c *types.CandidateScore, boosts types.Boosts) float64 {
	b := 0.0
	if c.CompanyID != "" {
		b += boosts.Companies[c.CompanyID]
	}

	best := 0.0
	for _, s := range c.Skills {
		if v := boosts.Skills[strings.ToLower(s)]; v > best {
			best = v
		}
	}
	return b + best
}

// reasonFor builds the human-readable explanation shown next to a recommendation.
func reasonFor(c *types.CandidateScore, boost float64) string {
	var parts []string
	if boost > 0 {
		parts = append(parts, fmt.Sprintf("개인화 보정 +%.2f", boost))
	}
	if len(c.Skills) > 0 {
		preview := c.Skills[:min(maxReasonSkills, len(c.Skills))]
		parts = append(parts, "스킬: "+strings.Join(preview, ", "))
	}
	if c.Region != "" {
		parts = append(parts, "지역: "+c.Region)
	}
	return strings.Join(parts, reasonSeparator)
}

// Merge attaches ranked scores to the candidates they came from. When job ids
// repeat, the first candidate with that id supplies the details.
func Merge(candidates []types.CandidateScore, ranked []types.RankedCandidate) []types.Recommendation {
	byID := make(map[string]*types.CandidateScore, len(candidates))
	for i := range candidates {
		if _, seen := byID[candidates[i].JobID]; !seen {
			byID[candidates[i].JobID] = &candidates[i]
		}
	}

	items := make([]types.Recommendation, 0, len(ranked))
	for _, r := range ranked {
		item := types.Recommendation{FinalScore: r.FinalScore, Reason: r.Reason}
		if base, ok := byID[r.JobID]; ok {
			item.CandidateScore = *base
		} else {
			item.JobID = r.JobID
		}
		items = append(items, item)
	}
	return items
}
