package types

// CandidateScore is the unpersonalized score of one posting for one user.
type CandidateScore struct {
	JobID       string   `json:"job_id"`
	CompanyID   string   `json:"company_id"`
	Title       string   `json:"title"`
	Skills      []string `json:"skills"`
	Region      string   `json:"region,omitempty"`
	YearsMin    *float64 `json:"years_min"`
	YearsMax    *float64 `json:"years_max"`
	Description string   `json:"description"`
	ScoreV1     float64  `json:"score_v1"`
}

// RankedCandidate is a candidate after personalization. Its shape matches the
// ranked items returned by the external re-ranking service.
type RankedCandidate struct {
	JobID      string  `json:"job_id"`
	FinalScore float64 `json:"finalScore"`
	Reason     string  `json:"reason"`
}

// Recommendation is what clients receive: the candidate plus its final score.
type Recommendation struct {
	CandidateScore
	FinalScore float64 `json:"finalScore"`
	Reason     string  `json:"reason"`
}
