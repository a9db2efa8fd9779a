package types

// FeedbackType is an explicit user feedback event kind.
type FeedbackType string

// Feedback kinds
const (
	FeedbackSave FeedbackType = "save"
	FeedbackLike FeedbackType = "like"
	FeedbackHide FeedbackType = "hide"
)

// Valid reports whether t is a known feedback kind.
func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackSave, FeedbackLike, FeedbackHide:
		return true
	default:
		return false
	}
}

// FeedbackTarget names what the feedback is about. Either field may be empty.
type FeedbackTarget struct {
	Skill   string `json:"skill,omitempty"`
	Company string `json:"company,omitempty"`
}

// FeedbackRequest accepts both the flat body ({skill, company}) and the
// nested one ({target: {skill, company}}).
type FeedbackRequest struct {
	SessionID string          `json:"sessionId"`
	Type      FeedbackType    `json:"type"`
	Target    *FeedbackTarget `json:"target,omitempty"`
	Skill     string          `json:"skill,omitempty"`
	Company   string          `json:"company,omitempty"`
}

// ResolvedTarget returns the nested target, or one built from the flat fields.
// A flat body always yields a target, which matches how the backend forwarded it.
func (r *FeedbackRequest) ResolvedTarget() *FeedbackTarget {
	if r.Target != nil {
		return r.Target
	}
	return &FeedbackTarget{Skill: r.Skill, Company: r.Company}
}

// Boosts is a snapshot of one session's personalization profile.
type Boosts struct {
	Skills    map[string]float64 `json:"skills"`
	Companies map[string]float64 `json:"companies"`
}
