// Package interview generates interview question sets for an ingested job
// posting. Generators are tried in order until one succeeds; the built-in
// template never fails.
package interview

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/types"
)

// Question set limits.
const (
	DefaultQuestionCount = 8
	MaxQuestionCount     = 15
	DefaultDifficulty    = "mixed"
)

// Question categories.
const (
	CategoryTech            = "tech"
	CategoryBehavioral      = "behavioral"
	CategoryCompanySpecific = "company_specific"
)

// ErrNoQuestions is returned by a generator that produced nothing usable.
var ErrNoQuestions = errors.New("no interview questions generated")

// Input is what a question set is generated from. Company may be nil.
type Input struct {
	SessionID     string
	User          *types.UserProfile
	Job           *types.JobPosting
	Company       *types.Company
	QuestionCount int
	Difficulty    string
}

// ValidDifficulty reports whether d is a known difficulty. Empty means the default.
func ValidDifficulty(d string) bool {
	switch d {
	case "", "easy", "medium", "hard", DefaultDifficulty:
		return true
	default:
		return false
	}
}

// Normalize applies the default count and difficulty and caps the count.
func (in *Input) Normalize() {
	if in.QuestionCount <= 0 {
		in.QuestionCount = DefaultQuestionCount
	}
	in.QuestionCount = min(in.QuestionCount, MaxQuestionCount)
	if in.Difficulty == "" {
		in.Difficulty = DefaultDifficulty
	}
}

// Generator produces one question set.
type Generator interface {
	Name() string
	Generate(ctx context.Context, in *Input) (*types.Interview, error)
}

// Chain tries generators in order.
type Chain struct {
	generators []Generator
	logger     *zap.Logger
}

// NewChain creates a Chain. Nil generators are skipped, and the template
// generator is always appended last.
func NewChain(logger *zap.Logger, generators ...Generator) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Chain{logger: logger}
	for _, g := range generators {
		if g != nil {
			c.generators = append(c.generators, g)
		}
	}
	c.generators = append(c.generators, Template{})
	return c
}

// Generate returns the first successful question set, tagged with the name of
// the generator that produced it.
func (c *Chain) Generate(ctx context.Context, in *Input) (*types.Interview, error) {
	in.Normalize()

	var lastErr error
	for _, g := range c.generators {
		iv, err := g.Generate(ctx, in)
		if err == nil && iv != nil && len(iv.Questions) > 0 {
			if len(iv.Questions) > in.QuestionCount {
				iv.Questions = iv.Questions[:in.QuestionCount]
			}
			iv.Source = g.Name()
			return iv, nil
		}
		if err == nil {
			err = ErrNoQuestions
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		c.logger.Warn("interview generator failed",
			zap.String("generator", g.Name()),
			zap.String("session_id", in.SessionID),
			zap.Error(err))
	}
	return nil, lastErr
}
