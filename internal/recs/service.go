package recs

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/ranking"
	"github.com/jonathan/job-recommender/internal/types"
)

// ErrNoUserProfile is returned when a session has no profile to rank for.
var ErrNoUserProfile = errors.New("no user profile")

// Ranking sources reported with each list.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// DefaultMaxTop caps list sizes when Options.MaxTop is unset.
const DefaultMaxTop = 50

// Reranker personalizes candidates remotely. *Client satisfies it.
type Reranker interface {
	Rerank(ctx context.Context, sessionID string, user *types.UserProfile, candidates []types.CandidateScore, topK int) ([]types.RankedCandidate, error)
}

// Options configures a Service.
type Options struct {
	// Remote, when set, ranks first; local ranking is the fallback.
	Remote         Reranker
	Boosts         ranking.BoostSource
	CandidateLimit int
	DefaultTop     int
	MaxTop         int
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// Service builds recommendation lists.
type Service struct {
	remote         Reranker
	boosts         ranking.BoostSource
	candidateLimit int
	defaultTop     int
	maxTop         int
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = ranking.DefaultCandidateLimit
	}
	if opts.DefaultTop <= 0 {
		opts.DefaultTop = ranking.DefaultTopK
	}
	if opts.MaxTop <= 0 {
		opts.MaxTop = DefaultMaxTop
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		remote:         opts.Remote,
		boosts:         opts.Boosts,
		candidateLimit: opts.CandidateLimit,
		defaultTop:     opts.DefaultTop,
		maxTop:         opts.MaxTop,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
}

// Result is a recommendation list and the ranker that produced it.
type Result struct {
	Items  []types.Recommendation `json:"items"`
	Source string                 `json:"source,omitempty"`
}

// TopK clamps a requested list size: non-positive sizes use the default and
// large ones are capped.
func (s *Service) TopK(top int) int {
	if top <= 0 {
		top = s.defaultTop
	}
	return min(top, s.maxTop)
}

// Recommend scores every job for user, keeps the best candidates and ranks
// them with the session's boosts.
func (s *Service) Recommend(ctx context.Context, sessionID string, user *types.UserProfile, jobs []types.JobPosting, top int) (*Result, error) {
	if user == nil {
		return nil, ErrNoUserProfile
	}
	if len(jobs) == 0 {
		return &Result{Items: []types.Recommendation{}}, nil
	}

	candidates := ranking.ScoreJobs(user, jobs, s.candidateLimit)
	topK := s.TopK(top)

	if s.remote != nil {
		ranked, err := s.remote.Rerank(ctx, sessionID, user, candidates, topK)
		if err == nil {
			ranked = ranked[:min(topK, len(ranked))]
			s.metrics.RecordRecommendation(SourceRemote)
			return &Result{Items: ranking.Merge(candidates, ranked), Source: SourceRemote}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("remote ranking failed, ranking locally",
			zap.String("session_id", sessionID),
			zap.Int("candidates", len(candidates)),
			zap.Error(err))
	}

	ranked, err := ranking.Rerank(candidates, sessionID, topK, s.boosts)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecommendation(SourceLocal)
	return &Result{Items: ranking.Merge(candidates, ranked), Source: SourceLocal}, nil
}
