package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/job-recommender/internal/interview"
	"github.com/jonathan/job-recommender/internal/recs"
	"github.com/jonathan/job-recommender/internal/types"
)

// JobInfo identifies the posting an interview was generated for.
type JobInfo struct {
	JobID   string   `json:"job_id"`
	Title   string   `json:"title"`
	Company string   `json:"company,omitempty"`
	Skills  []string `json:"skills"`
}

// InterviewResponse is the body of GET /session/interview.
type InterviewResponse struct {
	Success           bool                      `json:"success"`
	JobInfo           JobInfo                   `json:"job_info"`
	Questions         []types.InterviewQuestion `json:"questions"`
	InterviewStrategy any                       `json:"interview_strategy"`
	JobMatchAnalysis  any                       `json:"job_match_analysis"`
	GeneratedAt       time.Time                 `json:"generated_at"`
	GenerationMethod  string                    `json:"generation_method"`
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("sessionId")
	jobID := q.Get("jobId")
	difficulty := q.Get("difficulty")
	count, _ := strconv.Atoi(q.Get("questionCount"))

	st, err := s.sessions.Get(sessionID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if st.User == nil {
		s.errorResponse(w, recs.ErrNoUserProfile)
		return
	}
	if !interview.ValidDifficulty(difficulty) {
		s.errorResponse(w, fmt.Errorf("%w: unknown difficulty %q", types.ErrBadInput, difficulty))
		return
	}

	job, ok := st.FindJob(jobID)
	if !ok {
		s.errorResponse(w, errJobNotFound)
		return
	}
	company, _ := st.FindCompany(job.CompanyID)

	iv, err := s.interviews.Generate(r.Context(), &interview.Input{
		SessionID:     sessionID,
		User:          st.User,
		Job:           job,
		Company:       company,
		QuestionCount: count,
		Difficulty:    difficulty,
	})
	if err != nil {
		s.failWith(w, err, "INTERVIEW_FAILED")
		return
	}

	s.jsonResponse(w, http.StatusOK, InterviewResponse{
		Success: true,
		JobInfo: JobInfo{
			JobID:   job.JobID,
			Title:   job.Title,
			Company: job.Company,
			Skills:  job.Skills,
		},
		Questions:         iv.Questions,
		InterviewStrategy: iv.Strategy,
		JobMatchAnalysis:  iv.JobMatchAnalysis,
		GeneratedAt:       s.now().UTC(),
		GenerationMethod:  iv.Source,
	})
}
