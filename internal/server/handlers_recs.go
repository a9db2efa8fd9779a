package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/export"
	"github.com/jonathan/job-recommender/internal/recs"
	"github.com/jonathan/job-recommender/internal/types"
)

// recommend runs the ranking for the request's session. Unparseable top
// values fall back to the default list size.
func (s *Server) recommend(r *http.Request) (string, *types.UserProfile, *recs.Result, error) {
	sessionID := r.URL.Query().Get("sessionId")
	top, _ := strconv.Atoi(r.URL.Query().Get("top"))

	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", nil, nil, err
	}
	result, err := s.recs.Recommend(r.Context(), sessionID, st.User, st.Jobs, top)
	if err != nil {
		return "", nil, nil, err
	}
	return sessionID, st.User, result, nil
}

func (s *Server) handleRecs(w http.ResponseWriter, r *http.Request) {
	_, _, result, err := s.recommend(r)
	if err != nil {
		s.failWith(w, err, "RECS_FAILED")
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleRecsExport returns the same list as handleRecs as an XLSX workbook.
func (s *Server) handleRecsExport(w http.ResponseWriter, r *http.Request) {
	sessionID, user, result, err := s.recommend(r)
	if err != nil {
		s.failWith(w, err, "RECS_FAILED")
		return
	}

	now := s.now()
	var buf bytes.Buffer
	err = export.Recommendations(&buf, result.Items, export.Meta{
		SessionID:   sessionID,
		Source:      result.Source,
		GeneratedAt: now,
		User:        user,
	})
	if err != nil {
		s.failWith(w, err, "EXPORT_FAILED")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(sessionID, now)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to write export", zap.Error(err))
	}
}

// handleFeedback applies feedback locally and, when an external
// recommendation service is configured, mirrors it there.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req types.FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if _, err := s.sessions.Get(req.SessionID); err != nil {
		s.errorResponse(w, err)
		return
	}

	target := req.ResolvedTarget()
	boosts, err := s.feedback.Apply(req.SessionID, req.Type, target)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.metrics.RecordFeedback(string(req.Type))

	if s.forwarder != nil {
		if err := s.forwarder.Feedback(r.Context(), req.SessionID, req.Type, target); err != nil {
			s.logger.Warn("failed to forward feedback",
				zap.String("session_id", req.SessionID),
				zap.Error(err))
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "boosts": boosts})
}
