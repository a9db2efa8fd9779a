package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/job-recommender/internal/feedback"
	"github.com/jonathan/job-recommender/internal/fetch"
	"github.com/jonathan/job-recommender/internal/ingestion"
	"github.com/jonathan/job-recommender/internal/insights"
	"github.com/jonathan/job-recommender/internal/ranking"
	"github.com/jonathan/job-recommender/internal/recs"
	"github.com/jonathan/job-recommender/internal/session"
	"github.com/jonathan/job-recommender/internal/types"
	"github.com/jonathan/job-recommender/internal/upstream"
)

// Errors raised by handlers themselves.
var (
	errJobNotFound = errors.New("job not found")
	errNoFiles     = errors.New("no files uploaded")
	errNoURL       = errors.New("url is required")
)

// ErrUserNotFound indicates the signed-in user no longer exists.
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{session.ErrNoSession, http.StatusBadRequest, "NO_SESSION"},
	{recs.ErrNoUserProfile, http.StatusBadRequest, "NO_USER_PROFILE"},
	{ranking.ErrNoCandidates, http.StatusBadRequest, "NO_CANDIDATES"},
	{feedback.ErrMissingFields, http.StatusBadRequest, "MISSING_FIELDS"},
	{insights.ErrMissingCompanyName, http.StatusBadRequest, "MISSING_COMPANY_NAME"},
	{errNoFiles, http.StatusBadRequest, "NO_FILES"},
	{errNoURL, http.StatusBadRequest, "NO_URL"},
	{types.ErrBadInput, http.StatusBadRequest, "BAD_INPUT"},
	{ingestion.ErrEmptyInput, http.StatusUnprocessableEntity, "PARSE_FAIL"},
	{ingestion.ErrUnsupportedType, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE"},
	{errJobNotFound, http.StatusNotFound, "JOB_NOT_FOUND"},
	{upstream.ErrUnavailable, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
}

// classify maps an error to its status and code. ok is false for errors
// with no specific mapping.
func classify(err error) (status int, code string, ok bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, true
		}
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return http.StatusBadGateway, "FETCH_FAILED", true
	}
	var notFound *ErrUserNotFound
	if errors.As(err, &notFound) {
		return http.StatusUnauthorized, "USER_NOT_FOUND", true
	}

	return http.StatusInternalServerError, "INTERNAL", false
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _, _ := classify(err)
	return status
}

// ErrorCode returns the API error code for an error.
func ErrorCode(err error) string {
	_, code, _ := classify(err)
	return code
}
