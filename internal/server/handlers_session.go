package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/fetch"
	"github.com/jonathan/job-recommender/internal/ingestion"
	"github.com/jonathan/job-recommender/internal/server/middleware"
	"github.com/jonathan/job-recommender/internal/types"
)

// multipartMemory is kept in memory while parsing uploads; the rest spills to disk.
const multipartMemory = 32 << 20

// IngestURLRequest is the body of POST /session/ingest/url.
type IngestURLRequest struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// IngestedDocument describes one document added by a file upload.
type IngestedDocument struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Company   string `json:"company,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

// SkippedFile is an upload that produced nothing.
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// SessionCounts is the size of a session after ingestion.
type SessionCounts struct {
	Jobs      int `json:"jobs"`
	Companies int `json:"companies"`
}

func (s *Server) handleSessionStart(w http.ResponseWriter, _ *http.Request) {
	id := s.sessions.Create()
	s.metrics.SetActiveSessions(s.sessions.Len())
	s.jsonResponse(w, http.StatusOK, map[string]string{"sessionId": id})
}

// handleProfile stores the session's profile. It accepts JSON or a multipart
// form whose optional "resume" file is normalized into resume hints.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	req, resume, err := s.readProfileRequest(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	if _, err := s.sessions.Get(req.SessionID); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, err)
		return
	}

	profile := req.Profile()
	profile.ResumeHints = s.resumeHints(r, req.ResumeText, resume)

	if err := s.sessions.SetUserProfile(req.SessionID, profile); err != nil {
		s.errorResponse(w, err)
		return
	}

	if p, ok := middleware.GetPrincipal(r); ok {
		if err := s.userService.SaveProfile(r.Context(), p.GetUserID(), profile); err != nil {
			s.logger.Warn("failed to persist profile",
				zap.String("user_id", p.GetUserID().String()),
				zap.Error(err))
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "user": profile})
}

type uploadedFile struct {
	name    string
	content []byte
}

func (s *Server) readProfileRequest(w http.ResponseWriter, r *http.Request) (*types.ProfileRequest, *uploadedFile, error) {
	var req types.ProfileRequest
	if !isMultipart(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Ingest.MaxFileBytes+maxJSONBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid form: %v", types.ErrBadInput, err)
	}

	req.SessionID = r.FormValue("sessionId")
	req.Region = r.FormValue("region")
	req.Role = r.FormValue("role")
	req.ResumeText = r.FormValue("resumeText")
	for _, v := range r.MultipartForm.Value["skills"] {
		for _, skill := range strings.Split(v, ",") {
			if skill = strings.TrimSpace(skill); skill != "" {
				req.Skills = append(req.Skills, skill)
			}
		}
	}
	if raw := strings.TrimSpace(r.FormValue("years")); raw != "" {
		years, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: years must be a number", types.ErrBadInput)
		}
		req.Years = &years
	}

	headers := r.MultipartForm.File["resume"]
	if len(headers) == 0 {
		return &req, nil, nil
	}
	file, err := readUpload(headers[0])
	if err != nil {
		return nil, nil, err
	}
	return &req, file, nil
}

// resumeHints normalizes the uploaded resume, or the pasted text when there
// is no upload. Normalization failures leave the profile without hints.
func (s *Server) resumeHints(r *http.Request, text string, resume *uploadedFile) *types.ResumeHints {
	var (
		job *ingestion.NormalizedJob
		err error
	)
	switch {
	case resume != nil:
		job, err = s.normalizer.NormalizeFile(r.Context(), resume.name, resume.content)
	case strings.TrimSpace(text) != "":
		job, err = s.normalizer.NormalizeText(r.Context(), text)
	default:
		return nil
	}
	if err != nil || job == nil {
		s.logger.Warn("resume normalization failed", zap.Error(err))
		return nil
	}
	return ingestion.ResumeHints(job)
}

func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	var req IngestURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if _, err := s.sessions.Get(req.SessionID); err != nil {
		s.errorResponse(w, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.errorResponse(w, errNoURL)
		return
	}
	if err := fetch.ValidateURL(req.URL); err != nil {
		s.errorResponse(w, fmt.Errorf("%w: %v", types.ErrBadInput, err))
		return
	}

	job, err := s.normalizer.NormalizeURL(r.Context(), req.URL)
	if err != nil {
		s.failWith(w, err, "INGEST_URL_FAILED")
		return
	}

	posting := ingestion.ToJobPosting(job, types.SourceURL, req.URL, s.now())
	if err := s.sessions.AppendJob(req.SessionID, posting); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.metrics.RecordIngest(string(types.SourceURL), "job")

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"ok":      true,
		"job_id":  posting.JobID,
		"title":   posting.Title,
		"company": posting.Company,
	})
}

// handleIngestFiles normalizes up to ingest.max_files uploads. Company
// documents become session companies; everything else becomes a job.
func (s *Server) handleIngestFiles(w http.ResponseWriter, r *http.Request) {
	maxFiles := s.config.Ingest.MaxFiles
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*s.config.Ingest.MaxFileBytes+maxJSONBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.errorResponse(w, fmt.Errorf("%w: invalid form: %v", types.ErrBadInput, err))
		return
	}

	sessionID := r.FormValue("sessionId")
	if _, err := s.sessions.Get(sessionID); err != nil {
		s.errorResponse(w, err)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.errorResponse(w, errNoFiles)
		return
	}
	if len(headers) > maxFiles {
		s.errorResponse(w, fmt.Errorf("%w: at most %d files per upload", types.ErrBadInput, maxFiles))
		return
	}

	added := []IngestedDocument{}
	var skipped []SkippedFile
	for _, h := range headers {
		if h.Size > s.config.Ingest.MaxFileBytes {
			skipped = append(skipped, SkippedFile{File: h.Filename, Reason: "too large"})
			continue
		}
		file, err := readUpload(h)
		if err != nil {
			s.errorResponse(w, err)
			return
		}

		job, err := s.normalizer.NormalizeFile(r.Context(), file.name, file.content)
		if errors.Is(err, ingestion.ErrUnsupportedType) || errors.Is(err, ingestion.ErrEmptyInput) {
			skipped = append(skipped, SkippedFile{File: file.name, Reason: err.Error()})
			continue
		}
		if err != nil {
			s.failWith(w, err, "INGEST_FAILED")
			return
		}

		doc, err := s.addDocument(sessionID, job)
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		added = append(added, doc)
	}

	jobs, companies, err := s.sessions.Counts(sessionID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	resp := map[string]any{
		"ok":     true,
		"added":  added,
		"counts": SessionCounts{Jobs: jobs, Companies: companies},
	}
	if len(skipped) > 0 {
		resp["skipped"] = skipped
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) addDocument(sessionID string, job *ingestion.NormalizedJob) (IngestedDocument, error) {
	if ingestion.IsCompanyDocument(job) {
		company := ingestion.ToCompany(job)
		if err := s.sessions.AppendCompany(sessionID, company); err != nil {
			return IngestedDocument{}, err
		}
		s.metrics.RecordIngest(string(types.SourceFile), "company")
		return IngestedDocument{Type: "company", CompanyID: company.CompanyID, Name: company.Name}, nil
	}

	posting := ingestion.ToJobPosting(job, types.SourceFile, "", s.now())
	if err := s.sessions.AppendJob(sessionID, posting); err != nil {
		return IngestedDocument{}, err
	}
	s.metrics.RecordIngest(string(types.SourceFile), "job")
	return IngestedDocument{Type: "job", JobID: posting.JobID, Title: posting.Title, Company: posting.Company}, nil
}

func readUpload(h *multipart.FileHeader) (*uploadedFile, error) {
	f, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", h.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", h.Filename, err)
	}
	return &uploadedFile{name: h.Filename, content: content}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
