// Package server provides the HTTP API of the job recommender.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/db"
	"github.com/jonathan/job-recommender/internal/feedback"
	"github.com/jonathan/job-recommender/internal/ingestion"
	"github.com/jonathan/job-recommender/internal/insights"
	"github.com/jonathan/job-recommender/internal/interview"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/recs"
	"github.com/jonathan/job-recommender/internal/server/middleware"
	"github.com/jonathan/job-recommender/internal/server/ratelimit"
	"github.com/jonathan/job-recommender/internal/session"
	"github.com/jonathan/job-recommender/internal/types"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// defaultAllowedOrigins are used when no origins are configured.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:5174",
}

// FeedbackForwarder mirrors feedback to the external recommendation service.
// *recs.Client satisfies it.
type FeedbackForwarder interface {
	Feedback(ctx context.Context, sessionID string, kind types.FeedbackType, target *types.FeedbackTarget) error
}

// Options holds the server's collaborators. Forwarder and Insights are
// optional; the rest are required.
type Options struct {
	Config     *config.Config
	Sessions   *session.Registry
	Feedback   *feedback.Store
	Recs       *recs.Service
	Forwarder  FeedbackForwarder
	Normalizer ingestion.Normalizer
	Interviews *interview.Chain
	Insights   *insights.Service
	Users      db.UserStore
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	config     *config.Config

	sessions   *session.Registry
	feedback   *feedback.Store
	recs       *recs.Service
	forwarder  FeedbackForwarder
	normalizer ingestion.Normalizer
	interviews *interview.Chain
	insights   *insights.Service

	rateLimiter    *ratelimit.Limiter
	jwtService     *JWTService
	userService    *UserService
	authHandler    *AuthHandler
	allowedOrigins []string

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Sessions == nil || opts.Feedback == nil || opts.Recs == nil ||
		opts.Normalizer == nil || opts.Interviews == nil || opts.Users == nil {
		return nil, errors.New("server: missing required dependency")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config

	s := &Server{
		config:     cfg,
		sessions:   opts.Sessions,
		feedback:   opts.Feedback,
		recs:       opts.Recs,
		forwarder:  opts.Forwarder,
		normalizer: opts.Normalizer,
		interviews: opts.Interviews,
		insights:   opts.Insights,
		logger:     logger,
		metrics:    opts.Metrics,
		now:        time.Now,
	}

	s.allowedOrigins = cfg.Auth.AllowedOrigins
	if len(s.allowedOrigins) == 0 {
		s.allowedOrigins = defaultAllowedOrigins
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.FromConfig(cfg.RateLimit))
	s.userService = NewUserService(opts.Users)

	// Without a secret, login is unavailable but everything else works.
	if jwtConfig, err := cfg.Auth.JWT(); err == nil {
		s.jwtService = NewJWTService(jwtConfig)
	} else {
		logger.Info("login disabled", zap.Error(err))
	}
	s.authHandler = NewAuthHandler(AuthOptions{
		Providers:      DefaultProviders(cfg.Auth),
		Users:          s.userService,
		JWT:            s.jwtService,
		AllowedOrigins: s.allowedOrigins,
		CookieSecure:   cfg.Auth.CookieSecure,
		Logger:         logger,
	})

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	if s.jwtService != nil {
		handler = middleware.Authenticate(s.jwtService, config.SessionCookieName)(handler)
	}
	s.handler = s.withCORS(s.withLogging(s.withRateLimit(handler)))

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /health", s.handleHealth)
	s.handle(mux, "GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Login
	s.handle(mux, "GET /auth/google", s.authHandler.Start("google"))
	s.handle(mux, "GET /auth/google/callback", s.authHandler.Callback("google"))
	s.handle(mux, "GET /auth/kakao", s.authHandler.Start("kakao"))
	s.handle(mux, "GET /auth/kakao/login-url", s.authHandler.LoginURL("kakao"))
	s.handle(mux, "GET /auth/kakao/callback", s.authHandler.Callback("kakao"))
	s.handle(mux, "GET /api/me", s.authHandler.Me)
	s.handle(mux, "POST /api/logout", s.authHandler.Logout)

	// Session, profile and ingestion
	s.handle(mux, "POST /session/start", s.handleSessionStart)
	s.handle(mux, "POST /api/profile", s.handleProfile)
	s.handle(mux, "POST /session/ingest/url", s.handleIngestURL)
	s.handle(mux, "POST /session/ingest/files", s.handleIngestFiles)

	// Recommendations and feedback
	s.handle(mux, "GET /session/recs", s.handleRecs)
	s.handle(mux, "GET /session/recs/export", s.handleRecsExport)
	s.handle(mux, "POST /session/feedback", s.handleFeedback)

	s.handle(mux, "GET /session/interview", s.handleInterview)

	// Company insights
	s.handle(mux, "POST /api/company-info", s.handleCompanyInfo)
	s.handle(mux, "POST /api/job-essays", s.handleJobEssays)
	s.handle(mux, "POST /api/job-tips", s.handleJobTips)
	s.handle(mux, "POST /api/comprehensive-job-info", s.handleComprehensiveJobInfo)

	s.handle(mux, "/", s.handleNotFound)
}

// handle registers h under pattern and records request metrics labeled by
// the pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveRequest(r.Method, pattern, rec.status, time.Since(start))
	}))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) close() {
	s.rateLimiter.Stop()
	s.sessions.Stop()
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// withCORS allows credentialed requests from the configured origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && slices.Contains(s.allowedOrigins, origin)

		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if !allowed {
				s.logger.Warn("cors origin rejected", zap.String("origin", origin))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, clientID, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "ts": s.now().UnixMilli()})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "Not Found", "path": r.URL.RequestURI()})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// errorResponse writes the mapped status and code for err.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.failWith(w, err, "INTERNAL")
}

// failWith writes the mapped status and code for err. Errors with no specific
// mapping are reported as 500 with fallbackCode.
func (s *Server) failWith(w http.ResponseWriter, err error, fallbackCode string) {
	status, code, ok := classify(err)
	if !ok {
		code = fallbackCode
	}
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", code), zap.Error(err))
		if !ok {
			message = "internal error"
		}
	}
	s.jsonResponse(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// codeResponse writes an error with an explicit status and code.
func (s *Server) codeResponse(w http.ResponseWriter, status int, code, message string) {
	s.jsonResponse(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: %v", types.ErrBadInput, err)
	}
	return nil
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr; forwarded headers are not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientID),
		zap.Int("limit", info.Limit),
		zap.Time("reset", info.ResetTime))

	s.codeResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Please try again later.")
}
