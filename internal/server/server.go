// Package server provides the HTTP REST API for the resume builder.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/chat"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/editor"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/types"
	"golang.org/x/sync/errgroup"
)

const logModule = "HTTP"

const shutdownTimeout = 30 * time.Second

// Store is the persistence the API needs
type Store interface {
	editor.Store
	GetResume(ctx context.Context, id string) (*db.Resume, error)
	InsertResume(ctx context.Context, input *db.ResumeCreateInput) (*db.Resume, error)
	UpdateAnalysis(ctx context.Context, id string, analysis json.RawMessage) error
	ListJobs(ctx context.Context, search string) ([]db.Job, error)
	GetJob(ctx context.Context, id string) (*db.Job, error)
	CreateJob(ctx context.Context, input *db.JobCreateInput) (*db.Job, error)
	LinkJob(ctx context.Context, resumeID, jobID string) error
	UnlinkJob(ctx context.Context, resumeID, jobID string) error
	ListLinkedJobs(ctx context.Context, resumeID string) ([]db.Job, error)
}

// Structurer turns extracted text into a resume document
type Structurer interface {
	Structure(ctx context.Context, text string) (*types.ResumeDocument, error)
}

// Analyzer scores a resume against its target jobs
type Analyzer interface {
	Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResult, json.RawMessage, error)
}

// Config holds server configuration
type Config struct {
	Port      int
	Registry  editor.RegistryOptions
	RateLimit *ratelimit.Config
}

// Deps are the collaborators the handlers call
type Deps struct {
	Store      Store
	Completer  chat.Completer
	Structurer Structurer
	Analyzer   Analyzer
	// Jobs fetches job postings by URL; nil disables URL imports
	Jobs   fetch.JobSource
	Logger observability.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	registry    *editor.Registry
	structurer  Structurer
	analyzer    Analyzer
	jobs        fetch.JobSource
	rateLimiter *ratelimit.Limiter
	logger      observability.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NewNop()
	}

	s := &Server{
		store:       deps.Store,
		registry:    editor.NewRegistry(deps.Store, deps.Completer, cfg.Registry, logger),
		structurer:  deps.Structurer,
		analyzer:    deps.Analyzer,
		jobs:        deps.Jobs,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Resumes
	mux.HandleFunc("POST /resumes", s.handleCreateResume)
	mux.HandleFunc("POST /resumes/import", s.handleImportResume)
	mux.HandleFunc("GET /resumes/{id}", s.handleGetResume)
	mux.HandleFunc("PUT /resumes/{id}/sections/{section}", s.handleApplySection)
	mux.HandleFunc("PATCH /resumes/{id}/fields", s.handleSetField)
	mux.HandleFunc("GET /resumes/{id}/events", s.handleEvents)

	// Work experience entries
	mux.HandleFunc("POST /resumes/{id}/work-experience", s.handleAddEntry)
	mux.HandleFunc("PUT /resumes/{id}/work-experience/order", s.handleReorderEntries)
	mux.HandleFunc("POST /resumes/{id}/work-experience/{entry_id}/confirm", s.handleConfirmEntry)
	mux.HandleFunc("POST /resumes/{id}/work-experience/{entry_id}/reject", s.handleRejectEntry)
	mux.HandleFunc("DELETE /resumes/{id}/work-experience/{entry_id}", s.handleRemoveEntry)

	// Responsibilities
	mux.HandleFunc("POST /resumes/{id}/work-experience/{entry_id}/responsibilities", s.handleAddResponsibility)
	mux.HandleFunc("POST /resumes/{id}/work-experience/{entry_id}/responsibilities/keep-all", s.handleKeepAll)
	mux.HandleFunc("POST /resumes/{id}/work-experience/{entry_id}/responsibilities/discard-all", s.handleDiscardAll)
	mux.HandleFunc("PUT /resumes/{id}/work-experience/{entry_id}/responsibilities/{index}", s.handleEditResponsibility)
	mux.HandleFunc("POST /resumes/{id}/work-experience/{entry_id}/responsibilities/{index}/{action}", s.handleResponsibilityAction)
	mux.HandleFunc("DELETE /resumes/{id}/work-experience/{entry_id}/responsibilities/{index}", s.handleRemoveResponsibility)

	// Chat
	mux.HandleFunc("GET /resumes/{id}/chat", s.handleGetChat)
	mux.HandleFunc("POST /resumes/{id}/chat", s.handleSendChat)
	mux.HandleFunc("DELETE /resumes/{id}/chat", s.handleClearChat)
	mux.HandleFunc("PUT /resumes/{id}/chat/instruction", s.handleSetInstruction)
	mux.HandleFunc("DELETE /resumes/{id}/chat/instruction", s.handleCloseInstruction)

	// Analysis
	mux.HandleFunc("POST /resumes/{id}/analysis", s.handleRunAnalysis)
	mux.HandleFunc("GET /resumes/{id}/analysis", s.handleGetAnalysis)

	// Jobs
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("POST /jobs", s.handleCreateJob)
	mux.HandleFunc("GET /jobs/{job_id}", s.handleGetJob)
	mux.HandleFunc("GET /resumes/{id}/jobs", s.handleListLinkedJobs)
	mux.HandleFunc("PUT /resumes/{id}/jobs/{job_id}", s.handleLinkJob)
	mux.HandleFunc("DELETE /resumes/{id}/jobs/{job_id}", s.handleUnlinkJob)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout: 30 * time.Second,
		// no write timeout: event streams stay open
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the open workspaces
func (s *Server) Registry() *editor.Registry {
	return s.registry
}

// Run serves until ctx is done, then shuts down and saves every open workspace
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info(logModule, "server starting", map[string]any{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info(logModule, "shutting down server", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.registry.Close()
	s.logger.Info(logModule, "server stopped", nil)
	return err
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their limit with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(logModule, "request completed", map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start).String(),
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(logModule, "failed to encode response", map[string]any{"error": err})
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to its status; server-side failures are logged
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(logModule, "request failed", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": status,
			"error":  err,
		})
	}
	s.errorResponse(w, status, err.Error())
}

// decodeBody decodes a JSON request body into v
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// decodeJSON decodes a JSON document held in memory into v
func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// extractClientID uses the IP address from RemoteAddr
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate-limit", "rate limit exceeded", map[string]any{
		"limit":    info.Limit,
		"reset_at": info.ResetTime.Format(time.RFC3339),
	})
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
