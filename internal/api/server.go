// Package api exposes the analysis pipeline over HTTP for the web UI,
// CI integrations, and the GitHub App, all of which consume the same
// analyze contract.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/codeguardian/guardian/internal/ai"
	"github.com/codeguardian/guardian/internal/analyzer"
	"github.com/codeguardian/guardian/internal/models"
	"github.com/codeguardian/guardian/pkg/logger"
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, input analyzer.Input) (*models.AnalysisResult, error)
}

// Records is the read/manage surface the API needs beyond analysis.
type Records interface {
	ListScans(ctx context.Context, accountID string, limit int) ([]models.ScanRecord, error)
	GetScan(ctx context.Context, id string) (*models.ScanRecord, error)
	DeleteScan(ctx context.Context, accountID, id string) error
	CreateBaseline(ctx context.Context, accountID, name string, fingerprints []string) (*models.Baseline, error)
}

// Server is the HTTP API server.
type Server struct {
	analyzer Analyzer
	records  Records
	logger   logger.Logger
	router   chi.Router
}

// NewServer builds the API router. records may be nil for a
// stateless, analyze-only deployment.
func NewServer(a Analyzer, records Records, log logger.Logger) *Server {
	s := &Server{
		analyzer: a,
		records:  records,
		logger:   log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		if s.records != nil {
			r.Get("/scans", s.handleListScans)
			r.Get("/scans/{id}", s.handleGetScan)
			r.Delete("/scans/{id}", s.handleDeleteScan)
			r.Post("/baselines", s.handleCreateBaseline)
		}
	})
	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// analyzeRequest is the wire shape of an analysis request.
type analyzeRequest struct {
	Code             string `json:"code"`
	Language         string `json:"language"`
	AccountID        string `json:"account_id,omitempty"`
	ExplanationLevel string `json:"explanation_level,omitempty"`
	FilePath         string `json:"file_path,omitempty"`
	SaveToHistory    bool   `json:"save_to_history,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid json"})
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analyzer.Input{
		Code:      req.Code,
		Language:  req.Language,
		AccountID: req.AccountID,
		Level:     req.ExplanationLevel,
		FilePath:  req.FilePath,
		Persist:   req.SaveToHistory,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// renderError maps tagged core errors onto HTTP statuses so callers
// can distinguish retryable failures.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
	case ai.IsRateLimited(err):
		status = http.StatusTooManyRequests
	case ai.IsQuotaExhausted(err):
		status = http.StatusPaymentRequired
	case ai.IsUnavailable(err):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("analysis request failed", "error", err)
	} else {
		s.logger.Warn("analysis request rejected", "status", status, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "account_id is required"})
		return
	}

	records, err := s.records.ListScans(r.Context(), accountID, 20)
	if err != nil {
		s.logger.Error("listing scans failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "listing scans failed"})
		return
	}
	render.JSON(w, r, records)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	record, err := s.records.GetScan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "scan not found"})
			return
		}
		s.logger.Error("fetching scan failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "fetching scan failed"})
		return
	}
	render.JSON(w, r, record)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "account_id is required"})
		return
	}

	if err := s.records.DeleteScan(r.Context(), accountID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "scan not found"})
			return
		}
		s.logger.Error("deleting scan failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "deleting scan failed"})
		return
	}
	render.NoContent(w, r)
}

// baselineRequest snapshots a historical scan's fingerprints as the
// account's active baseline.
type baselineRequest struct {
	AccountID  string `json:"account_id"`
	Name       string `json:"name"`
	FromScanID string `json:"from_scan_id"`
}

func (s *Server) handleCreateBaseline(w http.ResponseWriter, r *http.Request) {
	var req baselineRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid json"})
		return
	}
	if req.AccountID == "" || req.Name == "" || req.FromScanID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "account_id, name, and from_scan_id are required"})
		return
	}

	scan, err := s.records.GetScan(r.Context(), req.FromScanID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "scan not found"})
			return
		}
		s.logger.Error("fetching scan for baseline failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "fetching scan failed"})
		return
	}
	if scan.AccountID != req.AccountID {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "scan not found"})
		return
	}

	baseline, err := s.records.CreateBaseline(r.Context(), req.AccountID, req.Name, scan.Fingerprints)
	if err != nil {
		s.logger.Error("creating baseline failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "creating baseline failed"})
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, baseline)
}
