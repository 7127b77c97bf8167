package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/common/logger"
	"riskeval/internal/models"
	"riskeval/internal/storage"
)

// Evaluator runs a full evaluation. Implemented by pipeline.Coordinator;
// kept as an interface so handler tests can substitute a stub.
type Evaluator interface {
	Evaluate(ctx context.Context, companyName, sector, documentText string) (*models.EvaluationRecord, error)
}

// EvaluationStore is the persistence surface the handlers need.
type EvaluationStore interface {
	Save(ctx context.Context, record *models.EvaluationRecord) error
	Get(ctx context.Context, sessionID string) (*models.EvaluationRecord, error)
	List(ctx context.Context, limit, offset int) ([]storage.EvaluationSummary, error)
	Delete(ctx context.Context, sessionID string) error
}

// Renderer produces the analyst-facing Markdown view of a record.
type Renderer interface {
	Render(record *models.EvaluationRecord) string
}

// Notifier announces finished evaluations. May be nil when disabled.
type Notifier interface {
	EvaluationCompleted(ctx context.Context, record *models.EvaluationRecord) error
}

// Server is the HTTP surface of the evaluation service.
type Server struct {
	evaluator Evaluator
	store     EvaluationStore
	renderer  Renderer
	notifier  Notifier
	logger    logger.Logger
}

func NewServer(evaluator Evaluator, store EvaluationStore, renderer Renderer, notifier Notifier, log logger.Logger) *Server {
	return &Server{
		evaluator: evaluator,
		store:     store,
		renderer:  renderer,
		notifier:  notifier,
		logger: log.With(map[string]interface{}{
			"component": "http-api",
		}),
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1/evaluations", func(r chi.Router) {
		r.Post("/", s.handleCreateEvaluation)
		r.Get("/", s.handleListEvaluations)
		r.Get("/{sessionID}", s.handleGetEvaluation)
		r.Get("/{sessionID}/report", s.handleGetReport)
		r.Delete("/{sessionID}", s.handleDeleteEvaluation)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeError maps the standard error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := stderrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case stderrors.ErrCodeRecordNotFound:
		status = http.StatusNotFound
	case stderrors.ErrCodeUnreadableDocument, stderrors.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	}

	resp := errorResponse{
		Code:    string(code),
		Message: err.Error(),
	}
	if stdErr, ok := err.(*stderrors.StandardError); ok {
		resp.Message = stdErr.Message
		resp.Details = stdErr.Details
	}
	s.writeJSON(w, status, resp)
}
