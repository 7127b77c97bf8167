package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/common/validation"
	"riskeval/internal/document"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// createEvaluationSchema validates the submission payload before any
// expensive work starts.
var createEvaluationSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"company_name": {
			Type:      "string",
			MinLength: validation.IntPtr(1),
			MaxLength: validation.IntPtr(200),
		},
		"sector": {
			Type:      "string",
			MinLength: validation.IntPtr(1),
			MaxLength: validation.IntPtr(100),
		},
		"document_text": {
			Type:      "string",
			MinLength: validation.IntPtr(1),
		},
	},
	Required: []string{"company_name", "sector", "document_text"},
}

type createEvaluationRequest struct {
	CompanyName  string `json:"company_name"`
	Sector       string `json:"sector"`
	DocumentText string `json:"document_text"`
}

func (s *Server) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}

	if result := validation.ValidateInput(raw, createEvaluationSchema); !result.Valid {
		details, _ := json.Marshal(result.Errors)
		s.writeError(w, stderrors.NewValidationFailedError(string(details)))
		return
	}

	var req createEvaluationRequest
	reencoded, _ := json.Marshal(raw)
	if err := json.Unmarshal(reencoded, &req); err != nil {
		s.writeError(w, stderrors.NewValidationFailedError("request fields have wrong types"))
		return
	}

	doc, err := document.NewExtractor().FromText(req.DocumentText)
	if err != nil {
		s.writeError(w, err)
		return
	}

	record, err := s.evaluator.Evaluate(r.Context(), req.CompanyName, req.Sector, doc.Text)
	if err != nil {
		s.logger.Error("evaluation failed", map[string]interface{}{
			"company": req.CompanyName,
			"error":   err.Error(),
		})
		s.writeError(w, err)
		return
	}

	if err := s.store.Save(r.Context(), record); err != nil {
		s.writeError(w, err)
		return
	}

	if s.notifier != nil {
		// Detached from the request lifecycle; the evaluation result does
		// not wait for a mail provider.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notifier.EvaluationCompleted(ctx, record); err != nil {
				s.logger.Warn("completion notification failed", map[string]interface{}{
					"sessionId": record.SessionID,
					"error":     err.Error(),
				})
			}
		}()
	}

	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := s.store.Get(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := s.store.Get(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, s.renderer.Render(record))
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	summaries, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"evaluations": summaries,
		"limit":       limit,
		"offset":      offset,
	})
}

func (s *Server) handleDeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.store.Delete(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
