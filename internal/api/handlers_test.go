package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/common/logger"
	"riskeval/internal/models"
	"riskeval/internal/storage"
)

// ==========================
// Stubs
// ==========================

type stubEvaluator struct {
	record *models.EvaluationRecord
	err    error
	gotDoc string
}

func (s *stubEvaluator) Evaluate(ctx context.Context, companyName, sector, documentText string) (*models.EvaluationRecord, error) {
	s.gotDoc = documentText
	if s.err != nil {
		return nil, s.err
	}
	record := *s.record
	record.CompanyName = companyName
	record.Sector = sector
	return &record, nil
}

type stubStore struct {
	records   map[string]*models.EvaluationRecord
	saveErr   error
	summaries []storage.EvaluationSummary
}

func newStubStore() *stubStore {
	return &stubStore{records: make(map[string]*models.EvaluationRecord)}
}

func (s *stubStore) Save(ctx context.Context, record *models.EvaluationRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[record.SessionID] = record
	return nil
}

func (s *stubStore) Get(ctx context.Context, sessionID string) (*models.EvaluationRecord, error) {
	record, ok := s.records[sessionID]
	if !ok {
		return nil, stderrors.NewRecordNotFoundError(sessionID)
	}
	return record, nil
}

func (s *stubStore) List(ctx context.Context, limit, offset int) ([]storage.EvaluationSummary, error) {
	return s.summaries, nil
}

func (s *stubStore) Delete(ctx context.Context, sessionID string) error {
	if _, ok := s.records[sessionID]; !ok {
		return stderrors.NewRecordNotFoundError(sessionID)
	}
	delete(s.records, sessionID)
	return nil
}

type stubRenderer struct{}

func (stubRenderer) Render(record *models.EvaluationRecord) string {
	return "# Reporte " + record.CompanyName
}

func completeRecord() *models.EvaluationRecord {
	record := &models.EvaluationRecord{
		SessionID:        "session-1",
		CompanyName:      "Acme SA",
		Sector:           "manufactura",
		OverallRiskLevel: models.RiskIntermediate,
		OverallScore:     50,
		ApproverProfile:  models.ApproverFor(models.RiskIntermediate),
		CreatedAt:        time.Now().UTC(),
	}
	for _, cat := range models.Categories() {
		record.StageResults = append(record.StageResults, models.StageResult{
			Category: cat,
			Status:   models.StageSucceeded,
			Payload:  map[string]interface{}{},
		})
	}
	return record
}

func newTestServer(evaluator *stubEvaluator, store *stubStore) *Server {
	return NewServer(evaluator, store, stubRenderer{}, nil, logger.Nop())
}

func postJSON(t *testing.T, handler http.Handler, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// ==========================
// Handler Tests
// ==========================

func TestCreateEvaluation_Success(t *testing.T) {
	evaluator := &stubEvaluator{record: completeRecord()}
	store := newStubStore()
	router := newTestServer(evaluator, store).Router()

	rec := postJSON(t, router, "/api/v1/evaluations", map[string]interface{}{
		"company_name":  "Acme SA",
		"sector":        "manufactura",
		"document_text": "Balance general: activos 500",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var got models.EvaluationRecord
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "session-1", got.SessionID)
	assert.Len(t, got.StageResults, len(models.Categories()))

	// Persisted as well as returned.
	_, ok := store.records["session-1"]
	assert.True(t, ok)
}

func TestCreateEvaluation_MissingFields(t *testing.T) {
	router := newTestServer(&stubEvaluator{record: completeRecord()}, newStubStore()).Router()

	rec := postJSON(t, router, "/api/v1/evaluations", map[string]interface{}{
		"company_name": "Acme SA",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(stderrors.ErrCodeValidationFailed), resp.Code)
}

func TestCreateEvaluation_InvalidJSON(t *testing.T) {
	router := newTestServer(&stubEvaluator{record: completeRecord()}, newStubStore()).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEvaluation_UnreadableDocument(t *testing.T) {
	router := newTestServer(&stubEvaluator{record: completeRecord()}, newStubStore()).Router()

	rec := postJSON(t, router, "/api/v1/evaluations", map[string]interface{}{
		"company_name":  "Acme SA",
		"sector":        "manufactura",
		"document_text": "   \n\t ",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(stderrors.ErrCodeUnreadableDocument), resp.Code)
}

func TestCreateEvaluation_StoreFailure(t *testing.T) {
	store := newStubStore()
	store.saveErr = stderrors.NewStorageError("save", assert.AnError)
	router := newTestServer(&stubEvaluator{record: completeRecord()}, store).Router()

	rec := postJSON(t, router, "/api/v1/evaluations", map[string]interface{}{
		"company_name":  "Acme SA",
		"sector":        "manufactura",
		"document_text": "Balance general",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetEvaluation(t *testing.T) {
	store := newStubStore()
	record := completeRecord()
	store.records[record.SessionID] = record
	router := newTestServer(&stubEvaluator{record: record}, store).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/session-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got models.EvaluationRecord
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, record.SessionID, got.SessionID)
}

func TestGetEvaluation_NotFound(t *testing.T) {
	router := newTestServer(&stubEvaluator{record: completeRecord()}, newStubStore()).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(stderrors.ErrCodeRecordNotFound), resp.Code)
}

func TestGetReport(t *testing.T) {
	store := newStubStore()
	record := completeRecord()
	store.records[record.SessionID] = record
	router := newTestServer(&stubEvaluator{record: record}, store).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/session-1/report", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "# Reporte Acme SA")
}

func TestListEvaluations(t *testing.T) {
	store := newStubStore()
	store.summaries = []storage.EvaluationSummary{
		{SessionID: "id-1", CompanyName: "Acme SA", OverallRiskLevel: models.RiskBasic, OverallScore: 90},
	}
	router := newTestServer(&stubEvaluator{record: completeRecord()}, store).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations?limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(5), resp["limit"])
	assert.Len(t, resp["evaluations"], 1)
}

func TestDeleteEvaluation(t *testing.T) {
	store := newStubStore()
	record := completeRecord()
	store.records[record.SessionID] = record
	router := newTestServer(&stubEvaluator{record: record}, store).Router()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/evaluations/session-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.records)
}

func TestHealthz(t *testing.T) {
	router := newTestServer(&stubEvaluator{record: completeRecord()}, newStubStore()).Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
