package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"riskeval/internal/common/database"
	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresStore(&database.PostgresClient{DB: db}), mock
}

func storedRecord() *models.EvaluationRecord {
	record := &models.EvaluationRecord{
		SessionID:        "11111111-2222-3333-4444-555555555555",
		CompanyName:      "Acme SA",
		Sector:           "manufactura",
		OverallRiskLevel: models.RiskIntermediate,
		OverallScore:     50,
		ExecutiveSummary: "Resumen",
		ApproverProfile:  models.ApproverFor(models.RiskIntermediate),
		CreatedAt:        time.Now().UTC(),
	}
	for _, cat := range models.Categories() {
		record.StageResults = append(record.StageResults, models.StageResult{
			Category: cat,
			Status:   models.StageSucceeded,
			Payload:  map[string]interface{}{"evaluacion": "ok"},
		})
	}
	return record
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	record := storedRecord()

	mock.ExpectExec("INSERT INTO evaluations").
		WithArgs(
			record.SessionID,
			record.CompanyName,
			record.Sector,
			string(record.OverallRiskLevel),
			record.OverallScore,
			record.ExecutiveSummary,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			record.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), record)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO evaluations").
		WillReturnError(assert.AnError)

	err := store.Save(context.Background(), storedRecord())

	assert.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeStorageFailed, stderrors.CodeOf(err))
	assert.True(t, stderrors.IsRetryable(err))
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	record := storedRecord()
	stages, _ := json.Marshal(record.StageResults)
	approver, _ := json.Marshal(record.ApproverProfile)

	rows := sqlmock.NewRows([]string{
		"session_id", "company_name", "sector", "overall_risk_level", "overall_score",
		"executive_summary", "stage_results", "approver_profile", "created_at",
	}).AddRow(
		record.SessionID, record.CompanyName, record.Sector, string(record.OverallRiskLevel),
		record.OverallScore, record.ExecutiveSummary, stages, approver, record.CreatedAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM evaluations").
		WithArgs(record.SessionID).
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), record.SessionID)

	assert.NoError(t, err)
	assert.Equal(t, record.SessionID, got.SessionID)
	assert.Equal(t, models.RiskIntermediate, got.OverallRiskLevel)
	assert.Len(t, got.StageResults, len(models.Categories()))
	assert.NoError(t, got.CheckInvariants())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM evaluations").
		WithArgs("missing-id").
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}))

	_, err := store.Get(context.Background(), "missing-id")

	assert.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeRecordNotFound, stderrors.CodeOf(err))
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"session_id", "company_name", "sector", "overall_risk_level", "overall_score", "created_at",
	}).
		AddRow("id-1", "Acme SA", "manufactura", "BASICO", 90, now).
		AddRow("id-2", "Beta SRL", "servicios", "AVANZADO", 20, now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM evaluations").
		WithArgs(20, 0).
		WillReturnRows(rows)

	summaries, err := store.List(context.Background(), 20, 0)

	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Equal(t, models.RiskBasic, summaries[0].OverallRiskLevel)
	assert.Equal(t, "Beta SRL", summaries[1].CompanyName)
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM evaluations").
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Delete(context.Background(), "id-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM evaluations").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "ghost")

	assert.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeRecordNotFound, stderrors.CodeOf(err))
}

func TestPostgresStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evaluations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Migrate(context.Background()))
}
