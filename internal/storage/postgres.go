package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"riskeval/internal/common/database"
	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/models"
)

// EvaluationSummary is the listing projection: the columns an operator needs
// to find an evaluation without loading its full stage payloads.
type EvaluationSummary struct {
	SessionID        string           `json:"session_id"`
	CompanyName      string           `json:"company_name"`
	Sector           string           `json:"sector"`
	OverallRiskLevel models.RiskLevel `json:"overall_risk_level"`
	OverallScore     int              `json:"overall_score"`
	CreatedAt        time.Time        `json:"created_at"`
}

// PostgresStore persists evaluation records. Scalar fields that queries
// filter or sort on live in columns; the stage results travel as JSONB.
type PostgresStore struct {
	client *database.PostgresClient
}

func NewPostgresStore(client *database.PostgresClient) *PostgresStore {
	return &PostgresStore{client: client}
}

const createEvaluationsTable = `
CREATE TABLE IF NOT EXISTS evaluations (
    session_id         UUID PRIMARY KEY,
    company_name       TEXT NOT NULL,
    sector             TEXT NOT NULL,
    overall_risk_level TEXT NOT NULL,
    overall_score      INTEGER NOT NULL,
    executive_summary  TEXT NOT NULL DEFAULT '',
    stage_results      JSONB NOT NULL,
    approver_profile   JSONB NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_company ON evaluations (company_name);
CREATE INDEX IF NOT EXISTS idx_evaluations_created ON evaluations (created_at DESC);
`

// Migrate creates the evaluations table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.client.Exec(ctx, createEvaluationsTable); err != nil {
		return stderrors.NewStorageError("migrate", err)
	}
	return nil
}

// Save upserts a finished evaluation record.
func (s *PostgresStore) Save(ctx context.Context, record *models.EvaluationRecord) error {
	stages, err := json.Marshal(record.StageResults)
	if err != nil {
		return stderrors.NewStorageError("save", fmt.Errorf("marshal stage results: %w", err))
	}
	approver, err := json.Marshal(record.ApproverProfile)
	if err != nil {
		return stderrors.NewStorageError("save", fmt.Errorf("marshal approver profile: %w", err))
	}

	const query = `
        INSERT INTO evaluations
            (session_id, company_name, sector, overall_risk_level, overall_score,
             executive_summary, stage_results, approver_profile, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (session_id) DO UPDATE SET
            company_name = EXCLUDED.company_name,
            sector = EXCLUDED.sector,
            overall_risk_level = EXCLUDED.overall_risk_level,
            overall_score = EXCLUDED.overall_score,
            executive_summary = EXCLUDED.executive_summary,
            stage_results = EXCLUDED.stage_results,
            approver_profile = EXCLUDED.approver_profile`

	_, err = s.client.Exec(ctx, query,
		record.SessionID,
		record.CompanyName,
		record.Sector,
		string(record.OverallRiskLevel),
		record.OverallScore,
		record.ExecutiveSummary,
		stages,
		approver,
		record.CreatedAt,
	)
	if err != nil {
		return stderrors.NewStorageError("save", err)
	}
	return nil
}

// Get loads a full evaluation record by session ID.
func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*models.EvaluationRecord, error) {
	const query = `
        SELECT session_id, company_name, sector, overall_risk_level, overall_score,
               executive_summary, stage_results, approver_profile, created_at
        FROM evaluations
        WHERE session_id = $1`

	var (
		record   models.EvaluationRecord
		level    string
		stages   []byte
		approver []byte
	)

	row := s.client.QueryRow(ctx, query, sessionID)
	err := row.Scan(
		&record.SessionID,
		&record.CompanyName,
		&record.Sector,
		&level,
		&record.OverallScore,
		&record.ExecutiveSummary,
		&stages,
		&approver,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewRecordNotFoundError(sessionID)
	}
	if err != nil {
		return nil, stderrors.NewStorageError("get", err)
	}

	record.OverallRiskLevel = models.RiskLevel(level)
	if err := json.Unmarshal(stages, &record.StageResults); err != nil {
		return nil, stderrors.NewStorageError("get", fmt.Errorf("unmarshal stage results: %w", err))
	}
	if err := json.Unmarshal(approver, &record.ApproverProfile); err != nil {
		return nil, stderrors.NewStorageError("get", fmt.Errorf("unmarshal approver profile: %w", err))
	}

	return &record, nil
}

// List returns recent evaluation summaries, newest first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]EvaluationSummary, error) {
	const query = `
        SELECT session_id, company_name, sector, overall_risk_level, overall_score, created_at
        FROM evaluations
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`

	rows, err := s.client.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, stderrors.NewStorageError("list", err)
	}
	defer rows.Close()

	summaries := make([]EvaluationSummary, 0, limit)
	for rows.Next() {
		var sum EvaluationSummary
		var level string
		if err := rows.Scan(&sum.SessionID, &sum.CompanyName, &sum.Sector, &level, &sum.OverallScore, &sum.CreatedAt); err != nil {
			return nil, stderrors.NewStorageError("list", err)
		}
		sum.OverallRiskLevel = models.RiskLevel(level)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStorageError("list", err)
	}

	return summaries, nil
}

// Delete removes an evaluation record.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	res, err := s.client.Exec(ctx, `DELETE FROM evaluations WHERE session_id = $1`, sessionID)
	if err != nil {
		return stderrors.NewStorageError("delete", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewStorageError("delete", err)
	}
	if affected == 0 {
		return stderrors.NewRecordNotFoundError(sessionID)
	}
	return nil
}
