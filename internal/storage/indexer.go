package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"riskeval/internal/common/database"
	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/models"
)

// Indexer mirrors evaluation summaries into Elasticsearch for full-text
// search over company names and executive summaries. Indexing is best
// effort; the Postgres row is the source of truth.
type Indexer struct {
	client *database.ElasticsearchClient
	index  string
}

func NewIndexer(client *database.ElasticsearchClient, index string) *Indexer {
	return &Indexer{client: client, index: index}
}

type indexedEvaluation struct {
	SessionID        string `json:"session_id"`
	CompanyName      string `json:"company_name"`
	Sector           string `json:"sector"`
	OverallRiskLevel string `json:"overall_risk_level"`
	OverallScore     int    `json:"overall_score"`
	ExecutiveSummary string `json:"executive_summary"`
	DegradedStages   int    `json:"degraded_stages"`
	CreatedAt        string `json:"created_at"`
}

// Index writes the searchable projection of a record, keyed by session ID so
// re-indexing is idempotent.
func (i *Indexer) Index(ctx context.Context, record *models.EvaluationRecord) error {
	doc := indexedEvaluation{
		SessionID:        record.SessionID,
		CompanyName:      record.CompanyName,
		Sector:           record.Sector,
		OverallRiskLevel: string(record.OverallRiskLevel),
		OverallScore:     record.OverallScore,
		ExecutiveSummary: record.ExecutiveSummary,
		DegradedStages:   record.DegradedCount(models.Categories()),
		CreatedAt:        record.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return stderrors.NewIndexingError(record.SessionID, err)
	}

	res, err := i.client.Client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Client.Index.WithDocumentID(record.SessionID),
		i.client.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return stderrors.NewIndexingError(record.SessionID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewIndexingError(record.SessionID, fmt.Errorf("index response: %s", res.Status()))
	}
	return nil
}

// Remove deletes the indexed projection for a session ID. A missing document
// is not an error.
func (i *Indexer) Remove(ctx context.Context, sessionID string) error {
	res, err := i.client.Client.Delete(
		i.index,
		sessionID,
		i.client.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return stderrors.NewIndexingError(sessionID, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return stderrors.NewIndexingError(sessionID, fmt.Errorf("delete response: %s", res.Status()))
	}
	return nil
}
