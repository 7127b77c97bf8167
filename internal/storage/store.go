package storage

import (
	"context"

	"riskeval/internal/common/logger"
	"riskeval/internal/models"
)

// Store is the composite persistence surface the API layer depends on.
// Postgres is authoritative; the Redis cache and Elasticsearch index are
// accelerators whose failures are logged and absorbed.
type Store struct {
	db      *PostgresStore
	cache   *RecordCache
	indexer *Indexer
	logger  logger.Logger
}

// NewStore wires the composite store. cache and indexer may be nil when the
// corresponding backend is disabled.
func NewStore(db *PostgresStore, cache *RecordCache, indexer *Indexer, log logger.Logger) *Store {
	return &Store{
		db:      db,
		cache:   cache,
		indexer: indexer,
		logger: log.With(map[string]interface{}{
			"component": "evaluation-store",
		}),
	}
}

// Save persists the record, then updates the accelerators best effort.
func (s *Store) Save(ctx context.Context, record *models.EvaluationRecord) error {
	if err := s.db.Save(ctx, record); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, record); err != nil {
			s.logger.Warn("failed to cache evaluation record", map[string]interface{}{
				"sessionId": record.SessionID,
				"error":     err.Error(),
			})
		}
	}

	if s.indexer != nil {
		if err := s.indexer.Index(ctx, record); err != nil {
			s.logger.Warn("failed to index evaluation record", map[string]interface{}{
				"sessionId": record.SessionID,
				"error":     err.Error(),
			})
		}
	}

	return nil
}

// Get serves from cache when possible, falling back to Postgres and
// repopulating the cache on the way out.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.EvaluationRecord, error) {
	if s.cache != nil {
		record, err := s.cache.Get(ctx, sessionID)
		if err != nil {
			s.logger.Warn("cache lookup failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		} else if record != nil {
			return record, nil
		}
	}

	record, err := s.db.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, record); err != nil {
			s.logger.Warn("failed to repopulate cache", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
	}

	return record, nil
}

// List delegates to Postgres; listings are not cached.
func (s *Store) List(ctx context.Context, limit, offset int) ([]EvaluationSummary, error) {
	return s.db.List(ctx, limit, offset)
}

// Delete removes the record everywhere.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.db.Delete(ctx, sessionID); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, sessionID); err != nil {
			s.logger.Warn("failed to invalidate cache entry", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
	}

	if s.indexer != nil {
		if err := s.indexer.Remove(ctx, sessionID); err != nil {
			s.logger.Warn("failed to remove index entry", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
	}

	return nil
}
