package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/common/logger"
	"riskeval/internal/common/metrics"
	"riskeval/internal/common/observability"
	"riskeval/internal/genai"
	"riskeval/internal/models"
)

// summaryFallback is used when the executive summary generation fails; the
// summary is a convenience, never a reason to fail an evaluation.
const summaryFallback = "Resumen no disponible debido a error en el procesamiento."

// Coordinator runs the full evaluation: the five ratio stages concurrently in
// phase one, then the rating and recommendation stages that consume their
// payloads, then aggregation. It is the sole writer of the EvaluationRecord
// and publishes it only after every stage has resolved.
type Coordinator struct {
	executor   *StageExecutor
	aggregator Aggregator
	client     genai.Client
	cfg        *Config
	logger     logger.Logger
	obs        *observability.Observability
	newID      func() string
	now        func() time.Time
}

func NewCoordinator(client genai.Client, cfg *Config, log logger.Logger, obs *observability.Observability) *Coordinator {
	return &Coordinator{
		executor:   NewStageExecutor(client, cfg, log),
		aggregator: Aggregator{DegradedThreshold: cfg.DegradedThreshold},
		client:     client,
		cfg:        cfg,
		logger: log.With(map[string]interface{}{
			"component": "pipeline-coordinator",
		}),
		obs:   obs,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Evaluate produces a complete EvaluationRecord for the given company and
// document text. Per-stage failures are absorbed into Degraded results; the
// only error this returns is an invariant violation, which indicates a defect
// here rather than a runtime condition.
func (c *Coordinator) Evaluate(ctx context.Context, companyName, sector, documentText string) (*models.EvaluationRecord, error) {
	start := c.now()
	sessionID := c.newID()

	log := c.logger.With(map[string]interface{}{
		"sessionId": sessionID,
		"company":   companyName,
	})
	log.Info("starting evaluation", map[string]interface{}{
		"sector":        sector,
		"documentChars": len(documentText),
	})

	pc := PromptContext{
		CompanyName:  companyName,
		Sector:       sector,
		DocumentText: excerptDocument(documentText, c.cfg.DocumentExcerpt),
		Prior:        make(map[models.AnalysisCategory]map[string]interface{}),
	}

	byCategory := c.runRatioStages(ctx, pc)

	// Phase two consumes phase-one payloads, fallback records included: a
	// degraded liquidity analysis is still context the rating prompt can
	// mention.
	for cat, sr := range byCategory {
		pc.Prior[cat] = sr.Payload
	}

	rating := c.executor.Run(ctx, models.CategoryOverallRating, pc)
	byCategory[models.CategoryOverallRating] = rating
	pc.Prior[models.CategoryOverallRating] = rating.Payload

	byCategory[models.CategoryRecommendations] = c.executor.Run(ctx, models.CategoryRecommendations, pc)

	record := &models.EvaluationRecord{
		SessionID:   sessionID,
		CompanyName: companyName,
		Sector:      sector,
		CreatedAt:   c.now().UTC(),
	}
	for _, cat := range models.Categories() {
		record.StageResults = append(record.StageResults, byCategory[cat])
	}

	if err := record.CheckInvariants(); err != nil {
		return nil, stderrors.NewInvariantViolationError(err.Error())
	}

	level, score := c.aggregator.Aggregate(record.StageResults)
	record.OverallRiskLevel = level
	record.OverallScore = score
	record.ApproverProfile = models.ApproverFor(level)

	if c.cfg.ExecutiveSummary {
		record.ExecutiveSummary = c.generateSummary(ctx, pc, level, score)
	}

	degraded := record.DegradedCount(models.Categories())
	log.Info("evaluation completed", map[string]interface{}{
		"riskLevel":      string(level),
		"score":          score,
		"degradedStages": degraded,
		"durationMs":     c.now().Sub(start).Milliseconds(),
	})
	if ratioDegraded := c.aggregator.DegradedRatioCount(record.StageResults); ratioDegraded >= c.cfg.DegradedThreshold {
		log.Warn("aggregate forced to conservative midpoint", map[string]interface{}{
			"degradedRatioStages": ratioDegraded,
			"threshold":           c.cfg.DegradedThreshold,
		})
	}

	metrics.EvaluationsCompleted.WithLabelValues(string(level)).Inc()
	metrics.EvaluationDuration.Observe(c.now().Sub(start).Seconds())
	if c.obs != nil {
		for _, sr := range record.StageResults {
			c.obs.RecordStageResolved(ctx, string(sr.Category), string(sr.Status))
		}
		c.obs.RecordEvaluationDuration(ctx, c.now().Sub(start), string(level))
	}

	return record, nil
}

// runRatioStages fans the five ratio categories out over a bounded pool.
// Each stage resolves to a result no matter what happens inside it, so the
// map always ends up with five entries.
func (c *Coordinator) runRatioStages(ctx context.Context, pc PromptContext) map[models.AnalysisCategory]models.StageResult {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		byCategory = make(map[models.AnalysisCategory]models.StageResult, len(models.Categories()))
	)

	sem := make(chan struct{}, c.cfg.Concurrency)
	for _, cat := range models.RatioCategories() {
		wg.Add(1)
		go func(cat models.AnalysisCategory) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := c.executor.Run(ctx, cat, pc)

			mu.Lock()
			byCategory[cat] = result
			mu.Unlock()
		}(cat)
	}
	wg.Wait()

	return byCategory
}

func (c *Coordinator) generateSummary(ctx context.Context, pc PromptContext, level models.RiskLevel, score int) string {
	if ctx.Err() != nil {
		return summaryFallback
	}

	summaryCtx, cancel := context.WithTimeout(ctx, c.cfg.StageTimeout)
	defer cancel()

	text, err := c.client.Generate(summaryCtx, summaryPrompt(pc, level, score), nil)
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Warn("executive summary generation failed", map[string]interface{}{
			"error": errString(err),
		})
		return summaryFallback
	}
	return strings.TrimSpace(text)
}

func excerptDocument(text string, limit int) string {
	if len(text) > limit {
		return text[:limit]
	}
	return text
}

func errString(err error) string {
	if err == nil {
		return "empty response"
	}
	return err.Error()
}
