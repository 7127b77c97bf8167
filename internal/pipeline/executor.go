package pipeline

import (
	"context"
	"time"

	"riskeval/internal/common/logger"
	"riskeval/internal/common/metrics"
	"riskeval/internal/contract"
	"riskeval/internal/genai"
	"riskeval/internal/models"
)

// StageExecutor runs one analysis category end to end: prompt construction,
// generation call, contract validation and fallback substitution. It never
// fails outward; every failure mode collapses into a Degraded StageResult so
// no single category can prevent the pipeline from producing a complete
// record.
type StageExecutor struct {
	client genai.Client
	cfg    *Config
	logger logger.Logger
	now    func() time.Time
}

func NewStageExecutor(client genai.Client, cfg *Config, log logger.Logger) *StageExecutor {
	return &StageExecutor{
		client: client,
		cfg:    cfg,
		logger: log.With(map[string]interface{}{
			"component": "stage-executor",
		}),
		now: time.Now,
	}
}

// Run executes one category. The returned StageResult is always well-typed
// for the category, whether Succeeded or Degraded.
func (e *StageExecutor) Run(ctx context.Context, category models.AnalysisCategory, pc PromptContext) models.StageResult {
	start := e.now()
	spec := stageRegistry[category]

	stageCtx, cancel := context.WithTimeout(ctx, e.cfg.StageTimeout)
	defer cancel()

	result := e.run(stageCtx, category, spec, pc)
	result.Timestamp = e.now().UTC()

	metrics.StageDuration.WithLabelValues(string(category)).Observe(e.now().Sub(start).Seconds())
	return result
}

func (e *StageExecutor) run(ctx context.Context, category models.AnalysisCategory, spec stageSpec, pc PromptContext) models.StageResult {
	// A cancelled evaluation must not start new remote calls; unresolved
	// categories still resolve, as fallbacks.
	if ctx.Err() != nil {
		return e.degrade(category, FailureServiceUnreachable, "", "evaluation cancelled before stage started")
	}

	prompt := spec.prompt(pc)

	raw, err := e.generateWithRetry(ctx, prompt)
	if err != nil {
		return e.degrade(category, FailureServiceUnreachable, "", err.Error())
	}

	outcome := contract.Validate(raw)
	switch outcome.Kind {
	case contract.Empty:
		return e.degrade(category, FailureEmptyResponse, "", "")

	case contract.Malformed:
		return e.degrade(category, FailureMalformedResponse, outcome.RawExcerpt, outcome.ParseError)

	case contract.ServiceReportedError:
		return e.degrade(category, FailureServiceReportedError, "", outcome.ErrorMessage)
	}

	payload, ok := outcome.Object()
	if !ok {
		// The recommendations stage legitimately answers with a bare JSON
		// array; anything else non-object is unusable.
		list, isList := outcome.List()
		if !isList || category != models.CategoryRecommendations {
			return e.degrade(category, FailureMalformedResponse, raw[:min(len(raw), 500)], "top-level JSON value is not an object")
		}
		payload = map[string]interface{}{"recomendaciones": list}
	}

	if e.cfg.StrictSchemas {
		if err := contract.CheckSchema(payload, spec.schema); err != nil {
			return e.degrade(category, FailureMalformedResponse, "", err.Error())
		}
	}

	e.logger.Info("stage completed", map[string]interface{}{
		"category": string(category),
		"status":   string(models.StageSucceeded),
	})
	metrics.StagesCompleted.WithLabelValues(string(category)).Inc()

	return models.StageResult{
		Category: category,
		Status:   models.StageSucceeded,
		Payload:  payload,
	}
}

// generateWithRetry retries transport failures with exponential backoff,
// bounded by the stage context. Validation outcomes are never retried; a
// parsed-but-useless body will not get better on a second attempt at the
// same prompt.
func (e *StageExecutor) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", &genai.TransportError{Reason: "stage timeout during backoff", Err: ctx.Err()}
			}
		}

		raw, err := e.client.Generate(ctx, prompt, nil)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !genai.IsTransport(err) || ctx.Err() != nil {
			break
		}
	}

	return "", lastErr
}

// degrade builds the Degraded result with the category's fallback payload and
// emits the per-stage diagnostic log entry.
func (e *StageExecutor) degrade(category models.AnalysisCategory, class FailureClass, rawExcerpt, detail string) models.StageResult {
	diagnostic := diagnosticFor(class)
	if class == FailureServiceReportedError && detail != "" {
		diagnostic = "Error en análisis: " + detail
	}

	fields := map[string]interface{}{
		"category":     string(category),
		"status":       string(models.StageDegraded),
		"failureClass": string(class),
	}
	if detail != "" {
		fields["detail"] = detail
	}
	if rawExcerpt != "" {
		fields["rawExcerpt"] = rawExcerpt
	}
	e.logger.Warn("stage degraded", fields)
	metrics.StagesDegraded.WithLabelValues(string(category), string(class)).Inc()

	return models.StageResult{
		Category: category,
		Status:   models.StageDegraded,
		Payload:  fallbackPayload(category, class, diagnostic),
	}
}
