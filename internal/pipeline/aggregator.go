package pipeline

import (
	"strconv"

	"riskeval/internal/models"
)

// Aggregate derives the overall risk level and score from the collected
// stage results. It is a pure function of its inputs: re-running it on the
// same results always yields the same answer.
//
// The external service's own holistic judgment takes precedence: when the
// OverallRating stage succeeded and its payload carries both a parsable level
// and a numeric score, they are used verbatim (score clamped). Otherwise the
// aggregate falls back to the conservative INTERMEDIO/50 midpoint, signaling
// insufficient confidence rather than guessing an extreme.
type Aggregator struct {
	// DegradedThreshold is how many degraded ratio stages explicitly force
	// the conservative fallback. Kept configurable; the original behavior
	// is threshold 2.
	DegradedThreshold int
}

// Aggregate implements the policy above for an already-collected result set.
func (a Aggregator) Aggregate(results []models.StageResult) (models.RiskLevel, int) {
	if level, score, ok := ratingVerdict(results); ok {
		return level, models.ClampScore(score)
	}

	// Fallback path. The degraded count is logged by the coordinator; the
	// conservative midpoint applies whether the threshold was crossed or the
	// rating stage alone degraded.
	return models.RiskIntermediate, 50
}

// DegradedRatioCount counts degraded stages among the five ratio categories.
func (a Aggregator) DegradedRatioCount(results []models.StageResult) int {
	count := 0
	for _, sr := range results {
		if sr.Category.IsRatio() && sr.Degraded() {
			count++
		}
	}
	return count
}

// ratingVerdict extracts the verbatim level and score from a succeeded
// OverallRating stage. Field names tolerate both the Spanish prompt schema
// and the English spellings the service sometimes substitutes.
func ratingVerdict(results []models.StageResult) (models.RiskLevel, int, bool) {
	for _, sr := range results {
		if sr.Category != models.CategoryOverallRating {
			continue
		}
		if sr.Degraded() {
			return "", 0, false
		}

		level, levelOK := levelField(sr.Payload, "nivel", "level", "nivel_riesgo")
		score, scoreOK := scoreField(sr.Payload, "puntuacion", "score", "puntuacion_numerica")
		if levelOK && scoreOK {
			return level, score, true
		}
		return "", 0, false
	}
	return "", 0, false
}

func levelField(payload map[string]interface{}, keys ...string) (models.RiskLevel, bool) {
	for _, key := range keys {
		if raw, ok := payload[key]; ok {
			if s, ok := raw.(string); ok {
				if level, ok := models.ParseRiskLevel(s); ok {
					return level, true
				}
			}
		}
	}
	return "", false
}

func scoreField(payload map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
