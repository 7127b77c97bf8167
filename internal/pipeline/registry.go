package pipeline

import (
	"riskeval/internal/models"
)

// stageSpec is the per-category configuration consumed by the generic stage
// executor: how to build the prompt and which type schema a valid payload
// must satisfy in strict mode.
type stageSpec struct {
	prompt promptBuilder
	schema map[string]interface{}
}

// typedObject builds a permissive object schema: fields may be absent or
// renamed, but when present they must carry the declared JSON type.
func typedObject(props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
}

var stageRegistry = map[models.AnalysisCategory]stageSpec{
	models.CategoryLiquidity: {
		prompt: liquidityPrompt,
		schema: typedObject(map[string]interface{}{
			"ratios":          map[string]interface{}{"type": "object"},
			"interpretacion":  map[string]interface{}{"type": "string"},
			"riesgo_liquidez": map[string]interface{}{"type": "string"},
			"observaciones":   map[string]interface{}{"type": "array"},
		}),
	},
	models.CategorySolvency: {
		prompt: solvencyPrompt,
		schema: typedObject(map[string]interface{}{
			"ratios":             map[string]interface{}{"type": "object"},
			"evaluacion":         map[string]interface{}{"type": "string"},
			"riesgo_insolvencia": map[string]interface{}{"type": "string"},
			"observaciones":      map[string]interface{}{"type": "array"},
		}),
	},
	models.CategoryProfitability: {
		prompt: profitabilityPrompt,
		schema: typedObject(map[string]interface{}{
			"indicadores":        map[string]interface{}{"type": "object"},
			"analisis":           map[string]interface{}{"type": "string"},
			"nivel_rentabilidad": map[string]interface{}{"type": "string"},
			"observaciones":      map[string]interface{}{"type": "array"},
		}),
	},
	models.CategoryEfficiency: {
		prompt: efficiencyPrompt,
		schema: typedObject(map[string]interface{}{
			"indicadores":      map[string]interface{}{"type": "object"},
			"evaluacion":       map[string]interface{}{"type": "string"},
			"nivel_eficiencia": map[string]interface{}{"type": "string"},
			"observaciones":    map[string]interface{}{"type": "array"},
		}),
	},
	models.CategorySectorRisk: {
		prompt: sectorRiskPrompt,
		schema: typedObject(map[string]interface{}{
			"riesgos_identificados": map[string]interface{}{"type": "array"},
			"evaluacion":            map[string]interface{}{"type": "string"},
			"nivel_riesgo":          map[string]interface{}{"type": "string"},
			"observaciones":         map[string]interface{}{"type": "array"},
		}),
	},
	models.CategoryOverallRating: {
		prompt: overallRatingPrompt,
		schema: typedObject(map[string]interface{}{
			"nivel":         map[string]interface{}{"type": "string"},
			"puntuacion":    map[string]interface{}{"type": "number"},
			"factores":      map[string]interface{}{"type": "array"},
			"justificacion": map[string]interface{}{"type": "string"},
		}),
	},
	models.CategoryRecommendations: {
		prompt: recommendationsPrompt,
		schema: typedObject(map[string]interface{}{
			"recomendaciones": map[string]interface{}{"type": "array"},
		}),
	},
}
