package pipeline

import (
	"riskeval/internal/models"
)

// FailureClass names why a stage degraded. The report renderer displays it
// verbatim, so the values are part of the external contract.
type FailureClass string

const (
	FailureServiceUnreachable   FailureClass = "service_unreachable"
	FailureEmptyResponse        FailureClass = "empty_response"
	FailureMalformedResponse    FailureClass = "malformed_response"
	FailureServiceReportedError FailureClass = "service_reported_error"
)

// neutralRisk is the per-category risk indicator substituted on degradation.
const neutralRisk = "MEDIO"

// fallbackPayload builds the fixed, schema-valid substitute payload for a
// degraded stage. Every fallback carries an empty metrics field, a
// human-readable explanation, a neutral risk indicator and a one-element
// observations list naming the failure class.
func fallbackPayload(category models.AnalysisCategory, class FailureClass, diagnostic string) map[string]interface{} {
	observations := []interface{}{string(class)}

	switch category {
	case models.CategoryLiquidity:
		return map[string]interface{}{
			"ratios":          map[string]interface{}{},
			"interpretacion":  diagnostic,
			"riesgo_liquidez": neutralRisk,
			"observaciones":   observations,
		}
	case models.CategorySolvency:
		return map[string]interface{}{
			"ratios":             map[string]interface{}{},
			"evaluacion":         diagnostic,
			"riesgo_insolvencia": neutralRisk,
			"observaciones":      observations,
		}
	case models.CategoryProfitability:
		return map[string]interface{}{
			"indicadores":        map[string]interface{}{},
			"analisis":           diagnostic,
			"nivel_rentabilidad": neutralRisk,
			"observaciones":      observations,
		}
	case models.CategoryEfficiency:
		return map[string]interface{}{
			"indicadores":      map[string]interface{}{},
			"evaluacion":       diagnostic,
			"nivel_eficiencia": neutralRisk,
			"observaciones":    observations,
		}
	case models.CategorySectorRisk:
		return map[string]interface{}{
			"riesgos_identificados": []interface{}{},
			"evaluacion":            diagnostic,
			"nivel_riesgo":          neutralRisk,
			"observaciones":         observations,
		}
	case models.CategoryOverallRating:
		return map[string]interface{}{
			"nivel":         string(models.RiskIntermediate),
			"puntuacion":    50,
			"justificacion": diagnostic,
			"observaciones": observations,
		}
	case models.CategoryRecommendations:
		return map[string]interface{}{
			"recomendaciones": []interface{}{
				"Revisar estados financieros detalladamente",
				"Monitorear indicadores clave de liquidez",
				"Evaluar estructura de capital",
			},
			"justificacion": diagnostic,
			"riesgo":        neutralRisk,
			"observaciones": observations,
		}
	}

	// Unknown categories cannot reach here; the registry is the only caller.
	return map[string]interface{}{
		"interpretacion": diagnostic,
		"riesgo":         neutralRisk,
		"observaciones":  observations,
	}
}

// diagnosticFor maps a failure class to the operator-facing explanation
// embedded in the fallback payload.
func diagnosticFor(class FailureClass) string {
	switch class {
	case FailureServiceUnreachable:
		return "No se pudo completar el análisis: servicio de generación no disponible"
	case FailureEmptyResponse:
		return "No se pudo realizar el análisis por falta de respuesta del modelo"
	case FailureMalformedResponse:
		return "Error en formato de respuesta del modelo de IA"
	case FailureServiceReportedError:
		return "El modelo reportó un error durante el análisis"
	}
	return "Error en análisis automático"
}
