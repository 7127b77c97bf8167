package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"riskeval/internal/models"
)

// PromptContext carries the shared inputs every stage prompt is built from.
// Prior holds the payloads of already-resolved stages; only the rating and
// recommendation stages read it.
type PromptContext struct {
	CompanyName  string
	Sector       string
	DocumentText string
	Prior        map[models.AnalysisCategory]map[string]interface{}
}

// promptBuilder produces the stage-specific prompt for one category.
type promptBuilder func(pc PromptContext) string

func liquidityPrompt(pc PromptContext) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"Como analista senior de riesgos, analiza la liquidez de la empresa %s del sector %s.",
		pc.CompanyName, pc.Sector))
	parts = append(parts, "\nBasándote en el siguiente estado financiero:")
	parts = append(parts, pc.DocumentText)
	parts = append(parts, "\nEvalúa:")
	parts = append(parts, "1. Ratio corriente (activo corriente / pasivo corriente)")
	parts = append(parts, "2. Prueba ácida ((activo corriente - inventarios) / pasivo corriente)")
	parts = append(parts, "3. Capital de trabajo (activo corriente - pasivo corriente)")
	parts = append(parts, "4. Disponibilidad inmediata")
	parts = append(parts, "\nResponde en formato JSON con esta estructura:")
	parts = append(parts, `{"ratios": {}, "interpretacion": "", "riesgo_liquidez": "BAJO|MEDIO|ALTO", "observaciones": []}`)

	return strings.Join(parts, "\n")
}

func solvencyPrompt(pc PromptContext) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"Como analista senior, evalúa la solvencia de %s del sector %s.",
		pc.CompanyName, pc.Sector))
	parts = append(parts, "\nEstado financiero:")
	parts = append(parts, pc.DocumentText)
	parts = append(parts, "\nAnaliza:")
	parts = append(parts, "1. Ratio de endeudamiento (pasivo total / activo total)")
	parts = append(parts, "2. Ratio deuda/patrimonio")
	parts = append(parts, "3. Cobertura de intereses")
	parts = append(parts, "4. Apalancamiento financiero")
	parts = append(parts, "5. Capacidad de pago a largo plazo")
	parts = append(parts, "\nResponde en formato JSON con esta estructura:")
	parts = append(parts, `{"ratios": {}, "evaluacion": "", "riesgo_insolvencia": "BAJO|MEDIO|ALTO", "observaciones": []}`)

	return strings.Join(parts, "\n")
}

func profitabilityPrompt(pc PromptContext) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"Evalúa la rentabilidad de %s como analista experto.", pc.CompanyName))
	parts = append(parts, fmt.Sprintf("\nSector: %s", pc.Sector))
	parts = append(parts, "Estado financiero:")
	parts = append(parts, pc.DocumentText)
	parts = append(parts, "\nCalcula y analiza:")
	parts = append(parts, "1. ROE (Return on Equity)")
	parts = append(parts, "2. ROA (Return on Assets)")
	parts = append(parts, "3. Margen neto")
	parts = append(parts, "4. Margen operacional")
	parts = append(parts, "5. Margen bruto")
	parts = append(parts, "6. Rentabilidad vs competencia del sector")
	parts = append(parts, "\nResponde en formato JSON con esta estructura:")
	parts = append(parts, `{"indicadores": {}, "analisis": "", "nivel_rentabilidad": "BAJO|MEDIO|ALTO", "observaciones": []}`)

	return strings.Join(parts, "\n")
}

func efficiencyPrompt(pc PromptContext) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"Analiza la eficiencia operativa de %s.", pc.CompanyName))
	parts = append(parts, fmt.Sprintf("\nSector: %s", pc.Sector))
	parts = append(parts, "Estado financiero:")
	parts = append(parts, pc.DocumentText)
	parts = append(parts, "\nEvalúa:")
	parts = append(parts, "1. Rotación de activos")
	parts = append(parts, "2. Rotación de inventarios")
	parts = append(parts, "3. Periodo promedio de cobro")
	parts = append(parts, "4. Periodo promedio de pago")
	parts = append(parts, "5. Ciclo de conversión de efectivo")
	parts = append(parts, "\nResponde en formato JSON con esta estructura:")
	parts = append(parts, `{"indicadores": {}, "evaluacion": "", "nivel_eficiencia": "BAJO|MEDIO|ALTO", "observaciones": []}`)

	return strings.Join(parts, "\n")
}

func sectorRiskPrompt(pc PromptContext) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"Como analista senior especializado, evalúa los riesgos específicos del sector %s para la empresa %s.",
		pc.Sector, pc.CompanyName))
	parts = append(parts, "\nConsidera:")
	parts = append(parts, "1. Riesgos regulatorios del sector")
	parts = append(parts, "2. Ciclos económicos que afectan al sector")
	parts = append(parts, "3. Competencia y concentración del mercado")
	parts = append(parts, "4. Barreras de entrada y salida")
	parts = append(parts, "5. Dependencia de factores externos")
	parts = append(parts, "6. Innovación tecnológica y disrupciones")
	parts = append(parts, "\nResponde en formato JSON con esta estructura:")
	parts = append(parts, `{"riesgos_identificados": [], "evaluacion": "", "nivel_riesgo": "BAJO|MEDIO|ALTO", "observaciones": []}`)

	return strings.Join(parts, "\n")
}

func overallRatingPrompt(pc PromptContext) string {
	var parts []string

	parts = append(parts, "Como analista senior de riesgos, basándote en los siguientes análisis:")
	for _, cat := range models.RatioCategories() {
		parts = append(parts, fmt.Sprintf("\n%s: %s", strings.ToUpper(string(cat)), priorJSON(pc, cat)))
	}
	parts = append(parts, "\nDetermina una calificación de riesgo global:")
	parts = append(parts, "- BASICO: Riesgo bajo, empresa sólida, aprobación puede ser automática o con revisión mínima")
	parts = append(parts, "- INTERMEDIO: Riesgo moderado, requiere análisis humano adicional")
	parts = append(parts, "- AVANZADO: Riesgo alto, requiere análisis exhaustivo por especialista senior")
	parts = append(parts, "\nResponde en formato JSON con esta estructura:")
	parts = append(parts, `{"nivel": "BASICO|INTERMEDIO|AVANZADO", "puntuacion": 0, "factores": [], "justificacion": ""}`)

	return strings.Join(parts, "\n")
}

func recommendationsPrompt(pc PromptContext) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"Basándote en la calificación de riesgo %s y el análisis detallado, genera recomendaciones específicas y accionables para:",
		priorJSON(pc, models.CategoryOverallRating)))
	parts = append(parts, "1. Mitigación de riesgos identificados")
	parts = append(parts, "2. Mejoras en la gestión financiera")
	parts = append(parts, "3. Aspectos a monitorear")
	parts = append(parts, "4. Acciones correctivas sugeridas")
	parts = append(parts, "\nProporciona entre 5 y 10 recomendaciones concretas.")
	parts = append(parts, "Responde como lista de strings en formato JSON.")

	return strings.Join(parts, "\n")
}

// summaryPrompt feeds the free-text executive summary generation. It is not a
// pipeline stage; its failure falls back to a fixed string.
func summaryPrompt(pc PromptContext, level models.RiskLevel, score int) string {
	var parts []string

	parts = append(parts, "Genera un resumen ejecutivo profesional basado en:")
	parts = append(parts, fmt.Sprintf("\nEMPRESA: %s (%s)", pc.CompanyName, pc.Sector))
	parts = append(parts, fmt.Sprintf("CALIFICACIÓN: %s (%d/100)", level, score))
	parts = append(parts, fmt.Sprintf("ANÁLISIS DETALLADO: %s", priorJSON(pc, models.CategoryOverallRating)))
	parts = append(parts, "\nEl resumen debe ser conciso (máximo 300 palabras), destacar los puntos clave,")
	parts = append(parts, "incluir la recomendación final y ser comprensible para ejecutivos.")
	parts = append(parts, "Escribe en tono profesional y directo.")

	return strings.Join(parts, "\n")
}

func priorJSON(pc PromptContext, cat models.AnalysisCategory) string {
	payload, ok := pc.Prior[cat]
	if !ok || len(payload) == 0 {
		return "{}"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(data)
}
