package models

// AnalysisCategory identifies one independent analysis stage run against the
// generation service. The set is fixed; wire values keep the original Spanish
// identifiers so stored records stay compatible with the report templates.
type AnalysisCategory string

const (
	CategoryLiquidity       AnalysisCategory = "liquidez"
	CategorySolvency        AnalysisCategory = "solvencia"
	CategoryProfitability   AnalysisCategory = "rentabilidad"
	CategoryEfficiency      AnalysisCategory = "eficiencia"
	CategorySectorRisk      AnalysisCategory = "sectorial"
	CategoryOverallRating   AnalysisCategory = "calificacion"
	CategoryRecommendations AnalysisCategory = "recomendaciones"
)

// Categories returns every analysis category in pipeline order: the five
// financial-ratio categories first, then the rating and recommendation stages
// that consume their payloads.
func Categories() []AnalysisCategory {
	return []AnalysisCategory{
		CategoryLiquidity,
		CategorySolvency,
		CategoryProfitability,
		CategoryEfficiency,
		CategorySectorRisk,
		CategoryOverallRating,
		CategoryRecommendations,
	}
}

// RatioCategories returns the five financial-ratio categories that run in
// phase one and may execute concurrently.
func RatioCategories() []AnalysisCategory {
	return []AnalysisCategory{
		CategoryLiquidity,
		CategorySolvency,
		CategoryProfitability,
		CategoryEfficiency,
		CategorySectorRisk,
	}
}

// IsRatio reports whether c is one of the five financial-ratio categories.
func (c AnalysisCategory) IsRatio() bool {
	switch c {
	case CategoryLiquidity, CategorySolvency, CategoryProfitability, CategoryEfficiency, CategorySectorRisk:
		return true
	}
	return false
}

// Valid reports whether c is a known category.
func (c AnalysisCategory) Valid() bool {
	switch c {
	case CategoryLiquidity, CategorySolvency, CategoryProfitability, CategoryEfficiency,
		CategorySectorRisk, CategoryOverallRating, CategoryRecommendations:
		return true
	}
	return false
}

// Title returns the human-readable section heading used in reports.
func (c AnalysisCategory) Title() string {
	switch c {
	case CategoryLiquidity:
		return "Análisis de Liquidez"
	case CategorySolvency:
		return "Análisis de Solvencia"
	case CategoryProfitability:
		return "Análisis de Rentabilidad"
	case CategoryEfficiency:
		return "Análisis de Eficiencia"
	case CategorySectorRisk:
		return "Análisis de Riesgo Sectorial"
	case CategoryOverallRating:
		return "Calificación de Riesgo"
	case CategoryRecommendations:
		return "Recomendaciones"
	}
	return string(c)
}
