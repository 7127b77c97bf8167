package models

import (
	"fmt"
	"strings"
	"time"
)

// StageStatus distinguishes usable stage payloads from substituted fallbacks.
type StageStatus string

const (
	StageSucceeded StageStatus = "SUCCEEDED"
	StageDegraded  StageStatus = "DEGRADED"
)

// RiskLevel is the overall classification of an evaluation. The wire values
// match the original rating scale.
type RiskLevel string

const (
	RiskBasic        RiskLevel = "BASICO"
	RiskIntermediate RiskLevel = "INTERMEDIO"
	RiskAdvanced     RiskLevel = "AVANZADO"
)

// ParseRiskLevel normalizes a free-text level emitted by the generation
// service. The service answers in Spanish or English depending on the prompt
// language, so both spellings are accepted.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BASICO", "BÁSICO", "BASIC":
		return RiskBasic, true
	case "INTERMEDIO", "INTERMEDIATE":
		return RiskIntermediate, true
	case "AVANZADO", "ADVANCED":
		return RiskAdvanced, true
	}
	return "", false
}

// ClampScore bounds a risk score to the valid [0, 100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StageResult is the per-category output of one stage execution. It is
// created once by the stage executor and never mutated afterwards.
type StageResult struct {
	Category  AnalysisCategory       `json:"category"`
	Status    StageStatus            `json:"status"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// Degraded reports whether the stage resolved via a fallback payload.
func (r StageResult) Degraded() bool {
	return r.Status == StageDegraded
}

// ApproverProfile describes the human profile that must review an evaluation
// of a given risk level.
type ApproverProfile struct {
	Profile       string `json:"profile"`
	MinExperience string `json:"min_experience"`
	Specialty     string `json:"specialty"`
	Authority     string `json:"authority"`
	Supervision   string `json:"supervision"`
}

// ApproverFor maps a risk level to the review profile it requires.
func ApproverFor(level RiskLevel) ApproverProfile {
	switch level {
	case RiskBasic:
		return ApproverProfile{
			Profile:       "Analista Junior",
			MinExperience: "1-2 años",
			Specialty:     "Análisis básico de estados financieros",
			Authority:     "Hasta $100,000 USD",
			Supervision:   "Revisión por muestreo",
		}
	case RiskAdvanced:
		return ApproverProfile{
			Profile:       "Especialista en Riesgos / Gerente",
			MinExperience: "5+ años",
			Specialty:     "Análisis complejo de riesgos y decisiones estratégicas",
			Authority:     "Sin límite o comité de riesgos",
			Supervision:   "Revisión por comité ejecutivo",
		}
	default:
		return ApproverProfile{
			Profile:       "Analista Senior",
			MinExperience: "3-5 años",
			Specialty:     "Análisis de riesgos y evaluación financiera",
			Authority:     "Hasta $500,000 USD",
			Supervision:   "Revisión por analista principal",
		}
	}
}

// EvaluationRecord is the terminal artifact of one evaluation. It always
// carries exactly one StageResult per AnalysisCategory, in pipeline order,
// even when every external call failed.
type EvaluationRecord struct {
	SessionID        string          `json:"session_id"`
	CompanyName      string          `json:"company_name"`
	Sector           string          `json:"sector"`
	StageResults     []StageResult   `json:"stage_results"`
	OverallRiskLevel RiskLevel       `json:"overall_risk_level"`
	OverallScore     int             `json:"overall_score"`
	ExecutiveSummary string          `json:"executive_summary,omitempty"`
	ApproverProfile  ApproverProfile `json:"approver_profile"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Stage returns the result for the given category.
func (r *EvaluationRecord) Stage(category AnalysisCategory) (StageResult, bool) {
	for _, sr := range r.StageResults {
		if sr.Category == category {
			return sr, true
		}
	}
	return StageResult{}, false
}

// DegradedCount returns how many of the given categories degraded.
func (r *EvaluationRecord) DegradedCount(categories []AnalysisCategory) int {
	count := 0
	for _, cat := range categories {
		if sr, ok := r.Stage(cat); ok && sr.Degraded() {
			count++
		}
	}
	return count
}

// CheckInvariants verifies the stage cardinality invariant: one result per
// category, no duplicates, no omissions. A violation indicates a coordinator
// defect, not a runtime condition.
func (r *EvaluationRecord) CheckInvariants() error {
	seen := make(map[AnalysisCategory]int, len(r.StageResults))
	for _, sr := range r.StageResults {
		if !sr.Category.Valid() {
			return fmt.Errorf("unknown category %q in stage results", sr.Category)
		}
		seen[sr.Category]++
	}

	for _, cat := range Categories() {
		switch seen[cat] {
		case 1:
		case 0:
			return fmt.Errorf("missing stage result for category %q", cat)
		default:
			return fmt.Errorf("duplicate stage result for category %q (%d entries)", cat, seen[cat])
		}
	}

	if len(r.StageResults) != len(Categories()) {
		return fmt.Errorf("expected %d stage results, got %d", len(Categories()), len(r.StageResults))
	}

	return nil
}
