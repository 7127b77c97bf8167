package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected RiskLevel
		ok       bool
	}{
		{"BASICO", RiskBasic, true},
		{"BÁSICO", RiskBasic, true},
		{"Basic", RiskBasic, true},
		{"intermedio", RiskIntermediate, true},
		{"Intermediate", RiskIntermediate, true},
		{"AVANZADO", RiskAdvanced, true},
		{"Advanced", RiskAdvanced, true},
		{"  avanzado  ", RiskAdvanced, true},
		{"critical", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, ok := ParseRiskLevel(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-10))
	assert.Equal(t, 0, ClampScore(0))
	assert.Equal(t, 85, ClampScore(85))
	assert.Equal(t, 100, ClampScore(100))
	assert.Equal(t, 100, ClampScore(250))
}

func TestCategories_OrderAndCardinality(t *testing.T) {
	cats := Categories()

	assert.Len(t, cats, 7)
	assert.Equal(t, CategoryLiquidity, cats[0])
	assert.Equal(t, CategoryOverallRating, cats[5])
	assert.Equal(t, CategoryRecommendations, cats[6])

	ratios := RatioCategories()
	assert.Len(t, ratios, 5)
	for _, cat := range ratios {
		assert.True(t, cat.IsRatio())
	}
	assert.False(t, CategoryOverallRating.IsRatio())
	assert.False(t, CategoryRecommendations.IsRatio())
}

func TestApproverFor(t *testing.T) {
	assert.Equal(t, "Analista Junior", ApproverFor(RiskBasic).Profile)
	assert.Equal(t, "Analista Senior", ApproverFor(RiskIntermediate).Profile)
	assert.Equal(t, "Especialista en Riesgos / Gerente", ApproverFor(RiskAdvanced).Profile)

	// Unknown levels fall back to the intermediate profile.
	assert.Equal(t, "Analista Senior", ApproverFor(RiskLevel("UNKNOWN")).Profile)
}

func fullRecord() *EvaluationRecord {
	record := &EvaluationRecord{SessionID: "test-session"}
	for _, cat := range Categories() {
		record.StageResults = append(record.StageResults, StageResult{
			Category: cat,
			Status:   StageSucceeded,
			Payload:  map[string]interface{}{},
		})
	}
	return record
}

func TestCheckInvariants_CompleteRecord(t *testing.T) {
	assert.NoError(t, fullRecord().CheckInvariants())
}

func TestCheckInvariants_MissingCategory(t *testing.T) {
	record := fullRecord()
	record.StageResults = record.StageResults[:6]

	err := record.CheckInvariants()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing stage result")
}

func TestCheckInvariants_DuplicateCategory(t *testing.T) {
	record := fullRecord()
	record.StageResults[6] = record.StageResults[0]

	err := record.CheckInvariants()
	assert.Error(t, err)
}

func TestCheckInvariants_UnknownCategory(t *testing.T) {
	record := fullRecord()
	record.StageResults[0].Category = AnalysisCategory("astrologia")

	err := record.CheckInvariants()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestDegradedCount(t *testing.T) {
	record := fullRecord()
	record.StageResults[0].Status = StageDegraded
	record.StageResults[3].Status = StageDegraded

	assert.Equal(t, 2, record.DegradedCount(Categories()))
	assert.Equal(t, 2, record.DegradedCount(RatioCategories()))

	record.StageResults[5].Status = StageDegraded
	assert.Equal(t, 3, record.DegradedCount(Categories()))
	assert.Equal(t, 2, record.DegradedCount(RatioCategories()))
}

func TestStage_Lookup(t *testing.T) {
	record := fullRecord()

	sr, ok := record.Stage(CategorySolvency)
	assert.True(t, ok)
	assert.Equal(t, CategorySolvency, sr.Category)

	_, ok = (&EvaluationRecord{}).Stage(CategorySolvency)
	assert.False(t, ok)
}
