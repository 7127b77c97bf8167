package contract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Valid(t *testing.T) {
	outcome := Validate(`{"ratios": {"corriente": 1.5}, "interpretacion": "adecuada"}`)

	assert.Equal(t, Valid, outcome.Kind)
	obj, ok := outcome.Object()
	assert.True(t, ok)
	assert.Equal(t, "adecuada", obj["interpretacion"])
}

func TestValidate_ValidList(t *testing.T) {
	outcome := Validate(`["primera recomendación", "segunda recomendación"]`)

	assert.Equal(t, Valid, outcome.Kind)
	_, isObj := outcome.Object()
	assert.False(t, isObj)
	list, isList := outcome.List()
	assert.True(t, isList)
	assert.Len(t, list, 2)
}

func TestValidate_Empty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"newlines and tabs", "\n\t\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Validate(tt.raw)
			assert.Equal(t, Empty, outcome.Kind)
		})
	}
}

func TestValidate_Malformed(t *testing.T) {
	outcome := Validate(`{not json at all`)

	assert.Equal(t, Malformed, outcome.Kind)
	assert.NotEmpty(t, outcome.ParseError)
	assert.Equal(t, `{not json at all`, outcome.RawExcerpt)
}

func TestValidate_MalformedExcerptCapped(t *testing.T) {
	raw := "{broken " + strings.Repeat("x", 2000)

	outcome := Validate(raw)

	assert.Equal(t, Malformed, outcome.Kind)
	assert.Len(t, outcome.RawExcerpt, 500)
}

func TestValidate_ServiceReportedError(t *testing.T) {
	outcome := Validate(`{"error": "model overloaded"}`)

	assert.Equal(t, ServiceReportedError, outcome.Kind)
	assert.Equal(t, "model overloaded", outcome.ErrorMessage)
}

func TestValidate_ErrorKeyAmongOtherFields(t *testing.T) {
	// The reserved key wins even when the rest of the payload looks usable.
	outcome := Validate(`{"error": "partial failure", "ratios": {"corriente": 1.2}}`)

	assert.Equal(t, ServiceReportedError, outcome.Kind)
	assert.Equal(t, "partial failure", outcome.ErrorMessage)
}

func TestValidate_NonStringErrorValue(t *testing.T) {
	outcome := Validate(`{"error": {"code": 503}}`)

	assert.Equal(t, ServiceReportedError, outcome.Kind)
	assert.NotEmpty(t, outcome.ErrorMessage)
}

func TestCheckSchema(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"nivel":      map[string]interface{}{"type": "string"},
			"puntuacion": map[string]interface{}{"type": "number"},
		},
	}

	t.Run("conforming payload", func(t *testing.T) {
		err := CheckSchema(map[string]interface{}{
			"nivel":      "INTERMEDIO",
			"puntuacion": 50.0,
		}, schema)
		assert.Nil(t, err)
	})

	t.Run("wrong field type", func(t *testing.T) {
		err := CheckSchema(map[string]interface{}{
			"nivel":      42,
			"puntuacion": "high",
		}, schema)
		assert.NotNil(t, err)
	})

	t.Run("absent fields pass", func(t *testing.T) {
		err := CheckSchema(map[string]interface{}{}, schema)
		assert.Nil(t, err)
	})
}
