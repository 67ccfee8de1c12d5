package services

import (
	"testing"

	"github.com/yungbote/schemaflow-backend/internal/domain"
)

func extractionFields() domain.FieldMap {
	return domain.FieldMap{
		"name":    {Type: domain.FieldTypeString, Description: "full name", Required: true},
		"age":     {Type: domain.FieldTypeInteger, Description: "age in years"},
		"weight":  {Type: domain.FieldTypeFloat, Description: "weight"},
		"dob":     {Type: domain.FieldTypeDate, Description: "date of birth"},
		"consent": {Type: domain.FieldTypeBoolean, Description: "consent given"},
	}
}

func TestValidateExtractedAccepts(t *testing.T) {
	// Decoded JSON carries numbers as float64.
	values := map[string]any{
		"name":    "Asha Verma",
		"age":     float64(34),
		"weight":  61.5,
		"dob":     "12/04/1991",
		"consent": true,
	}
	if err := ValidateExtracted(values, extractionFields()); err != nil {
		t.Fatalf("valid values rejected: %v", err)
	}
}

func TestValidateExtractedOptionalNull(t *testing.T) {
	values := map[string]any{
		"name": "Asha Verma",
		"age":  nil,
	}
	if err := ValidateExtracted(values, extractionFields()); err != nil {
		t.Fatalf("null optional rejected: %v", err)
	}
}

func TestValidateExtractedRejects(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]any
	}{
		{"missing required", map[string]any{"age": float64(34)}},
		{"null required", map[string]any{"name": nil}},
		{"unknown field", map[string]any{"name": "x", "salary": float64(1)}},
		{"string for integer", map[string]any{"name": "x", "age": "34"}},
		{"fractional integer", map[string]any{"name": "x", "age": 34.5}},
		{"number for boolean", map[string]any{"name": "x", "consent": float64(1)}},
		{"number for date", map[string]any{"name": "x", "dob": float64(1991)}},
	}
	for _, tc := range cases {
		if err := ValidateExtracted(tc.values, extractionFields()); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestParseModelJSON(t *testing.T) {
	got, err := ParseModelJSON("Here is the result:\n```json\n{\"a\": 1}\n```\nDone.")
	if err != nil {
		t.Fatalf("fenced payload rejected: %v", err)
	}
	if got["a"] != float64(1) {
		t.Errorf("a = %v", got["a"])
	}

	// Unescaped regex escapes inside pattern strings get repaired.
	got, err = ParseModelJSON(`{"pattern": "[A-Z]{5}\d{4}"}`)
	if err != nil {
		t.Fatalf("repairable payload rejected: %v", err)
	}
	if got["pattern"] != `[A-Z]{5}\d{4}` {
		t.Errorf("pattern = %q", got["pattern"])
	}

	if _, err := ParseModelJSON("no json here"); err == nil {
		t.Error("prose without an object accepted")
	}
}
