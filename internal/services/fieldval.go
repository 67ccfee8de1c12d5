package services

import (
	"fmt"
	"math"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// ValidateExtracted checks a decoded extraction result against the schema's
// field definitions: required fields must be present and non-null, values must
// match their declared type, and fields outside the schema are rejected. This
// operates directly on the map representation; no runtime type synthesis.
func ValidateExtracted(values map[string]any, fields domain.FieldMap) error {
	for name := range values {
		if _, ok := fields[name]; !ok {
			return &schemaerr.Validation{Field: name, Reason: "not part of the schema"}
		}
	}
	for name, def := range fields {
		val, present := values[name]
		if !present || val == nil {
			if def.Required {
				return &schemaerr.Validation{Field: name, Reason: "required field is missing"}
			}
			continue
		}
		if err := checkValueType(name, def.Type, val); err != nil {
			return err
		}
	}
	return nil
}

func checkValueType(name, fieldType string, val any) error {
	switch fieldType {
	case domain.FieldTypeString, domain.FieldTypeDate:
		if _, ok := val.(string); !ok {
			return typeMismatch(name, fieldType, val)
		}
	case domain.FieldTypeInteger:
		f, ok := val.(float64)
		if !ok || f != math.Trunc(f) {
			return typeMismatch(name, fieldType, val)
		}
	case domain.FieldTypeFloat, domain.FieldTypeNumber:
		if _, ok := val.(float64); !ok {
			return typeMismatch(name, fieldType, val)
		}
	case domain.FieldTypeBoolean:
		if _, ok := val.(bool); !ok {
			return typeMismatch(name, fieldType, val)
		}
	default:
		return &schemaerr.Validation{Field: name, Reason: fmt.Sprintf("invalid type %q", fieldType)}
	}
	return nil
}

func typeMismatch(name, fieldType string, val any) error {
	return &schemaerr.Validation{
		Field:  name,
		Reason: fmt.Sprintf("expected %s, got %T", fieldType, val),
	}
}
