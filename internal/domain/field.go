package domain

import "reflect"

// Field data types accepted in a schema definition. "date" values travel as
// strings; "float" and "number" are interchangeable.
const (
	FieldTypeString  = "string"
	FieldTypeInteger = "integer"
	FieldTypeFloat   = "float"
	FieldTypeNumber  = "number"
	FieldTypeBoolean = "boolean"
	FieldTypeDate    = "date"
)

func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeString, FieldTypeInteger, FieldTypeFloat, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate:
		return true
	default:
		return false
	}
}

type FieldDefinition struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Example     any    `json:"example,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
}

// Equal compares all definition attributes structurally. Example survives a
// JSON round trip as float64/bool/string, which DeepEqual handles.
func (d FieldDefinition) Equal(other FieldDefinition) bool {
	return d.Type == other.Type &&
		d.Description == other.Description &&
		d.Required == other.Required &&
		d.Pattern == other.Pattern &&
		reflect.DeepEqual(d.Example, other.Example)
}

type FieldMap map[string]FieldDefinition

func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithReservedFields returns a copy guaranteed to contain the two reserved
// validation fields, injecting them when the generator omitted them.
func (m FieldMap) WithReservedFields() FieldMap {
	out := m.Clone()
	if _, ok := out[FieldInformationUnreadable]; !ok {
		out[FieldInformationUnreadable] = FieldDefinition{
			Type:        FieldTypeBoolean,
			Description: "Set to true if any required information is missing or unreadable",
			Required:    true,
			Example:     false,
		}
	}
	if _, ok := out[FieldIsDocumentCorrect]; !ok {
		out[FieldIsDocumentCorrect] = FieldDefinition{
			Type:        FieldTypeBoolean,
			Description: "Set to true if the document matches the expected document type",
			Required:    true,
			Example:     true,
		}
	}
	return out
}
