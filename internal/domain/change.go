package domain

import "time"

type ChangeType string

const (
	ChangeFieldAdded   ChangeType = "field_added"
	ChangeFieldUpdated ChangeType = "field_updated"
	ChangeFieldRemoved ChangeType = "field_removed"
)

// SchemaChange is one structural difference between two field maps.
type SchemaChange struct {
	ChangeType ChangeType       `json:"change_type"`
	FieldName  string           `json:"field_name"`
	OldValue   *FieldDefinition `json:"old_value,omitempty"`
	NewValue   *FieldDefinition `json:"new_value,omitempty"`
}

type ChangeCounts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

type ModificationMetadata struct {
	Timestamp         time.Time    `json:"modification_timestamp"`
	TotalChanges      int          `json:"total_changes"`
	ChangeTypes       ChangeCounts `json:"change_types"`
	ChangeDescription string       `json:"change_description"`
	AffectedFields    []string     `json:"affected_fields"`
}
