package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SchemaStatus string

const (
	StatusInReview   SchemaStatus = "in_review"
	StatusActive     SchemaStatus = "active"
	StatusDeprecated SchemaStatus = "deprecated"
)

func (s SchemaStatus) Valid() bool {
	switch s {
	case StatusInReview, StatusActive, StatusDeprecated:
		return true
	default:
		return false
	}
}

// Reserved validation fields present on every schema regardless of what the
// generator produced.
const (
	FieldInformationUnreadable = "information_unreadable"
	FieldIsDocumentCorrect     = "is_document_correct"
)

// DocumentSchema is one version of an extraction schema for a
// (document_type, country) lineage.
type DocumentSchema struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentType string         `gorm:"column:document_type;not null;index:idx_document_type_country,priority:1" json:"document_type"`
	Country      string         `gorm:"column:country;not null;index:idx_document_type_country,priority:2" json:"country"`
	Fields       datatypes.JSON `gorm:"column:fields;not null" json:"fields"`
	Status       SchemaStatus   `gorm:"column:status;not null;default:'in_review';index" json:"status"`
	Version      int            `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (DocumentSchema) TableName() string { return "document_schema" }

func (s *DocumentSchema) FieldMap() (FieldMap, error) {
	var fm FieldMap
	if len(s.Fields) == 0 {
		return FieldMap{}, nil
	}
	if err := json.Unmarshal(s.Fields, &fm); err != nil {
		return nil, fmt.Errorf("decode schema fields: %w", err)
	}
	return fm, nil
}

func (s *DocumentSchema) SetFieldMap(fm FieldMap) error {
	raw, err := json.Marshal(fm)
	if err != nil {
		return fmt.Errorf("encode schema fields: %w", err)
	}
	s.Fields = datatypes.JSON(raw)
	return nil
}

// SchemaInfo is the summary shape returned by list and error payloads.
type SchemaInfo struct {
	ID           uuid.UUID    `json:"schema_id"`
	DocumentType string       `json:"document_type"`
	Country      string       `json:"country"`
	Status       SchemaStatus `json:"status"`
	Version      int          `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (s *DocumentSchema) Info() SchemaInfo {
	return SchemaInfo{
		ID:           s.ID,
		DocumentType: s.DocumentType,
		Country:      s.Country,
		Status:       s.Status,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
