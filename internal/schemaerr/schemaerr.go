// Package schemaerr holds the typed failures of the schema lifecycle. Every
// error carries enough structured context for an operator to act without
// reading logs; handlers map them onto HTTP statuses.
package schemaerr

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/schemaflow-backend/internal/domain"
)

// Conflict means a lineage already holds an ACTIVE or IN_REVIEW record. It is
// an expected business outcome, not a bug.
type Conflict struct {
	Existing *domain.DocumentSchema
}

func (e *Conflict) Error() string {
	if e.Existing == nil {
		return "schema already exists for this document type and country"
	}
	return fmt.Sprintf("schema already exists for %s/%s (id=%s status=%s version=%d)",
		e.Existing.DocumentType, e.Existing.Country, e.Existing.ID, e.Existing.Status, e.Existing.Version)
}

// NotFound means no schema exists for the given id.
type NotFound struct {
	ID uuid.UUID
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("schema %s not found", e.ID)
}

// InvalidState means the operation targeted a record in the wrong status or
// the wrong lineage position.
type InvalidState struct {
	ID     uuid.UUID
	Status domain.SchemaStatus
	Reason string
}

func (e *InvalidState) Error() string {
	return fmt.Sprintf("schema %s (status=%s): %s", e.ID, e.Status, e.Reason)
}

// Validation means a malformed field definition or modification payload.
type Validation struct {
	Field  string
	Reason string
}

func (e *Validation) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// LowConfidence means classification succeeded but is below the configured
// threshold; the caller must surface it to an operator instead of proceeding.
type LowConfidence struct {
	Classification *domain.Classification
	Min            float64
}

func (e *LowConfidence) Error() string {
	if e.Classification == nil {
		return "classification confidence below threshold"
	}
	return fmt.Sprintf("classification confidence %.2f below threshold %.2f for %s/%s",
		e.Classification.Confidence, e.Min, e.Classification.DocumentType, e.Classification.Country)
}

// NotApproved distinguishes "a schema exists but is still in review" from
// "no schema exists" on the strict extraction path.
type NotApproved struct {
	Schema *domain.DocumentSchema
}

func (e *NotApproved) Error() string {
	if e.Schema == nil {
		return "schema not approved for extraction"
	}
	return fmt.Sprintf("schema for %s/%s is still in review (id=%s version=%d)",
		e.Schema.DocumentType, e.Schema.Country, e.Schema.ID, e.Schema.Version)
}

// NoActiveSchema is the strict-mode miss: nothing usable exists for the
// classified lineage. It carries the classification for operator follow-up.
type NoActiveSchema struct {
	Classification *domain.Classification
}

func (e *NoActiveSchema) Error() string {
	if e.Classification == nil {
		return "no approved schema exists"
	}
	return fmt.Sprintf("no approved schema exists for %s/%s",
		e.Classification.DocumentType, e.Classification.Country)
}

// ClassificationFailed means the classifier exhausted its retries or returned
// unusable output. Terminal for the request.
type ClassificationFailed struct {
	Err error
}

func (e *ClassificationFailed) Error() string {
	if e.Err == nil {
		return "document classification failed"
	}
	return fmt.Sprintf("document classification failed: %v", e.Err)
}

func (e *ClassificationFailed) Unwrap() error { return e.Err }

// GenerationFailed means schema generation exhausted its retries. Terminal for
// the request; the caller may retry the whole workflow.
type GenerationFailed struct {
	DocumentType string
	Country      string
	Err          error
}

func (e *GenerationFailed) Error() string {
	return fmt.Sprintf("schema generation failed for %s/%s: %v", e.DocumentType, e.Country, e.Err)
}

func (e *GenerationFailed) Unwrap() error { return e.Err }

// ExtractionFailed means extraction against an approved schema produced no
// usable data.
type ExtractionFailed struct {
	SchemaID uuid.UUID
	Err      error
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("extraction with schema %s failed: %v", e.SchemaID, e.Err)
}

func (e *ExtractionFailed) Unwrap() error { return e.Err }
