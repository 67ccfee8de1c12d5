package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/schemaflow-backend/internal/domain"
)

func Fields(names ...string) domain.FieldMap {
	fm := domain.FieldMap{}
	for _, name := range names {
		fm[name] = domain.FieldDefinition{
			Type:        domain.FieldTypeString,
			Description: "value of " + name,
		}
	}
	return fm.WithReservedFields()
}

func SeedSchema(tb testing.TB, gdb *gorm.DB, documentType, country string, status domain.SchemaStatus, version int) *domain.DocumentSchema {
	tb.Helper()
	rec := &domain.DocumentSchema{
		ID:           uuid.New(),
		DocumentType: documentType,
		Country:      country,
		Status:       status,
		Version:      version,
	}
	if err := rec.SetFieldMap(Fields("name", "number")); err != nil {
		tb.Fatalf("seed schema fields: %v", err)
	}
	if err := gdb.Create(rec).Error; err != nil {
		tb.Fatalf("seed schema: %v", err)
	}
	return rec
}
