package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

// Partial unique indexes are the last line of defense for the lineage
// invariants: at most one ACTIVE and one IN_REVIEW record per
// (document_type, country), enforced even when two requests race past the
// application-level checks. The SQL works on both postgres and sqlite.
var lineageIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_document_schema_active
	 ON document_schema (document_type, country) WHERE status = 'active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_document_schema_in_review
	 ON document_schema (document_type, country) WHERE status = 'in_review'`,
}

func Migrate(gdb *gorm.DB, log *logger.Logger) error {
	log.Info("migrating schema store tables")
	if err := gdb.AutoMigrate(&domain.DocumentSchema{}); err != nil {
		log.Error("auto migration failed", "error", err)
		return fmt.Errorf("automigrate: %w", err)
	}
	for _, stmt := range lineageIndexes {
		if err := gdb.Exec(stmt).Error; err != nil {
			log.Error("failed to create lineage index", "error", err)
			return fmt.Errorf("lineage index: %w", err)
		}
	}
	return nil
}
