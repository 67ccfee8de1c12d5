package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/schemaflow-backend/internal/data/repos/schemas"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

type DocumentSchemaRepo = schemas.DocumentSchemaRepo

func NewDocumentSchemaRepo(db *gorm.DB, log *logger.Logger) DocumentSchemaRepo {
	return schemas.NewDocumentSchemaRepo(db, log)
}
