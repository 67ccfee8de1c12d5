package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/schemaflow-backend/internal/data/repos"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

type Repos struct {
	DocumentSchema repos.DocumentSchemaRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		DocumentSchema: repos.NewDocumentSchemaRepo(db, log),
	}
}
