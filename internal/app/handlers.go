package app

import (
	httpH "github.com/yungbote/schemaflow-backend/internal/http/handlers"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

type Handlers struct {
	Extract *httpH.ExtractHandler
	Schema  *httpH.SchemaHandler
	Health  *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Extract: httpH.NewExtractHandler(log, serviceset.Workflow),
		Schema:  httpH.NewSchemaHandler(log, serviceset.Workflow),
		Health:  httpH.NewHealthHandler(),
	}
}
