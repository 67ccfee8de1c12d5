package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/schemaflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/schemaflow-backend/internal/http/middleware"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ExtractHandler *httpH.ExtractHandler
	SchemaHandler  *httpH.SchemaHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.ExtractHandler != nil {
			api.POST("/extract", cfg.ExtractHandler.Extract)
			api.POST("/extract-with-approved-schema", cfg.ExtractHandler.ExtractWithApprovedSchema)
			api.POST("/register-schema", cfg.ExtractHandler.RegisterSchema)
		}

		if cfg.SchemaHandler != nil {
			api.GET("/schemas", cfg.SchemaHandler.ListSchemas)
			api.PUT("/schemas/:id/approve", cfg.SchemaHandler.ApproveSchema)
			api.PUT("/schemas/:id/modify", cfg.SchemaHandler.ModifySchema)
			api.DELETE("/schemas/:id", cfg.SchemaHandler.DeleteSchema)
		}
	}

	return r
}
