package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/schemaflow-backend/internal/data/db"
	internalhttp "github.com/yungbote/schemaflow-backend/internal/http"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	gdb, err := db.NewPostgres(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.Migrate(gdb, log); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	reposet := wireRepos(gdb, log)

	clientset, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(log, cfg, reposet, clientset)
	if err != nil {
		clientset.Close()
		log.Sync()
		return nil, err
	}

	if cfg.BootstrapSchemasDir != "" {
		if err := services.BootstrapSchemas(context.Background(), log, reposet.DocumentSchema, cfg.BootstrapSchemasDir); err != nil {
			log.Warn("schema bootstrap failed", "error", err)
		}
	}

	handlerset := wireHandlers(log, serviceset)
	router := internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:            log,
		ExtractHandler: handlerset.Extract,
		SchemaHandler:  handlerset.Schema,
		HealthHandler:  handlerset.Health,
	})

	return &App{
		Log:      log,
		DB:       gdb,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clientset,
		Services: serviceset,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
