package app

import (
	"fmt"

	"github.com/yungbote/schemaflow-backend/internal/clients/gcp"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/services"
)

type Services struct {
	Classifier services.ClassifierService
	Generator  services.SchemaGeneratorService
	Extractor  services.ExtractorService
	Workflow   services.WorkflowService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	ai, err := services.NewOpenAIClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init ai client: %w", err)
	}

	var classifier services.ClassifierService
	switch cfg.ClassifierProvider {
	case "docai":
		classifier, err = gcp.NewDocAIClassifier(log)
		if err != nil {
			return Services{}, fmt.Errorf("init docai classifier: %w", err)
		}
	case "llm":
		classifier = services.NewLLMClassifier(log, ai)
	default:
		return Services{}, fmt.Errorf("unknown CLASSIFIER_PROVIDER %q (want llm or docai)", cfg.ClassifierProvider)
	}

	generator := services.NewLLMSchemaGenerator(log, ai)
	extractor := services.NewLLMExtractor(log, ai)

	// Nil interface values for the optional collaborators, not typed nils.
	var typeCache services.TypeCache
	if clients.TypeCache != nil {
		typeCache = clients.TypeCache
	}
	var archiver services.DocumentArchiver
	if clients.Archiver != nil {
		archiver = clients.Archiver
	}

	workflow := services.NewWorkflowService(
		log,
		reposet.DocumentSchema,
		classifier,
		generator,
		extractor,
		typeCache,
		archiver,
		services.WorkflowConfig{
			Gate:               services.NewConfidenceGate(cfg.MinConfidence),
			TypeMatchThreshold: cfg.TypeMatchThreshold,
		},
	)

	return Services{
		Classifier: classifier,
		Generator:  generator,
		Extractor:  extractor,
		Workflow:   workflow,
	}, nil
}
