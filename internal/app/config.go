package app

import (
	"github.com/yungbote/schemaflow-backend/internal/platform/envutil"
	"github.com/yungbote/schemaflow-backend/internal/services"
)

type Config struct {
	Port                string
	ClassifierProvider  string
	MinConfidence       float64
	TypeMatchThreshold  float64
	BootstrapSchemasDir string
}

func LoadConfig() Config {
	return Config{
		Port:                envutil.Str("PORT", "8080"),
		ClassifierProvider:  envutil.Str("CLASSIFIER_PROVIDER", "llm"),
		MinConfidence:       envutil.Float("SCHEMAFLOW_MIN_CLASSIFICATION_CONFIDENCE", services.DefaultMinClassificationConfidence),
		TypeMatchThreshold:  envutil.Float("TYPE_MATCH_THRESHOLD", services.DefaultTypeMatchThreshold),
		BootstrapSchemasDir: envutil.Str("BOOTSTRAP_SCHEMAS_DIR", ""),
	}
}
