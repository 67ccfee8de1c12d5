package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// ExtractorService pulls field values out of a document using an approved
// schema. Output is validated structurally against the schema's definitions.
type ExtractorService interface {
	Extract(ctx context.Context, docs []domain.Document, schema *domain.DocumentSchema) (map[string]any, error)
}

type llmExtractor struct {
	log *logger.Logger
	ai  AIClient
}

func NewLLMExtractor(log *logger.Logger, ai AIClient) ExtractorService {
	return &llmExtractor{log: log.With("service", "Extractor"), ai: ai}
}

const retryGuidance = `

RETRY: the previous extraction had type errors. Ensure every value matches its
declared type, dates are DD/MM/YYYY strings, required fields are present, and
fields not visible in the document are null.`

func (s *llmExtractor) Extract(ctx context.Context, docs []domain.Document, schema *domain.DocumentSchema) (map[string]any, error) {
	fields, err := schema.FieldMap()
	if err != nil {
		return nil, &schemaerr.ExtractionFailed{SchemaID: schema.ID, Err: err}
	}

	prompt := buildExtractionPrompt(schema, fields)

	// One corrective retry when the model's output fails structural validation.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		p := prompt
		if attempt > 0 {
			p += retryGuidance
		}
		values, err := s.ai.GenerateJSON(ctx, p, docs)
		if err != nil {
			return nil, &schemaerr.ExtractionFailed{SchemaID: schema.ID, Err: err}
		}
		if err := ValidateExtracted(values, fields); err != nil {
			lastErr = err
			s.log.Warn("extracted data failed validation",
				"schema_id", schema.ID,
				"attempt", attempt+1,
				"error", err.Error(),
			)
			continue
		}
		return values, nil
	}
	return nil, &schemaerr.ExtractionFailed{SchemaID: schema.ID, Err: lastErr}
}

func buildExtractionPrompt(schema *domain.DocumentSchema, fields domain.FieldMap) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, `Extract information from this %s document (images and/or PDFs) issued in %s.

Respond with a single JSON object keyed exactly by the expected fields below.

EXTRACTION RULES:
1. Provide the EXACT text/value as it appears in the document.
2. If any information is unreadable or unclear, set "information_unreadable" to true.
3. If the document does not match the expected type, set "is_document_correct" to false.
4. Dates use DD/MM/YYYY format unless the document clearly uses another.
5. Preserve original formatting; never guess or hallucinate values.
6. A field that is not visible is null.

Expected fields: %s

FIELD DESCRIPTIONS:
`, schema.DocumentType, schema.Country, strings.Join(names, ", "))

	for _, name := range names {
		desc := fields[name].Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, desc)
	}
	return b.String()
}
