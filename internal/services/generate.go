package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// GeneratedSchema is the external generator's output after normalization:
// validated field definitions with the reserved validation fields injected.
type GeneratedSchema struct {
	Fields     domain.FieldMap
	Confidence float64
}

type SchemaGeneratorService interface {
	Generate(ctx context.Context, docs []domain.Document, documentType, country string) (*GeneratedSchema, error)
}

type llmSchemaGenerator struct {
	log *logger.Logger
	ai  AIClient
}

func NewLLMSchemaGenerator(log *logger.Logger, ai AIClient) SchemaGeneratorService {
	return &llmSchemaGenerator{log: log.With("service", "SchemaGenerator"), ai: ai}
}

const fieldListPromptTemplate = `Analyze the provided document(s) (images and/or PDFs) for a %s from %s.
Identify every distinct field and label present in the document(s).

Respond with one JSON object: {"field_names": ["...", ...]}

FIELD NAMING RULES:
- snake_case for every field name.
- Visual elements use the "_present" suffix: signature_present, photo_present,
  qr_code_present. Never plain "signature" or "photo".
- Include text fields (names, dates, id numbers) and any visible headers or
  department names.`

const schemaPromptTemplate = `Generate a detailed extraction schema for a %s from %s covering these fields: %s.

Respond with one JSON object:
{
  "fields": {
    "<field_name>": {
      "type": "string" | "integer" | "date" | "boolean",
      "description": "...",
      "required": true | false,
      "example": "...",        // optional
      "pattern": "..."         // optional regex, escape backslashes
    },
    ...
  },
  "confidence": <0.0-1.0>
}

RULES:
1. Use only the types listed above.
2. Most fields are optional (required: false); only validation fields are required.
3. Include presence-detection boolean fields for photos, signatures and QR codes.
4. Always include the validation fields "information_unreadable" and
   "is_document_correct" as required booleans.
5. Add a regex pattern for structured values (id numbers, dates) when appropriate,
   with properly escaped backslashes.
6. Provide realistic examples based on what is visible.`

func (s *llmSchemaGenerator) Generate(ctx context.Context, docs []domain.Document, documentType, country string) (*GeneratedSchema, error) {
	var fieldNames []string

	// Field discovery and attachment validation run concurrently; the schema
	// call needs both.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prompt := fmt.Sprintf(fieldListPromptTemplate, documentType, country)
		obj, err := s.ai.GenerateJSON(gctx, prompt, docs)
		if err != nil {
			return err
		}
		names, err := decodeFieldNames(obj)
		if err != nil {
			return err
		}
		fieldNames = names
		return nil
	})
	g.Go(func() error {
		_, err := documentParts(docs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, &schemaerr.GenerationFailed{DocumentType: documentType, Country: country, Err: err}
	}

	prompt := fmt.Sprintf(schemaPromptTemplate, documentType, country, strings.Join(fieldNames, ", "))
	obj, err := s.ai.GenerateJSON(ctx, prompt, docs)
	if err != nil {
		return nil, &schemaerr.GenerationFailed{DocumentType: documentType, Country: country, Err: err}
	}

	gen, err := decodeGeneratedSchema(obj)
	if err != nil {
		return nil, &schemaerr.GenerationFailed{DocumentType: documentType, Country: country, Err: err}
	}

	s.log.Info("schema generated",
		"document_type", documentType,
		"country", country,
		"field_count", len(gen.Fields),
		"confidence", gen.Confidence,
	)
	return gen, nil
}

func decodeFieldNames(obj map[string]any) ([]string, error) {
	rawList, ok := obj["field_names"].([]any)
	if !ok || len(rawList) == 0 {
		return nil, fmt.Errorf("generator returned no field names")
	}
	names := make([]string, 0, len(rawList))
	for _, v := range rawList {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			names = append(names, domain.NormalizeDocumentType(s))
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("generator returned no usable field names")
	}
	return names, nil
}

func decodeGeneratedSchema(obj map[string]any) (*GeneratedSchema, error) {
	rawFields, ok := obj["fields"]
	if !ok {
		// Some replies inline the field map at the top level next to confidence.
		inline := make(map[string]any, len(obj))
		for k, v := range obj {
			if k == "confidence" {
				continue
			}
			inline[k] = v
		}
		rawFields = inline
	}

	encoded, err := json.Marshal(rawFields)
	if err != nil {
		return nil, err
	}
	var fields domain.FieldMap
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("generator field map is malformed: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("generator produced an empty schema")
	}
	for name, def := range fields {
		if err := ValidateFieldDefinition(name, def); err != nil {
			return nil, err
		}
	}

	confidence := 0.0
	if c, ok := obj["confidence"].(float64); ok {
		confidence = c
	}

	return &GeneratedSchema{
		Fields:     fields.WithReservedFields(),
		Confidence: confidence,
	}, nil
}
