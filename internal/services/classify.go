package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// ClassifierService identifies the document type and issuing country of an
// uploaded document batch. Implementations own their retry policy; callers
// treat "all retries exhausted" as a single terminal failure.
type ClassifierService interface {
	Classify(ctx context.Context, docs []domain.Document) (*domain.Classification, error)
}

const classificationPrompt = `Analyze the provided document(s) (images and/or PDFs), classify the document type and identify the issuing country.

Respond with a single JSON object:
{
  "document_type": "<specific type, lowercase snake_case>",
  "country": "<ISO 3166-1 alpha-2, UPPERCASE>",
  "confidence": <0.0-1.0>,
  "alternative_types": [{"document_type": "...", "confidence": <0.0-1.0>}]
}

DOCUMENT TYPE RULES:
- Use specific lowercase snake_case names: aadhar_card, pan_card, passport,
  driver_license, voter_id, bank_statement, utility_bill, income_certificate,
  birth_certificate, marriage_certificate, property_deed, insurance_policy,
  medical_report, academic_certificate, employment_letter.
- Never use generic buckets like "other_government_id". If the document matches
  none of the above, use the exact title you see (e.g. "domicile_certificate").
- Read the document title/header carefully and prefer it as the type name.
- Provide alternative_types when confidence is below 0.8.

COUNTRY RULES:
- Exactly two uppercase letters (IN, US, GB, ...). Use government seals,
  language, and formatting to decide. If uncertain, use "XX".

Be conservative with confidence; only use 0.9+ for very clear documents.`

type llmClassifier struct {
	log *logger.Logger
	ai  AIClient
}

func NewLLMClassifier(log *logger.Logger, ai AIClient) ClassifierService {
	return &llmClassifier{log: log.With("service", "LLMClassifier"), ai: ai}
}

func (s *llmClassifier) Classify(ctx context.Context, docs []domain.Document) (*domain.Classification, error) {
	obj, err := s.ai.GenerateJSON(ctx, classificationPrompt, docs)
	if err != nil {
		return nil, &schemaerr.ClassificationFailed{Err: err}
	}

	c, err := decodeClassification(obj)
	if err != nil {
		return nil, &schemaerr.ClassificationFailed{Err: err}
	}

	s.log.Info("document classified",
		"document_type", c.DocumentType,
		"country", c.Country,
		"confidence", c.Confidence,
	)
	return c, nil
}

func decodeClassification(obj map[string]any) (*domain.Classification, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var c domain.Classification
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unusable classifier output: %w", err)
	}
	c.DocumentType = domain.NormalizeDocumentType(c.DocumentType)
	if c.DocumentType == "" {
		return nil, fmt.Errorf("classifier returned no document type")
	}
	c.Country = domain.NormalizeCountry(c.Country)
	if c.Confidence < 0 || c.Confidence > 1 {
		return nil, fmt.Errorf("classifier confidence %v out of range", c.Confidence)
	}
	for i := range c.AlternativeTypes {
		c.AlternativeTypes[i].DocumentType = domain.NormalizeDocumentType(c.AlternativeTypes[i].DocumentType)
	}
	return &c, nil
}
