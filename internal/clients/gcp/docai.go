package gcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/envutil"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// DocAIClassifier classifies documents with a Document AI custom classifier
// processor instead of the LLM. The processor labels carry the document type;
// country comes from DOCUMENTAI_COUNTRY since classifier processors are
// trained per region.
type DocAIClassifier struct {
	log     *logger.Logger
	client  *documentai.DocumentProcessorClient
	name    string
	country string
	timeout time.Duration
}

func NewDocAIClassifier(log *logger.Logger) (*DocAIClassifier, error) {
	project := envutil.Str("DOCUMENTAI_PROJECT_ID", "")
	location := envutil.Str("DOCUMENTAI_LOCATION", "us")
	processorID := envutil.Str("DOCUMENTAI_PROCESSOR_ID", "")
	if project == "" || processorID == "" {
		return nil, fmt.Errorf("DOCUMENTAI_PROJECT_ID and DOCUMENTAI_PROCESSOR_ID are required for the docai classifier")
	}

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	client, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog := log.With("client", "DocAIClassifier")
	slog.Info("Document AI classifier initialized", "endpoint", endpoint)

	return &DocAIClassifier{
		log:     slog,
		client:  client,
		name:    fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID),
		country: domain.NormalizeCountry(envutil.Str("DOCUMENTAI_COUNTRY", "")),
		timeout: envutil.Duration("DOCUMENTAI_TIMEOUT", 3*time.Minute),
	}, nil
}

func (c *DocAIClassifier) Classify(ctx context.Context, docs []domain.Document) (*domain.Classification, error) {
	if len(docs) == 0 {
		return nil, &schemaerr.ClassificationFailed{Err: fmt.Errorf("no documents to classify")}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Classifier processors take one document per call; the first attachment
	// decides the type, matching how the LLM path weighs the primary page.
	doc := docs[0]
	resp, err := c.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: c.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  doc.Data,
				MimeType: doc.MimeType,
			},
		},
	})
	if err != nil {
		return nil, &schemaerr.ClassificationFailed{Err: fmt.Errorf("documentai ProcessDocument: %w", err)}
	}
	if resp == nil || resp.Document == nil || len(resp.Document.Entities) == 0 {
		return nil, &schemaerr.ClassificationFailed{Err: fmt.Errorf("documentai returned no classification entities")}
	}

	entities := append([]*documentaipb.Document_Entity{}, resp.Document.Entities...)
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].GetConfidence() > entities[j].GetConfidence()
	})

	best := entities[0]
	docType := domain.NormalizeDocumentType(best.GetType())
	if docType == "" {
		return nil, &schemaerr.ClassificationFailed{Err: fmt.Errorf("documentai entity has empty type")}
	}

	classification := &domain.Classification{
		DocumentType: docType,
		Country:      c.country,
		Confidence:   float64(best.GetConfidence()),
	}
	for _, e := range entities[1:] {
		alt := domain.NormalizeDocumentType(e.GetType())
		if alt == "" || alt == docType {
			continue
		}
		classification.AlternativeTypes = append(classification.AlternativeTypes, domain.AlternativeType{
			DocumentType: alt,
			Confidence:   float64(e.GetConfidence()),
		})
	}

	c.log.Debug("documentai classification",
		"document_type", classification.DocumentType,
		"confidence", classification.Confidence,
		"alternatives", len(classification.AlternativeTypes),
	)
	return classification, nil
}

func (c *DocAIClassifier) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
