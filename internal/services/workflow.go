package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/schemaflow-backend/internal/data/repos"
	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/dbctx"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// TypeCache caches the known document types per country for the fuzzy
// matcher's read path. A nil cache disables caching.
type TypeCache interface {
	Get(ctx context.Context, country string) ([]string, bool)
	Set(ctx context.Context, country string, types []string)
	Invalidate(ctx context.Context, country string)
}

// DocumentArchiver keeps a copy of classified documents for audit. Archival
// failures are logged and never fail a workflow.
type DocumentArchiver interface {
	Archive(ctx context.Context, key string, doc domain.Document) error
}

// Workflow result statuses, mirrored in the HTTP envelopes.
const (
	StatusExtracted        = "extracted"
	StatusSchemaGenerated  = "schema_generated"
	StatusSchemaRegistered = "schema_registered"
	StatusPendingReview    = "pending_review"
	StatusSchemaModified   = "schema_modified"
	StatusNoChanges        = "no_changes"
)

type RegisterResult struct {
	Status         string
	Schema         *domain.DocumentSchema
	Classification *domain.Classification
	Confidence     float64
}

type ExtractResult struct {
	Status         string
	Data           map[string]any
	SchemaUsed     *domain.DocumentSchema
	Schema         *domain.DocumentSchema
	Classification *domain.Classification
}

type ApproveResult struct {
	Schema     *domain.DocumentSchema
	Deprecated *domain.DocumentSchema
}

type ModifyResult struct {
	Status   string
	Current  *domain.DocumentSchema
	Revision *domain.DocumentSchema
	Changes  []domain.SchemaChange
	Summary  string
	Metadata domain.ModificationMetadata
}

// WorkflowService is the lifecycle orchestrator: it chains the confidence
// gate, the fuzzy type matcher, the schema store and the external AI
// collaborators into the user-facing workflows. AI calls always complete
// before any transactional store work begins, so no lock is held across them.
type WorkflowService interface {
	Register(ctx context.Context, docs []domain.Document) (*RegisterResult, error)
	ExtractOrGenerate(ctx context.Context, docs []domain.Document) (*ExtractResult, error)
	ExtractStrict(ctx context.Context, docs []domain.Document) (*ExtractResult, error)
	ListSchemas(ctx context.Context) ([]*domain.DocumentSchema, error)
	Approve(ctx context.Context, id uuid.UUID) (*ApproveResult, error)
	Modify(ctx context.Context, id uuid.UUID, mods map[string]*domain.FieldDefinition, description string) (*ModifyResult, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.DocumentSchema, error)
}

type workflowService struct {
	log        *logger.Logger
	schemas    repos.DocumentSchemaRepo
	classifier ClassifierService
	generator  SchemaGeneratorService
	extractor  ExtractorService
	gate       ConfidenceGate
	matchMin   float64
	typeCache  TypeCache
	archiver   DocumentArchiver
}

type WorkflowConfig struct {
	Gate               ConfidenceGate
	TypeMatchThreshold float64
}

func NewWorkflowService(
	log *logger.Logger,
	schemaRepo repos.DocumentSchemaRepo,
	classifier ClassifierService,
	generator SchemaGeneratorService,
	extractor ExtractorService,
	typeCache TypeCache,
	archiver DocumentArchiver,
	cfg WorkflowConfig,
) WorkflowService {
	matchMin := cfg.TypeMatchThreshold
	if matchMin <= 0 {
		matchMin = DefaultTypeMatchThreshold
	}
	return &workflowService{
		log:        log.With("service", "WorkflowService"),
		schemas:    schemaRepo,
		classifier: classifier,
		generator:  generator,
		extractor:  extractor,
		gate:       cfg.Gate,
		matchMin:   matchMin,
		typeCache:  typeCache,
		archiver:   archiver,
	}
}

// classifyAndResolve runs classification, applies the confidence gate, and
// consolidates the classified type against the types already known for the
// country so near-duplicate labels share one lineage.
func (s *workflowService) classifyAndResolve(ctx context.Context, docs []domain.Document) (*domain.Classification, error) {
	classification, err := s.classifier.Classify(ctx, docs)
	if err != nil {
		return nil, err
	}
	if !s.gate.Allow(classification.Confidence) {
		return nil, &schemaerr.LowConfidence{Classification: classification, Min: s.gate.Min}
	}

	known := s.knownTypes(ctx, classification.Country)
	if match, ok := BestTypeMatch(classification.DocumentType, known, s.matchMin); ok {
		if match.DocumentType != classification.DocumentType {
			s.log.Info("classified type consolidated into existing lineage",
				"classified", classification.DocumentType,
				"matched", match.DocumentType,
				"score", match.Score,
				"country", classification.Country,
			)
		}
		classification.DocumentType = match.DocumentType
	}
	return classification, nil
}

func (s *workflowService) knownTypes(ctx context.Context, country string) []string {
	if s.typeCache != nil {
		if types, ok := s.typeCache.Get(ctx, country); ok {
			return types
		}
	}
	types, err := s.schemas.DistinctTypes(dbctx.New(ctx), country)
	if err != nil {
		s.log.Warn("failed to load known document types", "country", country, "error", err)
		return nil
	}
	if s.typeCache != nil {
		s.typeCache.Set(ctx, country, types)
	}
	return types
}

func (s *workflowService) invalidateTypes(ctx context.Context, country string) {
	if s.typeCache != nil {
		s.typeCache.Invalidate(ctx, country)
	}
}

func (s *workflowService) archive(ctx context.Context, c *domain.Classification, schemaID uuid.UUID, docs []domain.Document) {
	if s.archiver == nil {
		return
	}
	for _, doc := range docs {
		key := fmt.Sprintf("%s/%s/%s/%s", c.Country, c.DocumentType, schemaID, doc.Name)
		if err := s.archiver.Archive(ctx, key, doc); err != nil {
			s.log.Warn("document archival failed", "key", key, "error", err)
		}
	}
}

func (s *workflowService) Register(ctx context.Context, docs []domain.Document) (*RegisterResult, error) {
	classification, err := s.classifyAndResolve(ctx, docs)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)

	// Reject before paying for generation; Insert re-checks transactionally.
	if active, err := s.schemas.FindActive(dbc, classification.DocumentType, classification.Country); err != nil {
		return nil, err
	} else if active != nil {
		return nil, &schemaerr.Conflict{Existing: active}
	}
	if inReview, err := s.schemas.FindInReview(dbc, classification.DocumentType, classification.Country); err != nil {
		return nil, err
	} else if inReview != nil {
		return nil, &schemaerr.Conflict{Existing: inReview}
	}

	generated, err := s.generator.Generate(ctx, docs, classification.DocumentType, classification.Country)
	if err != nil {
		return nil, err
	}

	rec := &domain.DocumentSchema{
		DocumentType: classification.DocumentType,
		Country:      classification.Country,
		Status:       domain.StatusInReview,
	}
	if err := rec.SetFieldMap(generated.Fields); err != nil {
		return nil, err
	}
	if _, err := s.schemas.Insert(dbc, rec); err != nil {
		return nil, err
	}
	s.invalidateTypes(ctx, classification.Country)
	s.archive(ctx, classification, rec.ID, docs)

	s.log.Info("schema registered for review",
		"schema_id", rec.ID,
		"document_type", rec.DocumentType,
		"country", rec.Country,
		"version", rec.Version,
	)
	return &RegisterResult{
		Status:         StatusSchemaRegistered,
		Schema:         rec,
		Classification: classification,
		Confidence:     generated.Confidence,
	}, nil
}

func (s *workflowService) ExtractOrGenerate(ctx context.Context, docs []domain.Document) (*ExtractResult, error) {
	classification, err := s.classifyAndResolve(ctx, docs)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)

	active, err := s.schemas.FindActive(dbc, classification.DocumentType, classification.Country)
	if err != nil {
		return nil, err
	}
	if active != nil {
		data, err := s.extractor.Extract(ctx, docs, active)
		if err != nil {
			return nil, err
		}
		return &ExtractResult{
			Status:         StatusExtracted,
			Data:           data,
			SchemaUsed:     active,
			Classification: classification,
		}, nil
	}

	inReview, err := s.schemas.FindInReview(dbc, classification.DocumentType, classification.Country)
	if err != nil {
		return nil, err
	}
	if inReview != nil {
		return &ExtractResult{
			Status:         StatusPendingReview,
			Schema:         inReview,
			Classification: classification,
		}, nil
	}

	// Self-heal the missing schema, but never extract against it and never
	// auto-approve.
	generated, err := s.generator.Generate(ctx, docs, classification.DocumentType, classification.Country)
	if err != nil {
		return nil, err
	}
	rec := &domain.DocumentSchema{
		DocumentType: classification.DocumentType,
		Country:      classification.Country,
		Status:       domain.StatusInReview,
	}
	if err := rec.SetFieldMap(generated.Fields); err != nil {
		return nil, err
	}
	if _, err := s.schemas.Insert(dbc, rec); err != nil {
		return nil, err
	}
	s.invalidateTypes(ctx, classification.Country)
	s.archive(ctx, classification, rec.ID, docs)

	s.log.Info("schema generated, extraction not performed",
		"schema_id", rec.ID,
		"document_type", rec.DocumentType,
		"country", rec.Country,
	)
	return &ExtractResult{
		Status:         StatusSchemaGenerated,
		Schema:         rec,
		Classification: classification,
	}, nil
}

func (s *workflowService) ExtractStrict(ctx context.Context, docs []domain.Document) (*ExtractResult, error) {
	classification, err := s.classifyAndResolve(ctx, docs)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)

	active, err := s.schemas.FindActive(dbc, classification.DocumentType, classification.Country)
	if err != nil {
		return nil, err
	}
	if active == nil {
		inReview, err := s.schemas.FindInReview(dbc, classification.DocumentType, classification.Country)
		if err != nil {
			return nil, err
		}
		if inReview != nil {
			return nil, &schemaerr.NotApproved{Schema: inReview}
		}
		return nil, &schemaerr.NoActiveSchema{Classification: classification}
	}

	data, err := s.extractor.Extract(ctx, docs, active)
	if err != nil {
		return nil, err
	}
	return &ExtractResult{
		Status:         StatusExtracted,
		Data:           data,
		SchemaUsed:     active,
		Classification: classification,
	}, nil
}

func (s *workflowService) ListSchemas(ctx context.Context) ([]*domain.DocumentSchema, error) {
	return s.schemas.List(dbctx.New(ctx))
}

func (s *workflowService) Approve(ctx context.Context, id uuid.UUID) (*ApproveResult, error) {
	approved, deprecated, err := s.schemas.Approve(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	s.invalidateTypes(ctx, approved.Country)

	if deprecated != nil {
		s.log.Info("schema approved, previous version deprecated",
			"schema_id", approved.ID,
			"version", approved.Version,
			"deprecated_id", deprecated.ID,
		)
	} else {
		s.log.Info("schema approved",
			"schema_id", approved.ID,
			"version", approved.Version,
		)
	}
	return &ApproveResult{Schema: approved, Deprecated: deprecated}, nil
}

func (s *workflowService) Modify(ctx context.Context, id uuid.UUID, mods map[string]*domain.FieldDefinition, description string) (*ModifyResult, error) {
	if err := ValidateFieldModifications(mods); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)

	rec, err := s.schemas.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	latest, err := s.schemas.FindLatestVersion(dbc, rec.DocumentType, rec.Country)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.ID != rec.ID {
		return nil, &schemaerr.InvalidState{
			ID:     rec.ID,
			Status: rec.Status,
			Reason: "only the latest version of a lineage can be modified",
		}
	}

	original, err := rec.FieldMap()
	if err != nil {
		return nil, err
	}
	modified := ApplyFieldModifications(original, mods)
	changes := DiffFields(original, modified)
	if len(changes) == 0 {
		return &ModifyResult{Status: StatusNoChanges, Current: rec, Summary: ChangeSummary(nil)}, nil
	}

	old, revision, err := s.schemas.ReplaceWithRevision(dbc, rec.ID, modified)
	if err != nil {
		return nil, err
	}
	s.invalidateTypes(ctx, rec.Country)

	summary := ChangeSummary(changes)
	s.log.Info("schema modified",
		"schema_id", old.ID,
		"revision_id", revision.ID,
		"version", revision.Version,
		"summary", summary,
	)
	return &ModifyResult{
		Status:   StatusSchemaModified,
		Current:  old,
		Revision: revision,
		Changes:  changes,
		Summary:  summary,
		Metadata: ModificationMetadataFor(changes, description),
	}, nil
}

func (s *workflowService) Delete(ctx context.Context, id uuid.UUID) (*domain.DocumentSchema, error) {
	deleted, err := s.schemas.Delete(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	s.invalidateTypes(ctx, deleted.Country)
	s.log.Info("schema deleted",
		"schema_id", deleted.ID,
		"document_type", deleted.DocumentType,
		"country", deleted.Country,
		"version", deleted.Version,
	)
	return deleted, nil
}
