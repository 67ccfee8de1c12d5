package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/schemaflow-backend/internal/data/repos"
	"github.com/yungbote/schemaflow-backend/internal/data/repos/testutil"
	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/dbctx"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

type stubClassifier struct {
	result *domain.Classification
	err    error
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, docs []domain.Document) (*domain.Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	c := *s.result
	return &c, nil
}

type stubGenerator struct {
	fields     domain.FieldMap
	confidence float64
	err        error
	calls      int
}

func (s *stubGenerator) Generate(ctx context.Context, docs []domain.Document, documentType, country string) (*GeneratedSchema, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &GeneratedSchema{Fields: s.fields.Clone(), Confidence: s.confidence}, nil
}

type stubExtractor struct {
	data  map[string]any
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, docs []domain.Document, schema *domain.DocumentSchema) (map[string]any, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type memTypeCache struct {
	entries     map[string][]string
	invalidated int
}

func newMemTypeCache() *memTypeCache {
	return &memTypeCache{entries: map[string][]string{}}
}

func (c *memTypeCache) Get(ctx context.Context, country string) ([]string, bool) {
	types, ok := c.entries[country]
	return types, ok
}

func (c *memTypeCache) Set(ctx context.Context, country string, types []string) {
	c.entries[country] = types
}

func (c *memTypeCache) Invalidate(ctx context.Context, country string) {
	c.invalidated++
	delete(c.entries, country)
}

type workflowFixture struct {
	workflow   WorkflowService
	schemas    repos.DocumentSchemaRepo
	gdb        *gorm.DB
	classifier *stubClassifier
	generator  *stubGenerator
	extractor  *stubExtractor
	cache      *memTypeCache
	dbc        dbctx.Context
}

func newWorkflowFixture(t *testing.T, classification *domain.Classification) *workflowFixture {
	t.Helper()

	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	schemaRepo := repos.NewDocumentSchemaRepo(gdb, log)

	classifier := &stubClassifier{result: classification}
	generator := &stubGenerator{fields: testutil.Fields("name", "number"), confidence: 0.92}
	extractor := &stubExtractor{data: map[string]any{
		"name":                   "Asha Verma",
		"number":                 "1234 5678 9012",
		"information_unreadable": false,
		"is_document_correct":    true,
	}}
	cache := newMemTypeCache()

	workflow := NewWorkflowService(
		log, schemaRepo, classifier, generator, extractor, cache, nil,
		WorkflowConfig{Gate: NewConfidenceGate(0.8)},
	)
	return &workflowFixture{
		workflow:   workflow,
		schemas:    schemaRepo,
		gdb:        gdb,
		classifier: classifier,
		generator:  generator,
		extractor:  extractor,
		cache:      cache,
		dbc:        dbctx.New(context.Background()),
	}
}

func aadharClassification() *domain.Classification {
	return &domain.Classification{
		DocumentType: "aadhar_card",
		Country:      "IN",
		Confidence:   0.95,
	}
}

func sampleDocs() []domain.Document {
	return []domain.Document{{Name: "front.jpg", MimeType: domain.MimeJPEG, Data: []byte{0xff, 0xd8}}}
}

func TestWorkflowLifecycle(t *testing.T) {
	fx := newWorkflowFixture(t, aadharClassification())
	ctx := context.Background()

	// Register the first schema for the lineage.
	reg, err := fx.workflow.Register(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Status != StatusSchemaRegistered {
		t.Errorf("status = %s", reg.Status)
	}
	if reg.Schema.Version != 1 || reg.Schema.Status != domain.StatusInReview {
		t.Errorf("schema = v%d %s, want v1 in_review", reg.Schema.Version, reg.Schema.Status)
	}

	// A second registration for the same lineage is a conflict.
	_, err = fx.workflow.Register(ctx, sampleDocs())
	var conflict *schemaerr.Conflict
	if !errors.As(err, &conflict) {
		t.Fatalf("second register err = %v, want Conflict", err)
	}
	if fx.generator.calls != 1 {
		t.Errorf("generator called %d times, conflicts must not trigger generation", fx.generator.calls)
	}

	// Approve it.
	appr, err := fx.workflow.Approve(ctx, reg.Schema.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if appr.Schema.Status != domain.StatusActive || appr.Schema.Version != 1 {
		t.Errorf("approved = v%d %s", appr.Schema.Version, appr.Schema.Status)
	}

	// Still a conflict, now against the active record.
	if _, err := fx.workflow.Register(ctx, sampleDocs()); !errors.As(err, &conflict) {
		t.Fatalf("register after approve err = %v, want Conflict", err)
	}

	// Modify: add a field, which deprecates v1 and opens v2 for review.
	added := domain.FieldDefinition{Type: domain.FieldTypeString, Description: "middle name"}
	mod, err := fx.workflow.Modify(ctx, appr.Schema.ID, map[string]*domain.FieldDefinition{
		"middle_name": &added,
	}, "added middle name")
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if mod.Status != StatusSchemaModified {
		t.Errorf("modify status = %s", mod.Status)
	}
	if mod.Revision.Version != 2 || mod.Revision.Status != domain.StatusInReview {
		t.Errorf("revision = v%d %s, want v2 in_review", mod.Revision.Version, mod.Revision.Status)
	}
	if mod.Current.Status != domain.StatusDeprecated {
		t.Errorf("modified target status = %s, want deprecated", mod.Current.Status)
	}
	if mod.Summary != "Added 1 field(s): middle_name" {
		t.Errorf("summary = %q", mod.Summary)
	}
	if mod.Metadata.ChangeDescription != "added middle name" {
		t.Errorf("metadata description = %q", mod.Metadata.ChangeDescription)
	}

	// Approve the revision.
	appr2, err := fx.workflow.Approve(ctx, mod.Revision.ID)
	if err != nil {
		t.Fatalf("approve v2: %v", err)
	}
	if appr2.Schema.Version != 2 || appr2.Schema.Status != domain.StatusActive {
		t.Errorf("approved revision = v%d %s", appr2.Schema.Version, appr2.Schema.Status)
	}

	// Full lineage is retained.
	all, err := fx.workflow.ListSchemas(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("lineage holds %d records, want 2", len(all))
	}
}

func TestWorkflowLowConfidenceBlocks(t *testing.T) {
	c := aadharClassification()
	c.Confidence = 0.79
	fx := newWorkflowFixture(t, c)

	_, err := fx.workflow.Register(context.Background(), sampleDocs())
	var low *schemaerr.LowConfidence
	if !errors.As(err, &low) {
		t.Fatalf("err = %v, want LowConfidence", err)
	}
	if fx.generator.calls != 0 {
		t.Error("generator must not run on a blocked classification")
	}
	if n, _ := fx.schemas.Count(fx.dbc); n != 0 {
		t.Errorf("store holds %d records, want none", n)
	}
}

func TestWorkflowBoundaryConfidencePasses(t *testing.T) {
	c := aadharClassification()
	c.Confidence = 0.80
	fx := newWorkflowFixture(t, c)

	if _, err := fx.workflow.Register(context.Background(), sampleDocs()); err != nil {
		t.Fatalf("register at the boundary: %v", err)
	}
}

func TestWorkflowExtractOrGenerate(t *testing.T) {
	fx := newWorkflowFixture(t, aadharClassification())
	ctx := context.Background()

	// No schema yet: one gets generated, no extraction happens.
	res, err := fx.workflow.ExtractOrGenerate(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("extract-or-generate: %v", err)
	}
	if res.Status != StatusSchemaGenerated {
		t.Errorf("status = %s", res.Status)
	}
	if fx.extractor.calls != 0 {
		t.Error("extraction must not run against an unapproved schema")
	}

	// Second call: the schema is pending review, no new generation.
	res2, err := fx.workflow.ExtractOrGenerate(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if res2.Status != StatusPendingReview {
		t.Errorf("status = %s", res2.Status)
	}
	if fx.generator.calls != 1 {
		t.Errorf("generator called %d times, want 1", fx.generator.calls)
	}

	// After approval extraction proceeds.
	if _, err := fx.workflow.Approve(ctx, res.Schema.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	res3, err := fx.workflow.ExtractOrGenerate(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if res3.Status != StatusExtracted {
		t.Errorf("status = %s", res3.Status)
	}
	if res3.Data["name"] != "Asha Verma" {
		t.Errorf("data = %v", res3.Data)
	}
	if res3.SchemaUsed == nil || res3.SchemaUsed.ID != res.Schema.ID {
		t.Error("extraction did not report the schema used")
	}
}

func TestWorkflowExtractStrict(t *testing.T) {
	fx := newWorkflowFixture(t, aadharClassification())
	ctx := context.Background()

	_, err := fx.workflow.ExtractStrict(ctx, sampleDocs())
	var miss *schemaerr.NoActiveSchema
	if !errors.As(err, &miss) {
		t.Fatalf("err = %v, want NoActiveSchema", err)
	}

	reg, err := fx.workflow.Register(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = fx.workflow.ExtractStrict(ctx, sampleDocs())
	var notApproved *schemaerr.NotApproved
	if !errors.As(err, &notApproved) {
		t.Fatalf("err = %v, want NotApproved", err)
	}
	if notApproved.Schema == nil || notApproved.Schema.ID != reg.Schema.ID {
		t.Error("NotApproved does not reference the pending schema")
	}

	if _, err := fx.workflow.Approve(ctx, reg.Schema.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	res, err := fx.workflow.ExtractStrict(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("strict extract: %v", err)
	}
	if res.Status != StatusExtracted {
		t.Errorf("status = %s", res.Status)
	}
}

func TestWorkflowTypeConsolidation(t *testing.T) {
	fx := newWorkflowFixture(t, &domain.Classification{
		DocumentType: "indian_pan_card",
		Country:      "IN",
		Confidence:   0.9,
	})
	ctx := context.Background()

	// An approved pan_card lineage already exists.
	testutil.SeedSchema(t, fx.gdb, "pan_card", "IN", domain.StatusActive, 1)

	res, err := fx.workflow.ExtractOrGenerate(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Status != StatusExtracted {
		t.Fatalf("status = %s, want the near-duplicate label to hit the existing lineage", res.Status)
	}
	if res.Classification.DocumentType != "pan_card" {
		t.Errorf("classification consolidated to %q, want pan_card", res.Classification.DocumentType)
	}
	if fx.generator.calls != 0 {
		t.Error("generator must not run when the label consolidates")
	}
}

func TestWorkflowModifyNoChanges(t *testing.T) {
	fx := newWorkflowFixture(t, aadharClassification())
	ctx := context.Background()

	reg, err := fx.workflow.Register(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	same := domain.FieldDefinition{Type: domain.FieldTypeString, Description: "value of name"}
	res, err := fx.workflow.Modify(ctx, reg.Schema.ID, map[string]*domain.FieldDefinition{
		"name": &same,
	}, "")
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if res.Status != StatusNoChanges {
		t.Errorf("status = %s", res.Status)
	}
	if res.Summary != "No changes detected" {
		t.Errorf("summary = %q", res.Summary)
	}

	// The store is untouched.
	n, err := fx.schemas.Count(fx.dbc)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("store holds %d records, want 1", n)
	}
	got, err := fx.schemas.GetByID(fx.dbc, reg.Schema.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusInReview || got.Version != 1 {
		t.Errorf("record mutated: v%d %s", got.Version, got.Status)
	}
}

func TestWorkflowModifyValidation(t *testing.T) {
	fx := newWorkflowFixture(t, aadharClassification())
	ctx := context.Background()

	reg, err := fx.workflow.Register(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	bad := domain.FieldDefinition{Type: "uuid", Description: "d"}
	_, err = fx.workflow.Modify(ctx, reg.Schema.ID, map[string]*domain.FieldDefinition{
		"field": &bad,
	}, "")
	var verr *schemaerr.Validation
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want Validation", err)
	}
}

func TestWorkflowDeleteInvalidatesCache(t *testing.T) {
	fx := newWorkflowFixture(t, aadharClassification())
	ctx := context.Background()

	reg, err := fx.workflow.Register(ctx, sampleDocs())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	before := fx.cache.invalidated

	if _, err := fx.workflow.Delete(ctx, reg.Schema.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fx.cache.invalidated != before+1 {
		t.Error("delete must invalidate the type cache")
	}

	_, err = fx.workflow.Delete(ctx, reg.Schema.ID)
	var nf *schemaerr.NotFound
	if !errors.As(err, &nf) {
		t.Fatalf("second delete err = %v, want NotFound", err)
	}
}

func TestWorkflowClassifierFailurePropagates(t *testing.T) {
	fx := newWorkflowFixture(t, aadharClassification())
	fx.classifier.err = &schemaerr.ClassificationFailed{Err: errors.New("model unavailable")}

	_, err := fx.workflow.Register(context.Background(), sampleDocs())
	var cf *schemaerr.ClassificationFailed
	if !errors.As(err, &cf) {
		t.Fatalf("err = %v, want ClassificationFailed", err)
	}
}
