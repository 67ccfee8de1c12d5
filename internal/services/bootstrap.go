package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/schemaflow-backend/internal/data/repos"
	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/dbctx"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

type bootstrapSchema struct {
	DocumentType string                         `yaml:"document_type"`
	Country      string                         `yaml:"country"`
	Fields       map[string]bootstrapFieldEntry `yaml:"fields"`
}

type bootstrapFieldEntry struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Example     any    `yaml:"example,omitempty"`
	Pattern     string `yaml:"pattern,omitempty"`
}

// BootstrapSchemas seeds the store from a directory of YAML schema files on
// first boot. It only runs against an empty store so restarts never clobber
// operator-managed lineages. Malformed files are skipped with a warning.
func BootstrapSchemas(ctx context.Context, log *logger.Logger, schemaRepo repos.DocumentSchemaRepo, dir string) error {
	log = log.With("service", "BootstrapSchemas")
	dbc := dbctx.New(ctx)

	count, err := schemaRepo.Count(dbc)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Debug("store not empty, skipping bootstrap", "count", count)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("bootstrap directory not found, skipping", "dir", dir)
			return nil
		}
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seeded := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := bootstrapFile(dbc, schemaRepo, path); err != nil {
			log.Warn("skipping malformed bootstrap schema", "file", name, "error", err)
			continue
		}
		seeded++
	}
	log.Info("bootstrap complete", "dir", dir, "seeded", seeded)
	return nil
}

func bootstrapFile(dbc dbctx.Context, schemaRepo repos.DocumentSchemaRepo, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var bs bootstrapSchema
	if err := yaml.Unmarshal(raw, &bs); err != nil {
		return err
	}

	fields := make(domain.FieldMap, len(bs.Fields))
	for name, entry := range bs.Fields {
		def := domain.FieldDefinition{
			Type:        entry.Type,
			Description: entry.Description,
			Required:    entry.Required,
			Example:     entry.Example,
			Pattern:     entry.Pattern,
		}
		if err := ValidateFieldDefinition(name, def); err != nil {
			return err
		}
		fields[name] = def
	}

	rec := &domain.DocumentSchema{
		DocumentType: domain.NormalizeDocumentType(bs.DocumentType),
		Country:      domain.NormalizeCountry(bs.Country),
		Status:       domain.StatusActive,
	}
	if rec.DocumentType == "" {
		return fmt.Errorf("missing document_type in %s", path)
	}
	if err := rec.SetFieldMap(fields.WithReservedFields()); err != nil {
		return err
	}
	_, err = schemaRepo.Insert(dbc, rec)
	return err
}
