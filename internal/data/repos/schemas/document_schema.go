package schemas

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/dbctx"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// DocumentSchemaRepo owns the lineage invariants: at most one ACTIVE and one
// IN_REVIEW record per (document_type, country), versions never reused.
// Mutating operations run inside a transaction so the reads that inform them
// stay consistent under concurrent access.
type DocumentSchemaRepo interface {
	Insert(dbc dbctx.Context, rec *domain.DocumentSchema) (*domain.DocumentSchema, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.DocumentSchema, error)
	FindActive(dbc dbctx.Context, documentType, country string) (*domain.DocumentSchema, error)
	FindInReview(dbc dbctx.Context, documentType, country string) (*domain.DocumentSchema, error)
	FindLatestVersion(dbc dbctx.Context, documentType, country string) (*domain.DocumentSchema, error)
	List(dbc dbctx.Context) ([]*domain.DocumentSchema, error)
	Count(dbc dbctx.Context) (int64, error)
	DistinctTypes(dbc dbctx.Context, country string) ([]string, error)
	Approve(dbc dbctx.Context, id uuid.UUID) (approved, deprecated *domain.DocumentSchema, err error)
	ReplaceWithRevision(dbc dbctx.Context, id uuid.UUID, fields domain.FieldMap) (old, revision *domain.DocumentSchema, err error)
	Delete(dbc dbctx.Context, id uuid.UUID) (*domain.DocumentSchema, error)
}

type documentSchemaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentSchemaRepo(db *gorm.DB, baseLog *logger.Logger) DocumentSchemaRepo {
	return &documentSchemaRepo{db: db, log: baseLog.With("repo", "DocumentSchemaRepo")}
}

func (r *documentSchemaRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *documentSchemaRepo) Insert(dbc dbctx.Context, rec *domain.DocumentSchema) (*domain.DocumentSchema, error) {
	err := r.conn(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		active, err := findByStatus(tx, rec.DocumentType, rec.Country, domain.StatusActive)
		if err != nil {
			return err
		}
		if active != nil {
			return &schemaerr.Conflict{Existing: active}
		}
		inReview, err := findByStatus(tx, rec.DocumentType, rec.Country, domain.StatusInReview)
		if err != nil {
			return err
		}
		if inReview != nil {
			return &schemaerr.Conflict{Existing: inReview}
		}

		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		if rec.Version == 0 {
			rec.Version = 1
		}
		if rec.Status == "" {
			rec.Status = domain.StatusInReview
		}

		if err := tx.Create(rec).Error; err != nil {
			// A concurrent insert for the same lineage can slip past the
			// checks above; the partial unique index catches it.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				existing, findErr := findByStatus(tx, rec.DocumentType, rec.Country, rec.Status)
				if findErr == nil && existing != nil {
					return &schemaerr.Conflict{Existing: existing}
				}
				return &schemaerr.Conflict{}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *documentSchemaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.DocumentSchema, error) {
	var rec domain.DocumentSchema
	err := r.conn(dbc).WithContext(dbc.Ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &schemaerr.NotFound{ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *documentSchemaRepo) FindActive(dbc dbctx.Context, documentType, country string) (*domain.DocumentSchema, error) {
	return findByStatus(r.conn(dbc).WithContext(dbc.Ctx), documentType, country, domain.StatusActive)
}

func (r *documentSchemaRepo) FindInReview(dbc dbctx.Context, documentType, country string) (*domain.DocumentSchema, error) {
	return findByStatus(r.conn(dbc).WithContext(dbc.Ctx), documentType, country, domain.StatusInReview)
}

func (r *documentSchemaRepo) FindLatestVersion(dbc dbctx.Context, documentType, country string) (*domain.DocumentSchema, error) {
	return findLatest(r.conn(dbc).WithContext(dbc.Ctx), documentType, country)
}

func (r *documentSchemaRepo) List(dbc dbctx.Context) ([]*domain.DocumentSchema, error) {
	var recs []*domain.DocumentSchema
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Order("document_type, country, version").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *documentSchemaRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := r.conn(dbc).WithContext(dbc.Ctx).Model(&domain.DocumentSchema{}).Count(&n).Error
	return n, err
}

func (r *documentSchemaRepo) DistinctTypes(dbc dbctx.Context, country string) ([]string, error) {
	var types []string
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Model(&domain.DocumentSchema{}).
		Where("country = ?", country).
		Distinct().
		Order("document_type").
		Pluck("document_type", &types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *documentSchemaRepo) Approve(dbc dbctx.Context, id uuid.UUID) (*domain.DocumentSchema, *domain.DocumentSchema, error) {
	var approved, deprecated *domain.DocumentSchema
	err := r.conn(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var rec domain.DocumentSchema
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &schemaerr.NotFound{ID: id}
			}
			return err
		}
		if rec.Status != domain.StatusInReview {
			return &schemaerr.InvalidState{
				ID:     rec.ID,
				Status: rec.Status,
				Reason: "only IN_REVIEW schemas can be approved",
			}
		}

		active, err := findByStatus(tx, rec.DocumentType, rec.Country, domain.StatusActive)
		if err != nil {
			return err
		}
		if active != nil {
			active.Status = domain.StatusDeprecated
			active.UpdatedAt = time.Now().UTC()
			if err := tx.Save(active).Error; err != nil {
				return err
			}
			rec.Version = active.Version + 1
			deprecated = active
		}

		rec.Status = domain.StatusActive
		rec.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		approved = &rec
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return approved, deprecated, nil
}

func (r *documentSchemaRepo) ReplaceWithRevision(dbc dbctx.Context, id uuid.UUID, fields domain.FieldMap) (*domain.DocumentSchema, *domain.DocumentSchema, error) {
	var old, revision *domain.DocumentSchema
	err := r.conn(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var rec domain.DocumentSchema
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &schemaerr.NotFound{ID: id}
			}
			return err
		}

		latest, err := findLatest(tx, rec.DocumentType, rec.Country)
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != rec.ID {
			return &schemaerr.InvalidState{
				ID:     rec.ID,
				Status: rec.Status,
				Reason: "only the latest version of a lineage can be modified",
			}
		}

		rec.Status = domain.StatusDeprecated
		rec.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		next := &domain.DocumentSchema{
			ID:           uuid.New(),
			DocumentType: rec.DocumentType,
			Country:      rec.Country,
			Status:       domain.StatusInReview,
			Version:      latest.Version + 1,
		}
		if err := next.SetFieldMap(fields); err != nil {
			return err
		}
		if err := tx.Create(next).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				existing, findErr := findByStatus(tx, rec.DocumentType, rec.Country, domain.StatusInReview)
				if findErr == nil && existing != nil {
					return &schemaerr.Conflict{Existing: existing}
				}
				return &schemaerr.Conflict{}
			}
			return err
		}

		old = &rec
		revision = next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return old, revision, nil
}

func (r *documentSchemaRepo) Delete(dbc dbctx.Context, id uuid.UUID) (*domain.DocumentSchema, error) {
	var deleted *domain.DocumentSchema
	err := r.conn(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var rec domain.DocumentSchema
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &schemaerr.NotFound{ID: id}
			}
			return err
		}
		if err := tx.Delete(&domain.DocumentSchema{}, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func findByStatus(tx *gorm.DB, documentType, country string, status domain.SchemaStatus) (*domain.DocumentSchema, error) {
	var rec domain.DocumentSchema
	err := tx.
		Where("document_type = ? AND country = ? AND status = ?", documentType, country, status).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func findLatest(tx *gorm.DB, documentType, country string) (*domain.DocumentSchema, error) {
	var rec domain.DocumentSchema
	err := tx.
		Where("document_type = ? AND country = ?", documentType, country).
		Order("version DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
