package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/infra/database"
	"github.com/folioworks/portfolio/internal/infra/database/models"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func toModel(item domain.ContentItem) models.Content {
	item = item.Normalize()
	return models.Content{
		ID:           item.ID,
		Title:        item.Title,
		URL:          item.URL,
		Published:    item.Published,
		ContentType:  item.ContentType,
		Publication:  item.Publication,
		Person:       item.Person,
		Organization: item.Organization,
		Industry:     item.Industry,
		Topics:       item.Topics,
		Tags:         item.Tags,
	}
}

func toDomain(m models.Content) domain.ContentItem {
	return domain.ContentItem{
		ID:           m.ID,
		Title:        m.Title,
		URL:          m.URL,
		Published:    m.Published,
		ContentType:  m.ContentType,
		Publication:  m.Publication,
		Person:       m.Person,
		Organization: m.Organization,
		Industry:     m.Industry,
		Topics:       m.Topics,
		Tags:         m.Tags,
	}.Normalize()
}

func (r *ContentRepository) List(ctx context.Context) ([]domain.ContentItem, error) {
	var rows []models.Content
	err := r.db.WithContext(ctx).Order("c_date").Order("id").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "ContentRepository.List")
	}

	items := make([]domain.ContentItem, len(rows))
	for i, row := range rows {
		items[i] = toDomain(row)
	}
	return items, nil
}

func (r *ContentRepository) Get(ctx context.Context, id string) (domain.ContentItem, error) {
	var row models.Content
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ContentItem{}, domain.NotFoundError{Resource: "content"}
		}
		return domain.ContentItem{}, errors.Wrap(err, "ContentRepository.Get")
	}
	return toDomain(row), nil
}

func (r *ContentRepository) Create(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	row := toModel(item)
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ContentItem{}, domain.ErrConflict
		}
		return domain.ContentItem{}, errors.Wrap(err, "ContentRepository.Create")
	}
	return toDomain(row), nil
}

func (r *ContentRepository) Update(ctx context.Context, id string, patch domain.ContentPatch) (domain.ContentItem, error) {
	var updated models.Content
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Content
		err := tx.Where("id = ?", id).First(&row).Error
		if err != nil {
			return err
		}

		next := toModel(patch.Apply(toDomain(row)))
		next.CDate = row.CDate
		err = tx.Save(&next).Error
		if err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ContentItem{}, domain.NotFoundError{Resource: "content"}
		}
		return domain.ContentItem{}, errors.Wrap(err, "ContentRepository.Update")
	}
	return toDomain(updated), nil
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Content{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "ContentRepository.Delete")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "content"}
	}
	return nil
}

// ReplaceAll upserts every item and then removes rows that are not part of
// items. Nothing is removed when an upsert fails.
func (r *ContentRepository) ReplaceAll(ctx context.Context, items []domain.ContentItem) (int, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]string, 0, len(items))
		for _, item := range items {
			row := toModel(item)
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"title", "url", "published", "content_type", "publication",
					"person", "organization", "industry", "topics", "tags", "m_date",
				}),
			}).Create(&row).Error
			if err != nil {
				return errors.Wrapf(err, "upsert %s", item.ID)
			}
			ids = append(ids, item.ID)
		}

		stale := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(ids) > 0 {
			stale = stale.Where("id NOT IN ?", ids)
		}
		return stale.Delete(&models.Content{}).Error
	})
	if err != nil {
		return 0, errors.Wrap(err, "ContentRepository.ReplaceAll")
	}
	return len(items), nil
}

func (r *ContentRepository) Migrate(ctx context.Context) error {
	err := database.Migrate(r.db.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "ContentRepository.Migrate")
	}
	return nil
}
