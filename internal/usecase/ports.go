package usecase

import (
	"context"

	"github.com/folioworks/portfolio/internal/domain"
)

// ContentRepository defines storage operations for content items.
type ContentRepository interface {
	List(ctx context.Context) ([]domain.ContentItem, error)
	Get(ctx context.Context, id string) (domain.ContentItem, error)
	Create(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error)
	Update(ctx context.Context, id string, patch domain.ContentPatch) (domain.ContentItem, error)
	Delete(ctx context.Context, id string) error
	// ReplaceAll upserts items and removes every row not among them.
	ReplaceAll(ctx context.Context, items []domain.ContentItem) (int, error)
	Migrate(ctx context.Context) error
}

// ContentSource supplies the items imported by a seed.
type ContentSource interface {
	List(ctx context.Context) ([]domain.ContentItem, error)
}

// EventPublisher announces content changes.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
