package repository

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/folioworks/portfolio/internal/domain"
)

// FileRepository serves content from a JSON export. It is read-only and
// reloads the file whenever its modification time changes.
type FileRepository struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	items   []domain.ContentItem
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// LoadContentFile decodes a JSON array of content items and normalizes
// every record.
func LoadContentFile(path string) ([]domain.ContentItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read content file")
	}

	var items []domain.ContentItem
	err = json.Unmarshal(raw, &items)
	if err != nil {
		return nil, errors.Wrap(err, "decode content file")
	}

	for i, item := range items {
		item.Published = domain.NormalizePublished(item.Published)
		if len(item.Industry) == 0 {
			item.Industry = domain.IndustriesFromTopics(item.Topics)
		}
		items[i] = item.Normalize()
	}
	return items, nil
}

func (r *FileRepository) load() ([]domain.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		return nil, errors.Wrap(err, "stat content file")
	}
	if r.items != nil && info.ModTime().Equal(r.modTime) {
		return r.items, nil
	}

	items, err := LoadContentFile(r.path)
	if err != nil {
		return nil, err
	}
	r.items = items
	r.modTime = info.ModTime()
	return items, nil
}

func (r *FileRepository) List(ctx context.Context) ([]domain.ContentItem, error) {
	items, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContentItem, len(items))
	copy(out, items)
	return out, nil
}

func (r *FileRepository) Get(ctx context.Context, id string) (domain.ContentItem, error) {
	items, err := r.load()
	if err != nil {
		return domain.ContentItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.ContentItem{}, domain.NotFoundError{Resource: "content"}
}

func (r *FileRepository) Create(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	return domain.ContentItem{}, domain.ErrReadOnly
}

func (r *FileRepository) Update(ctx context.Context, id string, patch domain.ContentPatch) (domain.ContentItem, error) {
	return domain.ContentItem{}, domain.ErrReadOnly
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	return domain.ErrReadOnly
}

func (r *FileRepository) ReplaceAll(ctx context.Context, items []domain.ContentItem) (int, error) {
	return 0, domain.ErrReadOnly
}

func (r *FileRepository) Migrate(ctx context.Context) error {
	return nil
}
