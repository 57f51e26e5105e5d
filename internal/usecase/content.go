package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/folioworks/portfolio/internal/catalog"
	"github.com/folioworks/portfolio/internal/domain"
)

var tracer = otel.Tracer("content")

// FacetMode selects how filter option counts are computed.
type FacetMode string

const (
	FacetsIndependent FacetMode = "independent"
	FacetsConditional FacetMode = "conditional"
)

// ListParams describes a catalog listing request. Page 0 returns every
// match.
type ListParams struct {
	Filters  domain.ActiveFilters
	Page     int
	PageSize int
	Fuzzy    bool
	Facets   FacetMode
}

type ListResult struct {
	Items         []domain.ContentItem `json:"items"`
	TotalCount    int                  `json:"totalCount"`
	HasMore       bool                 `json:"hasMore"`
	FilterOptions catalog.FacetSet     `json:"filterOptions"`
	ActiveFilters domain.ActiveFilters `json:"activeFilters"`
	Filtered      bool                 `json:"-"`
	Fingerprint   uint64               `json:"-"`
}

type ContentUsecase struct {
	repo      ContentRepository
	publisher EventPublisher
	now       func() time.Time

	mu    sync.RWMutex
	index *catalog.Index
}

func NewContentUsecase(repo ContentRepository, publisher EventPublisher) *ContentUsecase {
	return &ContentUsecase{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// List runs a catalog query over the whole collection.
func (uc *ContentUsecase) List(ctx context.Context, params ListParams) (ListResult, error) {
	ctx, span := tracer.Start(ctx, "Content.Usecase.List")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("fuzzy", params.Fuzzy),
		attribute.Int("page", params.Page),
	)

	items, err := uc.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return ListResult{}, errors.Wrap(err, "list content")
	}
	for i := range items {
		items[i] = items[i].Normalize()
	}

	result, err := uc.query(items, params.Filters, params.Fuzzy)
	if err != nil {
		span.RecordError(err)
		return ListResult{}, err
	}

	var facets catalog.FacetSet
	if params.Facets == FacetsConditional {
		facets = catalog.FacetsConditional(items, params.Filters)
	} else {
		facets = catalog.Facets(items)
	}

	page := result.Items
	hasMore := false
	if params.Page > 0 {
		page, hasMore = catalog.Paginate(result.Items, params.Page, params.PageSize)
	}

	return ListResult{
		Items:         page,
		TotalCount:    result.Total,
		HasMore:       hasMore,
		FilterOptions: facets,
		ActiveFilters: params.Filters,
		Filtered:      result.Filtered,
		Fingerprint:   catalog.Fingerprint(items),
	}, nil
}

func (uc *ContentUsecase) query(items []domain.ContentItem, filters domain.ActiveFilters, fuzzy bool) (catalog.Result, error) {
	if !fuzzy || strings.TrimSpace(filters.Query) == "" {
		return catalog.Query(items, filters), nil
	}

	opts := catalog.Options{Fuzzy: true}
	fingerprint := catalog.Fingerprint(items)

	uc.mu.RLock()
	if uc.index != nil && uc.index.Fingerprint() == fingerprint {
		defer uc.mu.RUnlock()
		return uc.index.Query(filters, opts)
	}
	uc.mu.RUnlock()

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.index == nil || uc.index.Fingerprint() != fingerprint {
		idx, err := catalog.NewIndex(items)
		if err != nil {
			return catalog.Result{}, errors.Wrap(err, "build search index")
		}
		if uc.index != nil {
			_ = uc.index.Close()
		}
		uc.index = idx
	}
	return uc.index.Query(filters, opts)
}

func (uc *ContentUsecase) Get(ctx context.Context, id string) (domain.ContentItem, error) {
	item, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.ContentItem{}, err
	}
	return item.Normalize(), nil
}

// Create stores item, deriving an id from the title when none is given.
func (uc *ContentUsecase) Create(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	ctx, span := tracer.Start(ctx, "Content.Usecase.Create")
	defer span.End()

	if strings.TrimSpace(item.Title) == "" {
		return domain.ContentItem{}, errors.Wrap(domain.ErrInvalidInput, "title is required")
	}
	if strings.TrimSpace(item.URL) == "" {
		return domain.ContentItem{}, errors.Wrap(domain.ErrInvalidInput, "url is required")
	}

	if item.ID == "" {
		item.ID = GenerateID(item.Title, uc.now())
	}
	item.Published = domain.NormalizePublished(item.Published)
	item = item.Normalize()

	created, err := uc.repo.Create(ctx, item)
	if err != nil {
		span.RecordError(err)
		return domain.ContentItem{}, err
	}

	uc.publish(ctx, domain.EventContentCreated, created)
	return created, nil
}

func (uc *ContentUsecase) Update(ctx context.Context, id string, patch domain.ContentPatch) (domain.ContentItem, error) {
	ctx, span := tracer.Start(ctx, "Content.Usecase.Update")
	defer span.End()

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.ContentItem{}, errors.Wrap(domain.ErrInvalidInput, "title must not be empty")
	}

	updated, err := uc.repo.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(err)
		return domain.ContentItem{}, err
	}

	uc.publish(ctx, domain.EventContentUpdated, updated)
	return updated, nil
}

func (uc *ContentUsecase) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Content.Usecase.Delete")
	defer span.End()

	err := uc.repo.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.publish(ctx, domain.EventContentDeleted, domain.ContentItem{ID: id})
	return nil
}

// Init prepares the storage schema.
func (uc *ContentUsecase) Init(ctx context.Context) error {
	return uc.repo.Migrate(ctx)
}

// Seed replaces the stored collection with the items of source.
func (uc *ContentUsecase) Seed(ctx context.Context, source ContentSource) (int, error) {
	ctx, span := tracer.Start(ctx, "Content.Usecase.Seed")
	defer span.End()

	err := uc.repo.Migrate(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, "migrate before seed")
	}

	items, err := source.List(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, "read seed source")
	}

	prepared := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			slog.WarnContext(
				ctx,
				"skipping seed item without id",
				slog.String("title", item.Title),
				slog.String("module", "content"),
			)
			continue
		}
		item.Published = domain.NormalizePublished(item.Published)
		if len(item.Industry) == 0 {
			item.Industry = domain.IndustriesFromTopics(item.Topics)
		}
		prepared = append(prepared, item.Normalize())
	}

	n, err := uc.repo.ReplaceAll(ctx, prepared)
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, "replace content")
	}
	span.SetAttributes(attribute.Int("seeded", n))
	return n, nil
}

func (uc *ContentUsecase) publish(ctx context.Context, eventType string, item domain.ContentItem) {
	if uc.publisher == nil {
		return
	}
	err := uc.publisher.Publish(ctx, domain.NewEvent(eventType, item))
	if err != nil {
		slog.WarnContext(
			ctx,
			"failed to publish content event",
			slog.String("error", err.Error()),
			slog.String("type", eventType),
			slog.String("module", "content"),
		)
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateID builds an id from the title slug, capped at 50 characters,
// and the creation time in base 36.
func GenerateID(title string, at time.Time) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return slug + "-" + strconv.FormatInt(at.UnixMilli(), 36)
}

// Close releases the cached search index.
func (uc *ContentUsecase) Close() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.index == nil {
		return nil
	}
	err := uc.index.Close()
	uc.index = nil
	return err
}
