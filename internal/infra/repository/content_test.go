package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/infra/database"
)

func newTestRepo(t *testing.T) *ContentRepository {
	t.Helper()
	db, err := database.NewSqlite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := NewContentRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repo
}

func sampleItem(id string) domain.ContentItem {
	return domain.ContentItem{
		ID:           id,
		Title:        "Title " + id,
		URL:          "https://example.com/" + id,
		Published:    "2024-01-02",
		ContentType:  "Blog",
		Publication:  "Example",
		Person:       "Pat",
		Organization: "Acme",
		Industry:     []string{"Technology"},
		Topics:       []string{"Cloud - Technology"},
		Tags:         []string{"cloud", "go"},
	}
}

func TestContentRepositoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleItem("one"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if diff := cmp.Diff(sampleItem("one"), created); diff != "" {
		t.Fatalf("created mismatch (-want +got):\n%s", diff)
	}

	if _, err := repo.Create(ctx, sampleItem("one")); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate create: got %v, want ErrConflict", err)
	}

	got, err := repo.Get(ctx, "one")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(sampleItem("one"), got); diff != "" {
		t.Fatalf("get mismatch (-want +got):\n%s", diff)
	}

	title := "Renamed"
	cleared := ""
	var noTags []string
	updated, err := repo.Update(ctx, "one", domain.ContentPatch{Title: &title, Published: &cleared, Tags: &noTags})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := sampleItem("one")
	want.Title = "Renamed"
	want.Published = ""
	want.Tags = []string{}
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("update mismatch (-want +got):\n%s", diff)
	}

	reloaded, err := repo.Get(ctx, "one")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if diff := cmp.Diff(want, reloaded); diff != "" {
		t.Fatalf("reloaded mismatch (-want +got):\n%s", diff)
	}

	if err := repo.Delete(ctx, "one"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "one"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after delete: got %v, want not found", err)
	}
	if err := repo.Delete(ctx, "one"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete: got %v, want not found", err)
	}
	if _, err := repo.Update(ctx, "one", domain.ContentPatch{Title: &title}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Update missing: got %v, want not found", err)
	}
}

func TestContentRepositoryReplaceAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"keep", "stale"} {
		if _, err := repo.Create(ctx, sampleItem(id)); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	changed := sampleItem("keep")
	changed.Title = "Changed"
	n, err := repo.ReplaceAll(ctx, []domain.ContentItem{changed, sampleItem("new")})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	byID := map[string]domain.ContentItem{}
	for _, item := range items {
		byID[item.ID] = item
	}
	if len(byID) != 2 {
		t.Fatalf("expected 2 rows, got %v", byID)
	}
	if _, ok := byID["stale"]; ok {
		t.Fatalf("stale row survived")
	}
	if byID["keep"].Title != "Changed" {
		t.Fatalf("keep not updated: %+v", byID["keep"])
	}

	if _, err := repo.ReplaceAll(ctx, nil); err != nil {
		t.Fatalf("ReplaceAll empty: %v", err)
	}
	items, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(items))
	}
}

func TestContentRepositoryListNormalizes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sparse := domain.ContentItem{ID: "sparse", Title: "Sparse", URL: "u"}
	if _, err := repo.Create(ctx, sparse); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Tags == nil || items[0].Topics == nil || items[0].Industry == nil {
		t.Fatalf("list fields should never be nil: %+v", items[0])
	}
}
