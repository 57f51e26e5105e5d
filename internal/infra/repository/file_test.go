package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/folioworks/portfolio/internal/domain"
)

const exportJSON = `[
  {
    "id": "one",
    "title": "First",
    "url": "https://example.com/1",
    "published": "2024-03-01T00:00:00.000Z",
    "contentType": "Blog",
    "publication": "",
    "person": "Pat",
    "organization": "Acme",
    "topics": ["Cloud - Technology", "Ads - Marketing"],
    "tags": ["cloud"]
  },
  {
    "id": "two",
    "title": "Second",
    "url": "https://example.com/2",
    "published": "sometime",
    "contentType": "Byline",
    "organization": "Zeta",
    "industry": ["Health"]
  }
]`

func writeExport(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

func TestLoadContentFile(t *testing.T) {
	items, err := LoadContentFile(writeExport(t, exportJSON))
	if err != nil {
		t.Fatalf("LoadContentFile: %v", err)
	}

	want := []domain.ContentItem{
		{
			ID: "one", Title: "First", URL: "https://example.com/1", Published: "2024-03-01",
			ContentType: "Blog", Person: "Pat", Organization: "Acme",
			Industry: []string{"Technology", "Marketing"},
			Topics:   []string{"Cloud - Technology", "Ads - Marketing"},
			Tags:     []string{"cloud"},
		},
		{
			ID: "two", Title: "Second", URL: "https://example.com/2", Published: "",
			ContentType: "Byline", Organization: "Zeta",
			Industry: []string{"Health"}, Topics: []string{}, Tags: []string{},
		},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadContentFileErrors(t *testing.T) {
	if _, err := LoadContentFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadContentFile(writeExport(t, `{"not": "an array"}`)); err == nil {
		t.Fatalf("expected error for malformed file")
	}
}

func TestFileRepository(t *testing.T) {
	path := writeExport(t, exportJSON)
	repo := NewFileRepository(path)
	ctx := context.Background()

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	got, err := repo.Get(ctx, "two")
	if err != nil || got.Title != "Second" {
		t.Fatalf("Get: %+v %v", got, err)
	}
	if _, err := repo.Get(ctx, "three"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get missing: got %v", err)
	}

	if _, err := repo.Create(ctx, got); !errors.Is(err, domain.ErrReadOnly) {
		t.Fatalf("Create: got %v, want ErrReadOnly", err)
	}
	if err := repo.Delete(ctx, "one"); !errors.Is(err, domain.ErrReadOnly) {
		t.Fatalf("Delete: got %v, want ErrReadOnly", err)
	}

	// a rewritten file is picked up on the next read
	err = os.WriteFile(path, []byte(`[{"id":"only","title":"Only","url":"u"}]`), 0o600)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	items, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List after rewrite: %v", err)
	}
	if len(items) != 1 || items[0].ID != "only" {
		t.Fatalf("reload not picked up: %+v", items)
	}
}
