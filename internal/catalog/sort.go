package catalog

import (
	"sort"
	"time"

	"github.com/folioworks/portfolio/internal/domain"
)

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParsePublished parses the published field. ok is false for empty or
// unparsable dates.
func ParsePublished(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Sort returns a copy of items ordered newest first. Items without a usable
// date go last; ties keep their input order.
func Sort(items []domain.ContentItem) []domain.ContentItem {
	type keyed struct {
		item  domain.ContentItem
		at    time.Time
		dated bool
	}

	keys := make([]keyed, len(items))
	for i, item := range items {
		at, ok := ParsePublished(item.Published)
		keys[i] = keyed{item: item, at: at, dated: ok}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].dated != keys[j].dated {
			return keys[i].dated
		}
		if !keys[i].dated {
			return false
		}
		return keys[i].at.After(keys[j].at)
	})

	sorted := make([]domain.ContentItem, len(keys))
	for i, k := range keys {
		sorted[i] = k.item
	}
	return sorted
}
