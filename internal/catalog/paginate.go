package catalog

import "github.com/folioworks/portfolio/internal/domain"

const DefaultPageSize = 30

// Paginate exposes the first page*pageSize items. Asking for the next page
// extends the previous slice instead of replacing it.
func Paginate(items []domain.ContentItem, page, pageSize int) ([]domain.ContentItem, bool) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	end := page * pageSize
	if end >= len(items) || end < 0 {
		return items, false
	}
	return items[:end], true
}
