package catalog

import (
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/folioworks/portfolio/internal/domain"
)

// Fingerprint hashes the collection so that derived state, such as a search
// index, can be reused while the content is unchanged.
func Fingerprint(items []domain.ContentItem) uint64 {
	h := xxh3.New()
	for _, item := range items {
		h.WriteString(item.ID)
		h.WriteString("\x00")
		h.WriteString(item.Title)
		h.WriteString("\x00")
		h.WriteString(item.URL)
		h.WriteString("\x00")
		h.WriteString(item.Published)
		h.WriteString("\x00")
		h.WriteString(item.ContentType)
		h.WriteString("\x00")
		h.WriteString(item.Publication)
		h.WriteString("\x00")
		h.WriteString(item.Person)
		h.WriteString("\x00")
		h.WriteString(item.Organization)
		h.WriteString("\x00")
		h.WriteString(strings.Join(item.Industry, "\x01"))
		h.WriteString("\x00")
		h.WriteString(strings.Join(item.Topics, "\x01"))
		h.WriteString("\x00")
		h.WriteString(strings.Join(item.Tags, "\x01"))
		h.WriteString("\x02")
	}
	return h.Sum64()
}
