package domain

import (
	"regexp"
	"strings"
)

// ContentItem is a single published writing sample.
type ContentItem struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Published    string   `json:"published"`
	ContentType  string   `json:"contentType"`
	Publication  string   `json:"publication"`
	Person       string   `json:"person"`
	Organization string   `json:"organization"`
	Industry     []string `json:"industry"`
	Topics       []string `json:"topics"`
	Tags         []string `json:"tags"`
}

// Normalize replaces nil list fields with empty ones so that downstream code
// never has to distinguish absent from empty.
func (c ContentItem) Normalize() ContentItem {
	if c.Industry == nil {
		c.Industry = []string{}
	}
	if c.Topics == nil {
		c.Topics = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// ContentPatch is a partial update. Nil fields keep the stored value;
// Published pointing at "" clears the date.
type ContentPatch struct {
	Title        *string   `json:"title,omitempty"`
	URL          *string   `json:"url,omitempty"`
	Published    *string   `json:"published,omitempty"`
	ContentType  *string   `json:"contentType,omitempty"`
	Publication  *string   `json:"publication,omitempty"`
	Person       *string   `json:"person,omitempty"`
	Organization *string   `json:"organization,omitempty"`
	Industry     *[]string `json:"industry,omitempty"`
	Topics       *[]string `json:"topics,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
}

// Apply returns a copy of item with the patch applied.
func (p ContentPatch) Apply(item ContentItem) ContentItem {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.URL != nil {
		item.URL = *p.URL
	}
	if p.Published != nil {
		item.Published = NormalizePublished(*p.Published)
	}
	if p.ContentType != nil {
		item.ContentType = *p.ContentType
	}
	if p.Publication != nil {
		item.Publication = *p.Publication
	}
	if p.Person != nil {
		item.Person = *p.Person
	}
	if p.Organization != nil {
		item.Organization = *p.Organization
	}
	if p.Industry != nil {
		item.Industry = *p.Industry
	}
	if p.Topics != nil {
		item.Topics = *p.Topics
	}
	if p.Tags != nil {
		item.Tags = *p.Tags
	}
	return item.Normalize()
}

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// NormalizePublished keeps the date part of an ISO timestamp and drops
// anything that does not start with one.
func NormalizePublished(s string) string {
	s = strings.TrimSpace(s)
	if !isoDatePrefix.MatchString(s) {
		return ""
	}
	return s[:10]
}

// IndustriesFromTopics derives industries from topics shaped like
// "Subject - Industry", keeping first-seen order.
func IndustriesFromTopics(topics []string) []string {
	seen := map[string]bool{}
	industries := []string{}
	for _, topic := range topics {
		parts := strings.Split(topic, " - ")
		if len(parts) < 2 {
			continue
		}
		industry := strings.TrimSpace(parts[len(parts)-1])
		if industry == "" || seen[industry] {
			continue
		}
		seen[industry] = true
		industries = append(industries, industry)
	}
	return industries
}

// ActiveFilters is the set of selectors applied to a catalog query.
// Empty fields are inactive.
type ActiveFilters struct {
	ContentType  string `json:"type,omitempty" query:"type"`
	Organization string `json:"client,omitempty" query:"client"`
	Publication  string `json:"publication,omitempty" query:"publication"`
	Industry     string `json:"industry,omitempty" query:"industry"`
	Topic        string `json:"topic,omitempty" query:"topic"`
	Tag          string `json:"tag,omitempty" query:"tag"`
	Query        string `json:"q,omitempty" query:"q"`
}

// Active reports whether any selector or query is set.
func (f ActiveFilters) Active() bool {
	return f.ContentType != "" ||
		f.Organization != "" ||
		f.Publication != "" ||
		f.Industry != "" ||
		f.Topic != "" ||
		f.Tag != "" ||
		strings.TrimSpace(f.Query) != ""
}
