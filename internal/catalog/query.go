// Package catalog filters, searches and summarizes the content collection.
// Everything here is a pure function of its inputs.
package catalog

import (
	"slices"
	"strings"

	"github.com/folioworks/portfolio/internal/domain"
)

// Result is the ordered outcome of a query. Filtered is false when no
// selector or text query was applied, which tells "nothing matched" apart
// from "nothing asked".
type Result struct {
	Items    []domain.ContentItem `json:"items"`
	Total    int                  `json:"totalCount"`
	Filtered bool                 `json:"filtered"`
}

// Query sorts items and keeps those matching the text query and every
// active selector. Matches keep the sorted order.
func Query(items []domain.ContentItem, filters domain.ActiveFilters) Result {
	return filter(Sort(items), filters)
}

func filter(sorted []domain.ContentItem, filters domain.ActiveFilters) Result {
	q := strings.ToLower(strings.TrimSpace(filters.Query))

	matched := []domain.ContentItem{}
	for _, item := range sorted {
		if q != "" && !MatchesText(item, q) {
			continue
		}
		if !MatchesSelectors(item, filters) {
			continue
		}
		matched = append(matched, item)
	}

	return Result{
		Items:    matched,
		Total:    len(matched),
		Filtered: filters.Active(),
	}
}

// MatchesText reports whether the lowercase query appears in any searched
// field of item.
func MatchesText(item domain.ContentItem, lowerQuery string) bool {
	if containsFold(item.Title, lowerQuery) ||
		containsFold(item.Organization, lowerQuery) ||
		containsFold(item.Publication, lowerQuery) ||
		containsFold(item.Person, lowerQuery) {
		return true
	}
	for _, topic := range item.Topics {
		if containsFold(topic, lowerQuery) {
			return true
		}
	}
	for _, tag := range item.Tags {
		if containsFold(tag, lowerQuery) {
			return true
		}
	}
	return false
}

// MatchesSelectors applies the categorical selectors, combined with AND.
func MatchesSelectors(item domain.ContentItem, filters domain.ActiveFilters) bool {
	return matchesExcept(item, filters, "")
}

// matchesExcept applies every selector except the one for skip.
func matchesExcept(item domain.ContentItem, filters domain.ActiveFilters, skip Dimension) bool {
	if skip != DimContentType && filters.ContentType != "" && item.ContentType != filters.ContentType {
		return false
	}
	if skip != DimOrganization && filters.Organization != "" && item.Organization != filters.Organization {
		return false
	}
	if skip != DimPublication && filters.Publication != "" && item.Publication != filters.Publication {
		return false
	}
	if skip != DimIndustry && filters.Industry != "" && !slices.Contains(item.Industry, filters.Industry) {
		return false
	}
	if skip != DimTopic && filters.Topic != "" && !slices.Contains(item.Topics, filters.Topic) {
		return false
	}
	if skip != DimTag && filters.Tag != "" && !slices.Contains(item.Tags, filters.Tag) {
		return false
	}
	return true
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
