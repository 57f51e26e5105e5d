package catalog

import (
	"sort"
	"strings"

	"github.com/folioworks/portfolio/internal/domain"
)

// Dimension is a filterable attribute of a content item.
type Dimension string

const (
	DimContentType  Dimension = "contentType"
	DimOrganization Dimension = "organization"
	DimPublication  Dimension = "publication"
	DimIndustry     Dimension = "industry"
	DimTopic        Dimension = "topic"
	DimTag          Dimension = "tag"
)

var Dimensions = []Dimension{
	DimContentType,
	DimOrganization,
	DimPublication,
	DimIndustry,
	DimTopic,
	DimTag,
}

type FacetOption struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetSet holds the options of every dimension.
type FacetSet struct {
	ContentTypes  []FacetOption `json:"contentTypes"`
	Organizations []FacetOption `json:"organizations"`
	Publications  []FacetOption `json:"publications"`
	Industries    []FacetOption `json:"industries"`
	Topics        []FacetOption `json:"topics"`
	Tags          []FacetOption `json:"tags"`
}

// Options returns the options of one dimension.
func (s FacetSet) Options(dim Dimension) []FacetOption {
	switch dim {
	case DimContentType:
		return s.ContentTypes
	case DimOrganization:
		return s.Organizations
	case DimPublication:
		return s.Publications
	case DimIndustry:
		return s.Industries
	case DimTopic:
		return s.Topics
	case DimTag:
		return s.Tags
	}
	return nil
}

func (s *FacetSet) set(dim Dimension, options []FacetOption) {
	switch dim {
	case DimContentType:
		s.ContentTypes = options
	case DimOrganization:
		s.Organizations = options
	case DimPublication:
		s.Publications = options
	case DimIndustry:
		s.Industries = options
	case DimTopic:
		s.Topics = options
	case DimTag:
		s.Tags = options
	}
}

// Facets counts every distinct value per dimension over the whole
// collection. Counts of one dimension ignore every other selector.
func Facets(items []domain.ContentItem) FacetSet {
	var set FacetSet
	for _, dim := range Dimensions {
		set.set(dim, count(items, dim))
	}
	return set
}

// FacetsConditional counts values over the items that match the text query
// and every active selector of the other dimensions.
func FacetsConditional(items []domain.ContentItem, filters domain.ActiveFilters) FacetSet {
	q := strings.ToLower(strings.TrimSpace(filters.Query))

	var set FacetSet
	for _, dim := range Dimensions {
		scoped := make([]domain.ContentItem, 0, len(items))
		for _, item := range items {
			if q != "" && !MatchesText(item, q) {
				continue
			}
			if !matchesExcept(item, filters, dim) {
				continue
			}
			scoped = append(scoped, item)
		}
		set.set(dim, count(scoped, dim))
	}
	return set
}

func count(items []domain.ContentItem, dim Dimension) []FacetOption {
	counts := map[string]int{}
	for _, item := range items {
		seen := map[string]bool{}
		for _, v := range values(item, dim) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			counts[v]++
		}
	}

	options := make([]FacetOption, 0, len(counts))
	for v, n := range counts {
		options = append(options, FacetOption{Value: v, Count: n})
	}

	// tags are shown most used first, everything else alphabetically
	if dim == DimTag {
		sort.Slice(options, func(i, j int) bool {
			if options[i].Count != options[j].Count {
				return options[i].Count > options[j].Count
			}
			return options[i].Value < options[j].Value
		})
	} else {
		sort.Slice(options, func(i, j int) bool {
			return options[i].Value < options[j].Value
		})
	}
	return options
}

func values(item domain.ContentItem, dim Dimension) []string {
	switch dim {
	case DimContentType:
		return []string{item.ContentType}
	case DimOrganization:
		return []string{item.Organization}
	case DimPublication:
		return []string{item.Publication}
	case DimIndustry:
		return item.Industry
	case DimTopic:
		return item.Topics
	case DimTag:
		return item.Tags
	}
	return nil
}
