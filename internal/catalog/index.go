package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/folioworks/portfolio/internal/domain"
)

const (
	fieldTitle        = "title"
	fieldOrganization = "organization"
	fieldPublication  = "publication"
	fieldPerson       = "person"
	fieldTopics       = "topics"
	fieldTags         = "tags"
)

// field boosts for fuzzy search
var fieldBoosts = map[string]float64{
	fieldTitle:        3,
	fieldOrganization: 2,
	fieldPublication:  2,
	fieldTopics:       1,
	fieldTags:         1,
	fieldPerson:       1,
}

// Options tunes Index.Query.
type Options struct {
	// Fuzzy ranks by similarity instead of requiring an exact substring.
	Fuzzy bool
	// MinScore drops fuzzy hits scoring at or below it.
	MinScore float64
	// Fuzziness is the edit distance tolerated per term. Zero means 1.
	Fuzziness int
}

// Index is a sorted snapshot of the collection with an in-memory bleve
// index for fuzzy search.
type Index struct {
	sorted      []domain.ContentItem
	index       bleve.Index
	fingerprint uint64
}

// NewIndex sorts items and indexes them in memory.
func NewIndex(items []domain.ContentItem) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	sorted := Sort(items)

	batch := idx.NewBatch()
	for i, item := range sorted {
		// position ids keep duplicate content ids from overwriting each other
		if err := batch.Index(strconv.Itoa(i), indexedDocument(item)); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("batch index %s: %w", item.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	return &Index{
		sorted:      sorted,
		index:       idx,
		fingerprint: Fingerprint(items),
	}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = false

	docMapping := bleve.NewDocumentMapping()
	for field := range fieldBoosts {
		docMapping.AddFieldMappingsAt(field, textFieldMapping)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func indexedDocument(item domain.ContentItem) map[string]any {
	return map[string]any{
		fieldTitle:        item.Title,
		fieldOrganization: item.Organization,
		fieldPublication:  item.Publication,
		fieldPerson:       item.Person,
		fieldTopics:       item.Topics,
		fieldTags:         item.Tags,
	}
}

// Fingerprint identifies the collection the index was built from.
func (i *Index) Fingerprint() uint64 {
	return i.fingerprint
}

// Items returns the sorted collection.
func (i *Index) Items() []domain.ContentItem {
	return i.sorted
}

func (i *Index) Close() error {
	return i.index.Close()
}

// Query runs a catalog query over the snapshot. Without Fuzzy it behaves
// exactly like the package level Query. With Fuzzy, fuzzy hits come first
// ordered by descending score, followed by substring matches the fuzzy pass
// missed in sorted order.
func (i *Index) Query(filters domain.ActiveFilters, opts Options) (Result, error) {
	text := strings.TrimSpace(filters.Query)
	if !opts.Fuzzy || text == "" {
		return filter(i.sorted, filters), nil
	}

	positions, err := i.fuzzyPositions(text, opts)
	if err != nil {
		return Result{}, err
	}

	lower := strings.ToLower(text)
	taken := make(map[int]bool, len(positions))
	ranked := make([]domain.ContentItem, 0, len(positions))
	for _, pos := range positions {
		taken[pos] = true
		ranked = append(ranked, i.sorted[pos])
	}
	for pos, item := range i.sorted {
		if !taken[pos] && MatchesText(item, lower) {
			ranked = append(ranked, item)
		}
	}

	selectors := filters
	selectors.Query = ""
	result := filter(ranked, selectors)
	result.Filtered = filters.Active()
	return result, nil
}

// fuzzyPositions returns the positions in i.sorted that match text, best
// first.
func (i *Index) fuzzyPositions(text string, opts Options) ([]int, error) {
	if len(i.sorted) == 0 {
		return nil, nil
	}

	fuzziness := opts.Fuzziness
	if fuzziness <= 0 {
		fuzziness = 1
	}

	var queries []query.Query
	for field, boost := range fieldBoosts {
		q := bleve.NewMatchQuery(text)
		q.SetField(field)
		q.SetFuzziness(fuzziness)
		q.SetBoost(boost)
		queries = append(queries, q)
	}

	search := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), len(i.sorted), 0, false)
	results, err := i.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	type scored struct {
		pos   int
		score float64
	}
	hits := make([]scored, 0, len(results.Hits))
	for _, hit := range results.Hits {
		if hit.Score <= opts.MinScore {
			continue
		}
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(i.sorted) {
			continue
		}
		hits = append(hits, scored{pos: pos, score: hit.Score})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return hits[a].pos < hits[b].pos
	})

	positions := make([]int, len(hits))
	for n, h := range hits {
		positions[n] = h.pos
	}
	return positions, nil
}
