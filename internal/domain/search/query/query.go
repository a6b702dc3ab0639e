// Package query is the backend-agnostic search request handed to the compiler.
package query

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/querygate/internal/domain/search/aggregation"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/fuzziness"
	"github.com/kailas-cloud/querygate/internal/domain/search/score"
	"github.com/kailas-cloud/querygate/internal/domain/search/sortby"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed free-text length.
	MaxQueryLength = 4096
	DefaultPage    = 1
	DefaultSize    = 10
	MaxSize        = 1000
)

// Query is a validated, immutable search request.
type Query struct {
	text             string
	filters          filter.Set
	universe         filter.Set
	aggregations     aggregation.List
	scores           score.Strategies
	sortBy           sortby.By
	fuzziness        fuzziness.Fuzziness
	minScore         float64
	fields           []string
	searchableFields []string
	excludedIDs      []string
	page             int
	size             int
	highlights       bool
	suggestions      bool
}

// Text returns the free-text query, empty for match-all.
func (q *Query) Text() string { return q.text }

// Filters returns the user filters.
func (q *Query) Filters() filter.Set { return q.filters }

// UniverseFilters returns the filters that always hold, facets included.
func (q *Query) UniverseFilters() filter.Set { return q.universe }

// Aggregations returns the requested facets.
func (q *Query) Aggregations() aggregation.List { return q.aggregations }

// ScoreStrategies returns the custom relevance strategies.
func (q *Query) ScoreStrategies() score.Strategies { return q.scores }

// SortBy returns the result ordering.
func (q *Query) SortBy() sortby.By { return q.sortBy }

// Fuzziness returns the text matching tolerance.
func (q *Query) Fuzziness() fuzziness.Fuzziness { return q.fuzziness }

// MinScore returns the minimum score threshold, 0 for none.
func (q *Query) MinScore() float64 { return q.minScore }

// Fields returns the projected source fields, empty for all.
func (q *Query) Fields() []string { return slices.Clone(q.fields) }

// SearchableFields returns the fields matched by free text.
func (q *Query) SearchableFields() []string { return slices.Clone(q.searchableFields) }

// ExcludedIDs returns document ids removed from the results.
func (q *Query) ExcludedIDs() []string { return slices.Clone(q.excludedIDs) }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// Size returns the page size.
func (q *Query) Size() int { return q.size }

// From returns the offset of the first hit.
func (q *Query) From() int { return (q.page - 1) * q.size }

// HighlightsEnabled reports whether hit highlighting was requested.
func (q *Query) HighlightsEnabled() bool { return q.highlights }

// SuggestionsEnabled reports whether completion suggestions were requested.
func (q *Query) SuggestionsEnabled() bool { return q.suggestions }

// WithDefaults returns a copy of q with tenant policy applied. The given
// universe filters come first and win over same-named query universe filters;
// searchable fields and fuzziness only fill gaps.
func (q *Query) WithDefaults(universe filter.Set, searchable []string, fz fuzziness.Fuzziness) *Query {
	out := *q
	merged := universe
	for _, it := range q.universe.All() {
		if _, ok := universe.Get(it.Name); ok {
			continue
		}
		merged = merged.With(it.Name, it.Filter)
	}
	out.universe = merged
	if len(out.searchableFields) == 0 {
		out.searchableFields = slices.Clone(searchable)
	}
	if !out.fuzziness.IsSet() {
		out.fuzziness = fz
	}
	return &out
}

// Builder is a fluent builder for Query values.
type Builder struct {
	q Query
}

// NewBuilder starts building a query for the given text.
func NewBuilder(text string) *Builder {
	return &Builder{q: Query{
		text:   text,
		sortBy: sortby.Default(),
		page:   DefaultPage,
		size:   DefaultSize,
	}}
}

// Filter adds or replaces a named user filter.
func (b *Builder) Filter(name string, f filter.Filter) *Builder {
	b.q.filters = b.q.filters.With(name, f)
	return b
}

// Filters replaces the user filters.
func (b *Builder) Filters(s filter.Set) *Builder {
	b.q.filters = s
	return b
}

// UniverseFilter adds or replaces a named universe filter.
func (b *Builder) UniverseFilter(name string, f filter.Filter) *Builder {
	b.q.universe = b.q.universe.With(name, f)
	return b
}

// UniverseFilters replaces the universe filters.
func (b *Builder) UniverseFilters(s filter.Set) *Builder {
	b.q.universe = s
	return b
}

// Aggregations sets the requested facets.
func (b *Builder) Aggregations(l aggregation.List) *Builder {
	b.q.aggregations = l
	return b
}

// ScoreStrategies sets the relevance strategies.
func (b *Builder) ScoreStrategies(s score.Strategies) *Builder {
	b.q.scores = s
	return b
}

// SortBy sets the result ordering.
func (b *Builder) SortBy(s sortby.By) *Builder {
	b.q.sortBy = s
	return b
}

// Fuzziness sets the text matching tolerance.
func (b *Builder) Fuzziness(f fuzziness.Fuzziness) *Builder {
	b.q.fuzziness = f
	return b
}

// MinScore sets the minimum score threshold.
func (b *Builder) MinScore(v float64) *Builder {
	b.q.minScore = v
	return b
}

// Fields sets the projected source fields.
func (b *Builder) Fields(fields ...string) *Builder {
	b.q.fields = slices.Clone(fields)
	return b
}

// SearchableFields sets the fields matched by free text.
func (b *Builder) SearchableFields(fields ...string) *Builder {
	b.q.searchableFields = slices.Clone(fields)
	return b
}

// ExcludeIDs removes the given document ids from the results.
func (b *Builder) ExcludeIDs(ids ...string) *Builder {
	b.q.excludedIDs = append(slices.Clone(b.q.excludedIDs), ids...)
	return b
}

// Page sets pagination. Non-positive values fall back to the defaults.
func (b *Builder) Page(page, size int) *Builder {
	b.q.page = page
	b.q.size = size
	return b
}

// Highlights toggles hit highlighting.
func (b *Builder) Highlights(enabled bool) *Builder {
	b.q.highlights = enabled
	return b
}

// Suggestions toggles completion suggestions.
func (b *Builder) Suggestions(enabled bool) *Builder {
	b.q.suggestions = enabled
	return b
}

// Build validates and returns the query.
func (b *Builder) Build() (*Query, error) {
	q := b.q
	if len(q.text) > MaxQueryLength {
		return nil, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if q.page <= 0 {
		q.page = DefaultPage
	}
	if q.size <= 0 {
		q.size = DefaultSize
	}
	if q.size > MaxSize {
		q.size = MaxSize
	}
	if q.minScore < 0 {
		return nil, errors.New("min_score must not be negative")
	}
	return &q, nil
}

// MustBuild calls Build and panics on error.
func (b *Builder) MustBuild() *Query {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}
