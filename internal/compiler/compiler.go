// Package compiler translates a search query into an Elasticsearch request
// body: a boolean query with nested scopes and function scoring, faceted
// aggregations and sorters.
//
// A Compiler holds no per-call state and is safe for concurrent use.
package compiler

import (
	"math/rand/v2"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querygate/internal/domain"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
)

// Defaults used when no option overrides them.
const (
	DefaultRandomSeedField = "_seq_no"
	SuggestName            = "completion"
	SuggestField           = "suggest"
)

// Seeder supplies random-sort seeds. Implementations must be safe for
// concurrent use.
type Seeder interface {
	Seed() int64
}

// SeederFunc adapts a function to Seeder.
type SeederFunc func() int64

// Seed calls f.
func (f SeederFunc) Seed() int64 { return f() }

type randomSeeder struct{}

func (randomSeeder) Seed() int64 { return rand.Int64N(1 << 31) }

// Compiler turns queries into search bodies.
type Compiler struct {
	logger           *zap.Logger
	seeder           Seeder
	searchableFields []string
	randomSeedField  string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for dropped clauses.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSeeder sets the random-sort seed source.
func WithSeeder(s Seeder) Option {
	return func(c *Compiler) {
		if s != nil {
			c.seeder = s
		}
	}
}

// WithSearchableFields sets the fields searched when a query names none.
func WithSearchableFields(fields ...string) Option {
	return func(c *Compiler) {
		if len(fields) > 0 {
			c.searchableFields = append([]string(nil), fields...)
		}
	}
}

// WithRandomSeedField sets the per-document field mixed into random scores.
func WithRandomSeedField(field string) Option {
	return func(c *Compiler) {
		if field != "" {
			c.randomSeedField = field
		}
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:           zap.NewNop(),
		seeder:           randomSeeder{},
		searchableFields: domain.DefaultSearchableFields(),
		randomSeedField:  DefaultRandomSeedField,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the search body for q. It fails only for filters the
// engine cannot express, such as an unknown geo shape.
func (c *Compiler) Compile(q *query.Query) (*elastic.SearchSource, error) {
	ts := textSettings{fields: q.SearchableFields(), fuzziness: q.Fuzziness()}
	if len(ts.fields) == 0 {
		ts.fields = c.searchableFields
	}

	text, err := applyScoreStrategies(buildTextClause(q.Text(), ts), q.ScoreStrategies(), ts)
	if err != nil {
		return nil, err
	}

	main := elastic.NewBoolQuery().Must(text)
	if err := addFilters(main, q.UniverseFilters(), ts, mainContext()); err != nil {
		return nil, err
	}
	if err := addFilters(main, q.Filters(), ts, mainContext()); err != nil {
		return nil, err
	}
	if ids := q.ExcludedIDs(); len(ids) > 0 {
		main.MustNot(elastic.NewIdsQuery().Ids(ids...))
	}

	final, sorters, err := c.applySort(q.SortBy(), main, ts)
	if err != nil {
		return nil, err
	}

	src := elastic.NewSearchSource().
		Query(final).
		From(q.From()).
		Size(q.Size())
	if len(sorters) > 0 {
		src = src.SortBy(sorters...)
	}
	if q.MinScore() > 0 {
		src = src.MinScore(q.MinScore())
	}
	if fields := q.Fields(); len(fields) > 0 {
		src = src.FetchSourceContext(elastic.NewFetchSourceContext(true).Include(fields...))
	}
	if q.Aggregations().Enabled() {
		aggs, err := compileAggregations(q, ts)
		if err != nil {
			return nil, err
		}
		src = src.Aggregation(AllAggregation, aggs)
	}
	if q.HighlightsEnabled() {
		src = src.Highlight(highlight(ts.fields))
	}
	if q.SuggestionsEnabled() && q.Text() != "" {
		src = src.Suggester(elastic.NewCompletionSuggester(SuggestName).
			Field(SuggestField).
			Text(q.Text()).
			SkipDuplicates(true))
	}
	return src, nil
}

// Body compiles q and renders the JSON-serializable request body.
func (c *Compiler) Body(q *query.Query) (map[string]any, error) {
	src, err := c.Compile(q)
	if err != nil {
		return nil, err
	}
	body, err := src.Source()
	if err != nil {
		return nil, err
	}
	m, ok := body.(map[string]interface{})
	if !ok {
		return map[string]any{}, nil
	}
	return m, nil
}

func highlight(fields []string) *elastic.Highlight {
	h := elastic.NewHighlight()
	for _, raw := range fields {
		field, _, _ := splitBoost(raw)
		h = h.Fields(elastic.NewHighlighterField(field))
	}
	return h
}
