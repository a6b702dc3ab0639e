package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/querygate/internal/domain/search/aggregation"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
)

func mustAggregation(t *testing.T, name, field string, typ filter.Type, app filter.ApplicationType, subgroups ...string) aggregation.Aggregation {
	t.Helper()
	a, err := aggregation.New(name, field, typ, app, 0, aggregation.Sort{}, subgroups)
	require.NoError(t, err)
	return a
}

// facet returns the filter aggregation wrapping the named facet.
func facet(t *testing.T, tree map[string]any, name string) map[string]any {
	t.Helper()
	require.Contains(t, tree, "global")
	universe := obj(t, tree, "aggregations", UniverseAggregation)
	return obj(t, universe, "aggregations", name)
}

func categoryQuery(t *testing.T, app filter.ApplicationType) *query.Query {
	t.Helper()
	return query.NewBuilder("").
		Filter("category", mustFilter(t, "category", []string{"1"}, filter.AtLeastOne, filter.TypeField)).
		Filter("brand", mustFilter(t, "brand", []string{"nike"}, filter.MustAll, filter.TypeField)).
		Aggregations(aggregation.NewList(mustAggregation(t, "category", "category", filter.TypeField, app))).
		MustBuild()
}

func TestCompileAggregations_MultiSelectIgnoresOwnFilter(t *testing.T) {
	tree, err := compileAggregations(categoryQuery(t, filter.AtLeastOne), defaultText())
	require.NoError(t, err)

	f := facet(t, render(t, tree), "category")
	must := clauses(t, obj(t, f, "filter"), "must")
	require.Len(t, must, 1)
	assert.Equal(t, map[string]any{"term": map[string]any{"brand": "nike"}}, must[0])
}

func TestCompileAggregations_SingleSelectKeepsOwnFilter(t *testing.T) {
	tree, err := compileAggregations(categoryQuery(t, filter.MustAll), defaultText())
	require.NoError(t, err)

	f := facet(t, render(t, tree), "category")
	must := clauses(t, obj(t, f, "filter"), "must")
	require.Len(t, must, 2)
	assert.Equal(t, map[string]any{"term": map[string]any{"category": "1"}}, must[0])
	assert.Equal(t, map[string]any{"term": map[string]any{"brand": "nike"}}, must[1])
}

func TestCompileAggregations_UniverseScope(t *testing.T) {
	q := query.NewBuilder("").
		UniverseFilter("tenant", mustFilter(t, "store", []string{"eu"}, filter.MustAll, filter.TypeField)).
		Aggregations(aggregation.NewList(mustAggregation(t, "color", "color", filter.TypeField, filter.MustAll))).
		MustBuild()

	tree, err := compileAggregations(q, defaultText())
	require.NoError(t, err)

	universe := obj(t, render(t, tree), "aggregations", UniverseAggregation)
	must := clauses(t, obj(t, universe, "filter"), "must")
	require.Len(t, must, 1)
	assert.Equal(t, map[string]any{"term": map[string]any{"store": "eu"}}, must[0])
}

func TestCompileAggregations_Terms(t *testing.T) {
	a, err := aggregation.New("brand", "brand|name", filter.TypeField, filter.MustAll, 25, aggregation.SortByKeyAsc, nil)
	require.NoError(t, err)
	q := query.NewBuilder("").Aggregations(aggregation.NewList(a.WithMinDocCount(2))).MustBuild()

	tree, err := compileAggregations(q, defaultText())
	require.NoError(t, err)

	terms := obj(t, facet(t, render(t, tree), "brand"), "aggregations", "brand", "terms")
	assert.Equal(t, "brand", terms["field"])
	assert.InDelta(t, 25, terms["size"], 0)
	assert.InDelta(t, 2, terms["min_doc_count"], 0)
	assert.Contains(t, renderJSON(t, tree), `"_key":"asc"`)
}

func TestCompileAggregations_DefaultLimit(t *testing.T) {
	q := query.NewBuilder("").
		Aggregations(aggregation.NewList(mustAggregation(t, "color", "color", filter.TypeField, filter.MustAll))).
		MustBuild()

	tree, err := compileAggregations(q, defaultText())
	require.NoError(t, err)

	terms := obj(t, facet(t, render(t, tree), "color"), "aggregations", "color", "terms")
	assert.InDelta(t, aggregation.DefaultLimit, terms["size"], 0)
}

func TestCompileAggregations_RangeBuckets(t *testing.T) {
	q := query.NewBuilder("").
		Aggregations(aggregation.NewList(
			mustAggregation(t, "price", "price", filter.TypeRange, filter.AtLeastOne, "0..10", "10..", "bogus", "abc..xyz"),
		)).
		MustBuild()

	tree, err := compileAggregations(q, defaultText())
	require.NoError(t, err)

	r := obj(t, facet(t, render(t, tree), "price"), "aggregations", "price", "range")
	assert.Equal(t, "price", r["field"])
	ranges, ok := r["ranges"].([]any)
	require.True(t, ok)
	require.Len(t, ranges, 2)
	assert.Equal(t, map[string]any{"key": "0..10", "from": 0.0, "to": 10.0}, ranges[0])
	assert.Equal(t, map[string]any{"key": "10..", "from": 10.0}, ranges[1])
}

func TestCompileAggregations_DateRangeBuckets(t *testing.T) {
	q := query.NewBuilder("").
		Aggregations(aggregation.NewList(
			mustAggregation(t, "created", "created_at", filter.TypeDateRange, filter.MustAll, "2024-01-01..2025-01-01"),
		)).
		MustBuild()

	tree, err := compileAggregations(q, defaultText())
	require.NoError(t, err)

	r := obj(t, facet(t, render(t, tree), "created"), "aggregations", "created", "date_range")
	ranges, ok := r["ranges"].([]any)
	require.True(t, ok)
	require.Len(t, ranges, 1)
	assert.Equal(t, map[string]any{"key": "2024-01-01..2025-01-01", "from": "2024-01-01", "to": "2025-01-01"}, ranges[0])
}
