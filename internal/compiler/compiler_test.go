package compiler

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querygate/internal/domain/search/aggregation"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/fuzziness"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
	"github.com/kailas-cloud/querygate/internal/domain/search/score"
	"github.com/kailas-cloud/querygate/internal/domain/search/sortby"
)

func richQuery(t *testing.T) *query.Query {
	t.Helper()
	boost, err := score.New(score.BoostingFieldValue, map[string]any{score.ConfigField: "popularity"}, 0, nil, "")
	require.NoError(t, err)

	return query.NewBuilder("running shoes").
		UniverseFilter("store", mustFilter(t, "indexed_metadata.store", []string{"eu"}, filter.MustAll, filter.TypeField)).
		Filter("category", mustFilter(t, "indexed_metadata.category", []string{"1", "2"}, filter.AtLeastOne, filter.TypeField)).
		Filter("price", mustFilter(t, "indexed_metadata.price", []string{"10..100"}, filter.MustAll, filter.TypeRange)).
		Aggregations(aggregation.NewList(
			mustAggregation(t, "category", "indexed_metadata.category", filter.TypeField, filter.AtLeastOne),
		)).
		ScoreStrategies(score.NewStrategies("", "", boost)).
		SortBy(sortby.NewBy(sortby.Field("indexed_metadata.price", sortby.Asc))).
		Fuzziness(fuzziness.Automatic()).
		MinScore(0.5).
		Fields("metadata.title", "indexed_metadata.price").
		ExcludeIDs("p-1", "p-2").
		Page(3, 20).
		Highlights(true).
		Suggestions(true).
		MustBuild()
}

func TestCompile_MatchAll(t *testing.T) {
	src, err := New().Compile(query.NewBuilder("").MustBuild())
	require.NoError(t, err)

	m := render(t, src)
	q := obj(t, m, "query")
	must := clauses(t, q, "must")
	require.Len(t, must, 1)
	assert.Equal(t, map[string]any{"match_all": map[string]any{}}, must[0])
	assert.InDelta(t, 0, m["from"], 0)
	assert.InDelta(t, query.DefaultSize, m["size"], 0)
	for _, key := range []string{"sort", "aggregations", "min_score", "_source", "highlight", "suggest"} {
		assert.NotContains(t, m, key)
	}
}

func TestCompile_FullRequest(t *testing.T) {
	src, err := New().Compile(richQuery(t))
	require.NoError(t, err)
	m := render(t, src)

	q := obj(t, m, "query")
	must := clauses(t, q, "must")
	require.Len(t, must, 4, "text, universe filter and two user filters")
	assert.Contains(t, must[0], "function_score", "text clause carries the score strategies")
	assert.Equal(t, "AUTO", obj(t, must[0], "function_score", "query", "multi_match")["fuzziness"])
	assert.Equal(t, map[string]any{"term": map[string]any{"indexed_metadata.store": "eu"}}, must[1])
	assert.Len(t, clauses(t, must[2], "should"), 2)
	assert.Equal(t, map[string]any{"gte": 10.0, "lt": 100.0}, obj(t, must[3], "range", "indexed_metadata.price"))

	mustNot := clauses(t, q, "must_not")
	require.Len(t, mustNot, 1)
	assert.ElementsMatch(t, []any{"p-1", "p-2"}, obj(t, mustNot[0], "ids")["values"])

	assert.InDelta(t, 40, m["from"], 0)
	assert.InDelta(t, 20, m["size"], 0)
	assert.InDelta(t, 0.5, m["min_score"], 1e-9)
	assert.Equal(t, []any{"metadata.title", "indexed_metadata.price"}, obj(t, m, "_source")["includes"])
	assert.Equal(t, []any{map[string]any{"indexed_metadata.price": map[string]any{"order": "asc"}}}, m["sort"])
	assert.Contains(t, m, "highlight")
	assert.Contains(t, obj(t, m, "suggest"), SuggestName)

	all := obj(t, m, "aggregations", AllAggregation)
	assert.Contains(t, all, "global")
}

func TestCompile_RandomSortWrapsWholeQuery(t *testing.T) {
	q := query.NewBuilder("shoes").
		Filter("brand", mustFilter(t, "indexed_metadata.brand", []string{"nike"}, filter.MustAll, filter.TypeField)).
		SortBy(sortby.NewBy(sortby.Field("indexed_metadata.price", sortby.Asc)).Random()).
		MustBuild()

	src, err := New(fixedSeed(7)).Compile(q)
	require.NoError(t, err)
	m := render(t, src)

	assert.NotContains(t, m, "sort")
	fs := obj(t, m, "query", "function_score")
	inner := obj(t, fs, "query")
	assert.Len(t, clauses(t, inner, "must"), 2, "random score wraps text and filters")
}

func TestCompile_SearchableFieldsOverride(t *testing.T) {
	q := query.NewBuilder("shoes").SearchableFields("metadata.title^2").MustBuild()

	src, err := New(WithSearchableFields("ignored")).Compile(q)
	require.NoError(t, err)

	mm := obj(t, clauses(t, obj(t, render(t, src), "query"), "must")[0], "multi_match")
	assert.Equal(t, []any{"metadata.title^2"}, mm["fields"])
}

func TestCompile_CompilerSearchableFieldsDefault(t *testing.T) {
	q := query.NewBuilder("shoes").MustBuild()

	src, err := New(WithSearchableFields("searchable_metadata.name")).Compile(q)
	require.NoError(t, err)

	mm := obj(t, clauses(t, obj(t, render(t, src), "query"), "must")[0], "multi_match")
	assert.Equal(t, []any{"searchable_metadata.name"}, mm["fields"])
}

func TestCompile_SuggestionsNeedText(t *testing.T) {
	src, err := New().Compile(query.NewBuilder("").Suggestions(true).MustBuild())
	require.NoError(t, err)
	assert.NotContains(t, render(t, src), "suggest")
}

func TestCompile_DisabledAggregations(t *testing.T) {
	q := query.NewBuilder("").
		Aggregations(aggregation.NewList(
			mustAggregation(t, "color", "color", filter.TypeField, filter.MustAll),
		).Disabled()).
		MustBuild()

	src, err := New().Compile(q)
	require.NoError(t, err)
	assert.NotContains(t, render(t, src), "aggregations")
}

func TestCompile_Idempotent(t *testing.T) {
	c := New(fixedSeed(1), WithLogger(zap.NewNop()))
	q := richQuery(t)

	first := renderJSON(t, mustCompile(t, c, q))
	second := renderJSON(t, mustCompile(t, c, q))
	assert.JSONEq(t, first, second)
}

func TestCompile_Concurrent(t *testing.T) {
	c := New(fixedSeed(1))
	q := richQuery(t)
	want := renderJSON(t, mustCompile(t, c, q))

	const workers = 16
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src, err := c.Compile(q)
			if err != nil {
				return
			}
			body, err := src.Source()
			if err != nil {
				return
			}
			raw, _ := json.Marshal(body)
			results[i] = string(raw)
		}()
	}
	wg.Wait()

	for i, got := range results {
		assert.JSONEqf(t, want, got, "worker %d", i)
	}
}

func TestBody(t *testing.T) {
	body, err := New().Body(query.NewBuilder("shoes").Page(2, 5).MustBuild())
	require.NoError(t, err)

	assert.Equal(t, 5, body["from"])
	assert.Equal(t, 5, body["size"])
	assert.Contains(t, body, "query")
}

func mustCompile(t *testing.T, c *Compiler, q *query.Query) sourcer {
	t.Helper()
	src, err := c.Compile(q)
	require.NoError(t, err)
	return src
}
