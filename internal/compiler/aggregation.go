package compiler

import (
	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/querygate/internal/domain/search/aggregation"
	"github.com/kailas-cloud/querygate/internal/domain/search/bounds"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
)

// Names of the wrapping aggregation scopes.
const (
	AllAggregation      = "all"
	UniverseAggregation = "universe"
)

// compileAggregations builds the facet tree:
//
//	all (global) > universe (filter) > <name> (filter) > <name> (buckets)
//
// Multi-select facets ignore their own filter so their counts reflect the
// selection as if it were not applied.
func compileAggregations(q *query.Query, ts textSettings) (elastic.Aggregation, error) {
	universeFilter, err := compileFilters(q.UniverseFilters(), ts, facetContext(""))
	if err != nil {
		return nil, err
	}
	universe := elastic.NewFilterAggregation().Filter(universeFilter)

	for _, a := range q.Aggregations().All() {
		ignore := ""
		if a.IsMultiSelect() {
			ignore = a.Name()
		}
		scope, err := compileFilters(q.Filters(), ts, facetContext(ignore))
		if err != nil {
			return nil, err
		}
		facet := elastic.NewFilterAggregation().
			Filter(scope).
			SubAggregation(a.Name(), bucketAggregation(a))
		universe = universe.SubAggregation(a.Name(), facet)
	}

	return elastic.NewGlobalAggregation().SubAggregation(UniverseAggregation, universe), nil
}

// bucketAggregation builds range buckets for range facets and terms
// buckets for everything else.
func bucketAggregation(a aggregation.Aggregation) elastic.Aggregation {
	field := a.FieldPath()
	switch a.FilterType() {
	case filter.TypeRange:
		r := elastic.NewRangeAggregation().Field(field)
		for _, sg := range a.Subgroups() {
			from, to, ok := rangeBounds(bounds.Parse(sg), true)
			if !ok {
				continue
			}
			r = r.AddRangeWithKey(sg, from, to)
		}
		return r
	case filter.TypeDateRange:
		r := elastic.NewDateRangeAggregation().Field(field)
		for _, sg := range a.Subgroups() {
			from, to, ok := rangeBounds(bounds.Parse(sg), false)
			if !ok {
				continue
			}
			r = r.AddRangeWithKey(sg, from, to)
		}
		return r
	default:
		sort := a.Sort()
		t := elastic.NewTermsAggregation().
			Field(field).
			Size(a.Limit()).
			Order(sort.Key, sort.Ascending())
		if n := a.MinDocCount(); n > 0 {
			t = t.MinDocCount(n)
		}
		return t
	}
}
