package compiler

import (
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/querygate/internal/domain"
	"github.com/kailas-cloud/querygate/internal/domain/geo"
	"github.com/kailas-cloud/querygate/internal/domain/search/bounds"
	"github.com/kailas-cloud/querygate/internal/domain/search/fieldpath"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
)

// compileFilters builds a boolean query holding one must clause per filter.
// Filters that compile to nothing are skipped.
func compileFilters(filters filter.Set, ts textSettings, cc CompileContext) (*elastic.BoolQuery, error) {
	b := elastic.NewBoolQuery()
	if err := addFilters(b, filters, ts, cc); err != nil {
		return nil, err
	}
	return b, nil
}

// addFilters appends the compiled filters to b as must clauses.
func addFilters(b *elastic.BoolQuery, filters filter.Set, ts textSettings, cc CompileContext) error {
	for _, nf := range filters.All() {
		q, err := compileFilter(nf.Name, nf.Filter, ts, cc)
		if err != nil {
			return &domain.FilterError{Filter: nf.Name, Err: err}
		}
		if q != nil {
			b.Must(q)
		}
	}
	return nil
}

// compileFilter dispatches a single filter to the clause builder of its
// type. A nil query means the filter contributes nothing.
func compileFilter(name string, f filter.Filter, ts textSettings, cc CompileContext) (elastic.Query, error) {
	switch f.Type() {
	case filter.TypeQuery:
		return queryFilter(f, ts), nil
	case filter.TypeGeo:
		return geoFilter(f)
	case filter.TypeField, filter.TypeRange, filter.TypeDateRange:
		onlyTerms := cc.ignores(name) || !f.HasValues()
		return valueFilter(f, onlyTerms, cc), nil
	default:
		return nil, fmt.Errorf("%w: unknown filter type %q", domain.ErrInvalidQuery, f.Type())
	}
}

func queryFilter(f filter.Filter, ts textSettings) elastic.Query {
	values := f.Values()
	if len(values) == 0 {
		return nil
	}
	return buildTextClause(values[0], ts)
}

func geoFilter(f filter.Filter) (elastic.Query, error) {
	switch s := f.Shape().(type) {
	case geo.CoordinateAndDistance:
		return elastic.NewGeoDistanceQuery(f.Field()).
			Point(s.Center.Lat, s.Center.Lon).
			Distance(s.Distance), nil
	case geo.Polygon:
		q := elastic.NewGeoPolygonQuery(f.Field())
		for _, p := range s.Points {
			q = q.AddPoint(p.Lat, p.Lon)
		}
		return q, nil
	case geo.Square:
		return elastic.NewGeoBoundingBoxQuery(f.Field()).
			TopLeft(s.TopLeft.Lat, s.TopLeft.Lon).
			BottomRight(s.BottomRight.Lat, s.BottomRight.Lon), nil
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnsupportedGeoShape, f.Shape())
	}
}

type boolVerb func(b *elastic.BoolQuery, queries ...elastic.Query) *elastic.BoolQuery

// verbFor maps an application type to the bool occurrence it uses.
func verbFor(t filter.ApplicationType) (boolVerb, bool) {
	switch {
	case t.Has(filter.Exclude):
		return (*elastic.BoolQuery).MustNot, true
	case t.Has(filter.AtLeastOne):
		return (*elastic.BoolQuery).Should, false
	default:
		return (*elastic.BoolQuery).Must, false
	}
}

// valueFilter builds the clause of a field or range filter: its values
// (unless onlyTerms) and, when the context honors them, its defined terms,
// both under the filter's own verb.
func valueFilter(f filter.Filter, onlyTerms bool, cc CompileContext) elastic.Query {
	var clauses []elastic.Query
	if !onlyTerms {
		if q := valuesClause(f, cc); q != nil {
			clauses = append(clauses, q)
		}
	}
	if cc.HonorFilterTerms && f.Terms() != nil {
		clauses = append(clauses, termsClause(*f.Terms(), cc))
	}
	if len(clauses) == 0 {
		return nil
	}

	verb, negated := verbFor(f.ApplicationType())
	if len(clauses) == 1 && !negated {
		return clauses[0]
	}
	return verb(elastic.NewBoolQuery(), clauses...)
}

// valuesClause ORs one clause per value.
func valuesClause(f filter.Filter, cc CompileContext) elastic.Query {
	var clauses []elastic.Query
	for _, v := range f.Values() {
		var q elastic.Query
		switch f.Type() {
		case filter.TypeRange, filter.TypeDateRange:
			r := newRangeQuery(f.Field(), bounds.Parse(v), f.Type() == filter.TypeRange)
			if r == nil {
				continue
			}
			q = r
		default:
			q = elastic.NewTermQuery(f.Field(), v)
		}
		clauses = append(clauses, nest(f.Field(), q, cc))
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return elastic.NewBoolQuery().Should(clauses...)
	}
}

func termsClause(t filter.Terms, cc CompileContext) elastic.Query {
	values := t.Values()
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return nest(t.Field(), elastic.NewTermsQuery(t.Field(), args...), cc)
}

// nest wraps q in a nested query when field lives in a nested document.
func nest(field string, q elastic.Query, cc CompileContext) elastic.Query {
	if !cc.CheckNested {
		return q
	}
	if path, ok := fieldpath.NestedFilterPath(field); ok {
		return elastic.NewNestedQuery(path, q)
	}
	return q
}
