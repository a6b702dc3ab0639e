package compiler

import (
	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querygate/internal/domain/search/fieldpath"
	"github.com/kailas-cloud/querygate/internal/domain/search/score"
	"github.com/kailas-cloud/querygate/internal/domain/search/sortby"
	"github.com/kailas-cloud/querygate/internal/metrics"
)

// applySort returns the final clause and its sorters. A random sort wraps
// the whole query in a seeded random score and drops every other clause.
// The default relevance sort yields no sorters.
func (c *Compiler) applySort(by sortby.By, base elastic.Query, ts textSettings) (elastic.Query, []elastic.Sorter, error) {
	if by.HasRandomSort() {
		random := elastic.NewRandomFunction().Seed(c.seeder.Seed()).Field(c.randomSeedField)
		return elastic.NewFunctionScoreQuery().
			Query(base).
			AddScoreFunc(random).
			BoostMode(score.BoostModeReplace), nil, nil
	}
	if by.IsDefault() {
		return base, nil, nil
	}

	sorters := make([]elastic.Sorter, 0, len(by.All()))
	for _, cl := range by.All() {
		s, err := c.sorter(cl, ts)
		if err != nil {
			return nil, nil, err
		}
		if s != nil {
			sorters = append(sorters, s)
		}
	}
	return base, sorters, nil
}

func (c *Compiler) sorter(cl sortby.Clause, ts textSettings) (elastic.Sorter, error) {
	asc := cl.Order().Ascending()
	switch cl.Type() {
	case sortby.TypeScore:
		return elastic.NewScoreSort().Order(asc), nil
	case sortby.TypeFunction:
		return elastic.NewScriptSort(elastic.NewScript(cl.Script()), "number").Order(asc), nil
	case sortby.TypeField:
		return elastic.NewFieldSort(cl.Field()).Order(asc), nil
	case sortby.TypeDistance:
		at := cl.Coordinate()
		return elastic.NewGeoDistanceSort(cl.Field()).
			Point(at.Lat, at.Lon).
			Unit(cl.Unit()).
			Order(true), nil
	case sortby.TypeNested:
		scope := elastic.NewNestedSort(fieldpath.Parent(cl.Field()))
		if f := cl.Filter(); f != nil {
			q, err := compileFilter("", *f, ts, scopedContext())
			if err != nil {
				return nil, err
			}
			if q != nil {
				scope = scope.Filter(q)
			}
		}
		return elastic.NewFieldSort(cl.Field()).
			Order(asc).
			SortMode(cl.Mode()).
			Nested(scope), nil
	default:
		c.logger.Warn("dropping sort clause of unknown type",
			zap.String("type", string(cl.Type())),
			zap.String("field", cl.Field()),
		)
		metrics.SortClausesDroppedTotal.WithLabelValues(string(cl.Type())).Inc()
		return nil, nil
	}
}
