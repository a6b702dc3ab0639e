package compiler

import (
	"strconv"

	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/querygate/internal/domain/search/bounds"
)

// rangeQuery is a half-open [gte, lt) range clause. Either side may be
// absent. elastic.RangeQuery always emits from/to with inclusion flags,
// so the clause renders its own body.
type rangeQuery struct {
	field string
	gte   any
	lt    any
}

var _ elastic.Query = (*rangeQuery)(nil)

// newRangeQuery builds a range clause from parsed bounds. Numeric ranges
// drop bounds that are not numbers; date ranges keep them as strings.
// Returns nil when no bound remains.
func newRangeQuery(field string, b bounds.Bounds, numeric bool) *rangeQuery {
	gte, lt, ok := rangeBounds(b, numeric)
	if !ok {
		return nil
	}
	return &rangeQuery{field: field, gte: gte, lt: lt}
}

// rangeBounds returns the usable bounds of b. ok is false when neither side
// survives, so the range contributes nothing.
func rangeBounds(b bounds.Bounds, numeric bool) (gte, lt any, ok bool) {
	if b.IsUnbounded() {
		return nil, nil, false
	}
	gte = boundValue(b.From(), numeric)
	lt = boundValue(b.To(), numeric)
	return gte, lt, gte != nil || lt != nil
}

func boundValue(s *string, numeric bool) any {
	if s == nil {
		return nil
	}
	if !numeric {
		return *s
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return f
}

// Source returns the JSON-serializable query body.
func (q *rangeQuery) Source() (interface{}, error) {
	params := make(map[string]interface{}, 2)
	if q.gte != nil {
		params["gte"] = q.gte
	}
	if q.lt != nil {
		params["lt"] = q.lt
	}
	return map[string]interface{}{
		"range": map[string]interface{}{q.field: params},
	}, nil
}
