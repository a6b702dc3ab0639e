package compiler

import (
	"strconv"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/querygate/internal/domain/search/fuzziness"
)

// textSettings is the free-text configuration shared by the main clause and
// query-type filters.
type textSettings struct {
	fields    []string
	fuzziness fuzziness.Fuzziness
}

// buildTextClause turns free text into a match clause over the searchable
// fields. Empty text matches everything.
func buildTextClause(text string, ts textSettings) elastic.Query {
	if text == "" {
		return elastic.NewMatchAllQuery()
	}
	if !ts.fuzziness.IsPerField() {
		q := elastic.NewMultiMatchQuery(text, ts.fields...)
		if v, ok := ts.fuzziness.Scalar(); ok {
			q = q.Fuzziness(v)
		}
		return q
	}

	b := elastic.NewBoolQuery()
	for _, raw := range ts.fields {
		field, boost, boosted := splitBoost(raw)
		if v, ok := ts.fuzziness.ForField(field); ok {
			m := elastic.NewMatchQuery(field, text).Fuzziness(v)
			if boosted {
				m = m.Boost(boost)
			}
			b.Should(m)
			continue
		}
		p := elastic.NewMatchPhraseQuery(field, text)
		if boosted {
			p = p.Boost(boost)
		}
		b.Should(p)
	}
	return b
}

// splitBoost splits "field^weight". A missing or unparsable weight leaves
// the field unboosted.
func splitBoost(raw string) (string, float64, bool) {
	field, weight, found := strings.Cut(raw, "^")
	if !found {
		return raw, 0, false
	}
	boost, err := strconv.ParseFloat(weight, 64)
	if err != nil {
		return field, 0, false
	}
	return field, boost, true
}
