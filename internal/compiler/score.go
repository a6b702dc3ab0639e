package compiler

import (
	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/querygate/internal/domain/search/fieldpath"
	"github.com/kailas-cloud/querygate/internal/domain/search/score"
)

// nestedScore collects the functions of strategies scoring one nested path.
type nestedScore struct {
	path      string
	scoreMode string
	fs        *elastic.FunctionScoreQuery
}

// applyScoreStrategies wraps base in a function score carrying every
// strategy. Strategies on nested fields get their own function score inside
// a nested query per path, combined with the outer one as optional clauses.
func applyScoreStrategies(base elastic.Query, strategies score.Strategies, ts textSettings) (elastic.Query, error) {
	if strategies.IsEmpty() {
		return base, nil
	}

	outer := elastic.NewFunctionScoreQuery().
		Query(base).
		ScoreMode(strategies.ScoreMode()).
		BoostMode(strategies.BoostMode())

	var nested []*nestedScore
	for _, s := range strategies.All() {
		path := fieldpath.Resolve(s.Field())
		fn := scoreFunction(s, path)

		var scope elastic.Query
		if f := s.Filter(); f != nil {
			q, err := compileFilter("", *f, ts, scopedContext())
			if err != nil {
				return nil, err
			}
			scope = q
		}

		target := outer
		if s.Type() != score.CustomFunction {
			if nestedPath, ok := fieldpath.NestedScorePath(path); ok {
				target = nestedGroup(&nested, nestedPath, nestedScoreMode(s.ScoreMode()), strategies.ScoreMode())
			}
		}
		if scope != nil {
			target.Add(scope, fn)
		} else {
			target.AddScoreFunc(fn)
		}
	}

	if len(nested) == 0 {
		return outer, nil
	}
	b := elastic.NewBoolQuery().Must(outer)
	for _, g := range nested {
		b.Should(elastic.NewNestedQuery(g.path, g.fs).ScoreMode(g.scoreMode))
	}
	return b, nil
}

// nestedScoreMode keeps the modes a nested query accepts and falls back
// to avg for function-score-only modes such as multiply or first.
func nestedScoreMode(mode string) string {
	switch mode {
	case score.ScoreModeAvg, score.ScoreModeMax, score.ScoreModeMin, score.ScoreModeSum, score.ScoreModeNone:
		return mode
	default:
		return score.ScoreModeAvg
	}
}

func nestedGroup(groups *[]*nestedScore, path, scoreMode, functionsMode string) *elastic.FunctionScoreQuery {
	for _, g := range *groups {
		if g.path == path {
			return g.fs
		}
	}
	g := &nestedScore{
		path:      path,
		scoreMode: scoreMode,
		fs: elastic.NewFunctionScoreQuery().
			Query(elastic.NewMatchAllQuery()).
			ScoreMode(functionsMode).
			BoostMode(score.BoostModeReplace),
	}
	*groups = append(*groups, g)
	return g.fs
}

func scoreFunction(s score.Strategy, path string) elastic.ScoreFunction {
	switch s.Type() {
	case score.Decay:
		return decayFunction(s, path)
	case score.CustomFunction:
		return elastic.NewScriptFunction(elastic.NewScript(s.String(score.ConfigFunction))).
			Weight(s.Weight())
	default:
		fn := elastic.NewFieldValueFactorFunction().
			Field(path).
			Factor(floatOr(s, score.ConfigFactor, 1)).
			Modifier(stringOr(s, score.ConfigModifier, "none")).
			Weight(s.Weight())
		if missing, ok := s.Float(score.ConfigMissing); ok {
			fn = fn.Missing(missing)
		}
		return fn
	}
}

func decayFunction(s score.Strategy, path string) elastic.ScoreFunction {
	origin, _ := s.Value(score.ConfigOrigin)
	scale, _ := s.Value(score.ConfigScale)
	offset, hasOffset := s.Value(score.ConfigOffset)
	decay, hasDecay := s.Float(score.ConfigDecay)

	switch s.String(score.ConfigType) {
	case score.DecayLinear:
		fn := elastic.NewLinearDecayFunction().FieldName(path).Origin(origin).Scale(scale).Weight(s.Weight())
		if hasOffset {
			fn = fn.Offset(offset)
		}
		if hasDecay {
			fn = fn.Decay(decay)
		}
		return fn
	case score.DecayExponential:
		fn := elastic.NewExponentialDecayFunction().FieldName(path).Origin(origin).Scale(scale).Weight(s.Weight())
		if hasOffset {
			fn = fn.Offset(offset)
		}
		if hasDecay {
			fn = fn.Decay(decay)
		}
		return fn
	default:
		fn := elastic.NewGaussDecayFunction().FieldName(path).Origin(origin).Scale(scale).Weight(s.Weight())
		if hasOffset {
			fn = fn.Offset(offset)
		}
		if hasDecay {
			fn = fn.Decay(decay)
		}
		return fn
	}
}

func floatOr(s score.Strategy, key string, def float64) float64 {
	if v, ok := s.Float(key); ok {
		return v
	}
	return def
}

func stringOr(s score.Strategy, key, def string) string {
	if v := s.String(key); v != "" {
		return v
	}
	return def
}
