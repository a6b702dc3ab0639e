package compiler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type sourcer interface {
	Source() (interface{}, error)
}

// render serializes a query node and decodes it back into generic JSON.
func render(t *testing.T, s sourcer) map[string]any {
	t.Helper()
	src, err := s.Source()
	require.NoError(t, err)
	raw, err := json.Marshal(src)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func renderJSON(t *testing.T, s sourcer) string {
	t.Helper()
	raw, err := json.Marshal(render(t, s))
	require.NoError(t, err)
	return string(raw)
}

// obj walks nested objects by key.
func obj(t *testing.T, m map[string]any, keys ...string) map[string]any {
	t.Helper()
	cur := m
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		require.Truef(t, ok, "key %q missing or not an object in %v", k, cur)
		cur = next
	}
	return cur
}

// clauses returns the clauses of one bool occurrence. A single clause is
// rendered as an object rather than a list.
func clauses(t *testing.T, boolQuery map[string]any, occur string) []map[string]any {
	t.Helper()
	body := obj(t, boolQuery, "bool")
	switch v := body[occur].(type) {
	case nil:
		return nil
	case map[string]any:
		return []map[string]any{v}
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, c := range v {
			out = append(out, c.(map[string]any))
		}
		return out
	default:
		t.Fatalf("unexpected %s clause %T", occur, v)
		return nil
	}
}

var functionNames = []string{"field_value_factor", "gauss", "linear", "exp", "script_score", "random_score"}

// functions returns the score functions of a function_score query. A lone
// unfiltered function is rendered inline instead of under "functions".
func functions(t *testing.T, fsQuery map[string]any) []map[string]any {
	t.Helper()
	body := obj(t, fsQuery, "function_score")
	if list, ok := body["functions"].([]any); ok {
		out := make([]map[string]any, 0, len(list))
		for _, f := range list {
			out = append(out, f.(map[string]any))
		}
		return out
	}
	fn := map[string]any{}
	for _, name := range functionNames {
		if v, ok := body[name]; ok {
			fn[name] = v
		}
	}
	if w, ok := body["weight"]; ok {
		fn["weight"] = w
	}
	if len(fn) == 0 {
		return nil
	}
	return []map[string]any{fn}
}
