// Package fuzziness describes edit-distance tolerance for text matching.
package fuzziness

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Auto lets the engine derive the edit distance from the term length.
const Auto = "AUTO"

type kind uint8

const (
	kindNone kind = iota
	kindScalar
	kindPerField
)

// Fuzziness is either unset, a single value for every field, or a value per
// field. The zero value is unset.
type Fuzziness struct {
	kind     kind
	scalar   string
	perField map[string]string
}

// None disables fuzzy matching.
func None() Fuzziness { return Fuzziness{} }

// Fixed applies the same edit distance to every field.
func Fixed(v float64) Fuzziness {
	return Fuzziness{kind: kindScalar, scalar: format(v)}
}

// Automatic applies AUTO fuzziness to every field.
func Automatic() Fuzziness {
	return Fuzziness{kind: kindScalar, scalar: Auto}
}

// PerField configures fuzziness field by field. Fields absent from the map
// are matched as phrases.
func PerField(values map[string]float64) Fuzziness {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = format(v)
	}
	return Fuzziness{kind: kindPerField, perField: m}
}

// IsSet reports whether any fuzziness was configured.
func (f Fuzziness) IsSet() bool { return f.kind != kindNone }

// IsPerField reports whether fuzziness is configured per field.
func (f Fuzziness) IsPerField() bool { return f.kind == kindPerField }

// Scalar returns the single fuzziness value, if configured.
func (f Fuzziness) Scalar() (string, bool) {
	return f.scalar, f.kind == kindScalar
}

// ForField returns the fuzziness of one field in per-field mode.
func (f Fuzziness) ForField(field string) (string, bool) {
	if f.kind != kindPerField {
		return "", false
	}
	v, ok := f.perField[field]
	return v, ok
}

// Fields returns a copy of the per-field configuration.
func (f Fuzziness) Fields() map[string]string { return maps.Clone(f.perField) }

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parse reads fuzziness as decoded from JSON: null, a number, "AUTO", a
// numeric string, or an object of per-field numbers.
func Parse(v any) (Fuzziness, error) {
	switch x := v.(type) {
	case nil:
		return None(), nil
	case float64:
		return Fixed(x), nil
	case int:
		return Fixed(float64(x)), nil
	case string:
		if strings.EqualFold(x, Auto) {
			return Automatic(), nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return Fuzziness{}, fmt.Errorf("invalid fuzziness %q", x)
		}
		return Fixed(f), nil
	case map[string]any:
		values := make(map[string]float64, len(x))
		for field, raw := range x {
			f, ok := raw.(float64)
			if !ok {
				return Fuzziness{}, fmt.Errorf("fuzziness of field %q must be a number", field)
			}
			values[field] = f
		}
		return PerField(values), nil
	default:
		return Fuzziness{}, fmt.Errorf("unsupported fuzziness value of type %T", v)
	}
}

// Value renders f in the form Parse accepts.
func (f Fuzziness) Value() any {
	switch f.kind {
	case kindScalar:
		if f.scalar == Auto {
			return Auto
		}
		v, _ := strconv.ParseFloat(f.scalar, 64)
		return v
	case kindPerField:
		m := make(map[string]any, len(f.perField))
		for field, s := range f.perField {
			v, _ := strconv.ParseFloat(s, 64)
			m[field] = v
		}
		return m
	default:
		return nil
	}
}
