// Package bounds parses "from..to" range strings used by range filters and
// range aggregations.
package bounds

import "strings"

// Separator splits the lower and upper bound of a range string.
const Separator = ".."

// Bounds is a parsed range. A nil side is unbounded: a missing lower bound is
// the "zero" sentinel, a missing upper bound is the "infinite" sentinel.
type Bounds struct {
	from *string
	to   *string
}

// Parse splits a "from..to" string. Either side may be empty. A string
// without the separator is malformed and yields an unbounded range.
func Parse(s string) Bounds {
	from, to, ok := strings.Cut(s, Separator)
	if !ok {
		return Bounds{}
	}
	var b Bounds
	if from = strings.TrimSpace(from); from != "" {
		b.from = &from
	}
	if to = strings.TrimSpace(to); to != "" {
		b.to = &to
	}
	return b
}

// From returns the inclusive lower bound, nil when unbounded.
func (b Bounds) From() *string { return b.from }

// To returns the exclusive upper bound, nil when unbounded.
func (b Bounds) To() *string { return b.to }

// IsUnbounded reports whether neither side is set.
func (b Bounds) IsUnbounded() bool { return b.from == nil && b.to == nil }

// String renders the range back into its "from..to" form.
func (b Bounds) String() string {
	var from, to string
	if b.from != nil {
		from = *b.from
	}
	if b.to != nil {
		to = *b.to
	}
	return from + Separator + to
}
