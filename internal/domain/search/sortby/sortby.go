// Package sortby describes requested result ordering.
package sortby

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/querygate/internal/domain/geo"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
)

// Type is the kind of a sort clause.
type Type string

// Sort clause types.
const (
	TypeScore    Type = "score"
	TypeField    Type = "field"
	TypeFunction Type = "function"
	TypeDistance Type = "distance"
	TypeNested   Type = "nested"
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder parses "asc"/"desc"; anything else yields def.
func ParseOrder(s string, def Order) Order {
	switch Order(strings.ToLower(s)) {
	case Asc:
		return Asc
	case Desc:
		return Desc
	}
	return def
}

// Ascending reports whether the order is ascending.
func (o Order) Ascending() bool { return o == Asc }

// Nested sort modes.
const (
	ModeAvg    = "avg"
	ModeMin    = "min"
	ModeMax    = "max"
	ModeSum    = "sum"
	ModeMedian = "median"
)

// DefaultDistanceField is the coordinate field used by distance sorts.
const DefaultDistanceField = "coordinate"

// DefaultDistanceUnit is the unit used by distance sorts.
const DefaultDistanceUnit = "km"

// Clause is a single sort instruction.
type Clause struct {
	typ        Type
	field      string
	order      Order
	mode       string
	script     string
	coordinate geo.Coordinate
	unit       string
	filter     *filter.Filter
}

// Score sorts by relevance.
func Score(order Order) Clause {
	return Clause{typ: TypeScore, order: order}
}

// Field sorts by a document field.
func Field(field string, order Order) Clause {
	return Clause{typ: TypeField, field: field, order: order}
}

// Function sorts by the numeric result of a script.
func Function(script string, order Order) Clause {
	return Clause{typ: TypeFunction, script: script, order: order}
}

// Distance sorts by distance to a coordinate, nearest first.
func Distance(field string, c geo.Coordinate, unit string) Clause {
	if field == "" {
		field = DefaultDistanceField
	}
	if unit == "" {
		unit = DefaultDistanceUnit
	}
	return Clause{typ: TypeDistance, field: field, order: Asc, coordinate: c, unit: unit}
}

// Nested sorts by a field inside nested documents, aggregating with mode
// and optionally restricting nested documents with f.
func Nested(field string, order Order, mode string, f *filter.Filter) Clause {
	if mode == "" {
		mode = ModeAvg
	}
	return Clause{typ: TypeNested, field: field, order: order, mode: mode, filter: f}
}

// Of builds a clause of an arbitrary type carrying only field and order.
// Used for clauses decoded from the wire whose type may be unknown.
func Of(typ Type, field string, order Order) Clause {
	return Clause{typ: typ, field: field, order: order}
}

// Type returns the clause type.
func (c Clause) Type() Type { return c.typ }

// Field returns the sorted field.
func (c Clause) Field() string { return c.field }

// Order returns the direction.
func (c Clause) Order() Order {
	if c.order == "" {
		return Desc
	}
	return c.order
}

// Mode returns the nested aggregation mode.
func (c Clause) Mode() string { return c.mode }

// Script returns the function source.
func (c Clause) Script() string { return c.script }

// Coordinate returns the distance origin.
func (c Clause) Coordinate() geo.Coordinate { return c.coordinate }

// Unit returns the distance unit.
func (c Clause) Unit() string { return c.unit }

// Filter returns the nested filter, nil if none.
func (c Clause) Filter() *filter.Filter { return c.filter }

// By is an ordered list of sort clauses plus a random flag.
type By struct {
	clauses []Clause
	random  bool
}

// NewBy creates a sort specification.
func NewBy(clauses ...Clause) By {
	return By{clauses: slices.Clone(clauses)}
}

// Default sorts by score, descending.
func Default() By { return NewBy(Score(Desc)) }

// Random returns a copy of b with random ordering enabled. Random ordering
// overrides every other clause.
func (b By) Random() By {
	b.random = true
	b.clauses = slices.Clone(b.clauses)
	return b
}

// HasRandomSort reports whether random ordering is requested.
func (b By) HasRandomSort() bool { return b.random }

// IsDefault reports whether b is only the default relevance sort.
func (b By) IsDefault() bool {
	if b.random {
		return false
	}
	if len(b.clauses) == 0 {
		return true
	}
	return len(b.clauses) == 1 && b.clauses[0].typ == TypeScore && b.clauses[0].Order() == Desc
}

// All returns the clauses in order.
func (b By) All() []Clause { return slices.Clone(b.clauses) }
