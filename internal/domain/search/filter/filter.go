package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/querygate/internal/domain/geo"
)

// MaxValuesPerFilter is the maximum number of values a single filter may carry.
const MaxValuesPerFilter = 256

// ApplicationType is how a filter's values are enforced. Values are bit
// flags so an aggregation can carry several of them at once.
type ApplicationType uint8

// Application types.
const (
	MustAll ApplicationType = 1 << iota
	AtLeastOne
	Exclude
	Query
	Geo
)

type applicationName struct {
	flag ApplicationType
	name string
}

var applicationNames = []applicationName{
	{MustAll, "must_all"},
	{AtLeastOne, "at_least_one"},
	{Exclude, "exclude"},
	{Query, "query"},
	{Geo, "geo"},
}

// Has reports whether t includes every flag of other.
func (t ApplicationType) Has(other ApplicationType) bool {
	return other != 0 && t&other == other
}

func (t ApplicationType) String() string {
	var parts []string
	for _, a := range applicationNames {
		if t.Has(a.flag) {
			parts = append(parts, a.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseApplicationType parses "must_all", "at_least_one", ... Several names
// may be joined with "|". Empty input defaults to MustAll.
func ParseApplicationType(s string) (ApplicationType, error) {
	if s == "" {
		return MustAll, nil
	}
	var t ApplicationType
	for _, part := range strings.Split(s, "|") {
		name := strings.ToLower(strings.TrimSpace(part))
		idx := slices.IndexFunc(applicationNames, func(a applicationName) bool { return a.name == name })
		if idx < 0 {
			return 0, fmt.Errorf("unknown application type %q", part)
		}
		t |= applicationNames[idx].flag
	}
	return t, nil
}

// Type is the kind of constraint a filter expresses.
type Type string

// Filter types.
const (
	TypeField     Type = "field"
	TypeRange     Type = "range"
	TypeDateRange Type = "date_range"
	TypeGeo       Type = "geo"
	TypeQuery     Type = "query"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	switch t {
	case TypeField, TypeRange, TypeDateRange, TypeGeo, TypeQuery:
		return true
	}
	return false
}

// IsRange reports whether the type is a numeric or date range.
func (t Type) IsRange() bool { return t == TypeRange || t == TypeDateRange }

// Terms is a narrower (field, values) pair used to scope facet sub-buckets
// independently of the filter's own selection.
type Terms struct {
	field  string
	values []string
}

// NewTerms creates a defined-term pair.
func NewTerms(field string, values []string) (Terms, error) {
	if field == "" {
		return Terms{}, errors.New("terms field is required")
	}
	if len(values) == 0 {
		return Terms{}, fmt.Errorf("terms values are required for field %q", field)
	}
	return Terms{field: field, values: slices.Clone(values)}, nil
}

// Field returns the terms field.
func (t Terms) Field() string { return t.field }

// Values returns a copy of the terms values.
func (t Terms) Values() []string { return slices.Clone(t.values) }

// Filter is a single named constraint. It is immutable once built.
type Filter struct {
	field   string
	values  []string
	appType ApplicationType
	typ     Type
	terms   *Terms
	shape   geo.Shape
}

// New validates and creates a field, range or query filter.
func New(field string, values []string, appType ApplicationType, typ Type) (Filter, error) {
	if !typ.IsValid() {
		return Filter{}, fmt.Errorf("invalid filter type: %q", typ)
	}
	if typ == TypeGeo {
		return Filter{}, errors.New("geo filters require a shape, use NewGeo")
	}
	if typ != TypeQuery && field == "" {
		return Filter{}, errors.New("filter field is required")
	}
	if typ == TypeQuery && len(values) == 0 {
		return Filter{}, errors.New("query filter requires a query string")
	}
	if len(values) > MaxValuesPerFilter {
		return Filter{}, fmt.Errorf("too many filter values (max %d)", MaxValuesPerFilter)
	}
	if appType == 0 {
		appType = MustAll
	}
	return Filter{field: field, values: slices.Clone(values), appType: appType, typ: typ}, nil
}

// NewQuery creates a free-text sub-query filter.
func NewQuery(text string) (Filter, error) {
	return New("", []string{text}, Query, TypeQuery)
}

// NewGeo creates a geo filter over the given coordinate field.
func NewGeo(field string, shape geo.Shape) (Filter, error) {
	if field == "" {
		return Filter{}, errors.New("filter field is required")
	}
	if shape == nil {
		return Filter{}, errors.New("geo filter requires a shape")
	}
	return Filter{field: field, appType: Geo, typ: TypeGeo, shape: shape}, nil
}

// WithTerms returns a copy of f narrowed by the defined-term pair t.
func (f Filter) WithTerms(t Terms) Filter {
	f.terms = &t
	f.values = slices.Clone(f.values)
	return f
}

// Field returns the physical field the filter applies to.
func (f Filter) Field() string { return f.field }

// Values returns a copy of the filter values.
func (f Filter) Values() []string { return slices.Clone(f.values) }

// HasValues reports whether the filter carries at least one value.
func (f Filter) HasValues() bool { return len(f.values) > 0 }

// ApplicationType returns how the filter is enforced.
func (f Filter) ApplicationType() ApplicationType { return f.appType }

// Type returns the filter type.
func (f Filter) Type() Type { return f.typ }

// Terms returns the defined-term pair, nil if none.
func (f Filter) Terms() *Terms { return f.terms }

// Shape returns the geo shape of a geo filter.
func (f Filter) Shape() geo.Shape { return f.shape }

// Named is a filter together with the name it was registered under.
type Named struct {
	Name   string
	Filter Filter
}

// Set is an ordered collection of named filters. Iteration order is
// insertion order; re-adding a name replaces the filter in place.
type Set struct {
	items []Named
}

// NewSet creates a set from the given named filters.
func NewSet(items ...Named) Set {
	var s Set
	for _, it := range items {
		s = s.With(it.Name, it.Filter)
	}
	return s
}

// With returns a copy of s with name bound to f.
func (s Set) With(name string, f Filter) Set {
	items := slices.Clone(s.items)
	if i := s.index(name); i >= 0 {
		items[i].Filter = f
	} else {
		items = append(items, Named{Name: name, Filter: f})
	}
	return Set{items: items}
}

// Merge returns a copy of s followed by the filters of other.
func (s Set) Merge(other Set) Set {
	out := s
	for _, it := range other.items {
		out = out.With(it.Name, it.Filter)
	}
	return out
}

// Get returns the filter registered under name.
func (s Set) Get(name string) (Filter, bool) {
	if i := s.index(name); i >= 0 {
		return s.items[i].Filter, true
	}
	return Filter{}, false
}

// All returns the named filters in order.
func (s Set) All() []Named { return slices.Clone(s.items) }

// Len returns the number of filters.
func (s Set) Len() int { return len(s.items) }

// IsEmpty reports whether the set has no filters.
func (s Set) IsEmpty() bool { return len(s.items) == 0 }

func (s Set) index(name string) int {
	return slices.IndexFunc(s.items, func(n Named) bool { return n.Name == name })
}
