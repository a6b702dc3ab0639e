// Package aggregation describes requested facets.
package aggregation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
)

// DefaultLimit is the bucket count used when an aggregation has no limit.
const DefaultLimit = 1000

// SubSelectorSeparator separates the aggregated field from its sub-selector.
const SubSelectorSeparator = "|"

// Sort is the bucket ordering of a terms aggregation.
type Sort struct {
	Key       string // "_count", "_key"
	Direction string // "asc", "desc"
}

// Predefined bucket orderings.
var (
	SortByCountDesc = Sort{Key: "_count", Direction: "desc"}
	SortByCountAsc  = Sort{Key: "_count", Direction: "asc"}
	SortByKeyAsc    = Sort{Key: "_key", Direction: "asc"}
	SortByKeyDesc   = Sort{Key: "_key", Direction: "desc"}
)

// Ascending reports whether the direction is ascending.
func (s Sort) Ascending() bool { return strings.EqualFold(s.Direction, "asc") }

// Aggregation is one requested facet.
type Aggregation struct {
	name        string
	field       string
	filterType  filter.Type
	appType     filter.ApplicationType
	limit       int
	sort        Sort
	subgroups   []string
	minDocCount int
}

// New validates and creates an Aggregation.
func New(
	name, field string,
	filterType filter.Type,
	appType filter.ApplicationType,
	limit int,
	sort Sort,
	subgroups []string,
) (Aggregation, error) {
	if name == "" {
		return Aggregation{}, errors.New("aggregation name is required")
	}
	if field == "" {
		return Aggregation{}, fmt.Errorf("field is required for aggregation %q", name)
	}
	if limit < 0 {
		return Aggregation{}, fmt.Errorf("limit must not be negative for aggregation %q", name)
	}
	if filterType == "" {
		filterType = filter.TypeField
	}
	if appType == 0 {
		appType = filter.MustAll
	}
	if sort.Key == "" {
		sort = SortByCountDesc
	}
	return Aggregation{
		name:       name,
		field:      field,
		filterType: filterType,
		appType:    appType,
		limit:      limit,
		sort:       sort,
		subgroups:  slices.Clone(subgroups),
	}, nil
}

// WithMinDocCount returns a copy that drops buckets below n documents.
func (a Aggregation) WithMinDocCount(n int) Aggregation {
	a.minDocCount = n
	a.subgroups = slices.Clone(a.subgroups)
	return a
}

// Name returns the facet name; it matches the filter it drives.
func (a Aggregation) Name() string { return a.name }

// Field returns the raw field, possibly carrying a "|" sub-selector.
func (a Aggregation) Field() string { return a.field }

// FieldPath returns the aggregated field without its sub-selector.
func (a Aggregation) FieldPath() string {
	path, _, _ := strings.Cut(a.field, SubSelectorSeparator)
	return path
}

// FilterType returns the filter type the facet drives.
func (a Aggregation) FilterType() filter.Type { return a.filterType }

// ApplicationType returns the application type of the facet.
func (a Aggregation) ApplicationType() filter.ApplicationType { return a.appType }

// IsMultiSelect reports whether the facet counts ignore its own selection.
func (a Aggregation) IsMultiSelect() bool { return a.appType.Has(filter.AtLeastOne) }

// Limit returns the bucket count, DefaultLimit when unset.
func (a Aggregation) Limit() int {
	if a.limit == 0 {
		return DefaultLimit
	}
	return a.limit
}

// Sort returns the bucket ordering.
func (a Aggregation) Sort() Sort { return a.sort }

// Subgroups returns the range strings of a range aggregation.
func (a Aggregation) Subgroups() []string { return slices.Clone(a.subgroups) }

// MinDocCount returns the minimum bucket size, 0 when unset.
func (a Aggregation) MinDocCount() int { return a.minDocCount }

// List is an ordered set of requested aggregations plus an enabled flag.
type List struct {
	enabled bool
	items   []Aggregation
}

// NewList creates an enabled aggregation list.
func NewList(items ...Aggregation) List {
	return List{enabled: true, items: slices.Clone(items)}
}

// Disabled returns a copy of l that will not be compiled.
func (l List) Disabled() List {
	l.enabled = false
	l.items = slices.Clone(l.items)
	return l
}

// Enabled reports whether aggregations were requested.
func (l List) Enabled() bool { return l.enabled && len(l.items) > 0 }

// All returns the aggregations in order.
func (l List) All() []Aggregation { return slices.Clone(l.items) }
