// Package wire holds the JSON request shapes shared by the HTTP API and the
// embedded client, and their conversion into domain values.
package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/querygate/internal/domain/geo"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
	"github.com/kailas-cloud/querygate/internal/domain/search/aggregation"
	"github.com/kailas-cloud/querygate/internal/domain/search/fieldpath"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/fuzziness"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
	"github.com/kailas-cloud/querygate/internal/domain/search/score"
	"github.com/kailas-cloud/querygate/internal/domain/search/sortby"
)

// CompileRequest is a search request as sent by clients.
type CompileRequest struct {
	Query               string        `json:"query"`
	Filters             []Filter      `json:"filters,omitempty"`
	UniverseFilters     []Filter      `json:"universe_filters,omitempty"`
	Aggregations        []Aggregation `json:"aggregations,omitempty"`
	DisableAggregations bool          `json:"disable_aggregations,omitempty"`
	Score               *Score        `json:"score,omitempty"`
	Sort                []Sort        `json:"sort,omitempty"`
	RandomSort          bool          `json:"random_sort,omitempty"`
	Fuzziness           any           `json:"fuzziness,omitempty"`
	MinScore            float64       `json:"min_score,omitempty"`
	Fields              []string      `json:"fields,omitempty"`
	SearchableFields    []string      `json:"searchable_fields,omitempty"`
	ExcludedIDs         []string      `json:"excluded_ids,omitempty"`
	Page                int           `json:"page,omitempty"`
	Size                int           `json:"size,omitempty"`
	Highlights          bool          `json:"highlights,omitempty"`
	Suggestions         bool          `json:"suggestions,omitempty"`
}

// Filter is a named filter. Field names are logical and
// resolved to document paths on decode.
type Filter struct {
	Name            string         `json:"name"`
	Field           string         `json:"field,omitempty"`
	Values          []string       `json:"values,omitempty"`
	Type            string         `json:"type,omitempty"`
	ApplicationType string         `json:"application_type,omitempty"`
	Terms           *Terms         `json:"terms,omitempty"`
	Shape           map[string]any `json:"shape,omitempty"`
}

// Terms narrows facet sub-buckets of a filter.
type Terms struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// Aggregation is a requested facet.
type Aggregation struct {
	Name            string   `json:"name"`
	Field           string   `json:"field"`
	Type            string   `json:"type,omitempty"`
	ApplicationType string   `json:"application_type,omitempty"`
	Limit           int      `json:"limit,omitempty"`
	SortKey         string   `json:"sort_key,omitempty"`
	SortDirection   string   `json:"sort_direction,omitempty"`
	Subgroups       []string `json:"subgroups,omitempty"`
	MinDocCount     int      `json:"min_doc_count,omitempty"`
}

// Score is the custom relevance container.
type Score struct {
	ScoreMode  string     `json:"score_mode,omitempty"`
	BoostMode  string     `json:"boost_mode,omitempty"`
	Strategies []Strategy `json:"strategies"`
}

// Strategy is one scoring function.
type Strategy struct {
	Type      string         `json:"type"`
	Config    map[string]any `json:"config"`
	Weight    float64        `json:"weight,omitempty"`
	Filter    *Filter        `json:"filter,omitempty"`
	ScoreMode string         `json:"score_mode,omitempty"`
}

// Sort is one sort clause.
type Sort struct {
	Type       string      `json:"type"`
	Field      string      `json:"field,omitempty"`
	Order      string      `json:"order,omitempty"`
	Mode       string      `json:"mode,omitempty"`
	Script     string      `json:"script,omitempty"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	Unit       string      `json:"unit,omitempty"`
	Filter     *Filter     `json:"filter,omitempty"`
}

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Profile is a tenant profile.
type Profile struct {
	Tenant           string   `json:"tenant"`
	UniverseFilters  []Filter `json:"universe_filters,omitempty"`
	SearchableFields []string `json:"searchable_fields,omitempty"`
	Fuzziness        any      `json:"fuzziness,omitempty"`
}

// PageLimits bounds the page size of decoded queries.
type PageLimits struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPageLimits mirrors the query package defaults.
var DefaultPageLimits = PageLimits{DefaultSize: query.DefaultSize, MaxSize: query.MaxSize}

func (l PageLimits) size(requested int) int {
	switch {
	case requested <= 0:
		return l.DefaultSize
	case requested > l.MaxSize:
		return l.MaxSize
	}
	return requested
}

// Build validates req and builds the domain query. Field names are resolved
// to document paths.
func (req *CompileRequest) Build(limits PageLimits) (*query.Query, error) {
	b := query.NewBuilder(req.Query).
		MinScore(req.MinScore).
		Fields(req.Fields...).
		SearchableFields(req.SearchableFields...).
		ExcludeIDs(req.ExcludedIDs...).
		Page(req.Page, limits.size(req.Size)).
		Highlights(req.Highlights).
		Suggestions(req.Suggestions)

	filters, err := filterSetFrom(req.Filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}
	universe, err := filterSetFrom(req.UniverseFilters)
	if err != nil {
		return nil, fmt.Errorf("universe_filters: %w", err)
	}
	b.Filters(filters).UniverseFilters(universe)

	aggs, err := aggregationsFrom(req.Aggregations)
	if err != nil {
		return nil, err
	}
	if req.DisableAggregations {
		aggs = aggs.Disabled()
	}
	b.Aggregations(aggs)

	if req.Score != nil {
		strategies, err := strategiesFrom(req.Score)
		if err != nil {
			return nil, err
		}
		b.ScoreStrategies(strategies)
	}

	by, err := sortFrom(req.Sort)
	if err != nil {
		return nil, err
	}
	if req.RandomSort {
		by = by.Random()
	}
	b.SortBy(by)

	fz, err := fuzziness.Parse(req.Fuzziness)
	if err != nil {
		return nil, err
	}
	b.Fuzziness(fz)

	return b.Build()
}

func filterSetFrom(dtos []Filter) (filter.Set, error) {
	set := filter.NewSet()
	for _, d := range dtos {
		if d.Name == "" {
			return filter.Set{}, errors.New("filter name is required")
		}
		f, err := filterFrom(d)
		if err != nil {
			return filter.Set{}, fmt.Errorf("filter %q: %w", d.Name, err)
		}
		set = set.With(d.Name, f)
	}
	return set, nil
}

func filterFrom(d Filter) (filter.Filter, error) {
	typ := filter.Type(d.Type)
	if typ == "" {
		typ = filter.TypeField
	}
	switch typ {
	case filter.TypeGeo:
		shape, err := geo.ParseShape(d.Shape)
		if err != nil {
			return filter.Filter{}, err
		}
		field := d.Field
		if field == "" {
			field = sortby.DefaultDistanceField
		}
		return filter.NewGeo(fieldpath.Resolve(field), shape)
	case filter.TypeQuery:
		if len(d.Values) == 0 {
			return filter.Filter{}, errors.New("query filter requires a query string")
		}
		return filter.NewQuery(d.Values[0])
	}

	appType, err := filter.ParseApplicationType(d.ApplicationType)
	if err != nil {
		return filter.Filter{}, err
	}
	f, err := filter.New(resolve(d.Field), d.Values, appType, typ)
	if err != nil {
		return filter.Filter{}, err
	}
	if d.Terms != nil {
		terms, err := filter.NewTerms(resolve(d.Terms.Field), d.Terms.Values)
		if err != nil {
			return filter.Filter{}, err
		}
		f = f.WithTerms(terms)
	}
	return f, nil
}

// resolve maps a logical field to its document path, keeping empty names
// empty so constructors can reject them.
func resolve(field string) string {
	if field == "" {
		return ""
	}
	return fieldpath.Resolve(field)
}

func optionalFilterFrom(d *Filter) (*filter.Filter, error) {
	if d == nil {
		return nil, nil
	}
	f, err := filterFrom(*d)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func aggregationsFrom(dtos []Aggregation) (aggregation.List, error) {
	items := make([]aggregation.Aggregation, 0, len(dtos))
	for _, d := range dtos {
		appType, err := filter.ParseApplicationType(d.ApplicationType)
		if err != nil {
			return aggregation.List{}, fmt.Errorf("aggregation %q: %w", d.Name, err)
		}
		sort := aggregation.Sort{Key: d.SortKey, Direction: strings.ToLower(d.SortDirection)}
		if sort.Key != "" && sort.Direction == "" {
			sort.Direction = "desc"
		}
		a, err := aggregation.New(d.Name, resolve(d.Field), filter.Type(d.Type),
			appType, d.Limit, sort, d.Subgroups)
		if err != nil {
			return aggregation.List{}, err
		}
		if d.MinDocCount > 0 {
			a = a.WithMinDocCount(d.MinDocCount)
		}
		items = append(items, a)
	}
	return aggregation.NewList(items...), nil
}

func strategiesFrom(d *Score) (score.Strategies, error) {
	items := make([]score.Strategy, 0, len(d.Strategies))
	for i, sd := range d.Strategies {
		f, err := optionalFilterFrom(sd.Filter)
		if err != nil {
			return score.Strategies{}, fmt.Errorf("score strategy %d filter: %w", i, err)
		}
		cfg := make(map[string]any, len(sd.Config))
		for k, v := range sd.Config {
			cfg[k] = v
		}
		if field, ok := cfg[score.ConfigField].(string); ok && field != "" {
			cfg[score.ConfigField] = fieldpath.Resolve(field)
		}
		s, err := score.New(score.Type(sd.Type), cfg, sd.Weight, f, sd.ScoreMode)
		if err != nil {
			return score.Strategies{}, fmt.Errorf("score strategy %d: %w", i, err)
		}
		items = append(items, s)
	}
	return score.NewStrategies(d.ScoreMode, d.BoostMode, items...), nil
}

func sortFrom(dtos []Sort) (sortby.By, error) {
	if len(dtos) == 0 {
		return sortby.Default(), nil
	}
	clauses := make([]sortby.Clause, 0, len(dtos))
	for i, d := range dtos {
		order := sortby.ParseOrder(d.Order, sortby.Desc)
		switch sortby.Type(d.Type) {
		case sortby.TypeScore:
			clauses = append(clauses, sortby.Score(order))
		case sortby.TypeField:
			if d.Field == "" {
				return sortby.By{}, fmt.Errorf("sort %d: field is required", i)
			}
			clauses = append(clauses, sortby.Field(fieldpath.Resolve(d.Field), order))
		case sortby.TypeFunction:
			if d.Script == "" {
				return sortby.By{}, fmt.Errorf("sort %d: script is required", i)
			}
			clauses = append(clauses, sortby.Function(d.Script, order))
		case sortby.TypeDistance:
			if d.Coordinate == nil {
				return sortby.By{}, fmt.Errorf("sort %d: coordinate is required", i)
			}
			c := geo.Coordinate{Lat: d.Coordinate.Lat, Lon: d.Coordinate.Lon}
			if err := c.Validate(); err != nil {
				return sortby.By{}, fmt.Errorf("sort %d: %w", i, err)
			}
			field := d.Field
			if field != "" {
				field = fieldpath.Resolve(field)
			}
			clauses = append(clauses, sortby.Distance(field, c, d.Unit))
		case sortby.TypeNested:
			if d.Field == "" {
				return sortby.By{}, fmt.Errorf("sort %d: field is required", i)
			}
			f, err := optionalFilterFrom(d.Filter)
			if err != nil {
				return sortby.By{}, fmt.Errorf("sort %d filter: %w", i, err)
			}
			clauses = append(clauses, sortby.Nested(fieldpath.Resolve(d.Field), order, d.Mode, f))
		default:
			// Unknown types reach the compiler, which drops them.
			clauses = append(clauses, sortby.Of(sortby.Type(d.Type), d.Field, order))
		}
	}
	return sortby.NewBy(clauses...), nil
}

// ToProfile validates d and builds the profile of tenant.
func (d *Profile) ToProfile(tenant string) (domprofile.Profile, error) {
	if d.Tenant != "" && d.Tenant != tenant {
		return domprofile.Profile{}, fmt.Errorf("tenant %q does not match path tenant %q", d.Tenant, tenant)
	}
	universe, err := filterSetFrom(d.UniverseFilters)
	if err != nil {
		return domprofile.Profile{}, fmt.Errorf("universe_filters: %w", err)
	}
	fz, err := fuzziness.Parse(d.Fuzziness)
	if err != nil {
		return domprofile.Profile{}, err
	}
	return domprofile.New(tenant, universe, d.SearchableFields, fz)
}

// FromProfile renders p.
func FromProfile(p domprofile.Profile) (Profile, error) {
	out := Profile{
		Tenant:           p.Tenant(),
		SearchableFields: p.SearchableFields(),
		Fuzziness:        p.Fuzziness().Value(),
	}
	for _, nf := range p.UniverseFilters().All() {
		d, err := filterTo(nf)
		if err != nil {
			return Profile{}, err
		}
		out.UniverseFilters = append(out.UniverseFilters, d)
	}
	return out, nil
}

func filterTo(nf filter.Named) (Filter, error) {
	f := nf.Filter
	d := Filter{
		Name:   nf.Name,
		Field:  f.Field(),
		Values: f.Values(),
		Type:   string(f.Type()),
	}
	switch f.Type() {
	case filter.TypeGeo:
		shape, err := geo.Describe(f.Shape())
		if err != nil {
			return Filter{}, fmt.Errorf("filter %q: %w", nf.Name, err)
		}
		d.Shape = shape
	case filter.TypeQuery:
	default:
		d.ApplicationType = f.ApplicationType().String()
	}
	if t := f.Terms(); t != nil {
		d.Terms = &Terms{Field: t.Field(), Values: t.Values()}
	}
	return d, nil
}
