package profile

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/querygate/internal/domain/geo"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/fuzziness"
)

// profileDoc is the stored JSON form of a tenant profile.
type profileDoc struct {
	Tenant           string      `json:"tenant"`
	Universe         []filterRow `json:"universe,omitempty"`
	SearchableFields []string    `json:"searchable_fields,omitempty"`
	Fuzziness        any         `json:"fuzziness,omitempty"`
}

type filterRow struct {
	Name            string         `json:"name"`
	Field           string         `json:"field,omitempty"`
	Values          []string       `json:"values,omitempty"`
	ApplicationType string         `json:"application_type"`
	Type            string         `json:"type"`
	Terms           *termsRow      `json:"terms,omitempty"`
	Shape           map[string]any `json:"shape,omitempty"`
}

type termsRow struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

func marshalProfile(p domprofile.Profile) ([]byte, error) {
	doc := profileDoc{
		Tenant:           p.Tenant(),
		SearchableFields: p.SearchableFields(),
		Fuzziness:        p.Fuzziness().Value(),
	}
	for _, nf := range p.UniverseFilters().All() {
		row, err := toFilterRow(nf)
		if err != nil {
			return nil, err
		}
		doc.Universe = append(doc.Universe, row)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return data, nil
}

func unmarshalProfile(data []byte) (domprofile.Profile, error) {
	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domprofile.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}

	universe := filter.NewSet()
	for _, row := range doc.Universe {
		f, err := fromFilterRow(row)
		if err != nil {
			return domprofile.Profile{}, fmt.Errorf("universe filter %q: %w", row.Name, err)
		}
		universe = universe.With(row.Name, f)
	}

	fz, err := fuzziness.Parse(doc.Fuzziness)
	if err != nil {
		return domprofile.Profile{}, err
	}
	return domprofile.New(doc.Tenant, universe, doc.SearchableFields, fz)
}

func toFilterRow(nf filter.Named) (filterRow, error) {
	f := nf.Filter
	row := filterRow{
		Name:            nf.Name,
		Field:           f.Field(),
		Values:          f.Values(),
		ApplicationType: f.ApplicationType().String(),
		Type:            string(f.Type()),
	}
	if t := f.Terms(); t != nil {
		row.Terms = &termsRow{Field: t.Field(), Values: t.Values()}
	}
	if f.Type() == filter.TypeGeo {
		shape, err := geo.Describe(f.Shape())
		if err != nil {
			return filterRow{}, fmt.Errorf("universe filter %q: %w", nf.Name, err)
		}
		row.Shape = shape
	}
	return row, nil
}

func fromFilterRow(row filterRow) (filter.Filter, error) {
	typ := filter.Type(row.Type)
	if typ == filter.TypeGeo {
		shape, err := geo.ParseShape(row.Shape)
		if err != nil {
			return filter.Filter{}, err
		}
		return filter.NewGeo(row.Field, shape)
	}

	appType, err := filter.ParseApplicationType(row.ApplicationType)
	if err != nil {
		return filter.Filter{}, err
	}
	f, err := filter.New(row.Field, row.Values, appType, typ)
	if err != nil {
		return filter.Filter{}, err
	}
	if row.Terms != nil {
		terms, err := filter.NewTerms(row.Terms.Field, row.Terms.Values)
		if err != nil {
			return filter.Filter{}, err
		}
		f = f.WithTerms(terms)
	}
	return f, nil
}
