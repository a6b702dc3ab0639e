// Package profile holds per-tenant search policy merged into every query.
package profile

import (
	"errors"
	"slices"

	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/fuzziness"
)

// Profile is the search policy of one tenant.
type Profile struct {
	tenant           string
	universe         filter.Set
	searchableFields []string
	fuzziness        fuzziness.Fuzziness
}

// New validates and creates a Profile.
func New(tenant string, universe filter.Set, searchableFields []string, fz fuzziness.Fuzziness) (Profile, error) {
	if tenant == "" {
		return Profile{}, errors.New("tenant is required")
	}
	return Profile{
		tenant:           tenant,
		universe:         universe,
		searchableFields: slices.Clone(searchableFields),
		fuzziness:        fz,
	}, nil
}

// Empty returns the profile used for tenants with no stored policy.
func Empty(tenant string) Profile {
	return Profile{tenant: tenant}
}

// Tenant returns the tenant identifier.
func (p Profile) Tenant() string { return p.tenant }

// UniverseFilters returns the tenant's base constraints.
func (p Profile) UniverseFilters() filter.Set { return p.universe }

// SearchableFields returns the default free-text fields.
func (p Profile) SearchableFields() []string { return slices.Clone(p.searchableFields) }

// Fuzziness returns the default text matching tolerance.
func (p Profile) Fuzziness() fuzziness.Fuzziness { return p.fuzziness }
