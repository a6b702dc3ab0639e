package compile

import (
	"context"

	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
)

// ProfileRepository defines the storage contract for tenant profiles.
type ProfileRepository interface {
	Get(ctx context.Context, tenant string) (domprofile.Profile, error)
	Put(ctx context.Context, p domprofile.Profile) error
	Delete(ctx context.Context, tenant string) error
	List(ctx context.Context) ([]string, error)
}

// Compiler turns a query into a native search body.
type Compiler interface {
	Body(q *query.Query) (map[string]any, error)
}
