// Package profile persists tenant search profiles as JSON documents.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/querygate/internal/db"
	"github.com/kailas-cloud/querygate/internal/domain"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
)

// store is the consumer interface for profiles (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/compile.ProfileRepository.
type Repo struct {
	store  store
	prefix string
}

// New creates a profile repository. prefix namespaces every key, e.g. "querygate:".
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) key(tenant string) string {
	return r.prefix + "profile:" + tenant
}

// Get loads the profile of a tenant.
func (r *Repo) Get(ctx context.Context, tenant string) (domprofile.Profile, error) {
	data, err := r.store.Get(ctx, r.key(tenant))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domprofile.Profile{}, domain.ErrProfileNotFound
		}
		return domprofile.Profile{}, fmt.Errorf("get profile %s: %w", tenant, err)
	}
	return unmarshalProfile(data)
}

// Put stores or replaces the profile of its tenant.
func (r *Repo) Put(ctx context.Context, p domprofile.Profile) error {
	data, err := marshalProfile(p)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.key(p.Tenant()), data); err != nil {
		return fmt.Errorf("set profile %s: %w", p.Tenant(), err)
	}
	return nil
}

// Delete removes the profile of a tenant.
func (r *Repo) Delete(ctx context.Context, tenant string) error {
	key := r.key(tenant)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check profile %s: %w", tenant, err)
	}
	if !exists {
		return domain.ErrProfileNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete profile %s: %w", tenant, err)
	}
	return nil
}

// List returns the tenants that have a stored profile, sorted.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}
	prefix := r.key("")
	tenants := make([]string, 0, len(keys))
	for _, k := range keys {
		tenants = append(tenants, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(tenants)
	return tenants, nil
}
