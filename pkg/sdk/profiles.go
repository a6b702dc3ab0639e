package querygate

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/querygate/internal/wire"
)

// ProfileService manages tenant profiles.
type ProfileService struct {
	svc compileUseCase
	obs *observer
}

// Get returns the profile of a tenant.
func (s *ProfileService) Get(ctx context.Context, tenant string) (_ Profile, err error) {
	start := time.Now()
	defer func() { s.obs.observe("profile.get", start, err) }()

	p, err := s.svc.GetProfile(ctx, tenant)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return wire.FromProfile(p)
}

// Put creates or replaces the profile of a tenant and returns it as stored,
// with field names resolved to document paths.
func (s *ProfileService) Put(ctx context.Context, tenant string, in *Profile) (_ Profile, err error) {
	start := time.Now()
	defer func() { s.obs.observe("profile.put", start, err) }()

	p, err := in.ToProfile(tenant)
	if err != nil {
		return Profile{}, fmt.Errorf("put profile: %w: %w", ErrInvalidProfile, err)
	}
	if err = s.svc.PutProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("put profile: %w", err)
	}
	return wire.FromProfile(p)
}

// Delete removes the profile of a tenant.
func (s *ProfileService) Delete(ctx context.Context, tenant string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("profile.delete", start, err) }()

	if err = s.svc.DeleteProfile(ctx, tenant); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// List returns the tenants that have a stored profile.
func (s *ProfileService) List(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("profile.list", start, err) }()

	tenants, err := s.svc.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return tenants, nil
}
