// Package compile merges tenant policy into search queries and compiles them.
package compile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/querygate/internal/domain"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
	"github.com/kailas-cloud/querygate/internal/logger"
	"github.com/kailas-cloud/querygate/internal/metrics"
)

// Service compiles tenant queries and manages tenant profiles.
type Service struct {
	profiles ProfileRepository
	compiler Compiler
}

// New creates a compile service.
func New(profiles ProfileRepository, compiler Compiler) *Service {
	return &Service{profiles: profiles, compiler: compiler}
}

// Compile applies the tenant profile to q and returns the native request body.
func (s *Service) Compile(ctx context.Context, tenant string, q *query.Query) (map[string]any, error) {
	start := time.Now()

	p, err := s.profile(ctx, tenant)
	if err != nil {
		metrics.CompilationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	merged := q.WithDefaults(p.UniverseFilters(), p.SearchableFields(), p.Fuzziness())
	body, err := s.compiler.Body(merged)
	metrics.CompileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CompilationsTotal.WithLabelValues(status(err)).Inc()
		return nil, fmt.Errorf("compile: %w", err)
	}
	metrics.CompilationsTotal.WithLabelValues("ok").Inc()

	logger.FromContext(ctx).Debug("query compiled",
		zap.String("tenant", tenant),
		zap.Int("filters", merged.Filters().Len()),
		zap.Int("universe_filters", merged.UniverseFilters().Len()),
		zap.Duration("took", time.Since(start)),
	)
	return body, nil
}

// profile loads the tenant policy. A tenant without one gets the empty profile.
func (s *Service) profile(ctx context.Context, tenant string) (domprofile.Profile, error) {
	p, err := s.profiles.Get(ctx, tenant)
	switch {
	case err == nil:
		metrics.ProfileLookupsTotal.WithLabelValues("hit").Inc()
		return p, nil
	case errors.Is(err, domain.ErrProfileNotFound):
		metrics.ProfileLookupsTotal.WithLabelValues("miss").Inc()
		return domprofile.Empty(tenant), nil
	default:
		metrics.ProfileLookupsTotal.WithLabelValues("error").Inc()
		return domprofile.Profile{}, fmt.Errorf("get profile %q: %w", tenant, err)
	}
}

func status(err error) string {
	var fe *domain.FilterError
	if errors.Is(err, domain.ErrInvalidQuery) ||
		errors.Is(err, domain.ErrUnsupportedGeoShape) ||
		errors.As(err, &fe) {
		return "invalid"
	}
	return "error"
}

// GetProfile returns the stored profile of a tenant.
func (s *Service) GetProfile(ctx context.Context, tenant string) (domprofile.Profile, error) {
	p, err := s.profiles.Get(ctx, tenant)
	if err != nil {
		return domprofile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// PutProfile creates or replaces a tenant profile.
func (s *Service) PutProfile(ctx context.Context, p domprofile.Profile) error {
	if err := s.profiles.Put(ctx, p); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	logger.FromContext(ctx).Info("profile stored", zap.String("tenant", p.Tenant()))
	return nil
}

// DeleteProfile removes a tenant profile.
func (s *Service) DeleteProfile(ctx context.Context, tenant string) error {
	if err := s.profiles.Delete(ctx, tenant); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	logger.FromContext(ctx).Info("profile deleted", zap.String("tenant", tenant))
	return nil
}

// ListProfiles returns the tenants that have a stored profile.
func (s *Service) ListProfiles(ctx context.Context) ([]string, error) {
	tenants, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return tenants, nil
}

// HealthCheck compiles a match-all query to verify the compiler is usable.
func (s *Service) HealthCheck(_ context.Context) error {
	_, err := s.compiler.Body(query.NewBuilder("").MustBuild())
	return err
}
