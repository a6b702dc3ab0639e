package profilecache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/querygate/internal/domain"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
)

type mockRepo struct {
	profiles map[string]domprofile.Profile
	getErr   error
	getCalls int
}

func (m *mockRepo) Get(_ context.Context, tenant string) (domprofile.Profile, error) {
	m.getCalls++
	if m.getErr != nil {
		return domprofile.Profile{}, m.getErr
	}
	p, ok := m.profiles[tenant]
	if !ok {
		return domprofile.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockRepo) Put(_ context.Context, p domprofile.Profile) error {
	m.profiles[p.Tenant()] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, tenant string) error {
	if _, ok := m.profiles[tenant]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(m.profiles, tenant)
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]string, error) {
	tenants := make([]string, 0, len(m.profiles))
	for t := range m.profiles {
		tenants = append(tenants, t)
	}
	return tenants, nil
}

// fakeClock is advanced manually by tests.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(t *testing.T, repo *mockRepo) (*Cache, *fakeClock, *prometheus.CounterVec) {
	t.Helper()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_profile_cache_total",
	}, []string{"result"})
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := New(repo, time.Minute, counter, nil)
	c.now = clock.now
	return c, clock, counter
}
