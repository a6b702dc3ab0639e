package profile

import (
	"context"
	"testing"

	"github.com/kailas-cloud/querygate/internal/db"
	"github.com/kailas-cloud/querygate/internal/domain/geo"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
	"github.com/kailas-cloud/querygate/internal/domain/search/fuzziness"
)

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	scanFn func(ctx context.Context, pattern string) ([]string, error)
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, "querygate:"), ms
}

func testProfile(t *testing.T) domprofile.Profile {
	t.Helper()
	store, err := filter.New("indexed_metadata.store", []string{"eu", "uk"}, filter.MustAll, filter.TypeField)
	if err != nil {
		t.Fatal(err)
	}
	terms, err := filter.NewTerms("indexed_metadata.tags", []string{"sale"})
	if err != nil {
		t.Fatal(err)
	}
	near, err := filter.NewGeo("coordinate", geo.CoordinateAndDistance{
		Center:   geo.Coordinate{Lat: 40.4, Lon: -3.7},
		Distance: "50km",
	})
	if err != nil {
		t.Fatal(err)
	}

	p, err := domprofile.New("acme",
		filter.NewSet(
			filter.Named{Name: "store", Filter: store.WithTerms(terms)},
			filter.Named{Name: "near", Filter: near},
		),
		[]string{"searchable_metadata.title^3"},
		fuzziness.PerField(map[string]float64{"searchable_metadata.title": 1}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
