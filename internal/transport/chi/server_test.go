package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querygate/internal/compiler"
	"github.com/kailas-cloud/querygate/internal/domain"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
	compileuc "github.com/kailas-cloud/querygate/internal/usecase/compile"
	healthuc "github.com/kailas-cloud/querygate/internal/usecase/health"
	"github.com/kailas-cloud/querygate/internal/wire"
)

// --- Mocks ---

type memProfiles struct {
	mu    sync.Mutex
	items map[string]domprofile.Profile
	err   error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: map[string]domprofile.Profile{}}
}

func (m *memProfiles) Get(_ context.Context, tenant string) (domprofile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domprofile.Profile{}, m.err
	}
	p, ok := m.items[tenant]
	if !ok {
		return domprofile.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (m *memProfiles) Put(_ context.Context, p domprofile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.Tenant()] = p
	return nil
}

func (m *memProfiles) Delete(_ context.Context, tenant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[tenant]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(m.items, tenant)
	return nil
}

func (m *memProfiles) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

// --- Helpers ---

func newTestRouter(t *testing.T, repo *memProfiles, dbErr error, opts ...Option) http.Handler {
	t.Helper()
	svc := compileuc.New(repo, compiler.New(compiler.WithSeeder(compiler.SeederFunc(func() int64 { return 7 }))))
	srv := NewServer(svc, healthuc.New(pinger{err: dbErr}, svc), zap.NewNop(), opts...)
	r := chi.NewRouter()
	srv.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
	return e
}

const acmeProfile = `{
	"universe_filters": [
		{"name": "tenant", "field": "tenant", "values": ["acme"]}
	],
	"searchable_fields": ["title^2"],
	"fuzziness": "AUTO"
}`

// --- Tests ---

func TestCompile_MatchAll(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil)

	rr := do(t, h, http.MethodPost, "/v1/acme/compile", `{}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Contains(t, body, "query")
	assert.InDelta(t, 10, body["size"], 0)
	assert.InDelta(t, 0, body["from"], 0)
}

func TestCompile_AppliesTenantProfile(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil)

	rr := do(t, h, http.MethodPut, "/v1/acme/profile", acmeProfile)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/v1/acme/compile", `{"query": "red shoes"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := rr.Body.String()
	assert.Contains(t, out, "indexed_metadata.tenant")
	assert.Contains(t, out, "title^2")
	assert.Contains(t, out, `"fuzziness":"AUTO"`)

	rr = do(t, h, http.MethodPost, "/v1/globex/compile", `{"query": "red shoes"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "indexed_metadata.tenant")
}

func TestCompile_FullRequest(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil)

	req := `{
		"query": "sneakers",
		"filters": [
			{"name": "brand", "field": "brand", "values": ["nike", "adidas"], "application_type": "at_least_one"},
			{"name": "price", "field": "price", "values": ["10..50"], "type": "range"},
			{"name": "near", "type": "geo", "shape": {"type": "CoordinateAndDistance",
				"data": {"coordinate": {"lat": 40.4, "lon": -3.7}, "distance": "5km"}}}
		],
		"aggregations": [
			{"name": "brand", "field": "brand", "application_type": "at_least_one", "limit": 20}
		],
		"score": {"strategies": [
			{"type": "boosting_field_value", "config": {"field": "popularity", "factor": 1.2}}
		]},
		"sort": [{"type": "field", "field": "price", "order": "asc"}],
		"excluded_ids": ["1~product"],
		"fields": ["uuid.id"],
		"page": 3,
		"size": 20,
		"highlights": true,
		"suggestions": true
	}`
	rr := do(t, h, http.MethodPost, "/v1/acme/compile", req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.InDelta(t, 40, body["from"], 0)
	for _, key := range []string{"aggregations", "sort", "highlight", "suggest", "_source"} {
		assert.Contains(t, body, key)
	}

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "indexed_metadata.brand")
	assert.Contains(t, out, "indexed_metadata.price")
	assert.Contains(t, out, "indexed_metadata.popularity")
	assert.Contains(t, out, "geo_distance")
}

func TestCompile_PageSizeClamped(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil, WithPageSize(25, 100))

	rr := do(t, h, http.MethodPost, "/v1/acme/compile", `{"size": 5000}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.InDelta(t, 100, body["size"], 0)

	rr = do(t, h, http.MethodPost, "/v1/acme/compile", `{}`)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.InDelta(t, 25, body["size"], 0)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantErr  ErrorCode
	}{
		{
			name:     "malformed json",
			path:     "/v1/acme/compile",
			body:     `{"query":`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrorCodeBadRequest,
		},
		{
			name:     "invalid tenant",
			path:     "/v1/-acme/compile",
			body:     `{}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrorCodeValidationFailed,
		},
		{
			name:     "unknown geo shape",
			path:     "/v1/acme/compile",
			body:     `{"filters": [{"name": "g", "type": "geo", "shape": {"type": "Circle"}}]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrorCodeUnsupportedGeoShape,
		},
		{
			name:     "unnamed filter",
			path:     "/v1/acme/compile",
			body:     `{"filters": [{"field": "brand", "values": ["x"]}]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrorCodeValidationFailed,
		},
		{
			name:     "unknown application type",
			path:     "/v1/acme/compile",
			body:     `{"filters": [{"name": "b", "field": "brand", "values": ["x"], "application_type": "maybe"}]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrorCodeValidationFailed,
		},
		{
			name:     "bad fuzziness",
			path:     "/v1/acme/compile",
			body:     `{"fuzziness": "lots"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrorCodeValidationFailed,
		},
		{
			name:     "distance sort without coordinate",
			path:     "/v1/acme/compile",
			body:     `{"sort": [{"type": "distance"}]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrorCodeValidationFailed,
		},
	}

	h := newTestRouter(t, newMemProfiles(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			assert.Equal(t, tt.wantErr, decodeError(t, rr).Code)
		})
	}
}

func TestCompile_UnknownSortIsDropped(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil)

	rr := do(t, h, http.MethodPost, "/v1/acme/compile", `{"sort": [{"type": "popularity"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "popularity")
}

func TestCompile_BodyTooLarge(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil, WithMaxBodyBytes(16))

	rr := do(t, h, http.MethodPost, "/v1/acme/compile", `{"query": "a much longer query than sixteen bytes"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestCompile_ProfileStoreDown(t *testing.T) {
	repo := newMemProfiles()
	repo.err = errors.New("conn refused")
	h := newTestRouter(t, repo, nil)

	rr := do(t, h, http.MethodPost, "/v1/acme/compile", `{}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	e := decodeError(t, rr)
	assert.Equal(t, ErrorCodeInternalError, e.Code)
	assert.NotContains(t, e.Message, "conn refused")
}

func TestProfileLifecycle(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil)

	rr := do(t, h, http.MethodGet, "/v1/acme/profile", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrorCodeProfileNotFound, decodeError(t, rr).Code)

	rr = do(t, h, http.MethodPut, "/v1/acme/profile", acmeProfile)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/v1/acme/profile", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got wire.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "acme", got.Tenant)
	assert.Equal(t, "AUTO", got.Fuzziness)
	require.Len(t, got.UniverseFilters, 1)
	assert.Equal(t, "indexed_metadata.tenant", got.UniverseFilters[0].Field)
	assert.Equal(t, "must_all", got.UniverseFilters[0].ApplicationType)

	rr = do(t, h, http.MethodPut, "/v1/globex/profile", `{}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/profiles", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Tenants []string `json:"tenants"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Equal(t, []string{"acme", "globex"}, list.Tenants)

	rr = do(t, h, http.MethodDelete, "/v1/acme/profile", "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodDelete, "/v1/acme/profile", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPutProfile_TenantMismatch(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil)

	rr := do(t, h, http.MethodPut, "/v1/acme/profile", `{"tenant": "globex"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeValidationFailed, decodeError(t, rr).Code)
}

func TestListProfiles_Empty(t *testing.T) {
	h := newTestRouter(t, newMemProfiles(), nil)

	rr := do(t, h, http.MethodGet, "/v1/profiles", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"tenants": []}`, rr.Body.String())
}

func TestHealthCheck(t *testing.T) {
	rr := do(t, newTestRouter(t, newMemProfiles(), nil), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"store": "ok", "compiler": "ok"}, resp.Checks)

	rr = do(t, newTestRouter(t, newMemProfiles(), errors.New("down")), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newTestRouter(t, newMemProfiles(), nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
