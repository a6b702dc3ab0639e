package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querygate/internal/domain"
	"github.com/kailas-cloud/querygate/internal/domain/geo"
	compileuc "github.com/kailas-cloud/querygate/internal/usecase/compile"
	healthuc "github.com/kailas-cloud/querygate/internal/usecase/health"
	"github.com/kailas-cloud/querygate/internal/wire"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the query compilation API.
type Server struct {
	compile       *compileuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	limits        wire.PageLimits
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// Option configures a Server.
type Option func(*Server)

// WithPageSize sets the default and maximum page size of compiled queries.
func WithPageSize(defaultSize, maxSize int) Option {
	return func(s *Server) {
		if defaultSize > 0 {
			s.limits.DefaultSize = defaultSize
		}
		if maxSize > 0 {
			s.limits.MaxSize = maxSize
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates an HTTP API server.
func NewServer(
	compile *compileuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		compile:      compile,
		health:       health,
		logger:       logger,
		limits:       wire.DefaultPageLimits,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrProfileNotFound, http.StatusNotFound, ErrorCodeProfileNotFound),
		sentinelHandler(domain.ErrUnsupportedGeoShape, http.StatusBadRequest, ErrorCodeUnsupportedGeoShape),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeInvalidQuery),
		sentinelHandler(domain.ErrInvalidProfile, http.StatusBadRequest, ErrorCodeValidationFailed),
		filterErrorHandler,
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/profiles", s.ListProfiles)
		r.Route("/{tenant}", func(r chi.Router) {
			r.Post("/compile", s.Compile)
			r.Get("/profile", s.GetProfile)
			r.Put("/profile", s.PutProfile)
			r.Delete("/profile", s.DeleteProfile)
		})
	})
}

// Compile handles POST /v1/{tenant}/compile.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	var req wire.CompileRequest
	if !s.decode(w, r, &req) {
		return
	}

	q, err := req.Build(s.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, validationCode(err), err.Error())
		return
	}

	body, err := s.compile.Compile(r.Context(), tenant, q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, body)
}

// GetProfile handles GET /v1/{tenant}/profile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	p, err := s.compile.GetProfile(r.Context(), tenant)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := wire.FromProfile(p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutProfile handles PUT /v1/{tenant}/profile.
func (s *Server) PutProfile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	var req wire.Profile
	if !s.decode(w, r, &req) {
		return
	}

	p, err := req.ToProfile(tenant)
	if err != nil {
		writeError(w, http.StatusBadRequest, validationCode(err), err.Error())
		return
	}

	if err := s.compile.PutProfile(r.Context(), p); err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := wire.FromProfile(p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteProfile handles DELETE /v1/{tenant}/profile.
func (s *Server) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	if err := s.compile.DeleteProfile(r.Context(), tenant); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListProfiles handles GET /v1/profiles.
func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.compile.ListProfiles(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if tenants == nil {
		tenants = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenant := chi.URLParam(r, "tenant")
	if !tenantPattern.MatchString(tenant) {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, fmt.Sprintf("invalid tenant %q", tenant))
		return "", false
	}
	return tenant, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// validationCode classifies errors raised while decoding a request.
func validationCode(err error) ErrorCode {
	if errors.Is(err, geo.ErrUnsupportedShape) {
		return ErrorCodeUnsupportedGeoShape
	}
	return ErrorCodeValidationFailed
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var fe *domain.FilterError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	sentinels := []error{
		domain.ErrProfileNotFound,
		domain.ErrUnsupportedGeoShape,
		domain.ErrInvalidQuery,
		domain.ErrInvalidProfile,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// filterErrorHandler reports any remaining per-filter compilation failure as a bad query.
func filterErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	var fe *domain.FilterError
	if !errors.As(err, &fe) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeInvalidQuery, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
