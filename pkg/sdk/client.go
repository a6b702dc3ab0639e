package querygate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/querygate/internal/compiler"
	"github.com/kailas-cloud/querygate/internal/db"
	dbValkey "github.com/kailas-cloud/querygate/internal/db/valkey"
	domprofile "github.com/kailas-cloud/querygate/internal/domain/profile"
	"github.com/kailas-cloud/querygate/internal/domain/search/query"
	profilerepo "github.com/kailas-cloud/querygate/internal/repository/profile"
	"github.com/kailas-cloud/querygate/internal/repository/profilecache"
	compileuc "github.com/kailas-cloud/querygate/internal/usecase/compile"
	healthuc "github.com/kailas-cloud/querygate/internal/usecase/health"
	"github.com/kailas-cloud/querygate/internal/wire"
)

const defaultReadinessTimeout = 10 * time.Second

// compileUseCase is the internal interface for compilation and profiles.
type compileUseCase interface {
	Compile(ctx context.Context, tenant string, q *query.Query) (map[string]any, error)
	GetProfile(ctx context.Context, tenant string) (domprofile.Profile, error)
	PutProfile(ctx context.Context, p domprofile.Profile) error
	DeleteProfile(ctx context.Context, tenant string) error
	ListProfiles(ctx context.Context) ([]string, error)
}

// Client is the querygate SDK entry point.
type Client struct {
	store     db.Store
	svc       compileUseCase
	healthSvc healthUseCase
	limits    wire.PageLimits
	obs       *observer
}

// New creates a Client and connects to Valkey.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("querygate: database address required (use WithValkey)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("querygate: create valkey store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("querygate: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	var copts []compiler.Option
	if cfg.compilerLogger != nil {
		copts = append(copts, compiler.WithLogger(cfg.compilerLogger))
	}
	if len(cfg.searchableFields) > 0 {
		copts = append(copts, compiler.WithSearchableFields(cfg.searchableFields...))
	}
	if cfg.randomSeedField != "" {
		copts = append(copts, compiler.WithRandomSeedField(cfg.randomSeedField))
	}

	var profiles compileuc.ProfileRepository = profilerepo.New(store, cfg.keyPrefix)
	if cfg.profileCacheTTL > 0 {
		profiles = profilecache.New(profiles, cfg.profileCacheTTL, nil, cfg.compilerLogger)
	}

	svc := compileuc.New(profiles, compiler.New(copts...))

	return &Client{
		store:     store,
		svc:       svc,
		healthSvc: healthuc.New(store, svc),
		limits:    pageLimits(cfg),
		obs:       obs,
	}
}

func pageLimits(cfg *clientConfig) wire.PageLimits {
	limits := wire.DefaultPageLimits
	if cfg.defaultPageSize > 0 {
		limits.DefaultSize = cfg.defaultPageSize
	}
	if cfg.maxPageSize > 0 {
		limits.MaxSize = cfg.maxPageSize
	}
	return limits
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Compile applies the tenant profile to req and returns the native search body.
func (c *Client) Compile(ctx context.Context, tenant string, req *Request) (_ map[string]any, err error) {
	start := time.Now()
	defer func() { c.obs.observe("compile", start, err) }()

	q, err := req.Build(c.limits)
	if err != nil {
		return nil, fmt.Errorf("compile: %w: %w", ErrInvalidQuery, err)
	}
	body, err := c.svc.Compile(ctx, tenant, q)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return body, nil
}

// Profiles returns the tenant profile service.
func (c *Client) Profiles() *ProfileService {
	return &ProfileService{svc: c.svc, obs: c.obs}
}
