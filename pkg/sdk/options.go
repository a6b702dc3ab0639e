package querygate

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	keyPrefix        string
	profileCacheTTL  time.Duration
	searchableFields []string
	randomSeedField  string
	defaultPageSize  int
	maxPageSize      int

	logger         *slog.Logger
	compilerLogger *zap.Logger
	metricsReg     prometheus.Registerer
}

// WithValkey configures the client to read profiles from a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkeyCluster configures several seed addresses.
func WithValkeyCluster(password string, addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append([]string(nil), addrs...)
		c.password = password
	})
}

// WithKeyPrefix namespaces profile keys. Default: "querygate:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithProfileCache keeps profiles in memory for ttl between lookups.
// Profiles written through another client become visible after ttl.
func WithProfileCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.profileCacheTTL = ttl
	})
}

// WithSearchableFields sets the free-text fields used when neither the
// request nor the tenant profile names any.
func WithSearchableFields(fields ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchableFields = append([]string(nil), fields...)
	})
}

// WithRandomSeedField sets the document field mixed into random ordering.
func WithRandomSeedField(field string) Option {
	return optionFunc(func(c *clientConfig) {
		c.randomSeedField = field
	})
}

// WithPageSize sets the default and maximum page size.
// Defaults: 10 and 1000.
func WithPageSize(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithCompilerLogger receives compiler warnings such as dropped sort clauses.
func WithCompilerLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.compilerLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
