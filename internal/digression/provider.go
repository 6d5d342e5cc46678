package digression

import (
	"context"
	"sync"
	"time"

	"dialogcore/internal/observability"
)

// snapshot pairs a complete config with its load time. Snapshots are
// immutable; a refresh installs a brand new one.
type snapshot struct {
	cfg      Config
	loadedAt time.Time
}

// CachingProvider resolves configs from a Store with a per-scope TTL cache.
// Store failures degrade to the last-known-good snapshot, then to the
// built-in defaults; Config never returns an error.
type CachingProvider struct {
	store   Store
	ttl     time.Duration
	clock   func() time.Time
	logger  *observability.Logger
	metrics *observability.MetricsCollector

	mu    sync.RWMutex
	cache map[string]snapshot
}

// ProviderOption configures a CachingProvider.
type ProviderOption func(*CachingProvider)

// WithProviderLogger attaches a logger.
func WithProviderLogger(logger *observability.Logger) ProviderOption {
	return func(p *CachingProvider) { p.logger = logger }
}

// WithProviderMetrics attaches a metrics collector.
func WithProviderMetrics(metrics *observability.MetricsCollector) ProviderOption {
	return func(p *CachingProvider) { p.metrics = metrics }
}

// withClock overrides the time source, for tests.
func withClock(clock func() time.Time) ProviderOption {
	return func(p *CachingProvider) { p.clock = clock }
}

// DefaultTTL bounds configuration staleness.
const DefaultTTL = 5 * time.Minute

// NewCachingProvider builds a provider over store. A non-positive ttl is
// replaced by DefaultTTL.
func NewCachingProvider(store Store, ttl time.Duration, opts ...ProviderOption) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := &CachingProvider{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		cache: map[string]snapshot{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the detection settings for the scope. Fresh cache entries
// are served without touching the store; stale entries trigger a reload,
// falling back to the stale snapshot and finally the defaults when the
// store fails.
func (p *CachingProvider) Config(ctx context.Context, tenantID int64, language string) Config {
	key := scopeKey(tenantID, language)

	p.mu.RLock()
	snap, ok := p.cache[key]
	p.mu.RUnlock()
	if ok && p.clock().Sub(snap.loadedAt) < p.ttl {
		return snap.cfg
	}

	cfg, err := p.store.Load(ctx, tenantID, language)
	if err != nil {
		p.logger.WarnContext(ctx, "digression config load failed, degrading",
			"scope", key, "error", err)
		if ok {
			// Last known good beats defaults, even past its TTL.
			p.metrics.RecordConfigFallback(ctx, "last_known_good")
			return snap.cfg
		}
		p.metrics.RecordConfigFallback(ctx, "defaults")
		return DefaultConfig()
	}

	normalize(&cfg)

	p.mu.Lock()
	p.cache[key] = snapshot{cfg: cfg, loadedAt: p.clock()}
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "digression config loaded",
		"scope", key,
		"exit_keywords", len(cfg.ExitKeywords),
		"question_keywords", len(cfg.QuestionKeywords))
	return cfg
}

// Invalidate clears the cache, forcing the next Config call per scope to
// hit the store. Used by tests and by admin config updates.
func (p *CachingProvider) Invalidate() {
	p.mu.Lock()
	p.cache = map[string]snapshot{}
	p.mu.Unlock()
}
