package histcache

import "log/slog"

// HealthConfig tunes when a poor cache hit ratio should be logged.
// Same patience/threshold shape as a cost-improvement tracker, applied to
// hit ratio instead of cost improvement.
type HealthConfig struct {
	// Enabled controls whether health tracking runs at all.
	Enabled bool
	// Patience is the number of consecutive chunks below MinHitRatio at
	// which a warning is logged: the Patience-th such chunk triggers it.
	Patience int
	// MinHitRatio is the hit ratio below which a chunk counts against
	// Patience. 0.5 means "at least half of this chunk's lookups hit".
	MinHitRatio float64
}

// DefaultHealthConfig mirrors DefaultConvergenceConfig's shape.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{Enabled: true, Patience: 3, MinHitRatio: 0.5}
}

// HealthTracker watches a cache's hit ratio across chunks of a ranged
// read and warns when optimise_get_range is not paying for itself, i.e.
// the consumer's access pattern is not the contiguous sweep the cache is
// built for.
type HealthTracker struct {
	config     HealthConfig
	hits       int
	misses     int
	staleCount int
	warned     bool
}

// NewHealthTracker creates a tracker with the given config.
func NewHealthTracker(config HealthConfig) *HealthTracker {
	return &HealthTracker{config: config}
}

// Observe records one cache lookup outcome.
func (t *HealthTracker) Observe(hit bool) {
	if hit {
		t.hits++
	} else {
		t.misses++
	}
}

// EndChunk closes out one chunk's observations, checks its hit ratio
// against MinHitRatio, and returns true the first time Patience
// consecutive chunks have fallen below it (logging a warning at that
// point, same as ConvergenceTracker.Update logging convergence).
func (t *HealthTracker) EndChunk() bool {
	defer func() { t.hits, t.misses = 0, 0 }()

	if !t.config.Enabled {
		return false
	}
	total := t.hits + t.misses
	if total == 0 {
		return false
	}
	ratio := float64(t.hits) / float64(total)

	if ratio >= t.config.MinHitRatio {
		t.staleCount = 0
		return false
	}

	t.staleCount++
	slog.Debug("histcache: low hit ratio chunk",
		"ratio", ratio,
		"stale_count", t.staleCount,
		"patience", t.config.Patience,
	)

	if t.staleCount >= t.config.Patience && !t.warned {
		t.warned = true
		slog.Warn("histcache: sustained low cache hit ratio, consider disabling optimise_get_range",
			"stale_count", t.staleCount,
			"min_hit_ratio", t.config.MinHitRatio,
		)
		return true
	}
	return false
}
