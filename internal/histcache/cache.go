// Package histcache implements the sliding-aperture histogram cache: a
// hint-only, position-keyed store of the histogram cursor at which a
// previous ranged read paused, so that a contiguous follow-up read can
// resume without rebuilding the aperture from scratch.
//
// A miss is never an error. The caller always knows how to rebuild from
// the raw aperture at a given position, so this package has no error
// return values on its hot path.
package histcache

// Snapshot is whatever a kernel needs to resume processing at the cached
// position. The only kernel that produces one is kernel.Summator (its
// running float64 sum); the histogram-backed kernels take no snapshot and
// always rebuild. The cache itself is agnostic to the concrete type.
type Snapshot any

// Cache is the position -> Snapshot hint store consumed by the driver.
type Cache interface {
	// Get returns the snapshot cached for pos, if any.
	Get(pos int64) (Snapshot, bool)
	// Put records the snapshot to resume from at pos, replacing any
	// previous entry the eviction policy chooses to discard.
	Put(pos int64, snap Snapshot)
}

// single is a one-entry cache: a single entry suffices for the
// contiguous-sweep workload. It is the default.
type single struct {
	has  bool
	pos  int64
	snap Snapshot
}

// NewSingle returns a single-entry cache.
func NewSingle() Cache {
	return &single{}
}

func (c *single) Get(pos int64) (Snapshot, bool) {
	if c.has && c.pos == pos {
		return c.snap, true
	}
	return nil, false
}

func (c *single) Put(pos int64, snap Snapshot) {
	c.has = true
	c.pos = pos
	c.snap = snap
}
