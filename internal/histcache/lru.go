package histcache

import "container/list"

// lru is a bounded-LRU cache variant. Useful when a consumer interleaves
// reads across a handful of distinct positions (e.g. several concurrent
// ranged-read jobs sharing one matrix) instead of sweeping contiguously.
type lru struct {
	capacity int
	order    *list.List // front = most recently used
	index    map[int64]*list.Element
}

type lruEntry struct {
	pos  int64
	snap Snapshot
}

// NewLRU returns a Cache holding up to capacity entries, evicting the
// least recently used on overflow. capacity < 1 is treated as 1.
func NewLRU(capacity int) Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &lru{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[int64]*list.Element),
	}
}

func (c *lru) Get(pos int64) (Snapshot, bool) {
	el, ok := c.index[pos]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).snap, true
}

func (c *lru) Put(pos int64, snap Snapshot) {
	if el, ok := c.index[pos]; ok {
		el.Value.(*lruEntry).snap = snap
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&lruEntry{pos: pos, snap: snap})
	c.index[pos] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*lruEntry).pos)
		}
	}
}
