// Package rankhist implements the incremental histogram that backs the
// sliding-aperture rank and integral queries.
//
// A Histogram is built once per kernel invocation (or rebuilt on a cache
// miss) and then kept in sync with the sliding aperture via Include and
// Exclude, each O(1) plus the cost of any multi-level companion update.
// Rank and integral queries (MoveToRank, CurrentIntegral, ...) are the only
// operations that may cost more than O(1); their cost is what the optional
// bit-levels companions bring down from O(2^k) to O(levels·2^(k-kᵢ)).
package rankhist

import (
	"fmt"
	"sort"
)

// Histogram is the incremental rank/integral data structure over a fixed
// number of bars (2^k, k the analysed-bit count of the active quantiser).
type Histogram struct {
	bars []uint32 // bar occupancy; sum(bars) == n
	n    uint32   // aperture size, sum(bars)

	curValue uint32
	curRank  uint32
	curSum   float64 // sum_{v<curValue} v*bars[v]
	lastRank float64 // the r last passed to MoveToRank/MoveToPreciseRank

	totalSum float64 // sum_v v*bars[v], maintained for the r==n tie-break

	levels []level // coarsest first; see levels.go
}

// New creates an empty histogram with barCount bars (barCount must be a
// power of two; the caller (the quantiser) is the authority on that).
// bitLevels lists the (strictly increasing) analysed-bit counts of any
// coarser companion histograms to maintain alongside the base resolution
// (the last entry, if present, is expected to equal the base's own bit
// count and is not stored again).
func New(barCount uint32, baseBits int, bitLevels []int) (*Histogram, error) {
	if barCount == 0 || barCount&(barCount-1) != 0 {
		return nil, fmt.Errorf("rankhist: barCount %d is not a power of two", barCount)
	}
	h := &Histogram{bars: make([]uint32, barCount)}
	sorted := append([]int(nil), bitLevels...)
	sort.Ints(sorted)
	for _, k := range sorted {
		if k <= 0 || k >= baseBits {
			continue // the final entry equals baseBits; nothing to add for it
		}
		h.levels = append(h.levels, newLevel(k, baseBits))
	}
	return h, nil
}

// Reset clears all bars and the cursor, keeping the level configuration.
func (h *Histogram) Reset() {
	for i := range h.bars {
		h.bars[i] = 0
	}
	for i := range h.levels {
		h.levels[i].reset()
	}
	h.n = 0
	h.curValue, h.curRank = 0, 0
	h.curSum, h.totalSum, h.lastRank = 0, 0, 0
}

// BarCount returns the number of bars (2^k).
func (h *Histogram) BarCount() uint32 { return uint32(len(h.bars)) }

// Size returns N, the current aperture size (sum of all bars).
func (h *Histogram) Size() uint32 { return h.n }

// Bars exposes the raw bar array for cache snapshots; callers must treat
// it as read-only.
func (h *Histogram) Bars() []uint32 { return h.bars }

// Include adds one element quantised to bar q. It is a fatal programmer
// error (InternalInvariant) for q to be out of range; that is checked by
// the caller via the quantiser contract and is not re-validated here on
// the hot path.
func (h *Histogram) Include(q uint32) {
	h.bars[q]++
	h.n++
	fq := float64(q)
	h.totalSum += fq
	for i := range h.levels {
		h.levels[i].include(q)
	}
	if q < h.curValue {
		h.curRank++
		h.curSum += fq
	}
}

// Exclude removes one element quantised to bar q. Returns a
// *NegativeBarError if the bar would go negative, a violation of the
// caller's contract that include/exclude are balanced.
func (h *Histogram) Exclude(q uint32) error {
	if h.bars[q] == 0 {
		return &NegativeBarError{Bar: q}
	}
	h.bars[q]--
	h.n--
	fq := float64(q)
	h.totalSum -= fq
	for i := range h.levels {
		h.levels[i].exclude(q)
	}
	if q < h.curValue {
		h.curRank--
		h.curSum -= fq
	}
	return nil
}

// NegativeBarError is InternalInvariant: a bar was excluded past zero.
type NegativeBarError struct{ Bar uint32 }

func (e *NegativeBarError) Error() string {
	return fmt.Sprintf("rankhist: bar %d went negative on exclude", e.Bar)
}

// NegativeIntegralError is InternalInvariant: an integral came out negative.
type NegativeIntegralError struct{ Value float64 }

func (e *NegativeIntegralError) Error() string {
	return fmt.Sprintf("rankhist: integral %.6g is negative", e.Value)
}

// MoveToRank advances the cursor so that
// curRank <= r < curRank + bars[curValue], except at r == N (see the
// decreasing special branch in seekTieBreak).
func (h *Histogram) MoveToRank(r uint32) {
	h.lastRank = float64(r)
	if r == h.n {
		h.seekTieBreak()
		return
	}
	h.seek(r)
}

// MoveToPreciseRank is MoveToRank generalised to a real-valued rank: the
// cursor lands on floor(r)'s bucket, and the fractional part is resolved
// by the integral queries, not by the cursor position itself.
func (h *Histogram) MoveToPreciseRank(r float64) {
	h.lastRank = r
	if r >= float64(h.n) {
		h.seekTieBreak()
		return
	}
	h.seek(uint32(r))
}

// seek performs the directional walk: starting from wherever the cursor
// currently sits, step towards target one bar at a time. When multi-level
// companions are configured, seekLevels narrows the starting point first
// so this walk only runs within one coarse group.
func (h *Histogram) seek(target uint32) {
	if len(h.levels) > 0 {
		h.seekLevels(target)
		return
	}
	for h.curRank > target {
		h.curValue--
		h.curRank -= h.bars[h.curValue]
		h.curSum -= float64(h.curValue) * float64(h.bars[h.curValue])
	}
	for h.curRank+h.bars[h.curValue] <= target {
		h.curRank += h.bars[h.curValue]
		h.curSum += float64(h.curValue) * float64(h.bars[h.curValue])
		h.curValue++
	}
}

// seekTieBreak implements the "decreasing special branch" for r == N: the
// cursor is placed at the smallest curValue such that every bar at or
// above curValue is zero.
func (h *Histogram) seekTieBreak() {
	v := int64(len(h.bars)) - 1
	for v >= 0 && h.bars[v] == 0 {
		v--
	}
	h.curValue = uint32(v + 1)
	h.curRank = h.n
	h.curSum = h.totalSum
}

// CurrentIntegral is the simple (piecewise-constant) integral of the
// sorted aperture up to lastRank.
func (h *Histogram) CurrentIntegral() float64 {
	frac := h.lastRank - float64(h.curRank)
	integral := h.curSum + frac*float64(h.curValue)
	return integral
}

// CurrentPreciseIntegral is the piecewise-linear integral variant: bars
// are modelled as unit-width rank-space slabs, and the final (possibly
// fractional) bar is interpolated within its own height.
func (h *Histogram) CurrentPreciseIntegral() float64 {
	base := h.curSum + 0.5*float64(h.curRank)
	frac := h.lastRank - float64(h.curRank)
	if frac <= 0 {
		return base
	}
	count := h.bars[h.curValue]
	if count == 0 {
		// degenerate: curValue's bucket is empty (only possible exactly at
		// frac == 0, handled above); guard anyway for safety.
		return base
	}
	delta := frac / float64(count)
	return base + frac*(float64(h.curValue)+0.5*delta)
}

// Verify recomputes curRank/curSum/totalSum from bars from scratch and
// compares them to the incrementally maintained state. This is a
// debug-mode cross-check oracle; it is not on the hot path and is
// intended for tests and KernelOptions.DebugMode.
func (h *Histogram) Verify() error {
	var n uint32
	var rank uint32
	var sum, total float64
	for v, c := range h.bars {
		n += c
		total += float64(v) * float64(c)
		if uint32(v) < h.curValue {
			rank += c
			sum += float64(v) * float64(c)
		}
	}
	if n != h.n {
		return fmt.Errorf("rankhist: verify: n=%d want %d", h.n, n)
	}
	if rank != h.curRank {
		return fmt.Errorf("rankhist: verify: curRank=%d want %d", h.curRank, rank)
	}
	if sum != h.curSum {
		return fmt.Errorf("rankhist: verify: curSum=%v want %v", h.curSum, sum)
	}
	if total != h.totalSum {
		return fmt.Errorf("rankhist: verify: totalSum=%v want %v", h.totalSum, total)
	}
	return nil
}
