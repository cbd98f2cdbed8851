// Package kernel implements the per-element rank/sum computations and the
// axis-rectangle fast path, each as a driver.Aperture so internal/driver's
// sliding-window loop can drive any of them without knowing which one
// it's holding.
package kernel

import (
	"math"

	"github.com/cwbudde/rankmorph/internal/quant"
	"github.com/cwbudde/rankmorph/internal/rankhist"
)

// Averager computes the integral between two percentile indices over a
// SummingHistogram-backed aperture. It satisfies driver.Aperture.
type Averager struct {
	q            quant.Quantiser
	bitLevels    []int
	pair         *rankhist.Pair
	pIndex1      func(pos int64) float64
	pIndex2      func(pos int64) float64
	filler       float64
	interpolated bool
}

// NewAverager builds an Averager over a fresh histogram sized from q.
// pIndex1/pIndex2 are evaluated per output position: additional arrays
// read alongside the main input.
func NewAverager(q quant.Quantiser, bitLevels []int, pIndex1, pIndex2 func(pos int64) float64, filler float64, interpolated bool) (*Averager, error) {
	pair, err := rankhist.NewPair(q.BarCount(), q.Bits(), bitLevels)
	if err != nil {
		return nil, err
	}
	return &Averager{q: q, bitLevels: bitLevels, pair: pair, pIndex1: pIndex1, pIndex2: pIndex2, filler: filler, interpolated: interpolated}, nil
}

func (a *Averager) Reset() { a.pair = resetPair(a.q.BarCount(), a.q.Bits(), a.bitLevels) }

// Verify cross-checks the underlying histogram pair's incremental state
// against a from-scratch recomputation, the DebugMode oracle.
func (a *Averager) Verify() error { return a.pair.Verify() }

func (a *Averager) Include(raw float64) { a.pair.Include(a.quantise(raw)) }

func (a *Averager) Exclude(raw float64) {
	if err := a.pair.Exclude(a.quantise(raw)); err != nil {
		panic(err) // balanced include/exclude is the driver's contract; a violation is InternalInvariant
	}
}

func (a *Averager) quantise(raw float64) uint32 {
	if a.q.ElementType().IsFloat() {
		return a.q.QuantiseFloat(raw)
	}
	return a.q.QuantiseInt(int64(raw))
}

// Result computes the percentile-bounded integral, normalized to a mean.
func (a *Averager) Result(pos int64) (float64, error) {
	p1, p2 := a.pIndex1(pos), a.pIndex2(pos)
	if math.IsNaN(p1) || math.IsNaN(p2) {
		return 0, &InvalidInputError{Reason: "percentile index is NaN"}
	}
	n := p2 - p1
	if n <= 0 {
		return a.filler, nil
	}

	size := float64(a.pair.Size())
	p1 = clamp(p1, 0, size)
	p2 = clamp(p2, 0, size)

	var integral float64
	if a.interpolated {
		a.pair.MoveFirstToPreciseRank(p1)
		a.pair.MoveSecondToPreciseRank(p2)
		integral = a.pair.BetweenPrecise()
	} else {
		a.pair.MoveFirstToPreciseRank(p1)
		a.pair.MoveSecondToPreciseRank(p2)
		integral = a.pair.BetweenSimple()
	}
	if integral < 0 {
		return 0, &InternalInvariantError{Reason: "averager integral came out negative"}
	}
	return (integral / n) * a.q.MultiplierInv(), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func resetPair(barCount uint32, baseBits int, bitLevels []int) *rankhist.Pair {
	fresh, err := rankhist.NewPair(barCount, baseBits, bitLevels)
	if err != nil {
		panic(err) // barCount/baseBits were already validated by NewAverager
	}
	return fresh
}
