// Package engine is the dispatcher: it picks a kernel from KernelOptions
// (element type and interpolated mode), applies the direct-buffer read path
// when enabled, and drives the kernel over a requested range, failing
// closed on an unsupported element type. The axis-rectangle fast path has
// its own entry point, RunAxisRectangle.
package engine

import (
	"errors"
	"math/bits"

	"github.com/cwbudde/rankmorph/internal/driver"
	"github.com/cwbudde/rankmorph/internal/histcache"
	"github.com/cwbudde/rankmorph/internal/kernel"
	"github.com/cwbudde/rankmorph/internal/quant"
)

// PercentileSource supplies pIndex1/pIndex2 per output position: the
// additional arrays read alongside the main input for percentile kernels.
type PercentileSource interface {
	PIndex1(pos int64) float64
	PIndex2(pos int64) float64
}

// ConstPercentiles is a PercentileSource returning the same pair for
// every position, the common case of a single fixed percentile query.
type ConstPercentiles struct{ P1, P2 float64 }

func (c ConstPercentiles) PIndex1(int64) float64 { return c.P1 }
func (c ConstPercentiles) PIndex2(int64) float64 { return c.P2 }

// RunAverager dispatches to kernel.Averager or kernel.BitAverager
// depending on ElementType, routing bit-typed input to the closed form.
func RunAverager(ctx driver.Context, storage driver.Storage, pat driver.Pattern, opts KernelOptions, pct PercentileSource, arrayPos, count int64) ([]float64, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var ap driver.Aperture
	if opts.ElementType == quant.Bit {
		ap = kernel.NewBitAverager(pct.PIndex1, pct.PIndex2, opts.Filler)
	} else {
		q, err := quant.New(opts.ElementType, opts.NumberOfAnalysedBits)
		if err != nil {
			return nil, convertQuantError(err)
		}
		bitLevels := opts.BitLevels
		if opts.InlineOneLevel {
			if len(opts.BitLevels) != 0 || opts.Interpolated {
				return nil, &InvalidInputError{Reason: "inline_one_level requires empty bit_levels and non-interpolated mode"}
			}
			bitLevels = nil
		}
		av, err := kernel.NewAverager(q, bitLevels, pct.PIndex1, pct.PIndex2, opts.Filler, opts.Interpolated)
		if err != nil {
			return nil, &InternalInvariantError{Reason: err.Error()}
		}
		ap = av
	}

	storage = directArraysIfEnabled(storage, opts)
	return runWithCache(ctx, storage, pat, ap, cacheFor(opts), opts.DebugMode, arrayPos, count)
}

// RunSummator dispatches the Summator kernel.
func RunSummator(ctx driver.Context, storage driver.Storage, pat driver.Pattern, opts KernelOptions, post kernel.PostProcess, arrayPos, count int64) ([]float64, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	isFloat := opts.ElementType.IsFloat() || opts.ElementType == quant.I32 || opts.ElementType == quant.I64
	ap := kernel.NewSummator(post, isFloat)

	storage = directArraysIfEnabled(storage, opts)
	return runWithCache(ctx, storage, pat, ap, cacheFor(opts), opts.DebugMode, arrayPos, count)
}

// MeanPostProcess builds the PostProcess a windowed-mean RunSummator call
// should pass for dividing by divisor, picking kernel.PowerOfTwoMean's
// rounded right-shift over plain float division when
// opts.SpecialOptimisePowerOfTwo is set and divisor is itself a power of
// two; otherwise it falls back to kernel.Linear(1/divisor, 0).
func MeanPostProcess(divisor int64, opts KernelOptions) kernel.PostProcess {
	if opts.SpecialOptimisePowerOfTwo && divisor > 0 && divisor&(divisor-1) == 0 {
		return kernel.PowerOfTwoMean(uint(bits.TrailingZeros64(uint64(divisor))))
	}
	return kernel.Linear(1/float64(divisor), 0)
}

// cacheFor returns the cache a call should use: the caller's own Cache
// when it supplied one (the mechanism for sharing a cache across
// sequential contiguous calls), a fresh single-entry cache otherwise, or
// nil when OptimiseGetRange is off.
func cacheFor(opts KernelOptions) histcache.Cache {
	if !opts.OptimiseGetRange {
		return nil
	}
	if opts.Cache != nil {
		return opts.Cache
	}
	return histcache.NewSingle()
}

// runWithCache wires an optional histcache.Cache into driver.Run's
// rebuildHint/onRebuild/onComplete hooks, and, when debugMode is set,
// cross-checks every rebuild against the aperture's own from-scratch
// verification. Snapshotting a driver.Aperture generically isn't possible
// (its state is kernel-specific), so caching only ever engages for the
// cheap case where the aperture type supports snapshotting via the
// snapshotter interface; apertures that don't implement it simply never
// hit. Two positions are cached per run: onRebuild refreshes the entry at
// the position a rebuild just happened at, and onComplete records the
// position the aperture ends up at after the last output element — the
// position a contiguous follow-up Run would itself start from, turning
// its own rebuildHint into a hit. driver.Run's onRebuild hook has no error
// return, so a verification failure is captured in verifyErr and
// surfaced once Run itself returns.
func runWithCache(ctx driver.Context, storage driver.Storage, pat driver.Pattern, ap driver.Aperture, cache histcache.Cache, debugMode bool, arrayPos, count int64) ([]float64, error) {
	var hint func(int64) bool
	var onRebuild func(int64)
	var onComplete func(int64)
	var verifyErr error

	snap, canSnapshot := ap.(snapshotter)
	check, canVerify := ap.(verifier)

	if cache != nil && canSnapshot {
		hint = func(pos int64) bool {
			s, ok := cache.Get(pos)
			if !ok {
				return false
			}
			snap.RestoreSnapshot(s)
			return true
		}
		onComplete = func(pos int64) {
			cache.Put(pos, snap.Snapshot())
		}
	}

	if (cache != nil && canSnapshot) || (debugMode && canVerify) {
		onRebuild = func(pos int64) {
			if cache != nil && canSnapshot {
				cache.Put(pos, snap.Snapshot())
			}
			if debugMode && canVerify {
				if err := check.Verify(); err != nil {
					verifyErr = err
				}
			}
		}
	}

	out, err := driver.Run(ctx, storage, pat, ap, arrayPos, count, hint, onRebuild, onComplete)
	if err != nil {
		var invalid *kernel.InvalidInputError
		if errors.As(err, &invalid) {
			return nil, &InvalidInputError{Reason: invalid.Reason}
		}
		var invariant *kernel.InternalInvariantError
		if errors.As(err, &invariant) {
			return nil, &InternalInvariantError{Reason: invariant.Reason}
		}
		return nil, err
	}
	if verifyErr != nil {
		return nil, &InternalInvariantError{Reason: verifyErr.Error()}
	}
	return out, nil
}

// snapshotter is implemented by apertures whose state can be captured and
// restored as a histcache.Snapshot, opting into the cache fast path. The
// methods are typed `any` rather than histcache.Snapshot so kernel types
// don't need to import histcache just to satisfy this interface; any
// concrete value is freely assignable to histcache.Snapshot at the call
// sites below.
type snapshotter interface {
	Snapshot() any
	RestoreSnapshot(any)
}

// verifier is implemented by apertures that can cross-check their own
// incremental state against a from-scratch recomputation, opting into
// DebugMode's post-rebuild assertion.
type verifier interface {
	Verify() error
}

func convertQuantError(err error) error {
	if e, ok := err.(*quant.UnsupportedElementTypeError); ok {
		return &UnsupportedElementTypeError{Type: e.Type}
	}
	return &InvalidInputError{Reason: err.Error()}
}
