package engine

import (
	"github.com/cwbudde/rankmorph/internal/histcache"
	"github.com/cwbudde/rankmorph/internal/quant"
)

// KernelOptions is the explicit, enumerated configuration surface for a
// kernel run. It is a plain struct rather than a functional-options
// builder, the same convention internal/store/types.go's JobConfig uses.
type KernelOptions struct {
	// ElementType selects the quantiser.
	ElementType quant.ElementType
	// NumberOfAnalysedBits sets histogram resolution 2^k. Must be in
	// [1,30] for integers, or up to 32 for floats.
	NumberOfAnalysedBits int
	// BitLevels lists extra coarse companion histograms; the last entry,
	// if present, must equal NumberOfAnalysedBits.
	BitLevels []int
	// Interpolated selects the piecewise-linear integral over the simple
	// (piecewise-constant) one.
	Interpolated bool
	// Filler is the output for a degenerate pIndex1 >= pIndex2 range.
	Filler float64
	// OptimiseGetRange enables the histogram-cache-driven ranged-read
	// fast path.
	OptimiseGetRange bool
	// Cache, when non-nil, is reused across calls instead of the
	// per-call single-entry cache RunAverager/RunSummator otherwise
	// allocate. Sharing one Cache across sequential calls that cover
	// contiguous, increasing ranges of the same storage is what lets the
	// second call's own start position hit the snapshot the first call
	// left behind at its end. Ignored when OptimiseGetRange is false.
	Cache histcache.Cache
	// OptimiseDirectArrays enables the direct-backing-buffer read path.
	OptimiseDirectArrays bool
	// InlineOneLevel requires BitLevels to be empty and Interpolated to be
	// false (RunAverager returns InvalidInputError otherwise) and then runs
	// the ordinary single-level histogram with no companion levels; there
	// is no separate inline histogram implementation.
	InlineOneLevel bool
	// OptimiseSegmentsAlongAxes enables RunAxisRectangle's layer-parallel
	// accumulator; when false (or the budget doesn't allow it),
	// RunAxisRectangle falls back to a per-layer streaming recomputation
	// instead. Has no effect on RunAverager/RunSummator, whose generic
	// Pattern-driven loop reduces over the whole aperture rather than one
	// axis at a time and so isn't a drop-in substitute for this path.
	OptimiseSegmentsAlongAxes bool
	// SpecialOptimisePowerOfTwo enables the "(sum+half)>>log" fast path
	// for mean-by-2^k summator post-processing.
	SpecialOptimisePowerOfTwo bool
	// DebugMode wires histogram.Verify as a cross-check oracle after
	// every rebuild.
	DebugMode bool
	// TempMemoryBudgetBytes gates RunAxisRectangle's layer-parallel
	// accumulator: it is used only when its on-heap footprint (layer size
	// times accumulator, source, and destination element widths) fits
	// this budget. Zero means unconstrained.
	TempMemoryBudgetBytes int64
}

// Validate checks the struct-level invariants that make a KernelOptions
// usable (the pIndex / per-call checks are validated separately, since
// they are call parameters rather than KernelOptions fields).
func (o KernelOptions) Validate() error {
	max := o.ElementType.NativeBits()
	if max == 0 {
		return &UnsupportedElementTypeError{Type: o.ElementType}
	}
	if o.NumberOfAnalysedBits < 1 || o.NumberOfAnalysedBits > max {
		return &InvalidInputError{Reason: "number_of_analysed_bits out of range"}
	}
	for i, k := range o.BitLevels {
		if i == len(o.BitLevels)-1 {
			continue
		}
		if k <= 0 || k >= o.NumberOfAnalysedBits {
			return &InvalidInputError{Reason: "bit_levels entry out of range"}
		}
	}
	return nil
}

// UnsupportedElementTypeError mirrors quant.UnsupportedElementTypeError at
// the engine boundary, so callers outside internal/quant can match on it
// via errors.Is without importing quant's sentinel type directly.
type UnsupportedElementTypeError struct {
	Type quant.ElementType
}

func (e *UnsupportedElementTypeError) Error() string {
	return "engine: unsupported element type " + e.Type.String()
}

func (e *UnsupportedElementTypeError) Is(target error) bool {
	_, ok := target.(*UnsupportedElementTypeError)
	return ok
}
