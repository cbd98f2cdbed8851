package kernel

import (
	"log/slog"

	"golang.org/x/sys/cpu"
)

// AxisAccumulatorBackend names which accumulator width the axis-rectangle
// fast path picked, reported the same way a SIMD cost kernel reports which
// backend got selected.
type AxisAccumulatorBackend int

const (
	// AccumulatorU32 is used when the layer sum provably fits an
	// unsigned 32-bit accumulator (layerSize * barWidth * n <= 2^31).
	AccumulatorU32 AxisAccumulatorBackend = iota
	// AccumulatorF64 is the fallback for wider or floating inputs.
	AccumulatorF64
)

func (b AxisAccumulatorBackend) String() string {
	switch b {
	case AccumulatorU32:
		return "u32"
	case AccumulatorF64:
		return "f64"
	default:
		return "unknown"
	}
}

// axisBatchStride is a layer batch width derived from
// cpu.X86.HasAVX2/cpu.ARM64.HasASIMD. It is only reported in
// NewAxisRectangle's debug log: Slide processes one slot at a time
// whatever it returns, and no assembly backs this path.
func axisBatchStride() int {
	switch {
	case cpu.X86.HasAVX2:
		return 8
	case cpu.ARM64.HasASIMD:
		return 4
	default:
		return 1
	}
}

// ChooseAxisAccumulator picks the accumulator element type: u32 when the
// worst-case layer sum fits 2^31, else f64.
func ChooseAxisAccumulator(layerSize, barWidth, n int64) AxisAccumulatorBackend {
	if layerSize > 0 && barWidth > 0 && n > 0 && layerSize <= (1<<31)/barWidth/n {
		return AccumulatorU32
	}
	return AccumulatorF64
}

// FitsTempMemoryBudget gates the fast path: it runs only when layerSize *
// (sizeof(acc) + sizeof(srcElem) + sizeof(destElem)) is within budget
// bytes.
func FitsTempMemoryBudget(layerSize int64, backend AxisAccumulatorBackend, srcElemBytes, destElemBytes, budget int64) bool {
	accBytes := int64(4)
	if backend == AccumulatorF64 {
		accBytes = 8
	}
	needed := layerSize * (accBytes + srcElemBytes + destElemBytes)
	return budget <= 0 || needed <= budget
}

// AxisRectangle implements the layer-parallel accumulator vector for an
// axis-aligned rectangular aperture whose extent along axis k spans the
// full point set. layerSize is the number of elements in one layer
// perpendicular to axis k; n is the window depth along axis k.
type AxisRectangle struct {
	layerSize int
	n         int
	post      PostProcess
	acc       []float64
	backend   AxisAccumulatorBackend
}

// NewAxisRectangle builds the layer accumulator. Caller decides backend
// via ChooseAxisAccumulator/FitsTempMemoryBudget before constructing this;
// AxisRectangle itself always accumulates in float64 whatever the backend,
// and Output applies post to that float64 sum without any rounding. The
// backend is only recorded, for Backend and the debug log.
func NewAxisRectangle(layerSize, n int, post PostProcess, backend AxisAccumulatorBackend) *AxisRectangle {
	slog.Debug("kernel: axis rectangle fast path selected",
		"layer_size", layerSize, "depth", n, "accumulator", backend, "batch_stride", axisBatchStride())
	return &AxisRectangle{layerSize: layerSize, n: n, post: post, acc: make([]float64, layerSize), backend: backend}
}

// InitLayer folds one of the n initial layers into the accumulator, the
// initial pass before any sliding begins.
func (a *AxisRectangle) InitLayer(layer []float64) {
	for i, v := range layer {
		a.acc[i] += v
	}
}

// Slide subtracts the oldest layer and adds the next, per the main loop's
// per-step update.
func (a *AxisRectangle) Slide(oldest, next []float64) {
	for i := range a.acc {
		a.acc[i] += next[i] - oldest[i]
	}
}

// Output applies PostProcess to every accumulator slot, producing one
// output layer.
func (a *AxisRectangle) Output(dst []float64) {
	for i, v := range a.acc {
		dst[i] = a.post(v)
	}
}

// Backend reports which accumulator width this instance was built with.
func (a *AxisRectangle) Backend() AxisAccumulatorBackend { return a.backend }
