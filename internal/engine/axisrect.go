package engine

import (
	"math"

	"github.com/cwbudde/rankmorph/internal/driver"
	"github.com/cwbudde/rankmorph/internal/kernel"
	"github.com/cwbudde/rankmorph/internal/quant"
)

// RunAxisRectangle drives kernel.AxisRectangle (C7) over storage. For each
// of scanCount consecutive positions along the scan axis it produces one
// output layer of layerSize values: the windowed sum (depth 2*radius+1,
// centred at that scan position) computed independently at every position
// perpendicular to the scan axis. layerOffsets lists the flat-index
// offsets of one layer relative to a scan position's own flat index
// (pattern.RestAxesShifts builds this from the same axes used to build a
// Rectangle Pattern); scanStride is the flat-index distance between
// adjacent scan positions. The return value is scanCount*len(layerOffsets)
// values, one output layer after another.
//
// The fast path only engages when opts.OptimiseSegmentsAlongAxes is set
// and the accumulator's on-heap footprint fits opts.TempMemoryBudgetBytes
// (0 means unconstrained); otherwise this falls back to a per-layer
// streaming recomputation that reads the same storage without the
// amortised slide, the degraded path §4.6 documents. When opts.DebugMode
// is set, the fast path's output is cross-checked against that same
// from-scratch recomputation before returning.
func RunAxisRectangle(ctx driver.Context, storage driver.Storage, opts KernelOptions, layerOffsets []int64, scanStride, radius, scanPos, scanCount int64, post kernel.PostProcess) ([]float64, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	storage = directArraysIfEnabled(storage, opts)
	length := storage.Length()
	layerSize := int64(len(layerOffsets))
	if layerSize == 0 {
		return nil, &InvalidInputError{Reason: "axis rectangle requires a non-empty layer"}
	}
	if scanCount < 0 || length <= 0 {
		return nil, &OutOfRangeError{ArrayPos: scanPos, Count: scanCount, Length: length}
	}
	n := 2*radius + 1

	if scanCount == 0 {
		return []float64{}, nil
	}

	barWidth := maxElementValue(opts)
	backend := kernel.ChooseAxisAccumulator(layerSize, barWidth, n)
	srcBytes := int64(opts.ElementType.NativeBits()+7) / 8

	if !opts.OptimiseSegmentsAlongAxes || !kernel.FitsTempMemoryBudget(layerSize, backend, srcBytes, 8, opts.TempMemoryBudgetBytes) {
		return streamAxisRectangle(storage, layerOffsets, scanStride, radius, scanPos, scanCount, post, length), nil
	}

	out, err := accumulateAxisRectangle(ctx, storage, layerOffsets, scanStride, radius, scanPos, scanCount, post, backend, length)
	if err != nil {
		return nil, err
	}

	if opts.DebugMode {
		want := streamAxisRectangle(storage, layerOffsets, scanStride, radius, scanPos, scanCount, post, length)
		for i := range want {
			if math.Abs(out[i]-want[i]) > 1e-6 {
				return nil, &InternalInvariantError{Reason: "axis rectangle fast path diverged from from-scratch recomputation"}
			}
		}
	}

	return out, nil
}

// maxElementValue returns the largest raw value one element of opts'
// ElementType can hold, the "bar_width" ChooseAxisAccumulator needs to
// bound the worst-case layer sum. Float types have no fixed bound;
// treating them as wide forces the f64 accumulator, which is what a
// float source needs regardless.
func maxElementValue(opts KernelOptions) int64 {
	switch opts.ElementType {
	case quant.F32, quant.F64, quant.I64:
		return math.MaxInt64 / 2
	case quant.I32:
		return math.MaxInt32
	}
	return int64(1)<<uint(opts.ElementType.NativeBits()) - 1
}

func accumulateAxisRectangle(ctx driver.Context, storage driver.Storage, layerOffsets []int64, scanStride, radius, scanPos, scanCount int64, post kernel.PostProcess, backend kernel.AxisAccumulatorBackend, length int64) ([]float64, error) {
	layerSize := int64(len(layerOffsets))
	n := 2*radius + 1
	acc := kernel.NewAxisRectangle(int(layerSize), int(n), post, backend)

	readLayer := func(center int64, dst []float64) {
		for i, off := range layerOffsets {
			dst[i] = readRawAt(storage, wrapIndex(center+off, length))
		}
	}

	start := scanPos - radius*scanStride
	layer := make([]float64, layerSize)
	for d := int64(0); d < n; d++ {
		readLayer(wrapIndex(start+d*scanStride, length), layer)
		acc.InitLayer(layer)
	}

	out := make([]float64, scanCount*layerSize)
	outLayer := make([]float64, layerSize)
	oldest := make([]float64, layerSize)
	next := make([]float64, layerSize)

	for t := int64(0); t < scanCount; t++ {
		acc.Output(outLayer)
		copy(out[t*layerSize:(t+1)*layerSize], outLayer)

		if t == scanCount-1 {
			break
		}

		readLayer(wrapIndex(start+t*scanStride, length), oldest)
		readLayer(wrapIndex(start+(t+n)*scanStride, length), next)
		acc.Slide(oldest, next)

		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		ctx.ReportProgress(t+1, scanCount)
	}
	ctx.ReportProgress(scanCount, scanCount)

	return out, nil
}

// streamAxisRectangle recomputes every output layer from scratch, reading
// storage directly with no persistent accumulator state. It is both the
// budget-exceeded fallback and the DebugMode cross-check oracle.
func streamAxisRectangle(storage driver.Storage, layerOffsets []int64, scanStride, radius, scanPos, scanCount int64, post kernel.PostProcess, length int64) []float64 {
	layerSize := int64(len(layerOffsets))
	n := 2*radius + 1
	out := make([]float64, scanCount*layerSize)
	for t := int64(0); t < scanCount; t++ {
		center := scanPos + t*scanStride
		for i, off := range layerOffsets {
			var sum float64
			for d := int64(0); d < n; d++ {
				sum += readRawAt(storage, wrapIndex(center+(d-radius)*scanStride+off, length))
			}
			out[t*layerSize+int64(i)] = post(sum)
		}
	}
	return out
}

func readRawAt(s driver.Storage, i int64) float64 {
	if s.IsFloat() {
		return s.GetDouble(i)
	}
	return float64(s.GetInt(i))
}

func wrapIndex(i, length int64) int64 {
	m := i % length
	if m < 0 {
		m += length
	}
	return m
}
