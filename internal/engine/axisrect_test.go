package engine

import (
	"testing"

	"github.com/cwbudde/rankmorph/internal/driver"
	"github.com/cwbudde/rankmorph/internal/kernel"
	"github.com/cwbudde/rankmorph/internal/matrix"
	"github.com/cwbudde/rankmorph/internal/pattern"
	"github.com/cwbudde/rankmorph/internal/quant"
)

// TestRunAxisRectangle_FastPathMatchesStreamingFallback checks that the
// layer-parallel accumulator and the from-scratch streaming fallback agree,
// exercising both OptimiseSegmentsAlongAxes branches against data values
// chosen so a wrong offset or off-by-one in the slide arithmetic would show
// up as a mismatch.
func TestRunAxisRectangle_FastPathMatchesStreamingFallback(t *testing.T) {
	data := make([]int64, 12)
	for i := range data {
		data[i] = int64(i + 1)
	}
	storage := matrix.NewDenseInt(quant.U8, data)

	axes := []pattern.AxisSpec{{Stride: 1, Radius: 1}, {Stride: 4, Radius: 1}}
	layerOffsets := pattern.RestAxesShifts(axes, 0)

	want := [][]float64{
		{27, 15, 15},
		{30, 6, 18},
		{33, 9, 21},
		{24, 12, 24},
	}

	run := func(t *testing.T, optimise bool) []float64 {
		opts := KernelOptions{
			ElementType:               quant.U8,
			NumberOfAnalysedBits:      8,
			OptimiseSegmentsAlongAxes: optimise,
		}
		got, err := RunAxisRectangle(driver.NoopContext(), storage, opts, layerOffsets, axes[0].Stride, axes[0].Radius, 0, 4, kernel.Identity())
		if err != nil {
			t.Fatal(err)
		}
		return got
	}

	for _, optimise := range []bool{false, true} {
		got := run(t, optimise)
		for tIdx, layer := range want {
			for i, v := range layer {
				idx := tIdx*len(layer) + i
				if got[idx] != v {
					t.Errorf("optimise=%v t=%d i=%d: got %v, want %v", optimise, tIdx, i, got[idx], v)
				}
			}
		}
	}
}

// TestRunAxisRectangle_DebugModeAcceptsAgreeingFastPath checks that
// DebugMode's cross-check against the streaming oracle doesn't fire a
// false positive when the fast path is in fact correct.
func TestRunAxisRectangle_DebugModeAcceptsAgreeingFastPath(t *testing.T) {
	data := make([]int64, 12)
	for i := range data {
		data[i] = int64(i + 1)
	}
	storage := matrix.NewDenseInt(quant.U8, data)

	axes := []pattern.AxisSpec{{Stride: 1, Radius: 1}, {Stride: 4, Radius: 1}}
	layerOffsets := pattern.RestAxesShifts(axes, 0)

	opts := KernelOptions{
		ElementType:               quant.U8,
		NumberOfAnalysedBits:      8,
		OptimiseSegmentsAlongAxes: true,
		DebugMode:                 true,
	}
	if _, err := RunAxisRectangle(driver.NoopContext(), storage, opts, layerOffsets, axes[0].Stride, axes[0].Radius, 0, 4, kernel.Identity()); err != nil {
		t.Fatalf("unexpected DebugMode mismatch: %v", err)
	}
}

// TestRunAxisRectangle_TinyBudgetForcesStreamingFallback checks that a
// TempMemoryBudgetBytes too small for the accumulator's footprint disables
// the fast path without affecting correctness.
func TestRunAxisRectangle_TinyBudgetForcesStreamingFallback(t *testing.T) {
	data := make([]int64, 12)
	for i := range data {
		data[i] = int64(i + 1)
	}
	storage := matrix.NewDenseInt(quant.U8, data)

	axes := []pattern.AxisSpec{{Stride: 1, Radius: 1}, {Stride: 4, Radius: 1}}
	layerOffsets := pattern.RestAxesShifts(axes, 0)

	opts := KernelOptions{
		ElementType:               quant.U8,
		NumberOfAnalysedBits:      8,
		OptimiseSegmentsAlongAxes: true,
		TempMemoryBudgetBytes:     1,
	}
	got, err := RunAxisRectangle(driver.NoopContext(), storage, opts, layerOffsets, axes[0].Stride, axes[0].Radius, 0, 4, kernel.Identity())
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{27, 15, 15, 30, 6, 18, 33, 9, 21, 24, 12, 24}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("i=%d: got %v, want %v", i, got[i], want[i])
		}
	}
}
