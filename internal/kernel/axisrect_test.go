package kernel

import "testing"

// BenchmarkAxisRectangle_Slide measures the per-element cost of the
// sliding update, the hot loop for large axis-aligned apertures.
func BenchmarkAxisRectangle_Slide(b *testing.B) {
	const layerSize = 4096
	a := NewAxisRectangle(layerSize, 8, Identity(), AccumulatorF64)
	oldest := make([]float64, layerSize)
	next := make([]float64, layerSize)
	for i := range next {
		oldest[i] = float64(i)
		next[i] = float64(i + 1)
	}

	b.Logf("accumulator backend: %s, batch stride: %d", a.Backend(), axisBatchStride())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Slide(oldest, next)
	}
	elemsPerSec := float64(b.N*layerSize) / b.Elapsed().Seconds()
	b.ReportMetric(elemsPerSec, "elems/sec")
}

func TestChooseAxisAccumulator(t *testing.T) {
	cases := []struct {
		name                        string
		layerSize, barWidth, n      int64
		want                        AxisAccumulatorBackend
	}{
		{"small fits u32", 16, 256, 4, AccumulatorU32},
		{"huge falls back to f64", 1 << 20, 1 << 20, 1 << 20, AccumulatorF64},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ChooseAxisAccumulator(c.layerSize, c.barWidth, c.n); got != c.want {
				t.Errorf("ChooseAxisAccumulator() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFitsTempMemoryBudget(t *testing.T) {
	if !FitsTempMemoryBudget(100, AccumulatorU32, 1, 1, 0) {
		t.Error("budget <= 0 should mean unconstrained")
	}
	if !FitsTempMemoryBudget(10, AccumulatorU32, 1, 1, 1000) {
		t.Error("small layer should fit a generous budget")
	}
	if FitsTempMemoryBudget(1<<30, AccumulatorF64, 8, 8, 1024) {
		t.Error("huge layer should not fit a tiny budget")
	}
}

func TestAxisRectangle_InitAndSlide(t *testing.T) {
	a := NewAxisRectangle(3, 2, Identity(), AccumulatorF64)
	a.InitLayer([]float64{1, 2, 3})
	a.InitLayer([]float64{4, 5, 6})

	out := make([]float64, 3)
	a.Output(out)
	want := []float64{5, 7, 9}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Output()[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	a.Slide([]float64{1, 2, 3}, []float64{7, 8, 9})
	a.Output(out)
	want = []float64{11, 13, 15}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("after Slide: Output()[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}
