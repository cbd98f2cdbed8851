package kernel

import (
	"math"
	"testing"

	"github.com/cwbudde/rankmorph/internal/quant"
)

func constPos(v float64) func(int64) float64 { return func(int64) float64 { return v } }

func TestAverager_SimpleSingletonsMatchesSum(t *testing.T) {
	q, err := quant.New(quant.U8, 8)
	if err != nil {
		t.Fatal(err)
	}
	// aperture {10,20,30}, all bars are singletons -> simple integral over
	// the full range equals the plain sum.
	av, err := NewAverager(q, nil, constPos(0), constPos(3), 0, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []float64{10, 20, 30} {
		av.Include(v)
	}
	got, err := av.Result(0)
	if err != nil {
		t.Fatal(err)
	}
	want := (10.0 + 20.0 + 30.0) / 3.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Result() = %v, want %v", got, want)
	}
}

func TestAverager_DegenerateRangeReturnsFiller(t *testing.T) {
	q, err := quant.New(quant.U8, 8)
	if err != nil {
		t.Fatal(err)
	}
	av, err := NewAverager(q, nil, constPos(2), constPos(2), 42, false)
	if err != nil {
		t.Fatal(err)
	}
	av.Include(10)
	got, err := av.Result(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("Result() = %v, want filler 42", got)
	}
}

func TestAverager_NaNPercentileIsInvalidInput(t *testing.T) {
	q, err := quant.New(quant.U8, 8)
	if err != nil {
		t.Fatal(err)
	}
	av, err := NewAverager(q, nil, constPos(math.NaN()), constPos(3), 0, false)
	if err != nil {
		t.Fatal(err)
	}
	av.Include(1)
	_, err = av.Result(0)
	if _, ok := err.(*InvalidInputError); !ok {
		t.Fatalf("expected *InvalidInputError, got %T", err)
	}
}

func TestAverager_InterpolatedNonNegativeOverFullRange(t *testing.T) {
	q, err := quant.New(quant.U8, 8)
	if err != nil {
		t.Fatal(err)
	}
	values := []float64{10, 20, 30, 40}
	precise, err := NewAverager(q, nil, constPos(0), constPos(4), 0, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range values {
		precise.Include(v)
	}
	got, err := precise.Result(0)
	if err != nil {
		t.Fatal(err)
	}
	if got < 0 {
		t.Errorf("Result() = %v, want non-negative", got)
	}
}
