package matrix

import (
	"testing"

	"github.com/cwbudde/rankmorph/internal/quant"
)

func TestDense_IntRoundTrip(t *testing.T) {
	d := NewDenseInt(quant.U8, []int64{10, 20, 30})
	if d.Length() != 3 {
		t.Fatalf("Length() = %d, want 3", d.Length())
	}
	if d.IsFloat() {
		t.Fatal("IsFloat() = true for U8")
	}
	for i, want := range []int64{10, 20, 30} {
		if got := d.GetInt(int64(i)); got != want {
			t.Errorf("GetInt(%d) = %d, want %d", i, got, want)
		}
	}
	buf, _, ok := d.BackingBuffer()
	if !ok {
		t.Fatal("BackingBuffer() ok = false, want true")
	}
	if _, ok := buf.([]int64); !ok {
		t.Fatalf("BackingBuffer() type = %T, want []int64", buf)
	}
}

func TestDense_FloatRoundTrip(t *testing.T) {
	d := NewDenseFloat(quant.F32, []float64{1.5, 2.5})
	if !d.IsFloat() {
		t.Fatal("IsFloat() = false for F32")
	}
	if got := d.GetDouble(1); got != 2.5 {
		t.Errorf("GetDouble(1) = %v, want 2.5", got)
	}
}

func TestTiled_WrapsAcrossTileBoundaries(t *testing.T) {
	tiles := [][]int64{{1, 2, 3}, {4, 5, 6}, {7, 8}}
	tiled := NewTiledInt(quant.U8, tiles)
	if tiled.Length() != 8 {
		t.Fatalf("Length() = %d, want 8", tiled.Length())
	}
	want := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	for i, w := range want {
		if got := tiled.GetInt(int64(i)); got != w {
			t.Errorf("GetInt(%d) = %d, want %d", i, got, w)
		}
	}
	if _, _, ok := tiled.BackingBuffer(); ok {
		t.Fatal("BackingBuffer() ok = true, want false (forces indexed path)")
	}
}
