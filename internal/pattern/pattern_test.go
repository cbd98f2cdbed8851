package pattern

import (
	"reflect"
	"testing"
)

func TestWindow_ShiftsAndSlideSets(t *testing.T) {
	p, err := Window(2)
	if err != nil {
		t.Fatal(err)
	}
	wantShifts := []int64{-2, -1, 0, 1, 2}
	if !reflect.DeepEqual(p.Shifts(), wantShifts) {
		t.Errorf("Shifts() = %v, want %v", p.Shifts(), wantShifts)
	}
	if !reflect.DeepEqual(p.Left(), []int64{-2}) {
		t.Errorf("Left() = %v, want [-2]", p.Left())
	}
	if !reflect.DeepEqual(p.Right(), []int64{2}) {
		t.Errorf("Right() = %v, want [2]", p.Right())
	}
}

func TestNew_RejectsMismatchedLeftRight(t *testing.T) {
	_, err := New([]int64{0, 1}, []int64{0}, []int64{0, 1})
	if err == nil {
		t.Fatal("expected error for mismatched left/right lengths")
	}
}

func TestRectangle_1x3ScanningAxis0(t *testing.T) {
	// axis 0 (scan): stride 1, radius 0 (single column wide); axis 1:
	// stride 10 (row stride), radius 1 (3 rows tall).
	axes := []AxisSpec{{Stride: 1, Radius: 0}, {Stride: 10, Radius: 1}}
	p, err := Rectangle(axes, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantShifts := []int64{-10, 0, 10}
	if !reflect.DeepEqual(p.Shifts(), wantShifts) {
		t.Errorf("Shifts() = %v, want %v", p.Shifts(), wantShifts)
	}
	if len(p.Left()) != len(p.Right()) {
		t.Fatalf("Left/Right length mismatch: %d vs %d", len(p.Left()), len(p.Right()))
	}
}

func TestRestAxesShifts_ExcludesScanAxis(t *testing.T) {
	axes := []AxisSpec{{Stride: 1, Radius: 0}, {Stride: 10, Radius: 1}}
	got := RestAxesShifts(axes, 0)
	want := []int64{-10, 0, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RestAxesShifts() = %v, want %v", got, want)
	}
}

func TestRestAxesShifts_TwoNonScanAxes(t *testing.T) {
	axes := []AxisSpec{{Stride: 100, Radius: 1}, {Stride: 1, Radius: 0}, {Stride: 10, Radius: 1}}
	got := RestAxesShifts(axes, 1)
	want := []int64{-110, -100, -90, -10, 0, 10, 90, 100, 110}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RestAxesShifts() = %v, want %v", got, want)
	}
}
