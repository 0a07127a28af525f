package core

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateMeanStd(t *testing.T) {
	mean, std := CalculateMeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || std != 2 {
		t.Fatalf("got mean=%v std=%v, want 5 and 2", mean, std)
	}
	if m, s := CalculateMeanStd(nil); m != 0 || s != 0 {
		t.Fatal("empty input should yield zeros")
	}
}

func TestCalculateSampleStd(t *testing.T) {
	got := CalculateSampleStd([]float64{1, 2, 3, 4})
	if !almostEqual(got, math.Sqrt(5.0/3.0)) {
		t.Fatalf("got %v", got)
	}
	if CalculateSampleStd([]float64{1}) != 0 {
		t.Fatal("single value should give 0")
	}
}

func TestCalculateCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		name string
		y    []float64
		want float64
	}{
		{"perfect", []float64{2, 4, 6, 8, 10}, 1},
		{"inverse", []float64{5, 4, 3, 2, 1}, -1},
		{"flat", []float64{3, 3, 3, 3, 3}, 0},
		{"length mismatch", []float64{1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateCorrelation(x, tt.y); !almostEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyReturns(t *testing.T) {
	got := DailyReturns([]float64{100, 110, 99})
	want := []float64{0.1, -0.1}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if DailyReturns([]float64{1}) != nil {
		t.Fatal("single close has no returns")
	}
}

func TestSimpleMovingAverage(t *testing.T) {
	v, ok := SimpleMovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	if !ok || v != 4 {
		t.Fatalf("got %v %v, want 4 true", v, ok)
	}
	if _, ok := SimpleMovingAverage([]float64{1, 2}, 3); ok {
		t.Fatal("short series should not produce an SMA")
	}
}

func TestRelativeStrengthIndex(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6}
	if v, ok := RelativeStrengthIndex(rising, 3); !ok || v != 100 {
		t.Fatalf("rising series: got %v %v", v, ok)
	}

	flat := []float64{5, 5, 5, 5}
	if v, ok := RelativeStrengthIndex(flat, 3); !ok || v != 50 {
		t.Fatalf("flat series: got %v %v", v, ok)
	}

	// changes +1 +1 -1 -1: seed avgGain 2/3 avgLoss 1/3, then one more loss:
	// avgGain = (2/3*2+0)/3 = 4/9, avgLoss = (1/3*2+1)/3 = 5/9, rs = 0.8
	mixed := []float64{10, 11, 12, 11, 10}
	v, ok := RelativeStrengthIndex(mixed, 3)
	if !ok || !almostEqual(v, 100-100/1.8) {
		t.Fatalf("mixed series: got %v %v", v, ok)
	}

	if _, ok := RelativeStrengthIndex([]float64{1, 2, 3}, 3); ok {
		t.Fatal("needs period+1 closes")
	}
}
