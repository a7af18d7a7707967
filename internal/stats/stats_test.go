package stats

import (
	"math"
	"testing"

	"github.com/kr/pretty"
)

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.5, 2.5},
		{1, 4},
		{-1, 1},
		{2, 4},
	}
	for _, tt := range tests {
		if got := Quantile(values, tt.q); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Quantile(%v) = %f, want %f", tt.q, got, tt.want)
		}
	}
	if values[0] != 4 {
		t.Error("Quantile must not reorder its input")
	}
	if Quantile(nil, 0.5) != 0 {
		t.Error("Quantile of no values should be 0")
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]float64{10, 30, 20, 40, 50})
	if math.Abs(got.P95-48) > 1e-9 {
		t.Errorf("P95 = %f, want 48", got.P95)
	}
	want := Summary{Count: 5, Mean: 30, Min: 10, Median: 30, P95: got.P95, Max: 50}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("summary mismatch: %v", diff)
	}

	if diff := pretty.Diff(Summarize(nil), Summary{}); len(diff) > 0 {
		t.Errorf("empty summary mismatch: %v", diff)
	}
}
