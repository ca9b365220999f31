package indicator

import (
	"math"
	"testing"
)

func TestRelativeVolume(t *testing.T) {
	volumes := []float64{100, 100, 100, 300}

	got := RelativeVolume(volumes, 4, 3)
	// mean = 150
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("RelativeVolume() = %f, want 2.0", got)
	}
}

func TestRelativeVolume_Neutral(t *testing.T) {
	tests := []struct {
		name    string
		volumes []float64
		period  int
		index   int
	}{
		{"short history", []float64{100, 200}, 20, 1},
		{"zero average", []float64{0, 0, 0}, 3, 2},
		{"index out of range", []float64{100}, 1, 5},
		{"empty", nil, 20, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RelativeVolume(tc.volumes, tc.period, tc.index); got != 1.0 {
				t.Errorf("RelativeVolume() = %f, want 1.0", got)
			}
		})
	}
}
