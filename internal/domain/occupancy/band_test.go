package occupancy

import "testing"

func TestBandFor(t *testing.T) {
	tests := []struct {
		rate float64
		want Band
	}{
		{1.0, BandCritical},
		{0.95, BandCritical},
		{0.90, BandCritical},
		{0.89, BandHigh},
		{0.75, BandHigh},
		{0.74, BandMedium},
		{0.50, BandMedium},
		{0.49, BandLow},
		{0.0, BandLow},
	}
	for _, tt := range tests {
		if got := BandFor(tt.rate); got != tt.want {
			t.Errorf("BandFor(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestRate(t *testing.T) {
	if got := Rate(3, 4); got != 0.75 {
		t.Errorf("Rate(3, 4) = %v, want 0.75", got)
	}
	if got := Rate(0, 10); got != 0 {
		t.Errorf("Rate(0, 10) = %v, want 0", got)
	}
	if got := Rate(5, 0); got != 0 {
		t.Errorf("Rate(5, 0) = %v, want 0 for zero capacity", got)
	}
}
