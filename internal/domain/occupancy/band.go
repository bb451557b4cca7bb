package occupancy

// Band classifies a ward's load from its occupancy rate.
type Band string

const (
	BandCritical Band = "Critical"
	BandHigh     Band = "High"
	BandMedium   Band = "Medium"
	BandLow      Band = "Low"
)

// BandFor maps an occupancy rate (occupied / capacity) to its band.
func BandFor(rate float64) Band {
	switch {
	case rate >= 0.90:
		return BandCritical
	case rate >= 0.75:
		return BandHigh
	case rate >= 0.50:
		return BandMedium
	default:
		return BandLow
	}
}

// Rate computes occupied / capacity, guarding the zero-capacity case.
func Rate(occupied, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(occupied) / float64(capacity)
}
