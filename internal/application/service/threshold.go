package service

// MeetsThreshold reports whether rate is strictly greater than threshold
func MeetsThreshold(rate, threshold float64) bool {
	return rate > threshold
}
