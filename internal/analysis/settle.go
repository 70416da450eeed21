package analysis

// SettleTick returns the first index from which every value of series stays
// below threshold, or -1 if the series never settles.
func SettleTick(series []float64, threshold float64) int {
	settled := -1
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] >= threshold {
			break
		}
		settled = i
	}
	return settled
}
