package indicator

// RelativeVolume is volumes[index] divided by the mean of the maPeriod volumes
// ending at index. It is 1.0 (neutral) when history is short or the mean is 0.
func RelativeVolume(volumes []float64, maPeriod, index int) float64 {
	if maPeriod <= 0 || index < 0 || index >= len(volumes) || index+1 < maPeriod {
		return 1.0
	}
	avg := mean(volumes[index-maPeriod+1 : index+1])
	if avg <= 0 {
		return 1.0
	}
	return volumes[index] / avg
}
