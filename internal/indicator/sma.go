package indicator

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// LastSMA returns the most recent SMA value, or false when there is
// not enough history.
func LastSMA(prices []float64, period int) (float64, bool) {
	values := SMA(prices, period)
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// RollingSum computes the rolling sum of values over a window.
// Returns slice of length: len(values) - window + 1
func RollingSum(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-window+1)

	var sum float64
	for i := 0; i < window; i++ {
		sum += values[i]
	}
	result = append(result, sum)

	for i := window; i < len(values); i++ {
		sum = sum - values[i-window] + values[i]
		result = append(result, sum)
	}

	return result
}

// Diff computes day-over-day deltas. Returns len(values)-1 elements.
func Diff(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	result := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		result[i-1] = values[i] - values[i-1]
	}
	return result
}
