package core

import "math"

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// CalculateSampleStd uses the N-1 denominator, which is what return statistics report.
func CalculateSampleStd(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	_, popStd := CalculateMeanStd(data)
	n := float64(len(data))
	return popStd * math.Sqrt(n/(n-1))
}

// -----------------------------------------------------------------------------

// CalculateCorrelation computes Pearson correlation coefficient.
func CalculateCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	n := float64(len(x))

	// Zero variance check
	_, stdX := CalculateMeanStd(x)
	_, stdY := CalculateMeanStd(y)
	if stdX == 0 || stdY == 0 {
		return 0
	}

	sumX, sumY, sumXY, sumX2, sumY2 := 0.0, 0.0, 0.0, 0.0, 0.0
	for i := 0; i < len(x); i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := (n * sumXY) - (sumX * sumY)
	denominator := math.Sqrt(((n * sumX2) - (sumX * sumX)) * ((n * sumY2) - (sumY * sumY)))

	if denominator == 0 {
		return 0
	}

	result := numerator / denominator

	if math.IsNaN(result) {
		return 0
	}

	return result
}
