package analysis

import "math"

// TrajectoryDivergence measures the RMS coordinate separation between
// two stored runs, frame by frame. Runs started from the same seed
// must give an all-zero series; a growing series from a perturbed
// start quantifies how fast the dynamics amplify differences.
func TrajectoryDivergence(a, b [][]float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	sep := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if len(a[i]) != len(b[i]) || len(a[i]) == 0 {
			return nil
		}
		sum := 0.0
		for j := range a[i] {
			d := a[i][j] - b[i][j]
			sum += d * d
		}
		sep = append(sep, math.Sqrt(sum/float64(len(a[i]))))
	}

	return sep
}

// GrowthRate estimates the exponential rate of a separation series
// from the mean log ratio of successive samples. A positive rate means
// the trajectories peel apart; sampleDt converts it to inverse time.
func GrowthRate(separation []float64, sampleDt float64) float64 {
	if len(separation) < 2 || sampleDt <= 0 {
		return 0
	}

	sumLog := 0.0
	count := 0
	for i := 1; i < len(separation); i++ {
		if separation[i-1] > 0 && separation[i] > 0 {
			sumLog += math.Log(separation[i] / separation[i-1])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * sampleDt)
}

// MaxValue returns the largest entry of a series, or 0 when empty.
func MaxValue(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	max := series[0]
	for _, v := range series[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
