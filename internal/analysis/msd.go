package analysis

// MeanSquaredDisplacement averages squared displacements over every
// time origin and atom, one entry per lag up to maxLag. Frames must
// hold unwrapped coordinates; the integrators never wrap positions,
// so stored frames qualify directly.
func MeanSquaredDisplacement(frames [][]float64, maxLag int) []float64 {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return nil
	}
	if maxLag >= len(frames) {
		maxLag = len(frames) - 1
	}
	if maxLag < 0 {
		maxLag = 0
	}

	nCoords := len(frames[0])
	msd := make([]float64, maxLag+1)

	for lag := 1; lag <= maxLag; lag++ {
		sum := 0.0
		count := 0
		for t := 0; t+lag < len(frames); t++ {
			a, b := frames[t], frames[t+lag]
			if len(a) != nCoords || len(b) != nCoords {
				continue
			}
			for i := 0; i < nCoords; i++ {
				d := b[i] - a[i]
				sum += d * d
			}
			count++
		}
		if count > 0 {
			msd[lag] = sum / float64(count*nCoords/3)
		}
	}

	return msd
}

// DiffusionCoefficient fits the tail of an MSD curve with least
// squares and applies the Einstein relation MSD = 6*D*t. The first
// half of the curve is skipped to stay clear of the ballistic regime.
func DiffusionCoefficient(msd []float64, sampleDt float64) float64 {
	if len(msd) < 4 || sampleDt <= 0 {
		return 0
	}

	start := len(msd) / 2
	var sumT, sumM, sumTT, sumTM float64
	n := 0
	for lag := start; lag < len(msd); lag++ {
		t := float64(lag) * sampleDt
		sumT += t
		sumM += msd[lag]
		sumTT += t * t
		sumTM += t * msd[lag]
		n++
	}

	denom := float64(n)*sumTT - sumT*sumT
	if denom == 0 {
		return 0
	}
	slope := (float64(n)*sumTM - sumT*sumM) / denom
	return slope / 6
}
