package analysis

import "math"

// RadialDistribution histograms minimum-image pair distances across
// all frames and normalizes against the ideal-gas shell count, giving
// the pair correlation g(r). Bin centers are returned alongside the
// values. rMax past half the shortest box edge double-counts images,
// so keep it below that.
func RadialDistribution(frames [][]float64, box []float64, bins int, rMax float64) (r, g []float64) {
	if len(frames) == 0 || bins <= 0 || rMax <= 0 || len(box) != 9 {
		return nil, nil
	}
	nAtoms := len(frames[0]) / 3
	if nAtoms < 2 {
		return nil, nil
	}

	lx, ly, lz := box[0], box[4], box[8]
	if lx <= 0 || ly <= 0 || lz <= 0 {
		return nil, nil
	}

	dr := rMax / float64(bins)
	hist := make([]float64, bins)
	framesUsed := 0

	for _, frame := range frames {
		if len(frame) != 3*nAtoms {
			continue
		}
		for i := 0; i < nAtoms; i++ {
			for j := i + 1; j < nAtoms; j++ {
				dx := wrap(frame[3*i]-frame[3*j], lx)
				dy := wrap(frame[3*i+1]-frame[3*j+1], ly)
				dz := wrap(frame[3*i+2]-frame[3*j+2], lz)
				d := math.Sqrt(dx*dx + dy*dy + dz*dz)
				if d >= rMax {
					continue
				}
				hist[int(d/dr)]++
			}
		}
		framesUsed++
	}
	if framesUsed == 0 {
		return nil, nil
	}

	volume := lx * ly * lz
	nPairs := float64(nAtoms*(nAtoms-1)) / 2

	r = make([]float64, bins)
	g = make([]float64, bins)
	for k := 0; k < bins; k++ {
		lo := float64(k) * dr
		hi := lo + dr
		shell := 4 * math.Pi / 3 * (hi*hi*hi - lo*lo*lo)
		ideal := nPairs * shell / volume
		r[k] = lo + dr/2
		if ideal > 0 {
			g[k] = hist[k] / (float64(framesUsed) * ideal)
		}
	}

	return r, g
}

// wrap applies the same minimum-image convention the force kernels
// use, so analysis distances agree with simulation distances.
func wrap(d, l float64) float64 {
	return d - l*math.Round(d/l)
}
