package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform with a radix-2
// Cooley-Tukey recursion. The input length must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns |X_k|^2/n for the first half of the transform.
// The series is zero-padded to the next power of two, so any sample
// count is accepted.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}

	padded := make([]float64, nextPowerOfTwo(n))
	copy(padded, data)

	fft := FFT(padded)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = real(fft[i])*real(fft[i]) + imag(fft[i])*imag(fft[i])
		ps[i] /= float64(len(padded))
	}

	return ps
}

// DominantFrequency picks the strongest non-DC line of a power
// spectrum and converts its bin to a frequency in cycles per unit of
// sampleDt. Returns 0 when the spectrum is too short to carry one.
func DominantFrequency(power []float64, sampleDt float64) float64 {
	if len(power) < 2 || sampleDt <= 0 {
		return 0
	}

	best := 1
	for k := 2; k < len(power); k++ {
		if power[k] > power[best] {
			best = k
		}
	}

	// power holds n/2 bins of an n-point transform, so bin k sits at
	// k/(n*dt).
	n := 2 * len(power)
	return float64(best) / (float64(n) * sampleDt)
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
