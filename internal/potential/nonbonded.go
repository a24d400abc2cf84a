package potential

import (
	"fmt"
	"math"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
	"github.com/ljmartin/timemachine/internal/units"
)

var twoOverSqrtPi = 2.0 / math.Sqrt(math.Pi)

// NonbondedPairList evaluates erfc-damped Coulomb plus Lennard-Jones
// terms over an explicit pair list. Parameters are per atom, laid out
// [N,4] as (charge, sigma, epsilon, w), where w is a decoupling offset
// along a fourth, non-periodic axis that enters the pair distance.
//
// Each pair carries a (charge scale, LJ scale) factor. The negated
// flavor subtracts its contributions instead of adding them; fanning it
// out with an all-interactions term over the same parameter buffer
// cancels excluded pairs without branching in the dense kernel.
type NonbondedPairList struct {
	numAtoms int
	idxs     *device.Buffer[int32]
	scales   *device.Buffer[float64]
	beta     float64
	cutoff   float64
	negated  bool
}

// NewNonbondedPairList builds the additive flavor over pairIdxs [M,2]
// and pairScales [M,2].
func NewNonbondedPairList(numAtoms int, pairIdxs []int32, pairScales []float64, beta, cutoff float64) (*NonbondedPairList, error) {
	return newPairList(numAtoms, pairIdxs, pairScales, beta, cutoff, false)
}

// NewNonbondedExclusions builds the negated flavor used to cancel pairs
// that another term overcounts.
func NewNonbondedExclusions(numAtoms int, pairIdxs []int32, pairScales []float64, beta, cutoff float64) (*NonbondedPairList, error) {
	return newPairList(numAtoms, pairIdxs, pairScales, beta, cutoff, true)
}

func newPairList(numAtoms int, pairIdxs []int32, pairScales []float64, beta, cutoff float64, negated bool) (*NonbondedPairList, error) {
	if err := validateIdxs(numAtoms, pairIdxs, 2, "pair"); err != nil {
		return nil, err
	}
	for m := 0; m < len(pairIdxs)/2; m++ {
		if pairIdxs[2*m] == pairIdxs[2*m+1] {
			return nil, fmt.Errorf("%w: pair %d is a self-interaction on atom %d", ErrInvalidParameter, m, pairIdxs[2*m])
		}
	}
	if len(pairScales) != len(pairIdxs) {
		return nil, fmt.Errorf("%w: %d scale values for %d pair indices", ErrLengthMismatch, len(pairScales), len(pairIdxs))
	}
	if beta < 0 {
		return nil, fmt.Errorf("%w: beta = %v, want >= 0", ErrInvalidParameter, beta)
	}
	if !(cutoff > 0) {
		return nil, fmt.Errorf("%w: cutoff = %v, want > 0", ErrInvalidParameter, cutoff)
	}
	idxs, err := device.NewBufferFrom(pairIdxs)
	if err != nil {
		return nil, err
	}
	scales, err := device.NewBufferFrom(pairScales)
	if err != nil {
		idxs.Free()
		return nil, err
	}
	return &NonbondedPairList{
		numAtoms: numAtoms,
		idxs:     idxs,
		scales:   scales,
		beta:     beta,
		cutoff:   cutoff,
		negated:  negated,
	}, nil
}

// NumPairs returns the number of listed pairs.
func (nb *NonbondedPairList) NumPairs() int { return nb.idxs.Len() / 2 }

func (nb *NonbondedPairList) Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return dispatch(nb, n, p, coords, params, box, duDx, duDp, u, stream)
}

// GradFixedToFloat decodes the [N,4] parameter gradient, one channel per
// column kind.
func (nb *NonbondedPairList) GradFixedToFloat(duDp []int64, out []float64) error {
	want := 4 * nb.numAtoms
	if len(duDp) != want {
		return fmt.Errorf("%w: du_dp has %d values, want %d", ErrLengthMismatch, len(duDp), want)
	}
	if len(out) != want {
		return fmt.Errorf("%w: output has %d values, want %d", ErrLengthMismatch, len(out), want)
	}
	for a := 0; a < nb.numAtoms; a++ {
		out[4*a] = fixpoint.Decode(duDp[4*a], fixpoint.GradCharge)
		out[4*a+1] = fixpoint.Decode(duDp[4*a+1], fixpoint.GradSigma)
		out[4*a+2] = fixpoint.Decode(duDp[4*a+2], fixpoint.GradEpsilon)
		out[4*a+3] = fixpoint.Decode(duDp[4*a+3], fixpoint.GradOffset)
	}
	return nil
}

func (nb *NonbondedPairList) Free() {
	nb.idxs.Free()
	nb.scales.Free()
}

func (nb *NonbondedPairList) validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error {
	return checkLayout(n, nb.numAtoms, p, 4*nb.numAtoms, coords, params, box, duDx, duDp, u)
}

func (nb *NonbondedPairList) accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64) {
	idxs := nb.idxs.Data()
	scales := nb.scales.Data()
	sign := 1.0
	if nb.negated {
		sign = -1.0
	}
	cutoffSq := nb.cutoff * nb.cutoff

	compute.ParallelFor(nb.NumPairs(), minKernelChunk, func(start, end int) {
		for m := start; m < end; m++ {
			i := int(idxs[2*m])
			j := int(idxs[2*m+1])
			chargeScale := scales[2*m]
			ljScale := scales[2*m+1]

			qi, si, ei, wi := params[4*i], params[4*i+1], params[4*i+2], params[4*i+3]
			qj, sj, ej, wj := params[4*j], params[4*j+1], params[4*j+2], params[4*j+3]

			dx, dy, dz := deltaR(coords, i, j, box)
			// the w axis is non-periodic
			dw := wi - wj
			d2 := dx*dx + dy*dy + dz*dz + dw*dw
			if d2 >= cutoffSq || d2 == 0 {
				continue
			}
			d := math.Sqrt(d2)
			invD := 1.0 / d

			ebd := math.Erfc(nb.beta * d)
			esPrefactor := units.OneFourPiEps0 * qi * qj
			uES := esPrefactor * ebd * invD
			dESdd := esPrefactor * (-ebd/d2 - twoOverSqrtPi*nb.beta*math.Exp(-nb.beta*nb.beta*d2)*invD)

			var uLJ, dLJdd, sig, eps, s6, s12 float64
			if ei != 0 && ej != 0 {
				sig = 0.5 * (si + sj)
				eps = math.Sqrt(ei * ej)
				s2 := sig * sig / d2
				s6 = s2 * s2 * s2
				s12 = s6 * s6
				uLJ = 4 * eps * (s12 - s6)
				dLJdd = 4 * eps * (6*s6 - 12*s12) * invD
			}

			dudd := sign * (chargeScale*dESdd + ljScale*dLJdd)

			if duDx != nil {
				g := dudd * invD
				addFixed(duDx, 3*i, g*dx, fixpoint.Force)
				addFixed(duDx, 3*i+1, g*dy, fixpoint.Force)
				addFixed(duDx, 3*i+2, g*dz, fixpoint.Force)
				addFixed(duDx, 3*j, -g*dx, fixpoint.Force)
				addFixed(duDx, 3*j+1, -g*dy, fixpoint.Force)
				addFixed(duDx, 3*j+2, -g*dz, fixpoint.Force)
			}
			if duDp != nil {
				esGrad := sign * chargeScale * units.OneFourPiEps0 * ebd * invD
				addFixed(duDp, 4*i, esGrad*qj, fixpoint.GradCharge)
				addFixed(duDp, 4*j, esGrad*qi, fixpoint.GradCharge)
				if eps != 0 {
					dSig := sign * ljScale * 4 * eps * (12*s12 - 6*s6) / sig
					addFixed(duDp, 4*i+1, 0.5*dSig, fixpoint.GradSigma)
					addFixed(duDp, 4*j+1, 0.5*dSig, fixpoint.GradSigma)
					dEps := sign * ljScale * 4 * (s12 - s6) * 0.5 * eps
					addFixed(duDp, 4*i+2, dEps/ei, fixpoint.GradEpsilon)
					addFixed(duDp, 4*j+2, dEps/ej, fixpoint.GradEpsilon)
				}
				dwGrad := dudd * dw * invD
				addFixed(duDp, 4*i+3, dwGrad, fixpoint.GradOffset)
				addFixed(duDp, 4*j+3, -dwGrad, fixpoint.GradOffset)
			}
			if u != nil {
				addFixed(u, uSlot(u, i), sign*(chargeScale*uES+ljScale*uLJ), fixpoint.Force)
			}
		}
	})
}
