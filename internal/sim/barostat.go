package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
	"github.com/ljmartin/timemachine/internal/potential"
	"github.com/ljmartin/timemachine/internal/units"
)

// MonteCarloBarostat proposes isotropic volume moves every interval
// steps and accepts them with the NPT Metropolis criterion. Molecules
// move rigidly: each group is translated so its centroid scales with
// the box, which keeps bond lengths out of the acceptance energy.
type MonteCarloBarostat struct {
	numAtoms    int
	pressure    float64 // bar
	temperature float64 // K
	interval    int
	groups      [][]int
	bps         []*potential.BoundPotential
	rng         *rand.Rand
	runner      potential.Runner

	stepCount     int
	attempted     int
	accepted      int
	totalProposed int
	totalAccepted int
	volumeScale   float64

	u         *device.Buffer[int64]
	xProposal *device.Buffer[float64]
	centroids []int64
}

// NewMonteCarloBarostat builds a barostat for numAtoms atoms grouped
// into rigidly-translated molecules. Pressure is in bar, temperature
// in K, and interval is the number of timesteps between proposals.
func NewMonteCarloBarostat(numAtoms int, pressure, temperature float64, groups [][]int, interval int, bps []*potential.BoundPotential, seed int64) (*MonteCarloBarostat, error) {
	if numAtoms < 1 {
		return nil, fmt.Errorf("%w: numAtoms %d", ErrInvalidParameter, numAtoms)
	}
	if pressure <= 0 {
		return nil, fmt.Errorf("%w: pressure %v bar", ErrInvalidParameter, pressure)
	}
	if temperature <= 0 {
		return nil, fmt.Errorf("%w: temperature %v K", ErrInvalidParameter, temperature)
	}
	if interval < 1 {
		return nil, fmt.Errorf("%w: interval %d", ErrInvalidParameter, interval)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no molecule groups", ErrInvalidParameter)
	}
	if len(bps) == 0 {
		return nil, fmt.Errorf("%w: no bound potentials", ErrInvalidParameter)
	}
	seen := make(map[int]bool, numAtoms)
	for gi, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("%w: group %d is empty", ErrInvalidParameter, gi)
		}
		for _, a := range group {
			if a < 0 || a >= numAtoms {
				return nil, fmt.Errorf("%w: group %d atom %d out of range [0,%d)", ErrInvalidParameter, gi, a, numAtoms)
			}
			if seen[a] {
				return nil, fmt.Errorf("%w: atom %d appears in more than one group", ErrInvalidParameter, a)
			}
			seen[a] = true
		}
	}

	u, err := device.NewBuffer[int64](numAtoms)
	if err != nil {
		return nil, err
	}
	xProposal, err := device.NewBuffer[float64](3 * numAtoms)
	if err != nil {
		u.Free()
		return nil, err
	}

	return &MonteCarloBarostat{
		numAtoms:    numAtoms,
		pressure:    pressure,
		temperature: temperature,
		interval:    interval,
		groups:      groups,
		bps:         bps,
		rng:         rand.New(rand.NewSource(seed)),
		u:           u,
		xProposal:   xProposal,
		centroids:   make([]int64, 3*len(groups)),
	}, nil
}

// Interval returns the number of timesteps between proposals.
func (mc *MonteCarloBarostat) Interval() int { return mc.interval }

// Proposals returns the lifetime count of attempted and accepted moves.
func (mc *MonteCarloBarostat) Proposals() (attempted, accepted int) {
	return mc.totalProposed, mc.totalAccepted
}

// VolumeScale returns the current maximum proposal width in nm^3.
// It is zero until the first proposal.
func (mc *MonteCarloBarostat) VolumeScale() float64 { return mc.volumeScale }

// InplaceMove counts one timestep and, on interval boundaries, proposes
// a volume change, mutating x and box in place when it is accepted. An
// overflowed energy on either side of the move rejects it. The random
// stream advances by exactly two draws per proposal regardless of the
// outcome, so trajectories stay reproducible.
func (mc *MonteCarloBarostat) InplaceMove(x, box []float64, stream *device.Stream) error {
	mc.stepCount++
	if mc.stepCount%mc.interval != 0 {
		return nil
	}
	if len(x) != 3*mc.numAtoms {
		return fmt.Errorf("%w: coords length %d, want %d", ErrLengthMismatch, len(x), 3*mc.numAtoms)
	}
	if err := potential.ValidateBox(box); err != nil {
		return err
	}

	// Pending integrator updates to x must land before we read it.
	stream.Synchronize()

	u := mc.u.Data()
	if err := mc.runner.Execute(mc.bps, mc.numAtoms, x, box, nil, nil, u, stream); err != nil {
		return err
	}
	stream.Synchronize()
	uInitial := fixpoint.SumEnergy(u)

	volume := potential.Volume(box)
	if mc.volumeScale == 0 {
		mc.volumeScale = 0.01 * volume
	}
	mc.attempted++
	mc.totalProposed++

	deltaVolume := mc.volumeScale * (2*mc.rng.Float64() - 1)
	draw := mc.rng.Float64()
	newVolume := volume + deltaVolume
	if newVolume <= 0 {
		mc.adapt(volume)
		return nil
	}
	lengthScale := math.Cbrt(newVolume / volume)

	// Group centroids accumulate in fixed point so the sums do not
	// depend on scheduling.
	cent := mc.centroids
	for i := range cent {
		cent[i] = 0
	}
	compute.ParallelFor(len(mc.groups), 8, func(start, end int) {
		for gi := start; gi < end; gi++ {
			var cx, cy, cz int64
			for _, a := range mc.groups[gi] {
				cx += fixpoint.Encode(x[3*a], fixpoint.Force)
				cy += fixpoint.Encode(x[3*a+1], fixpoint.Force)
				cz += fixpoint.Encode(x[3*a+2], fixpoint.Force)
			}
			cent[3*gi] = cx
			cent[3*gi+1] = cy
			cent[3*gi+2] = cz
		}
	})

	xProp := mc.xProposal.Data()
	copy(xProp, x)
	compute.ParallelFor(len(mc.groups), 8, func(start, end int) {
		for gi := start; gi < end; gi++ {
			inv := 1.0 / float64(len(mc.groups[gi]))
			dx := fixpoint.Decode(cent[3*gi], fixpoint.Force) * inv * (lengthScale - 1)
			dy := fixpoint.Decode(cent[3*gi+1], fixpoint.Force) * inv * (lengthScale - 1)
			dz := fixpoint.Decode(cent[3*gi+2], fixpoint.Force) * inv * (lengthScale - 1)
			for _, a := range mc.groups[gi] {
				xProp[3*a] += dx
				xProp[3*a+1] += dy
				xProp[3*a+2] += dz
			}
		}
	})

	var newBox [9]float64
	for i, b := range box {
		newBox[i] = b * lengthScale
	}

	if err := mc.runner.Execute(mc.bps, mc.numAtoms, xProp, newBox[:], nil, nil, u, stream); err != nil {
		return err
	}
	stream.Synchronize()
	uProposed := fixpoint.SumEnergy(u)

	kT := units.Boltz * mc.temperature
	accept := false
	if !fixpoint.Overflowed(uInitial) && !fixpoint.Overflowed(uProposed) {
		du := fixpoint.EnergyToFloat(uProposed) - fixpoint.EnergyToFloat(uInitial)
		w := du + mc.pressure*units.BarToKJPerNM3*units.Avogadro*deltaVolume -
			float64(len(mc.groups))*kT*math.Log(newVolume/volume)
		accept = w <= 0 || draw < math.Exp(-w/kT)
	}

	if accept {
		copy(x, xProp)
		copy(box, newBox[:])
		mc.accepted++
		mc.totalAccepted++
	}

	mc.adapt(volume)
	return nil
}

// adapt retunes the proposal width toward a 25-75% acceptance window.
func (mc *MonteCarloBarostat) adapt(volume float64) {
	if mc.attempted < 10 {
		return
	}
	switch {
	case float64(mc.accepted) < 0.25*float64(mc.attempted):
		mc.volumeScale /= 1.1
		mc.attempted, mc.accepted = 0, 0
	case float64(mc.accepted) > 0.75*float64(mc.attempted):
		mc.volumeScale = math.Min(mc.volumeScale*1.1, 0.3*volume)
		mc.attempted, mc.accepted = 0, 0
	}
}

// Free releases the barostat's scratch buffers.
func (mc *MonteCarloBarostat) Free() {
	mc.u.Free()
	mc.xProposal.Free()
}
