package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/ljmartin/timemachine/internal/potential"
	"github.com/ljmartin/timemachine/internal/units"
)

// Run drives a context for cfg.Steps timesteps, sampling energy,
// temperature and forces every store interval. Metrics see every
// sample and their final values land in Result.Metrics; observers are
// notified with a pooled copy of the stored frame. The run stops early
// when ctx is cancelled or an energy accumulator overflows, returning
// the partial result alongside the error.
func Run(ctx context.Context, c *Context, cfg RunConfig, metrics []Metric, observers []Observer) (*Result, error) {
	if err := validateRunConfig(c, cfg); err != nil {
		return nil, err
	}

	interval := cfg.StoreInterval
	if interval <= 0 || interval > cfg.Steps {
		interval = cfg.Steps
	}
	numSamples := cfg.Steps/interval + 1

	result := &Result{
		Times:        make([]float64, 0, numSamples),
		Energies:     make([]float64, 0, numSamples),
		Temperatures: make([]float64, 0, numSamples),
		Frames:       make([][]float64, 0, numSamples),
		Boxes:        make([][]float64, 0, numSamples),
		Metrics:      make(map[string]float64),
	}

	for _, m := range metrics {
		m.Reset()
	}

	pool := NewFramePool(3 * c.NumAtoms())

	done := 0
	for done < cfg.Steps {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		chunk := interval
		if rem := cfg.Steps - done; rem < chunk {
			chunk = rem
		}
		frames, boxes, err := c.MultipleSteps(chunk, chunk)
		if err != nil {
			return result, err
		}
		done += chunk
		result.StepsTaken = done

		energy, err := c.Energies()
		if err != nil {
			return result, err
		}
		forces, err := c.Forces()
		if err != nil {
			return result, err
		}

		frame := frames[len(frames)-1]
		box := boxes[len(boxes)-1]
		s := Sample{
			Step:        c.StepCount(),
			Time:        float64(c.StepCount()) * cfg.Dt,
			Energy:      energy,
			Temperature: Temperature(c.Velocities(), cfg.Masses),
			MaxForce:    maxForceNorm(forces),
			Volume:      potential.Volume(box),
		}

		result.Times = append(result.Times, s.Time)
		result.Energies = append(result.Energies, s.Energy)
		result.Temperatures = append(result.Temperatures, s.Temperature)
		result.Frames = append(result.Frames, frame)
		result.Boxes = append(result.Boxes, box)

		for _, m := range metrics {
			m.Observe(s)
		}
		if len(observers) > 0 {
			shared := pool.GetAndCopy(frame)
			for _, o := range observers {
				o.OnSample(shared, s)
			}
			pool.Put(shared)
		}
	}

	for _, m := range metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateRunConfig(c *Context, cfg RunConfig) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt %v", ErrInvalidParameter, cfg.Dt)
	}
	if cfg.Steps < 1 {
		return fmt.Errorf("%w: steps %d", ErrInvalidParameter, cfg.Steps)
	}
	if len(cfg.Masses) != c.NumAtoms() {
		return fmt.Errorf("%w: masses length %d, system has %d atoms", ErrLengthMismatch, len(cfg.Masses), c.NumAtoms())
	}
	return nil
}

// Temperature estimates the kinetic temperature in K from velocities
// in nm/ps and masses in g/mol, assuming 3N degrees of freedom.
func Temperature(v, masses []float64) float64 {
	if len(masses) == 0 || len(v) != 3*len(masses) {
		return 0
	}
	var mvsq float64
	for a, m := range masses {
		vx, vy, vz := v[3*a], v[3*a+1], v[3*a+2]
		mvsq += m * (vx*vx + vy*vy + vz*vz)
	}
	return mvsq / (3 * float64(len(masses)) * units.Boltz)
}

func maxForceNorm(f []float64) float64 {
	var maxNorm float64
	for a := 0; a < len(f)/3; a++ {
		fx, fy, fz := f[3*a], f[3*a+1], f[3*a+2]
		norm := math.Sqrt(fx*fx + fy*fy + fz*fz)
		if norm > maxNorm {
			maxNorm = norm
		}
	}
	return maxNorm
}
