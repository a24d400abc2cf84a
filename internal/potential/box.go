package potential

import (
	"fmt"
	"math"
)

// ValidateBox checks that box is a row-major 3x3 matrix with strictly
// positive diagonal lengths and zero off-diagonal entries.
func ValidateBox(box []float64) error {
	if len(box) != 9 {
		return fmt.Errorf("%w: got %d values, want 9", ErrInvalidBox, len(box))
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := box[3*i+j]
			if i == j {
				if !(v > 0) {
					return fmt.Errorf("%w: diagonal [%d][%d] = %v, want > 0", ErrInvalidBox, i, j, v)
				}
			} else if v != 0 {
				return fmt.Errorf("%w: off-diagonal [%d][%d] = %v, want 0", ErrInvalidBox, i, j, v)
			}
		}
	}
	return nil
}

// Volume returns the box volume in nm^3.
func Volume(box []float64) float64 {
	return box[0] * box[4] * box[8]
}

// deltaR returns the minimum-image displacement coords[i] - coords[j].
// Every term routes periodic wrapping through here so imaging is
// bit-identical across the whole force field.
func deltaR(coords []float64, i, j int, box []float64) (dx, dy, dz float64) {
	dx = imaged(coords[3*i]-coords[3*j], box[0])
	dy = imaged(coords[3*i+1]-coords[3*j+1], box[4])
	dz = imaged(coords[3*i+2]-coords[3*j+2], box[8])
	return dx, dy, dz
}

func imaged(d, l float64) float64 {
	return d - l*math.Round(d/l)
}

func dot3(ax, ay, az, bx, by, bz float64) float64 {
	return ax*bx + ay*by + az*bz
}

func cross3(ax, ay, az, bx, by, bz float64) (float64, float64, float64) {
	return ay*bz - az*by, az*bx - ax*bz, ax*by - ay*bx
}
