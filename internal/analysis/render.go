package analysis

import (
	"math"
	"strings"
)

// FrameToASCII projects a frame onto the x-z plane and scatters it on
// a character canvas sized by the box. Coordinates are folded back
// into the box for display, so long unwrapped trajectories still plot
// inside the frame.
func FrameToASCII(frame, box []float64, width, height int) string {
	if len(frame) == 0 || len(frame)%3 != 0 || len(box) != 9 || width <= 0 || height <= 0 {
		return ""
	}
	lx, lz := box[0], box[8]
	if lx <= 0 || lz <= 0 {
		return ""
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for a := 0; a < len(frame)/3; a++ {
		x := fold(frame[3*a], lx)
		z := fold(frame[3*a+2], lz)

		col := int(x / lx * float64(width-1))
		row := height - 1 - int(z/lz*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// fold maps a coordinate into [0, l).
func fold(v, l float64) float64 {
	f := v - l*math.Floor(v/l)
	if f >= l {
		f = 0
	}
	return f
}
