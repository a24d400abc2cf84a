package trajectory

import (
	"fmt"
	"os"
	"strings"
)

// SVGSeries is one labeled polyline in a plot.
type SVGSeries struct {
	Label  string
	Color  string
	Values []float64
}

// PlotSVG renders the series against a shared x axis as polylines on a
// dark background. Every series must have len(x) points. Each series is
// scaled to its own vertical range so traces with different units stay
// readable in one image.
func PlotSVG(x []float64, series []SVGSeries, width, height int) (string, error) {
	if len(x) < 2 {
		return "", fmt.Errorf("need at least two samples, got %d", len(x))
	}
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("bad canvas %dx%d", width, height)
	}
	if len(series) == 0 {
		return "", fmt.Errorf("no series to plot")
	}
	for _, s := range series {
		if len(s.Values) != len(x) {
			return "", fmt.Errorf("series %q has %d points, x axis has %d", s.Label, len(s.Values), len(x))
		}
	}

	minX, maxX := x[0], x[0]
	for _, v := range x {
		if v < minX {
			minX = v
		}
		if v > maxX {
			maxX = v
		}
	}
	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, s := range series {
		minY, maxY := s.Values[0], s.Values[0]
		for _, v := range s.Values {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
		rangeY := maxY - minY
		if rangeY == 0 {
			rangeY = 1
		}
		minY -= rangeY * 0.1
		maxY += rangeY * 0.1
		rangeY = maxY - minY

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color))
		for j, v := range s.Values {
			px := (x[j] - minX) / rangeX * float64(width)
			py := float64(height) - (v-minY)/rangeY*float64(height)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px, py))
			}
		}
		sb.WriteString("\"/>\n")

		if s.Label != "" {
			sb.WriteString(fmt.Sprintf(`<text x="10" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 20+18*i, s.Color, s.Label))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// WriteSVG renders the plot and writes it to path.
func WriteSVG(path string, x []float64, series []SVGSeries, width, height int) error {
	svg, err := PlotSVG(x, series, width, height)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(svg), 0o644)
}
