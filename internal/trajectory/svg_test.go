package trajectory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlotSVG(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	series := []SVGSeries{
		{Label: "energy", Color: "#00ff00", Values: []float64{1, 3, 2, 4}},
		{Label: "temperature", Color: "#ff8800", Values: []float64{300, 310, 295, 305}},
	}

	out, err := PlotSVG(x, series, 800, 300)
	if err != nil {
		t.Fatalf("PlotSVG: %v", err)
	}

	if !strings.HasPrefix(out, `<?xml`) {
		t.Error("missing xml header")
	}
	if !strings.Contains(out, "</svg>") {
		t.Error("missing closing tag")
	}
	for _, s := range series {
		if !strings.Contains(out, `stroke="`+s.Color+`"`) {
			t.Errorf("missing stroke for %s", s.Label)
		}
		if !strings.Contains(out, ">"+s.Label+"</text>") {
			t.Errorf("missing legend for %s", s.Label)
		}
	}
	// Each 4-point polyline continues with three line segments.
	if got := strings.Count(out, " L"); got != 6 {
		t.Errorf("line segments = %d, want 6", got)
	}
	if strings.Contains(out, "NaN") {
		t.Error("output contains NaN coordinates")
	}
}

func TestPlotSVGFlatSeries(t *testing.T) {
	x := []float64{0, 1, 2}
	series := []SVGSeries{{Label: "flat", Color: "#ffffff", Values: []float64{5, 5, 5}}}

	out, err := PlotSVG(x, series, 100, 50)
	if err != nil {
		t.Fatalf("PlotSVG: %v", err)
	}
	if strings.Contains(out, "NaN") || strings.Contains(out, "Inf") {
		t.Errorf("flat series produced bad coordinates:\n%s", out)
	}
}

func TestPlotSVGRejectsBadInput(t *testing.T) {
	ok := []SVGSeries{{Label: "a", Color: "#fff", Values: []float64{1, 2}}}

	if _, err := PlotSVG([]float64{0}, []SVGSeries{{Values: []float64{1}}}, 100, 50); err == nil {
		t.Error("expected error for a single sample")
	}
	if _, err := PlotSVG([]float64{0, 1}, nil, 100, 50); err == nil {
		t.Error("expected error for no series")
	}
	if _, err := PlotSVG([]float64{0, 1}, []SVGSeries{{Values: []float64{1}}}, 100, 50); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := PlotSVG([]float64{0, 1}, ok, 0, 50); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestWriteSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.svg")
	x := []float64{0, 1, 2}
	series := []SVGSeries{{Label: "energy", Color: "#00ff00", Values: []float64{1, 2, 1}}}

	if err := WriteSVG(path, x, series, 400, 200); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "</svg>") {
		t.Error("written file is not an svg")
	}
}
