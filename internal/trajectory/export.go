package trajectory

import (
	"encoding/json"
	"io"
	"os"

	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/sim"
)

// ExportData is the flat JSON shape consumed by external plotting and
// analysis scripts.
type ExportData struct {
	System       string             `json:"system"`
	Integrator   string             `json:"integrator"`
	Dt           float64            `json:"dt"`
	Steps        int                `json:"steps"`
	Atoms        int                `json:"atoms"`
	Times        []float64          `json:"times"`
	Energies     []float64          `json:"energies"`
	Temperatures []float64          `json:"temperatures"`
	Frames       [][]float64        `json:"frames,omitempty"`
	Boxes        [][]float64        `json:"boxes,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

func buildExport(cfg *config.Config, result *sim.Result, withFrames bool) ExportData {
	data := ExportData{
		System:       cfg.System.Kind,
		Integrator:   cfg.Integrator.Kind,
		Dt:           cfg.Integrator.Dt,
		Steps:        result.StepsTaken,
		Atoms:        cfg.System.Atoms,
		Times:        result.Times,
		Energies:     result.Energies,
		Temperatures: result.Temperatures,
		Metrics:      result.Metrics,
	}
	if withFrames {
		data.Frames = result.Frames
		data.Boxes = result.Boxes
	}
	return data
}

// ExportJSON writes the run as a single JSON document.
func ExportJSON(path string, cfg *config.Config, result *sim.Result, withFrames bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeExport(f, cfg, result, withFrames)
}

// ExportJSONStdout writes the run as JSON to standard output, for
// piping into jq or a plotting script.
func ExportJSONStdout(cfg *config.Config, result *sim.Result, withFrames bool) error {
	return writeExport(os.Stdout, cfg, result, withFrames)
}

func writeExport(w io.Writer, cfg *config.Config, result *sim.Result, withFrames bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildExport(cfg, result, withFrames))
}
