// Package trajectory persists simulation runs: metadata as indented
// JSON, energies and frames as CSV, one directory per run.
package trajectory

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	System      string             `json:"system"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	Atoms       int                `json:"atoms"`
	Integrator  string             `json:"integrator"`
	Temperature float64            `json:"temperature"`
	Barostat    bool               `json:"barostat"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes one run directory named <system>_<short id> and returns
// the run ID. Floats are stored at full precision so a loaded
// trajectory is bit-identical to the saved one.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.System.Kind, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	atoms := cfg.System.Atoms
	meta := RunMetadata{
		ID:          runID,
		System:      cfg.System.Kind,
		Timestamp:   time.Now(),
		Seed:        cfg.Integrator.Seed,
		Dt:          cfg.Integrator.Dt,
		Steps:       result.StepsTaken,
		Atoms:       atoms,
		Integrator:  cfg.Integrator.Kind,
		Temperature: cfg.Integrator.Temperature,
		Barostat:    cfg.Barostat.Enabled,
		Metrics:     result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.writeEnergies(runDir, result); err != nil {
		return "", err
	}
	if err := s.writeFrames(runDir, result); err != nil {
		return "", err
	}
	if err := s.writeBoxes(runDir, result); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) writeEnergies(runDir string, result *sim.Result) error {
	f, err := os.Create(filepath.Join(runDir, "energies.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time", "energy", "temperature"}); err != nil {
		return err
	}
	for i := range result.Times {
		row := []string{
			formatFloat(result.Times[i]),
			formatFloat(result.Energies[i]),
			formatFloat(result.Temperatures[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeFrames(runDir string, result *sim.Result) error {
	f, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"frame", "atom", "x", "y", "z"}); err != nil {
		return err
	}
	for fi, frame := range result.Frames {
		for a := 0; a < len(frame)/3; a++ {
			row := []string{
				strconv.Itoa(fi),
				strconv.Itoa(a),
				formatFloat(frame[3*a]),
				formatFloat(frame[3*a+1]),
				formatFloat(frame[3*a+2]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) writeBoxes(runDir string, result *sim.Result) error {
	f, err := os.Create(filepath.Join(runDir, "boxes.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"frame", "edge_x", "edge_y", "edge_z"}); err != nil {
		return err
	}
	for fi, box := range result.Boxes {
		row := []string{
			strconv.Itoa(fi),
			formatFloat(box[0]),
			formatFloat(box[4]),
			formatFloat(box[8]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadEnergies returns the sampled times, energies and temperatures.
func (s *Store) LoadEnergies(runID string) (times, energies, temps []float64, err error) {
	records, err := s.readCSV(runID, "energies.csv")
	if err != nil {
		return nil, nil, nil, err
	}
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 3 {
			continue
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		e, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		tp, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		energies = append(energies, e)
		temps = append(temps, tp)
	}
	return times, energies, temps, nil
}

// LoadFrames reconstructs the stored frames and their boxes.
func (s *Store) LoadFrames(runID string) (frames, boxes [][]float64, err error) {
	records, err := s.readCSV(runID, "frames.csv")
	if err != nil {
		return nil, nil, err
	}
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 5 {
			continue
		}
		fi, err := strconv.Atoi(rec[0])
		if err != nil || fi < 0 {
			continue
		}
		x, err1 := strconv.ParseFloat(rec[2], 64)
		y, err2 := strconv.ParseFloat(rec[3], 64)
		z, err3 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		for len(frames) <= fi {
			frames = append(frames, nil)
		}
		frames[fi] = append(frames[fi], x, y, z)
	}

	boxRecords, err := s.readCSV(runID, "boxes.csv")
	if err != nil {
		return nil, nil, err
	}
	for i := 1; i < len(boxRecords); i++ {
		rec := boxRecords[i]
		if len(rec) < 4 {
			continue
		}
		ex, err1 := strconv.ParseFloat(rec[1], 64)
		ey, err2 := strconv.ParseFloat(rec[2], 64)
		ez, err3 := strconv.ParseFloat(rec[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		boxes = append(boxes, []float64{ex, 0, 0, 0, ey, 0, 0, 0, ez})
	}

	return frames, boxes, nil
}

func (s *Store) readCSV(runID, name string) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
