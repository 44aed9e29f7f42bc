package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/thermal"
)

const (
	metadataFile = "metadata.json"
	fieldsFile   = "fields.csv.zst"
	configFile   = "config.yaml"
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

func (s *Store) BaseDir() string { return s.baseDir }

// RunMetadata is everything about a run except the field snapshots.
type RunMetadata struct {
	ID          string                  `json:"id"`
	Material    string                  `json:"material"`
	Preset      string                  `json:"preset,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
	MaxTime     float64                 `json:"max_time"`
	Epsilon     float64                 `json:"epsilon"`
	SaveEvery   int                     `json:"save_every"`
	Status      sim.Status              `json:"status"`
	Converged   bool                    `json:"converged"`
	ConvergedAt float64                 `json:"converged_at,omitempty"`
	StepsTaken  int                     `json:"steps_taken"`
	Snapshots   int                     `json:"snapshots"`
	Plan        sim.Plan                `json:"plan"`
	Layout      sim.Layout              `json:"layout"`
	Convergence []sim.ConvergenceRecord `json:"convergence"`
	Energy      []metrics.EnergyBalance `json:"energy"`
	Diagnostics []sim.Diagnostic        `json:"diagnostics"`
	Metrics     map[string]float64      `json:"metrics"`
}

// Save writes result under a new run directory and returns its ID. The
// snapshots go to a zstd-compressed CSV written with the shortest exact float
// representation, so a reload is bit-for-bit.
func (s *Store) Save(cfg *config.Config, preset string, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Material, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Material:    cfg.Material,
		Preset:      preset,
		Timestamp:   now,
		MaxTime:     cfg.Run.MaxTime,
		Epsilon:     cfg.Run.Epsilon,
		SaveEvery:   cfg.Run.SaveEvery,
		Status:      result.Status,
		Converged:   result.Converged,
		ConvergedAt: result.ConvergedAt,
		StepsTaken:  result.StepsTaken,
		Snapshots:   len(result.Snapshots),
		Plan:        result.Plan,
		Layout:      result.Layout,
		Convergence: result.Convergence,
		Energy:      result.Energy,
		Diagnostics: result.Diagnostics,
		Metrics:     result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeFields(filepath.Join(runDir, fieldsFile), result.Snapshots); err != nil {
		return "", fmt.Errorf("write fields: %w", err)
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fieldRow(snap sim.Snapshot, domain string, index int, values []float64) []string {
	row := make([]string, 0, len(values)+4)
	row = append(row, strconv.Itoa(snap.Step), formatFloat(snap.Time), domain, strconv.Itoa(index))
	for _, v := range values {
		row = append(row, formatFloat(v))
	}
	return row
}

func writeFields(path string, snaps []sim.Snapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	w := csv.NewWriter(zw)

	if err := w.Write([]string{"step", "time", "domain", "index", "values"}); err != nil {
		return err
	}
	for _, snap := range snaps {
		rows := [][]string{
			fieldRow(snap, string(thermal.DomainFluid), 0, snap.Fluid),
			fieldRow(snap, string(thermal.DomainPlate), 0, snap.Plate),
		}
		for k, fin := range snap.Fins {
			rows = append(rows, fieldRow(snap, string(thermal.DomainFin), k, fin))
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return zw.Close()
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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadResult rebuilds the full result of a saved run.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	snaps, err := readFields(filepath.Join(s.baseDir, runID, fieldsFile), meta.Layout)
	if err != nil {
		return nil, fmt.Errorf("read fields of %s: %w", runID, err)
	}
	if len(snaps) != meta.Snapshots {
		return nil, fmt.Errorf("%w: %s holds %d snapshots, metadata says %d", thermal.ErrIntegrity, runID, len(snaps), meta.Snapshots)
	}

	return &sim.Result{
		Plan:        meta.Plan,
		Layout:      meta.Layout,
		Status:      meta.Status,
		Converged:   meta.Converged,
		ConvergedAt: meta.ConvergedAt,
		StepsTaken:  meta.StepsTaken,
		Snapshots:   snaps,
		Convergence: meta.Convergence,
		Energy:      meta.Energy,
		Diagnostics: meta.Diagnostics,
		Metrics:     meta.Metrics,
	}, nil
}

func parseValues(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func readFields(path string, layout sim.Layout) ([]sim.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	r := csv.NewReader(zr)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil {
		return nil, err
	}

	snaps := make([]sim.Snapshot, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("%w: short record", thermal.ErrIntegrity)
		}

		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, err
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, err
		}
		index, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, err
		}
		values, err := parseValues(record[4:])
		if err != nil {
			return nil, err
		}

		if n := len(snaps); n == 0 || snaps[n-1].Step != step {
			snaps = append(snaps, sim.Snapshot{Step: step, Time: t, Fins: make([][]float64, layout.Fins)})
		}
		snap := &snaps[len(snaps)-1]

		switch thermal.Domain(record[2]) {
		case thermal.DomainFluid:
			snap.Fluid = values
		case thermal.DomainPlate:
			snap.Plate = values
		case thermal.DomainFin:
			if index < 0 || index >= layout.Fins {
				return nil, fmt.Errorf("%w: fin index %d", thermal.ErrIntegrity, index)
			}
			snap.Fins[index] = values
		default:
			return nil, fmt.Errorf("%w: unknown domain %q", thermal.ErrIntegrity, record[2])
		}
	}

	for _, snap := range snaps {
		if _, err := snap.Fields(layout); err != nil {
			return nil, err
		}
	}
	return snaps, nil
}
