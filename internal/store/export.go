package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/sim"
)

type ExportData struct {
	RunID       string                  `json:"run_id,omitempty"`
	Material    string                  `json:"material"`
	Status      sim.Status              `json:"status"`
	Converged   bool                    `json:"converged"`
	ConvergedAt float64                 `json:"converged_at,omitempty"`
	Steps       int                     `json:"steps"`
	Plan        sim.Plan                `json:"plan"`
	Layout      sim.Layout              `json:"layout"`
	Times       []float64               `json:"times"`
	Final       *sim.Snapshot           `json:"final,omitempty"`
	Snapshots   []sim.Snapshot          `json:"snapshots,omitempty"`
	Convergence []sim.ConvergenceRecord `json:"convergence"`
	Energy      []metrics.EnergyBalance `json:"energy"`
	Diagnostics []sim.Diagnostic        `json:"diagnostics"`
	Metrics     map[string]float64      `json:"metrics"`
}

// NewExportData flattens result. Only the final snapshot is kept unless all
// is set.
func NewExportData(runID, material string, result *sim.Result, all bool) ExportData {
	data := ExportData{
		RunID:       runID,
		Material:    material,
		Status:      result.Status,
		Converged:   result.Converged,
		ConvergedAt: result.ConvergedAt,
		Steps:       result.StepsTaken,
		Plan:        result.Plan,
		Layout:      result.Layout,
		Times:       make([]float64, len(result.Snapshots)),
		Convergence: result.Convergence,
		Energy:      result.Energy,
		Diagnostics: result.Diagnostics,
		Metrics:     result.Metrics,
	}

	for i, s := range result.Snapshots {
		data.Times[i] = s.Time
	}
	if final, ok := result.Final(); ok {
		data.Final = &final
	}
	if all {
		data.Snapshots = result.Snapshots
	}
	return data
}

func Export(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return Export(file, data)
}

func ExportJSONStdout(data ExportData) error {
	return Export(os.Stdout, data)
}
