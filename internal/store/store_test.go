package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Status:     sim.TimedOut,
		StepsTaken: 20,
		Plan:       sim.Plan{PlateDt: 1e-3, FinDt: 5e-4, SubSteps: 2, Steps: 20},
		Layout:     sim.Layout{FluidNodes: 2, PlateNx: 2, PlateNy: 1, FinNr: 1, FinNtheta: 2, Fins: 1},
		Snapshots: []sim.Snapshot{
			{Step: 0, Time: 0, Fluid: []float64{353.15, 296.15}, Plate: []float64{296.15, 296.15}, Fins: [][]float64{{296.15, 296.15}}},
			{Step: 20, Time: 0.02, Fluid: []float64{353.15, 297.5}, Plate: []float64{297, 296.5}, Fins: [][]float64{{296.2, 296.2}}},
		},
		Convergence: []sim.ConvergenceRecord{{Step: 20, Time: 0.02, MaxRate: 12.5}},
		Energy:      []metrics.EnergyBalance{{Time: 0.02, QIn: 10, QOut: 1, DEdt: 8.5, Residual: 0.05}},
		Diagnostics: []sim.Diagnostic{},
		Metrics:     map[string]float64{"outlet_temp": 297.5},
	}
}

func TestExportJSON(t *testing.T) {
	tests := []struct {
		name      string
		all       bool
		snapshots int
	}{
		{"final only", false, 0},
		{"all snapshots", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			if err := ExportJSON(path, NewExportData("al_1", "aluminum", sampleResult(), tt.all)); err != nil {
				t.Fatalf("export failed: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var got ExportData
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if got.Status != sim.TimedOut || got.Steps != 20 || got.RunID != "al_1" {
				t.Errorf("unexpected header: %+v", got)
			}
			if len(got.Times) != 2 || got.Times[1] != 0.02 {
				t.Errorf("unexpected times %v", got.Times)
			}
			if got.Final == nil || got.Final.Step != 20 || got.Final.Fluid[1] != 297.5 {
				t.Errorf("unexpected final snapshot %+v", got.Final)
			}
			if len(got.Snapshots) != tt.snapshots {
				t.Errorf("expected %d snapshots, got %d", tt.snapshots, len(got.Snapshots))
			}
			if got.Metrics["outlet_temp"] != 297.5 {
				t.Errorf("expected outlet 297.5, got %g", got.Metrics["outlet_temp"])
			}
		})
	}
}

func TestExportStatusAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, NewExportData("", "steel", sampleResult(), false)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"status": "timed_out"`)) {
		t.Errorf("status not encoded as text:\n%s", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte(`"run_id"`)) {
		t.Error("empty run id should be omitted")
	}
}
