package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/sim"
)

// Celsius converts a copy of values from K to °C.
func Celsius(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - kelvin
	}
	return out
}

func ProfilePlot(values []float64, caption string) string {
	if len(values) < 2 {
		return ""
	}
	return asciigraph.Plot(Celsius(values),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// ConvergencePlot charts log10 of the max rate. Records are decimated to at
// most width points.
func ConvergencePlot(records []sim.ConvergenceRecord, width int) string {
	if len(records) < 2 {
		return ""
	}
	step := max(len(records)/width, 1)
	data := make([]float64, 0, width+1)
	for i := 0; i < len(records); i += step {
		if r := records[i].MaxRate; r > 0 {
			data = append(data, math.Log10(r))
		}
	}
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.Caption("log10 max |dT/dt| [K/s]"),
	)
}

// AirFace returns the plate row in contact with air from a snapshot.
func AirFace(snap sim.Snapshot, l sim.Layout) ([]float64, error) {
	f, err := snap.Fields(l)
	if err != nil {
		return nil, err
	}
	return f.Plate.Column(l.PlateNy - 1), nil
}

// Summary is the end-of-run report with temperatures in °C.
func Summary(cfg *config.Config, result *sim.Result) string {
	var s strings.Builder
	s.WriteString(Title.Render(fmt.Sprintf("heat sink: %s", cfg.Solid.Name)) + "\n")
	s.WriteString(Separator(48) + "\n")

	s.WriteString(stat("Status", result.Status.String()))
	if result.Converged {
		s.WriteString(stat("Converged at", fmt.Sprintf("%.3f s", result.ConvergedAt)))
	}
	s.WriteString(stat("Steps", fmt.Sprintf("%d × %d fin sub-steps", result.StepsTaken, result.Plan.SubSteps)))
	s.WriteString(stat("Plate dt", fmt.Sprintf("%.3e s", result.Plan.PlateDt)))
	s.WriteString(stat("Fin dt", fmt.Sprintf("%.3e s", result.Plan.FinDt)))

	if final, ok := result.Final(); ok {
		if f, err := final.Fields(result.Layout); err == nil {
			n := f.Fluid.Len()
			s.WriteString(stat("Outlet", fmt.Sprintf("%.2f °C", f.Fluid.At(n-1)-kelvin)))
			s.WriteString(stat("Plate mean", fmt.Sprintf("%.2f °C", f.Plate.Mean()-kelvin)))
			s.WriteString(stat("Plate max", fmt.Sprintf("%.2f °C", f.Plate.Max()-kelvin)))
			for k, fin := range f.Fins {
				s.WriteString(stat(fmt.Sprintf("Fin %d mean", k+1), fmt.Sprintf("%.2f °C", fin.Mean()-kelvin)))
			}
			s.WriteString(stat("Heat dissipated", fmt.Sprintf("%.2f W", cfg.HeatDissipated(f.Fluid.At(n-1)))))
		}
	}
	if n := len(result.Energy); n > 0 {
		s.WriteString(stat("Energy residual", fmt.Sprintf("%.1f %%", 100*result.Energy[n-1].Residual)))
	}
	if n := len(result.Diagnostics); n > 0 {
		s.WriteString(Warning.Render(fmt.Sprintf("%d diagnostics, last: %s", n, result.Diagnostics[n-1].Message)) + "\n")
	}
	return s.String()
}
