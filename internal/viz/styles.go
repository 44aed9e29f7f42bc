package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel           = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(1, 2)
	Title           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff8844"))
	Subtle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	StatusRunning   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	StatusConverged = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusTimedOut  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	MetricValue     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	MetricLabel     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(16)
	Warning         = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	KeyHint         = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)

	// Bar colours run from cold to hot.
	BarCold = lipgloss.NewStyle().Foreground(lipgloss.Color("#4488ff"))
	BarWarm = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	BarHot  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Spinner returns one frame of a braille spinner.
func Spinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[frame%len(frames)]
}

// ProgressBar renders percent (0-100) as a bar of the given width.
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if percent > 80 {
		return BarHot.Render(bar)
	} else if percent > 40 {
		return BarWarm.Render(bar)
	}
	return BarCold.Render(bar)
}

// Sparkline renders values as a single line of block characters, coloured by
// magnitude.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(BarHot.Render(c))
		case norm > 0.3:
			b.WriteString(BarWarm.Render(c))
		default:
			b.WriteString(BarCold.Render(c))
		}
	}
	return b.String()
}

// Separator draws a thin rule.
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
