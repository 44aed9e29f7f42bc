package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/heatsim/internal/sim"
)

const (
	historyCapacity = 600
	kelvin          = 273.15
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Feed carries progress from the simulation goroutine to the UI. It is a
// sim.Observer that never blocks: when the buffer is full the report is
// dropped, since the next one supersedes it.
type Feed struct {
	ch chan sim.Progress
}

func NewFeed(buffer int) *Feed {
	return &Feed{ch: make(chan sim.Progress, buffer)}
}

func (f *Feed) OnProgress(p sim.Progress) {
	select {
	case f.ch <- p:
	default:
	}
}

// C is the receive side of the feed.
func (f *Feed) C() <-chan sim.Progress { return f.ch }

type TickMsg time.Time

type ProgressMsg sim.Progress

// DoneMsg is sent once the run returns.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Model is the live run view.
type Model struct {
	title     string
	feed      *Feed
	cancel    context.CancelFunc
	last      sim.Progress
	rates     []float64
	temps     [3][]float64
	showTemps bool
	frame     int
	started   time.Time
	finished  *DoneMsg
}

// NewModel watches feed until a DoneMsg arrives. cancel is called when the
// user quits early.
func NewModel(title string, feed *Feed, cancel context.CancelFunc) Model {
	return Model{
		title:   title,
		feed:    feed,
		cancel:  cancel,
		rates:   make([]float64, 0, historyCapacity),
		started: time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		return ProgressMsg(<-m.feed.C())
	}
}

// Watch shows the live view while run executes in the background and returns
// the outcome of run. Quitting the view cancels the context passed to run and
// waits for it to return, so the partial result is never lost.
func Watch(ctx context.Context, title string, feed *Feed, run func(context.Context) (*sim.Result, error), opts ...tea.ProgramOption) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewModel(title, feed, cancel), opts...)
	// outcome has exactly one reader; the program gets its own copy via Send.
	outcome := make(chan DoneMsg, 1)
	go func() {
		res, err := run(ctx)
		d := DoneMsg{Result: res, Err: err}
		outcome <- d
		prog.Send(d)
	}()

	_, uiErr := prog.Run()
	cancel()
	d := <-outcome
	if uiErr != nil && d.Err == nil {
		return d.Result, uiErr
	}
	return d.Result, d.Err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForProgress())
}

func push(xs []float64, v float64) []float64 {
	if len(xs) == historyCapacity {
		copy(xs, xs[1:])
		xs = xs[:len(xs)-1]
	}
	return append(xs, v)
}

// Update handles key presses, progress reports and the final outcome.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "p":
			m.showTemps = !m.showTemps
		}
	case TickMsg:
		m.frame++
		if m.finished != nil {
			return m, nil
		}
		return m, tick()
	case ProgressMsg:
		p := sim.Progress(msg)
		m.last = p
		if p.MaxRate > 0 {
			m.rates = push(m.rates, math.Log10(p.MaxRate))
		}
		m.temps[0] = push(m.temps[0], p.FluidMean-kelvin)
		m.temps[1] = push(m.temps[1], p.PlateMean-kelvin)
		m.temps[2] = push(m.temps[2], p.FinMean-kelvin)
		return m, m.waitForProgress()
	case DoneMsg:
		m.finished = &msg
		return m, tea.Quit
	}
	return m, nil
}

// Outcome reports how the run ended. ok is false if the view quit first.
func (m Model) Outcome() (d DoneMsg, ok bool) {
	if m.finished == nil {
		return DoneMsg{}, false
	}
	return *m.finished, true
}

func statusStyle(s sim.Status) lipgloss.Style {
	switch s {
	case sim.Converged:
		return StatusConverged
	case sim.TimedOut:
		return StatusTimedOut
	default:
		return StatusRunning
	}
}

func stat(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value) + "\n"
}

// View renders the TUI interface.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	status := m.last.Status
	if m.finished == nil && !status.Terminal() {
		s.WriteString(Spinner(m.frame) + " ")
	}
	s.WriteString(statusStyle(status).Render(status.String()) + "\n\n")
	s.WriteString(ProgressBar(m.last.Percent, 40) + fmt.Sprintf(" %5.1f%%\n\n", m.last.Percent))

	s.WriteString(stat("Sim time", fmt.Sprintf("%.3f s", m.last.Time)))
	s.WriteString(stat("Step", fmt.Sprintf("%d", m.last.Step)))
	s.WriteString(stat("Max |dT/dt|", fmt.Sprintf("%.3e K/s", m.last.MaxRate)))
	s.WriteString(stat("Fluid", fmt.Sprintf("%.2f °C", m.last.FluidMean-kelvin)))
	s.WriteString(stat("Plate", fmt.Sprintf("%.2f °C", m.last.PlateMean-kelvin)))
	s.WriteString(stat("Fins", fmt.Sprintf("%.2f °C", m.last.FinMean-kelvin)))
	s.WriteString(stat("Wall clock", time.Since(m.started).Truncate(time.Second).String()))

	if m.showTemps && len(m.temps[0]) > 1 {
		chart := asciigraph.PlotMany(m.temps[:],
			asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red, asciigraph.Green),
			asciigraph.Caption("mean °C: fluid / plate / fins"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	} else if len(m.rates) > 1 {
		chart := asciigraph.Plot(m.rates, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("log10 max |dT/dt|"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.finished != nil && m.finished.Err != nil {
		s.WriteString(Warning.Render("error: "+m.finished.Err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("q quit · p toggle plot"))
	return s.String()
}
