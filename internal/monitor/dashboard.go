package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Snapshot is one poll of a rooty server.
type Snapshot struct {
	Status   string
	Booted   bool
	Degraded bool
	// Latency of the health probe in seconds.
	Latency float64

	Actions int
	Filters int
	Hooks   int

	ServicesFound int
	ServicesTotal int

	// Dispatches and Lookups are counter totals since server start.
	Dispatches float64
	Lookups    float64

	Goroutines int
	MemoryMB   float64
	Uptime     int64
	Taken      time.Time
}

// Model is the BubbleTea dashboard model.
type Model struct {
	url        string
	interval   time.Duration
	client     *Client
	lastUpdate time.Time
	current    Snapshot
	err        error
	quitting   bool

	// dispatchRate is hook dispatches per minute between the last two polls.
	dispatchRate float64
	ratePeak     float64
	memoryMax    float64

	rateHistory    []float64
	latencyHistory []float64
	memoryHistory  []float64

	memoryProgress progress.Model
	rateProgress   progress.Model
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a dashboard polling the server at url every interval.
func NewModel(url string, interval time.Duration) Model {
	return Model{
		url:      url,
		interval: interval,
		client:   NewClient(url),
		memoryProgress: progress.New(
			progress.WithGradient("#00ff00", "#ffff00"),
			progress.WithWidth(40),
		),
		rateProgress: progress.New(
			progress.WithGradient("#00ffff", "#ff00ff"),
			progress.WithWidth(40),
		),
		rateHistory:    make([]float64, 0, historySize),
		latencyHistory: make([]float64, 0, historySize),
		memoryHistory:  make([]float64, 0, historySize),
		ratePeak:       1.0,   // avoids division by zero
		memoryMax:      512.0, // MB
	}
}

// statusBadge summarizes the server state.
func statusBadge(s Snapshot) string {
	switch {
	case !s.Booted:
		return warningStyle.Render("⚠ STARTING")
	case s.Degraded:
		return warningStyle.Render("⚠ DEGRADED")
	case s.Latency*1000 >= 500:
		return errorStyle.Render("✗ SLOW")
	}
	return healthyStyle.Render("✓ HEALTHY")
}

// latencyBadge returns a colored badge for a probe latency.
func latencyBadge(latencyMS float64) string {
	if latencyMS < 100 {
		return healthyStyle.Render("[✓]")
	} else if latencyMS < 500 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

func servicesBadge(found, total int) string {
	if total > 0 && found == total {
		return healthyStyle.Render("[✓]")
	}
	return errorStyle.Render("[✗]")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()
	return sparklineStyle.Render(spark.View())
}

type tickMsg time.Time
type snapshotMsg Snapshot
type errMsg error

// Init starts auto-refresh and the first poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		poll(m.client),
	)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func poll(c *Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s, err := c.Snapshot(ctx)
		if err != nil {
			return errMsg(err)
		}
		return snapshotMsg(s)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, poll(m.client)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			poll(m.client),
		)

	case snapshotMsg:
		s := Snapshot(msg)
		m.dispatchRate = dispatchRate(m.current, s)
		if m.dispatchRate > m.ratePeak {
			m.ratePeak = m.dispatchRate
		}
		if s.MemoryMB > m.memoryMax {
			m.memoryMax = s.MemoryMB
		}
		m.rateHistory = appendToHistory(m.rateHistory, m.dispatchRate)
		m.latencyHistory = appendToHistory(m.latencyHistory, s.Latency*1000)
		m.memoryHistory = appendToHistory(m.memoryHistory, s.MemoryMB)

		m.current = s
		m.lastUpdate = s.Taken
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// dispatchRate is the per-minute rate between two polls. A counter reset
// (server restart) or the first poll yields zero.
func dispatchRate(prev, cur Snapshot) float64 {
	if prev.Taken.IsZero() || cur.Dispatches < prev.Dispatches {
		return 0
	}
	elapsed := cur.Taken.Sub(prev.Taken).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return (cur.Dispatches - prev.Dispatches) / elapsed
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	return m.renderDashboard()
}

func (m Model) renderError() string {
	header := headerStyle.Render("rooty Monitor")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot reach rooty") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.url) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Start the server with: rooty serve") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

func (m Model) renderDashboard() string {
	var content string
	s := m.current

	lastUpdate := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdate = m.lastUpdate.Format("3:04:05 PM")
	}
	latencyMS := s.Latency * 1000

	content += headerStyle.Render(" rooty Monitor ") + "\n"
	content += fmt.Sprintf("%s   %s   %s   %s",
		statusBadge(s),
		dimStyle.Render("Uptime:"),
		valueStyle.Render(FormatUptime(s.Uptime)),
		dimStyle.Render(lastUpdate)) + "\n"

	content += "\n" + sectionStyle.Render("┃ Hooks") + "\n"
	content += labelStyle.Render("  Registered: ") +
		valueStyle.Render(fmt.Sprintf("%d actions, %d filters", s.Actions, s.Filters)) +
		dimStyle.Render(fmt.Sprintf(" on %d hooks", s.Hooks)) + "\n"
	content += labelStyle.Render("  Dispatch: ") +
		valueStyle.Render(FormatRate(m.dispatchRate)) +
		"   " + createSparkline(m.rateHistory) + "\n"

	ratePercent := 0.0
	if m.ratePeak > 0 {
		ratePercent = clamp(m.dispatchRate / m.ratePeak)
	}
	content += labelStyle.Render("  Load: ") +
		m.rateProgress.ViewAs(ratePercent) +
		" " + dimStyle.Render(FormatPercentage(ratePercent)) + "\n"

	content += "\n" + sectionStyle.Render("┃ Services") + "\n"
	content += labelStyle.Render("  Resolved: ") +
		valueStyle.Render(fmt.Sprintf("%d / %d", s.ServicesFound, s.ServicesTotal)) +
		" " + servicesBadge(s.ServicesFound, s.ServicesTotal) + "\n"
	content += labelStyle.Render("  Lookups: ") +
		valueStyle.Render(fmt.Sprintf("%.0f", s.Lookups)) + "\n"

	content += "\n" + sectionStyle.Render("┃ HTTP") + "\n"
	content += labelStyle.Render("  Health probe: ") +
		valueStyle.Render(FormatLatency(s.Latency)) +
		" " + latencyBadge(latencyMS) +
		"   " + createSparkline(m.latencyHistory) + "\n"

	content += "\n" + sectionStyle.Render("┃ System") + "\n"
	memoryPercent := 0.0
	if m.memoryMax > 0 {
		memoryPercent = clamp(s.MemoryMB / m.memoryMax)
	}
	content += labelStyle.Render("  Memory: ") +
		m.memoryProgress.ViewAs(memoryPercent) +
		" " + dimStyle.Render(FormatMemory(s.MemoryMB)) + "\n"
	content += labelStyle.Render("  Goroutines: ") +
		valueStyle.Render(fmt.Sprintf("%d", s.Goroutines)) + "\n"

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))
	content += "\n" + footer

	return containerStyle.Render(content)
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
