package monitor

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "http://localhost:9090"

func TestNewModel(t *testing.T) {
	model := NewModel(testURL, 5*time.Second)
	assert.Equal(t, testURL, model.url)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.NotNil(t, model.client)
	assert.False(t, model.quitting)
}

func TestModel_Init(t *testing.T) {
	assert.NotNil(t, NewModel(testURL, time.Second).Init())
}

func TestModel_Update_Keys(t *testing.T) {
	model := NewModel(testURL, time.Second)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.False(t, updated.(Model).quitting)
	assert.NotNil(t, cmd, "refresh polls")

	updated, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, updated.(Model).quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, updated.View())
}

func TestModel_Update_TickMsg(t *testing.T) {
	updated, cmd := NewModel(testURL, time.Second).Update(tickMsg(time.Now()))
	assert.False(t, updated.(Model).quitting)
	assert.NotNil(t, cmd)
}

func TestModel_Update_SnapshotMsg(t *testing.T) {
	model := NewModel(testURL, time.Second)
	start := time.Now()

	updated, _ := model.Update(snapshotMsg(Snapshot{Booted: true, Dispatches: 100, Latency: 0.002, MemoryMB: 30, Taken: start}))
	m := updated.(Model)
	assert.Zero(t, m.dispatchRate, "first poll has no rate")
	assert.Len(t, m.rateHistory, 1)

	updated, _ = m.Update(snapshotMsg(Snapshot{Booted: true, Dispatches: 160, Latency: 0.004, MemoryMB: 32, Taken: start.Add(30 * time.Second)}))
	m = updated.(Model)
	assert.InDelta(t, 120.0, m.dispatchRate, 0.001)
	assert.Equal(t, 120.0, m.ratePeak)
	assert.Equal(t, []float64{2, 4}, m.latencyHistory)
	assert.Equal(t, start.Add(30*time.Second), m.lastUpdate)
	assert.NoError(t, m.err)
}

func TestModel_Update_ErrMsg(t *testing.T) {
	updated, _ := NewModel(testURL, time.Second).Update(errMsg(errors.New("connection refused")))
	m := updated.(Model)
	require.Error(t, m.err)

	view := m.View()
	assert.Contains(t, view, "Cannot reach rooty")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, testURL)
}

func TestModel_View(t *testing.T) {
	updated, _ := NewModel(testURL, time.Second).Update(snapshotMsg(Snapshot{
		Booted:        true,
		Actions:       4,
		Filters:       7,
		Hooks:         9,
		ServicesFound: 3,
		ServicesTotal: 3,
		Goroutines:    12,
		Uptime:        8100,
		Taken:         time.Now(),
	}))

	view := updated.View()
	assert.Contains(t, view, "rooty Monitor")
	assert.Contains(t, view, "HEALTHY")
	assert.Contains(t, view, "4 actions, 7 filters")
	assert.Contains(t, view, "3 / 3")
	assert.Contains(t, view, "2h 15m")
}

func TestStatusBadge(t *testing.T) {
	assert.Contains(t, statusBadge(Snapshot{}), "STARTING")
	assert.Contains(t, statusBadge(Snapshot{Booted: true, Degraded: true}), "DEGRADED")
	assert.Contains(t, statusBadge(Snapshot{Booted: true, Latency: 0.6}), "SLOW")
	assert.Contains(t, statusBadge(Snapshot{Booted: true, Latency: 0.01}), "HEALTHY")
}

func TestDispatchRate_CounterReset(t *testing.T) {
	now := time.Now()
	prev := Snapshot{Dispatches: 500, Taken: now}
	cur := Snapshot{Dispatches: 10, Taken: now.Add(time.Minute)}
	assert.Zero(t, dispatchRate(prev, cur))
}

func TestAppendToHistory(t *testing.T) {
	var h []float64
	for i := 0; i < historySize+5; i++ {
		h = appendToHistory(h, float64(i))
	}
	assert.Len(t, h, historySize)
	assert.Equal(t, float64(5), h[0])
}
