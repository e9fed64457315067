package hooks

import (
	"sync"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

// Kind distinguishes actions from filters.
type Kind string

const (
	KindAction Kind = "action"
	KindFilter Kind = "filter"
)

// Record describes one registration made through a registrar.
type Record struct {
	Kind         Kind            `json:"kind"`
	Hook         string          `json:"hook"`
	Priority     int             `json:"priority"`
	AcceptedArgs int             `json:"accepted_args"`
	CallbackID   string          `json:"callback"`
	Handle       platform.Handle `json:"-"`
}

// ledger is append-only. Records outlive platform-side removal.
type ledger struct {
	mu      sync.Mutex
	records []Record
	once    map[string]struct{}
}

func newLedger() *ledger {
	return &ledger{once: make(map[string]struct{})}
}

func (l *ledger) append(r Record) {
	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()
}

// claim marks key as seen, returning false if it already was.
func (l *ledger) claim(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.once[key]; ok {
		return false
	}
	l.once[key] = struct{}{}
	return true
}

func (l *ledger) snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
