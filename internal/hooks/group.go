package hooks

import (
	"sync"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

// Group holds the handles registered during one Group call.
type Group struct {
	mu      sync.Mutex
	host    platform.HookTable
	parent  *Group
	handles []platform.Handle
}

func (g *Group) add(h platform.Handle) {
	g.mu.Lock()
	g.handles = append(g.handles, h)
	g.mu.Unlock()
	if g.parent != nil {
		g.parent.add(h)
	}
}

// Handles returns the registrations made during the batch.
func (g *Group) Handles() []platform.Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]platform.Handle, len(g.handles))
	copy(out, g.handles)
	return out
}

// Undo unregisters every handle in the group and returns how many were
// still registered. Calling it again is safe.
func (g *Group) Undo() int {
	removed := 0
	for _, h := range g.Handles() {
		if g.host.RemoveHandle(h) {
			removed++
		}
	}
	return removed
}

// Group runs fn with a registrar view that records every registration it
// makes. Registrations made before fn ran, or through other views, are not
// part of the group.
func (h *Hooks) Group(fn func(*Hooks)) *Group {
	g := &Group{host: h.host, parent: h.group}
	view := h.clone()
	view.group = g
	fn(view)
	return g
}
