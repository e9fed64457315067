package platform

import (
	"context"
	"sort"
	"sync"
)

// entry is one registration in the hook table.
type entry struct {
	handle       Handle
	callback     Callback
	priority     int
	acceptedArgs int
	seq          uint64
}

// table stores actions and filters in a single namespace, as the platform
// does: an action is a filter whose return value nobody reads.
type table struct {
	mu    sync.RWMutex
	hooks map[string][]*entry
	byID  map[uint64]string
	seq   uint64
	fired map[string]int
}

func newTable() *table {
	return &table{
		hooks: make(map[string][]*entry),
		byID:  make(map[uint64]string),
		fired: make(map[string]int),
	}
}

// add registers cb on hook. Registering the same callback twice yields two
// entries; the table does not deduplicate.
func (t *table) add(hook string, cb Callback, priority, acceptedArgs int) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	e := &entry{
		handle:       Handle{id: t.seq},
		callback:     cb,
		priority:     priority,
		acceptedArgs: acceptedArgs,
		seq:          t.seq,
	}
	t.hooks[hook] = append(t.hooks[hook], e)
	t.byID[e.handle.id] = hook
	return e.handle
}

// remove drops every entry on hook at priority whose callback identity
// matches cb. Returns the number removed.
func (t *table) remove(hook string, cb Callback, priority int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.hooks[hook]
	kept := entries[:0]
	removed := 0
	for _, e := range entries {
		if e.priority == priority && e.callback.id == cb.id {
			delete(t.byID, e.handle.id)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	t.store(hook, kept)
	return removed
}

func (t *table) removeHandle(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	hook, ok := t.byID[h.id]
	if !ok {
		return false
	}
	delete(t.byID, h.id)

	entries := t.hooks[hook]
	kept := entries[:0]
	for _, e := range entries {
		if e.handle != h {
			kept = append(kept, e)
		}
	}
	t.store(hook, kept)
	return true
}

// store replaces the entry slice, dropping the key when empty.
func (t *table) store(hook string, entries []*entry) {
	if len(entries) == 0 {
		delete(t.hooks, hook)
		return
	}
	t.hooks[hook] = entries
}

func (t *table) has(hook string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.hooks[hook]) > 0
}

func (t *table) count(hook string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.hooks[hook])
}

// snapshot returns the entries for hook sorted by priority, ties broken by
// registration order.
func (t *table) snapshot(hook string) []*entry {
	t.mu.RLock()
	entries := make([]*entry, len(t.hooks[hook]))
	copy(entries, t.hooks[hook])
	t.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	return entries
}

func (t *table) markFired(hook string) {
	t.mu.Lock()
	t.fired[hook]++
	t.mu.Unlock()
}

// doAction runs every callback on hook in priority order.
func (t *table) doAction(ctx context.Context, hook string, args ...any) {
	t.markFired(hook)

	for _, e := range t.snapshot(hook) {
		e.callback.Call(ctx, acceptArgs(args, e.acceptedArgs)...)
	}
}

// applyFilters threads value through every callback on hook.
func (t *table) applyFilters(ctx context.Context, hook string, value any, args ...any) any {
	for _, e := range t.snapshot(hook) {
		full := make([]any, 0, len(args)+1)
		full = append(full, value)
		full = append(full, args...)
		value = e.callback.Call(ctx, acceptArgs(full, e.acceptedArgs)...)
	}
	return value
}

func (t *table) didAction(hook string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fired[hook]
}

// acceptArgs truncates args to the number a callback accepts. A negative
// count passes everything through.
func acceptArgs(args []any, accepted int) []any {
	if accepted < 0 || accepted >= len(args) {
		return args
	}
	return args[:accepted]
}
