package http

import (
	"sort"

	"github.com/fyrsmithlabs/rooty/internal/hooks"
)

// HookCounts summarizes registrations recorded by the registrar.
type HookCounts struct {
	Actions int            `json:"actions"`
	Filters int            `json:"filters"`
	ByHook  map[string]int `json:"by_hook"`
}

// CountRecords tallies records per kind and per hook.
func CountRecords(records []hooks.Record) HookCounts {
	counts := HookCounts{ByHook: make(map[string]int)}
	for _, r := range records {
		switch r.Kind {
		case hooks.KindAction:
			counts.Actions++
		case hooks.KindFilter:
			counts.Filters++
		}
		counts.ByHook[r.Hook]++
	}
	return counts
}

// filterRecords keeps records registered on hook, or all of them when hook
// is empty. Records stay in registration order unless sorted by priority.
func filterRecords(records []hooks.Record, hook string, byPriority bool) []hooks.Record {
	out := make([]hooks.Record, 0, len(records))
	for _, r := range records {
		if hook == "" || r.Hook == hook {
			out = append(out, r)
		}
	}
	if byPriority {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	}
	return out
}
