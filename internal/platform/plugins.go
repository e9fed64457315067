package platform

import (
	"sort"
	"sync"
)

// Plugin is an installed plugin, keyed by its file path relative to the
// plugins directory (e.g. "advanced-custom-fields/acf.php").
type Plugin struct {
	File    string `json:"file"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Active  bool   `json:"active"`
}

type plugins struct {
	mu     sync.RWMutex
	byFile map[string]*Plugin
}

func newPlugins() *plugins {
	return &plugins{byFile: make(map[string]*Plugin)}
}

func (ps *plugins) install(p Plugin) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	cp := p
	ps.byFile[p.File] = &cp
}

func (ps *plugins) get(file string) (Plugin, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.byFile[file]
	if !ok {
		return Plugin{}, false
	}
	return *p, true
}

func (ps *plugins) setActive(file string, active bool) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.byFile[file]
	if !ok {
		return false
	}
	p.Active = active
	return true
}

// all returns a copy keyed by file.
func (ps *plugins) all() map[string]Plugin {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make(map[string]Plugin, len(ps.byFile))
	for f, p := range ps.byFile {
		out[f] = *p
	}
	return out
}

// SortedPluginFiles returns the keys of m in lexical order.
func SortedPluginFiles(m map[string]Plugin) []string {
	files := make([]string, 0, len(m))
	for f := range m {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
