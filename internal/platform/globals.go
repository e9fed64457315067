package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var (
	classDecl    = regexp.MustCompile(`(?m)^\s*(?:(?:final|abstract|readonly)\s+)*class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	functionDecl = regexp.MustCompile(`(?m)^\s*function\s+&?\s*([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// coreFunctions is the function surface the runtime itself provides.
var coreFunctions = []string{
	"add_action", "add_filter", "remove_action", "remove_filter",
	"do_action", "apply_filters", "has_filter", "did_action",
	"is_admin", "current_user_can", "get_current_screen",
	"get_option", "update_option", "delete_option",
	"get_role", "wp_roles", "deactivate_plugins", "admin_url",
	"sanitize_text_field", "sanitize_html_class",
}

// globals tracks the classes and functions loaded into the runtime.
type globals struct {
	mu        sync.RWMutex
	classes   map[string]bool
	functions map[string]bool
	included  map[string]bool
}

func newGlobals() *globals {
	g := &globals{
		classes:   make(map[string]bool),
		functions: make(map[string]bool),
		included:  make(map[string]bool),
	}
	for _, fn := range coreFunctions {
		g.functions[fn] = true
	}
	return g
}

// Class names are case-insensitive on the platform, function names too.
func (g *globals) classExists(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.classes[strings.ToLower(name)]
}

func (g *globals) functionExists(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.functions[strings.ToLower(name)]
}

func (g *globals) defineClass(name string) {
	g.mu.Lock()
	g.classes[strings.ToLower(name)] = true
	g.mu.Unlock()
}

func (g *globals) defineFunction(name string) {
	g.mu.Lock()
	g.functions[strings.ToLower(name)] = true
	g.mu.Unlock()
}

// IncludeResult lists what an included file declared.
type IncludeResult struct {
	Path      string
	Classes   []string
	Functions []string
	// Cached is true when the file had already been included.
	Cached bool
}

// include loads path once and defines every class and function it
// declares.
func (g *globals) include(path string) (IncludeResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return IncludeResult{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	g.mu.RLock()
	seen := g.included[abs]
	g.mu.RUnlock()
	if seen {
		return IncludeResult{Path: abs, Cached: true}, nil
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return IncludeResult{}, fmt.Errorf("failed to include %s: %w", abs, err)
	}

	res := IncludeResult{Path: abs}
	for _, m := range classDecl.FindAllSubmatch(src, -1) {
		res.Classes = append(res.Classes, string(m[1]))
	}
	for _, m := range functionDecl.FindAllSubmatch(src, -1) {
		res.Functions = append(res.Functions, string(m[1]))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.included[abs] = true
	for _, c := range res.Classes {
		g.classes[strings.ToLower(c)] = true
	}
	for _, f := range res.Functions {
		g.functions[strings.ToLower(f)] = true
	}
	return res, nil
}
