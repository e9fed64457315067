package platform

import "sync"

// options is the site options store.
type options struct {
	mu     sync.RWMutex
	values map[string]any
}

func newOptions() *options {
	return &options{values: make(map[string]any)}
}

func (o *options) get(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[name]
	return v, ok
}

func (o *options) set(name string, value any) {
	o.mu.Lock()
	o.values[name] = value
	o.mu.Unlock()
}

func (o *options) delete(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.values[name]; !ok {
		return false
	}
	delete(o.values, name)
	return true
}

// OptionsPage is the argument map of an options-page registration.
type OptionsPage map[string]any

// Slug returns the menu slug, falling back to the page title.
func (p OptionsPage) Slug() string {
	if s, ok := p["menu_slug"].(string); ok && s != "" {
		return s
	}
	if s, ok := p["page_title"].(string); ok {
		return s
	}
	return ""
}

// ParentSlug returns the parent menu slug for sub-pages.
func (p OptionsPage) ParentSlug() string {
	s, _ := p["parent_slug"].(string)
	return s
}
