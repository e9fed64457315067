package platform

import (
	"sort"
	"sync"
)

// Role is a named set of capabilities.
type Role struct {
	mu   sync.RWMutex
	slug string
	name string
	caps map[string]bool
}

func newRole(slug, name string, caps []string) *Role {
	r := &Role{slug: slug, name: name, caps: make(map[string]bool, len(caps))}
	for _, c := range caps {
		r.caps[c] = true
	}
	return r
}

// Slug returns the role identifier.
func (r *Role) Slug() string { return r.slug }

// Name returns the display name.
func (r *Role) Name() string { return r.name }

// HasCap reports whether the role grants capability.
func (r *Role) HasCap(capability string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caps[capability]
}

// AddCap grants capability.
func (r *Role) AddCap(capability string) {
	r.mu.Lock()
	r.caps[capability] = true
	r.mu.Unlock()
}

// RemoveCap revokes capability.
func (r *Role) RemoveCap(capability string) {
	r.mu.Lock()
	delete(r.caps, capability)
	r.mu.Unlock()
}

// Caps returns the granted capabilities, sorted.
func (r *Role) Caps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps := make([]string, 0, len(r.caps))
	for c, ok := range r.caps {
		if ok {
			caps = append(caps, c)
		}
	}
	sort.Strings(caps)
	return caps
}

// roles is the role registry.
type roles struct {
	mu    sync.RWMutex
	byKey map[string]*Role
}

// defaultRoles mirrors the stock role set a fresh install ships with.
func defaultRoles() *roles {
	rs := &roles{byKey: make(map[string]*Role)}
	rs.add("administrator", "Administrator", []string{
		"manage_options", "activate_plugins", "install_plugins", "edit_plugins",
		"delete_plugins", "edit_users", "list_users", "promote_users",
		"edit_theme_options", "edit_posts", "edit_others_posts", "publish_posts",
		"edit_pages", "publish_pages", "upload_files", "read",
	})
	rs.add("editor", "Editor", []string{
		"edit_posts", "edit_others_posts", "publish_posts", "edit_pages",
		"publish_pages", "upload_files", "read",
	})
	rs.add("author", "Author", []string{"edit_posts", "publish_posts", "upload_files", "read"})
	rs.add("contributor", "Contributor", []string{"edit_posts", "read"})
	rs.add("subscriber", "Subscriber", []string{"read"})
	return rs
}

func (rs *roles) add(slug, name string, caps []string) *Role {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if r, ok := rs.byKey[slug]; ok {
		return r
	}
	r := newRole(slug, name, caps)
	rs.byKey[slug] = r
	return r
}

func (rs *roles) get(slug string) *Role {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.byKey[slug]
}

func (rs *roles) remove(slug string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.byKey[slug]; !ok {
		return false
	}
	delete(rs.byKey, slug)
	return true
}

func (rs *roles) names() map[string]string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[string]string, len(rs.byKey))
	for slug, r := range rs.byKey {
		out[slug] = r.name
	}
	return out
}

// userCan resolves capability for u through per-user grants then roles.
func (rs *roles) userCan(u *User, capability string) bool {
	if u == nil {
		return false
	}
	if granted, ok := u.Caps[capability]; ok {
		return granted
	}
	for _, slug := range u.Roles {
		if r := rs.get(slug); r != nil && r.HasCap(capability) {
			return true
		}
	}
	return false
}
