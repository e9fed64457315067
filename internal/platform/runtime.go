package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// HookTable is the action/filter registration surface.
type HookTable interface {
	AddFilter(hook string, cb Callback, priority, acceptedArgs int) Handle
	RemoveFilter(hook string, cb Callback, priority int) bool
	RemoveHandle(h Handle) bool
	HasFilter(hook string) bool
	DoAction(ctx context.Context, hook string, args ...any)
	ApplyFilters(ctx context.Context, hook string, value any, args ...any) any
}

// Environment answers request-scoped questions for hook guards.
type Environment interface {
	IsAdmin(ctx context.Context) bool
	CurrentUserCan(ctx context.Context, capability string) bool
	// CurrentScreen returns the admin screen id, ok=false when there is none.
	CurrentScreen(ctx context.Context) (string, bool)
	// QueryParam returns a raw request query parameter.
	QueryParam(ctx context.Context, name string) (string, bool)
}

// Host is what the hooks registrar needs from the runtime.
type Host interface {
	HookTable
	Environment
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithSiteURL sets the base URL used by AdminURL.
func WithSiteURL(u string) Option {
	return func(r *Runtime) { r.siteURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the runtime logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runtime is the in-process host runtime.
type Runtime struct {
	hooks   *table
	roles   *roles
	options *options
	plugins *plugins
	globals *globals
	logger  *zap.Logger
	siteURL string

	pagesMu sync.RWMutex
	pages   []OptionsPage
}

// NewRuntime creates a runtime with the stock roles and core functions.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		hooks:   newTable(),
		roles:   defaultRoles(),
		options: newOptions(),
		plugins: newPlugins(),
		globals: newGlobals(),
		logger:  zap.NewNop(),
		siteURL: "http://localhost:9090",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Host = (*Runtime)(nil)

// Hooks

// AddFilter registers cb on hook.
func (r *Runtime) AddFilter(hook string, cb Callback, priority, acceptedArgs int) Handle {
	return r.hooks.add(hook, cb, priority, acceptedArgs)
}

// AddAction registers cb on hook. Actions and filters share one table.
func (r *Runtime) AddAction(hook string, cb Callback, priority, acceptedArgs int) Handle {
	return r.hooks.add(hook, cb, priority, acceptedArgs)
}

// RemoveFilter removes registrations of cb on hook at priority.
func (r *Runtime) RemoveFilter(hook string, cb Callback, priority int) bool {
	return r.hooks.remove(hook, cb, priority) > 0
}

// RemoveHandle removes the single registration h. Unknown handles are a
// no-op.
func (r *Runtime) RemoveHandle(h Handle) bool {
	return r.hooks.removeHandle(h)
}

// HasFilter reports whether any callback is registered on hook.
func (r *Runtime) HasFilter(hook string) bool {
	return r.hooks.has(hook)
}

// CountFilters returns the number of registrations on hook.
func (r *Runtime) CountFilters(hook string) int {
	return r.hooks.count(hook)
}

// DoAction runs every callback on hook for side effects.
func (r *Runtime) DoAction(ctx context.Context, hook string, args ...any) {
	r.hooks.doAction(ctx, hook, args...)
}

// ApplyFilters threads value through every callback on hook.
func (r *Runtime) ApplyFilters(ctx context.Context, hook string, value any, args ...any) any {
	return r.hooks.applyFilters(ctx, hook, value, args...)
}

// DidAction returns how many times hook has fired as an action.
func (r *Runtime) DidAction(hook string) int {
	return r.hooks.didAction(hook)
}

// Environment

// IsAdmin reports whether the request targets the back office.
func (r *Runtime) IsAdmin(ctx context.Context) bool {
	req := RequestFromContext(ctx)
	return req != nil && req.Admin
}

// CurrentUser returns the request user, or nil.
func (r *Runtime) CurrentUser(ctx context.Context) *User {
	if req := RequestFromContext(ctx); req != nil {
		return req.User
	}
	return nil
}

// CurrentUserCan checks capability for the request user.
func (r *Runtime) CurrentUserCan(ctx context.Context, capability string) bool {
	return r.roles.userCan(r.CurrentUser(ctx), capability)
}

// CurrentScreen returns the admin screen id for the request.
func (r *Runtime) CurrentScreen(ctx context.Context) (string, bool) {
	req := RequestFromContext(ctx)
	if req == nil || !req.Admin || req.Screen == "" {
		return "", false
	}
	return req.Screen, true
}

// QueryParam returns the first value of a query parameter.
func (r *Runtime) QueryParam(ctx context.Context, name string) (string, bool) {
	req := RequestFromContext(ctx)
	if req == nil || req.Query == nil {
		return "", false
	}
	vals, ok := req.Query[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Roles

// Role returns the role for slug, or nil.
func (r *Runtime) Role(slug string) *Role {
	return r.roles.get(slug)
}

// AddRole creates a role, returning the existing one if slug is taken.
func (r *Runtime) AddRole(slug, name string, caps ...string) *Role {
	return r.roles.add(slug, name, caps)
}

// RemoveRole deletes a role.
func (r *Runtime) RemoveRole(slug string) bool {
	return r.roles.remove(slug)
}

// RoleNames maps role slug to display name.
func (r *Runtime) RoleNames() map[string]string {
	return r.roles.names()
}

// Options

// Option returns a stored option.
func (r *Runtime) Option(name string) (any, bool) {
	return r.options.get(name)
}

// UpdateOption stores an option.
func (r *Runtime) UpdateOption(name string, value any) {
	r.options.set(name, value)
}

// DeleteOption removes an option.
func (r *Runtime) DeleteOption(name string) bool {
	return r.options.delete(name)
}

// Plugins

// InstallPlugin adds p to the installed plugin list.
func (r *Runtime) InstallPlugin(p Plugin) {
	r.plugins.install(p)
}

// Plugins returns the installed plugins keyed by file.
func (r *Runtime) Plugins() map[string]Plugin {
	return r.plugins.all()
}

// Plugin returns one installed plugin.
func (r *Runtime) Plugin(file string) (Plugin, bool) {
	return r.plugins.get(file)
}

// ActivatePlugin fires activate_{file} and marks the plugin active. A
// callback on the activation hook may deactivate the plugin or abort the
// request; in the latter case the plugin is never marked active.
func (r *Runtime) ActivatePlugin(ctx context.Context, file string) error {
	if _, ok := r.plugins.get(file); !ok {
		return fmt.Errorf("plugin %s is not installed", file)
	}
	r.hooks.doAction(ctx, "activate_plugin", file)
	r.hooks.doAction(ctx, "activate_"+file)
	r.plugins.setActive(file, true)
	r.hooks.doAction(ctx, "activated_plugin", file)
	r.logger.Debug("plugin activated", zap.String("plugin", file))
	return nil
}

// DeactivatePlugins marks each file inactive.
func (r *Runtime) DeactivatePlugins(files ...string) {
	for _, f := range files {
		if r.plugins.setActive(f, false) {
			r.logger.Debug("plugin deactivated", zap.String("plugin", f))
		}
	}
}

// Globals

// ClassExists reports whether a class has been loaded.
func (r *Runtime) ClassExists(name string) bool {
	return r.globals.classExists(name)
}

// FunctionExists reports whether a global function is available.
func (r *Runtime) FunctionExists(name string) bool {
	return r.globals.functionExists(name)
}

// DefineClass marks a class as loaded.
func (r *Runtime) DefineClass(name string) {
	r.globals.defineClass(name)
}

// DefineFunction marks a global function as available.
func (r *Runtime) DefineFunction(name string) {
	r.globals.defineFunction(name)
}

// Include loads a plugin file once, defining what it declares.
func (r *Runtime) Include(path string) (IncludeResult, error) {
	res, err := r.globals.include(path)
	if err != nil {
		return res, err
	}
	if !res.Cached {
		r.logger.Debug("file included",
			zap.String("path", res.Path),
			zap.Strings("classes", res.Classes),
			zap.Int("functions", len(res.Functions)))
	}
	return res, nil
}

// Options pages

// AddOptionsPage registers a top-level options page.
func (r *Runtime) AddOptionsPage(page OptionsPage) {
	r.pagesMu.Lock()
	r.pages = append(r.pages, page)
	r.pagesMu.Unlock()
}

// AddOptionsSubPage registers an options page under page.ParentSlug().
func (r *Runtime) AddOptionsSubPage(page OptionsPage) {
	if page.ParentSlug() == "" {
		page = copyPage(page)
		page["parent_slug"] = "acf-options"
	}
	r.AddOptionsPage(page)
}

// OptionsPages returns registered options pages in registration order.
func (r *Runtime) OptionsPages() []OptionsPage {
	r.pagesMu.RLock()
	defer r.pagesMu.RUnlock()
	out := make([]OptionsPage, len(r.pages))
	copy(out, r.pages)
	return out
}

// URLs

// AdminURL returns the back-office URL for path.
func (r *Runtime) AdminURL(path string) string {
	return r.siteURL + "/wp-admin/" + strings.TrimLeft(path, "/")
}

func copyPage(p OptionsPage) OptionsPage {
	out := make(OptionsPage, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
