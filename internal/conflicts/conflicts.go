// Package conflicts keeps plugins that rooty already bundles from being
// listed or activated.
package conflicts

import (
	"context"
	"html/template"

	"github.com/fyrsmithlabs/rooty/internal/abort"
	"github.com/fyrsmithlabs/rooty/internal/hooks"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"go.uber.org/zap"
)

const (
	// OptionBlocked stores the reason of the last blocked activation until
	// the next admin notice shows it.
	OptionBlocked = "acf_activation_blocked"

	// ACFPlugin is the stock ACF plugin file.
	ACFPlugin = "advanced-custom-fields/acf.php"

	defaultReason = "This plugin cannot be activated."
)

// Blocked is a plugin that must stay inactive.
type Blocked struct {
	File   string
	Reason string
}

// DefaultBlocked lists the plugins rooty bundles.
func DefaultBlocked() []Blocked {
	return []Blocked{{
		File:   ACFPlugin,
		Reason: "The Advanced Custom Fields plugin cannot be activated because Rooty already bundles it.",
	}}
}

// Platform is the runtime surface the guard uses.
type Platform interface {
	Option(name string) (any, bool)
	UpdateOption(name string, value any)
	DeleteOption(name string) bool
	DeactivatePlugins(files ...string)
	AdminURL(path string) string
}

var noticeTmpl = template.Must(template.New("notice").Parse(
	`<div class="notice notice-{{.Type}}{{if .Dismissible}} is-dismissible{{end}}"><p>{{.Message}}</p></div>` + "\n"))

type notice struct {
	Type        string
	Dismissible bool
	Message     string
}

// Guard is the conflicts service.
type Guard struct {
	hooks   *hooks.Hooks
	rt      Platform
	abort   abort.Manager
	blocked []Blocked
	logger  *zap.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithBlocked replaces the blocked plugin list.
func WithBlocked(blocked ...Blocked) Option {
	return func(g *Guard) { g.blocked = blocked }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates the guard. Hooks are registered on the platform names, never
// under a namespace.
func New(h *hooks.Hooks, rt Platform, am abort.Manager, opts ...Option) *Guard {
	g := &Guard{
		hooks:   h.WithoutNamespace(),
		rt:      rt,
		abort:   am,
		blocked: DefaultBlocked(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Blocked returns the blocked plugin list.
func (g *Guard) Blocked() []Blocked {
	out := make([]Blocked, len(g.blocked))
	copy(out, g.blocked)
	return out
}

func (g *Guard) reason(file string) string {
	for _, b := range g.blocked {
		if b.File == file && b.Reason != "" {
			return b.Reason
		}
	}
	return defaultReason
}

// Boot hides blocked plugins, blocks their activation and shows the notice
// left by a blocked attempt. Booting again registers nothing new.
func (g *Guard) Boot(ctx context.Context) error {
	g.hooks.OnceOn(hooks.KindFilter, "all_plugins", platform.Method(g, "filterPlugins", g.filterPlugins))

	for _, b := range g.blocked {
		file := b.File
		block := platform.Method(g, "blockActivation:"+file, func(ctx context.Context, _ ...any) any {
			g.handleBlockedActivation(ctx, file)
			return nil
		})
		g.hooks.OnceOn(hooks.KindAction, "activate_"+file, block, hooks.AcceptedArgs(0))
	}

	g.hooks.OnceOn(hooks.KindAction, "admin_notices", platform.Method(g, "renderNotice", g.renderNotice), hooks.AcceptedArgs(0))

	g.logger.Debug("conflict guard booted", zap.Int("blocked", len(g.blocked)))
	return nil
}

func (g *Guard) filterPlugins(ctx context.Context, args ...any) any {
	if len(args) == 0 {
		return nil
	}
	plugins, ok := args[0].(map[string]platform.Plugin)
	if !ok {
		return args[0]
	}
	out := make(map[string]platform.Plugin, len(plugins))
	for f, p := range plugins {
		out[f] = p
	}
	for _, b := range g.blocked {
		delete(out, b.File)
	}
	return out
}

func (g *Guard) renderNotice(ctx context.Context, _ ...any) any {
	v, ok := g.rt.Option(OptionBlocked)
	if !ok {
		return nil
	}
	reason, _ := v.(string)
	if reason == "" {
		return nil
	}
	err := noticeTmpl.Execute(platform.Output(ctx), notice{
		Type:        "error",
		Dismissible: true,
		Message:     reason,
	})
	if err != nil {
		g.logger.Warn("failed to render activation notice", zap.Error(err))
	}
	g.rt.DeleteOption(OptionBlocked)
	return nil
}

func (g *Guard) handleBlockedActivation(ctx context.Context, file string) {
	g.rt.DeactivatePlugins(file)
	g.rt.UpdateOption(OptionBlocked, g.reason(file))
	g.logger.Info("blocked plugin activation", zap.String("plugin", file))
	g.abort.Redirect(ctx, g.rt.AdminURL("plugins.php"), 0)
}
