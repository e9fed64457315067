package acf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/rooty/internal/container"
	"github.com/fyrsmithlabs/rooty/internal/hooks"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"go.uber.org/zap"
)

// Container keys.
const (
	KeyACF      = "acf"
	KeySettings = "acf.settings"
	KeyHelper   = "acf.helper"
	KeyStore    = "acf.store"
)

const (
	// ClassName is the global class the ACF core defines.
	ClassName = "ACF"
	// EntryFileName is the ACF core entry file.
	EntryFileName = "acf.php"
)

// Platform is the runtime surface the provider uses.
type Platform interface {
	ClassExists(name string) bool
	FunctionExists(name string) bool
	Include(path string) (platform.IncludeResult, error)
	PageRegistrar
}

// Config is everything the provider needs, resolved at construction.
type Config struct {
	Settings    Settings
	OptionPages []platform.OptionsPage
	FieldGroups []string
	Assets      Assets
	// Root is the project root the assets paths resolve against.
	Root string
	// Production turns environment warnings into errors.
	Production bool
}

// Provider binds the ACF services and bootstraps the ACF core.
type Provider struct {
	cfg    Config
	rt     Platform
	hooks  *hooks.Hooks
	logger *zap.Logger
	booted bool
}

// NewProvider creates a provider. cfg.Settings is frozen here.
func NewProvider(cfg Config, rt Platform, h *hooks.Hooks, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Settings = cfg.Settings.Clone()
	cfg.OptionPages = append([]platform.OptionsPage(nil), cfg.OptionPages...)
	cfg.FieldGroups = append([]string(nil), cfg.FieldGroups...)
	return &Provider{cfg: cfg, rt: rt, hooks: h.WithoutNamespace(), logger: logger}
}

// Settings returns a copy of the frozen settings.
func (p *Provider) Settings() Settings { return p.cfg.Settings.Clone() }

// Register binds the settings, the field store, the helper and the ACF
// service.
func (p *Provider) Register(c *container.Container) error {
	settings := p.cfg.Settings
	c.Instance(KeySettings, settings.Clone())
	c.Instance(KeyStore, NewStore())

	c.Singleton(KeyHelper, func(r container.Maker) (any, error) {
		store, err := container.Resolve[*Store](r, KeyStore)
		if err != nil {
			return nil, err
		}
		return NewHelper(store, settings, p.rt), nil
	})

	c.Singleton(KeyACF, func(r container.Maker) (any, error) {
		store, err := container.Resolve[*Store](r, KeyStore)
		if err != nil {
			return nil, err
		}
		helper, err := container.Resolve[*Helper](r, KeyHelper)
		if err != nil {
			return nil, err
		}
		return NewService(p.hooks, store, helper, settings, p.cfg.FieldGroups, p.logger), nil
	})
	return nil
}

// Boot runs the bootstrap in order: refuse a foreign ACF, check the public
// assets, ensure the save_json directory, include the core, then, inside
// a plugin runtime, register the settings filters and option pages.
// Finally the ACF service is resolved and booted.
func (p *Provider) Boot(ctx context.Context, c *container.Container) error {
	if p.booted {
		return nil
	}

	if p.rt.ClassExists(ClassName) {
		err := p.environment(&EnvironmentError{
			Msg: "ACF already loaded by another source. Rooty must be the only loader.",
			Err: ErrAlreadyLoaded,
		})
		if err == nil {
			p.logger.Warn("[ACF] skipping bootstrap")
		}
		return err
	}

	if err := p.ensurePublicAssets(); err != nil {
		return err
	}
	if err := p.ensureSaveJSONDir(); err != nil {
		return err
	}
	if err := p.includeCore(); err != nil {
		return err
	}

	if p.hasRuntime() {
		p.registerFilters()
		p.registerOptionPages()
	}

	svc, err := container.Resolve[*Service](c, KeyACF)
	if err != nil {
		return fmt.Errorf("failed to resolve ACF service: %w", err)
	}
	if err := svc.Boot(ctx); err != nil {
		return err
	}

	p.booted = true
	p.logger.Info("[ACF] booted",
		zap.String("path", p.cfg.Settings.Path),
		zap.String("save_json", p.cfg.Settings.SaveJSON))
	return nil
}

// environment returns err in production and logs it otherwise.
func (p *Provider) environment(err *EnvironmentError) error {
	if p.cfg.Production {
		return err
	}
	fields := []zap.Field{}
	if err.Path != "" {
		fields = append(fields, zap.String("path", err.Path))
	}
	p.logger.Warn("[ACF] "+err.Msg, fields...)
	return nil
}

func (p *Provider) ensurePublicAssets() error {
	dir := p.cfg.Assets.TargetDir(p.cfg.Root)
	if isDir(dir) {
		return nil
	}
	if p.cfg.Production {
		return &EnvironmentError{
			Path: dir,
			Msg: fmt.Sprintf("ACF assets missing at %s. Run: `rooty publish-acf-assets` to copy %s → %s.",
				dir, p.cfg.Assets.withDefaults().Source, dir),
		}
	}
	return p.environment(&EnvironmentError{Path: dir, Msg: "Public assets directory missing (non-prod): " + dir})
}

func (p *Provider) ensureSaveJSONDir() error {
	dir := strings.TrimRight(p.cfg.Settings.SaveJSON, `/\`)

	if !isDir(dir) {
		if p.cfg.Production {
			return &EnvironmentError{Path: dir, Msg: "ACF save_json directory missing: " + dir}
		}
		if err := os.MkdirAll(dir, 0o775); err != nil && !isDir(dir) {
			p.logger.Warn("[ACF] Failed to create save_json directory: "+dir, zap.Error(err))
		}
	}

	if isDir(dir) && !writable(dir) {
		if !p.cfg.Production {
			_ = os.Chmod(dir, 0o775)
		}
		if !writable(dir) {
			return p.environment(&EnvironmentError{Path: dir, Msg: "ACF save_json directory is not writable: " + dir})
		}
	}
	return nil
}

// writable probes dir by creating and removing a temporary file.
func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".rooty-write-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

func (p *Provider) includeCore() error {
	path := p.cfg.Settings.EntryFile()

	resolved, err := validateEntryFile(path)
	if err != nil {
		return err
	}
	if _, err := p.rt.Include(resolved); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCore, err)
	}
	if !p.rt.ClassExists(ClassName) {
		return fmt.Errorf("%w: ACF failed to load from %s", ErrInvalidCore, path)
	}
	return nil
}

// validateEntryFile resolves path and checks it is a readable regular
// file named acf.php.
func validateEntryFile(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("%w: ACF entry file does not exist: %s", ErrInvalidCore, path)
	}
	if resolved, err = filepath.Abs(resolved); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCore, err)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: ACF entry path is not a file: %s", ErrInvalidCore, resolved)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: ACF entry file is not readable: %s", ErrInvalidCore, resolved)
	}
	_ = f.Close()

	if base := filepath.Base(resolved); strings.ToLower(base) != EntryFileName {
		return "", fmt.Errorf("%w: ACF entry file must be '%s'. Got: %s", ErrInvalidCore, EntryFileName, base)
	}
	return resolved, nil
}

// hasRuntime reports whether the plugin hook functions are available.
func (p *Provider) hasRuntime() bool {
	return p.rt.FunctionExists("add_filter") && p.rt.FunctionExists("apply_filters")
}

func (p *Provider) registerFilters() {
	for _, f := range p.cfg.Settings.Filters() {
		value := f.Value
		p.hooks.Filter(f.Hook, platform.Closure(func(context.Context, ...any) any {
			return value
		}))
	}

	existing := existingDirs(p.cfg.Settings.LoadJSON)
	p.hooks.Filter("acf/settings/load_json", platform.Closure(func(_ context.Context, args ...any) any {
		var merged []string
		if len(args) > 0 {
			merged = toStrings(args[0])
		}
		return existingDirs(append(merged, existing...))
	}))
}

func (p *Provider) registerOptionPages() {
	if len(p.cfg.OptionPages) == 0 || !p.rt.FunctionExists("acf_add_options_page") {
		return
	}
	for _, page := range p.cfg.OptionPages {
		if page.ParentSlug() != "" {
			p.rt.AddOptionsSubPage(page)
		} else {
			p.rt.AddOptionsPage(page)
		}
	}
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return nil
}
