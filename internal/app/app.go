// Package app assembles a rooty application: the platform runtime, the
// hooks registrar, the abort manager and the service providers, all held in
// one container.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/abort"
	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/config"
	"github.com/fyrsmithlabs/rooty/internal/container"
	"github.com/fyrsmithlabs/rooty/internal/hooks"
	"github.com/fyrsmithlabs/rooty/internal/logging"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"github.com/fyrsmithlabs/rooty/internal/services"
	"github.com/fyrsmithlabs/rooty/internal/telemetry"
)

// HookInit is fired once the providers have booted.
const HookInit = "init"

const tracerName = "github.com/fyrsmithlabs/rooty/internal/app"

// ErrBoot wraps every provider boot failure.
var ErrBoot = errors.New("application boot failed")

// Provider registers bindings and later boots them.
type Provider interface {
	Register(c *container.Container) error
	Boot(ctx context.Context, c *container.Container) error
}

type namedProvider struct {
	name string
	p    Provider
}

// Option configures an Application.
type Option func(*Application)

// WithTelemetry traces the boot sequence.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(a *Application) {
		if t != nil {
			a.tracer = t.Tracer(tracerName)
		}
	}
}

// WithAbortManager replaces the manager named in the configuration.
func WithAbortManager(m abort.Manager) Option {
	return func(a *Application) { a.abort = m }
}

// WithCatalog replaces the stock service catalog.
func WithCatalog(c *services.Catalog) Option {
	return func(a *Application) { a.catalog = c }
}

// WithProvider appends a provider booted after the stock ones.
func WithProvider(name string, p Provider) Option {
	return func(a *Application) {
		a.extra = append(a.extra, namedProvider{name: name, p: p})
	}
}

// Application owns the container and the boot lifecycle.
type Application struct {
	cfg       *config.Config
	logger    *logging.Logger
	runtime   *platform.Runtime
	container *container.Container
	hooks     *hooks.Hooks
	abort     abort.Manager
	catalog   *services.Catalog
	acf       *acf.Provider
	tracer    trace.Tracer

	extra     []namedProvider
	providers []namedProvider

	mu         sync.Mutex
	registered bool
	booted     bool
}

// New creates an application. A nil runtime gets a fresh one pointed at
// app.url.
func New(cfg *config.Config, logger *logging.Logger, rt *platform.Runtime, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if rt == nil {
		rt = platform.NewRuntime(
			platform.WithSiteURL(cfg.App.URL),
			platform.WithLogger(logger.Component("platform")),
		)
	}

	a := &Application{
		cfg:       cfg,
		logger:    logger,
		runtime:   rt,
		container: container.New(container.WithLogger(logger.Component("container"))),
		hooks:     hooks.NewFromConfig(rt, &cfg.Hooks, logger.Component("hooks")),
		tracer:    noop.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.abort == nil {
		m, err := abort.New(cfg.Abort.Manager, logger.Component("abort"))
		if err != nil {
			return nil, err
		}
		a.abort = m
	}
	return a, nil
}

// Register binds the core instances and registers every provider. It runs
// once; later calls are no-ops.
func (a *Application) Register() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.register()
}

func (a *Application) register() error {
	if a.registered {
		return nil
	}

	a.container.Instance(services.KeyPlatform, a.runtime)
	a.container.Instance(services.KeyHooks, a.hooks)
	a.container.Instance(services.KeyAbort, a.abort)
	a.container.Instance(services.KeyLogger, a.logger.Underlying())

	serviceMap, err := a.cfg.ServiceMap()
	if err != nil {
		return err
	}
	a.acf = acf.NewProvider(a.cfg.ACFProviderConfig(), a.runtime, a.hooks, a.logger.Component("acf"))

	providers := []namedProvider{
		{name: "services", p: services.NewProvider(serviceMap, a.catalog, a.logger.Component("services"), a.cfg.App.Debug)},
		{name: "acf", p: a.acf},
	}
	providers = append(providers, a.extra...)

	for _, np := range providers {
		if err := np.p.Register(a.container); err != nil {
			return fmt.Errorf("registering %s provider: %w", np.name, err)
		}
	}

	a.providers = providers
	a.registered = true
	return nil
}

// Boot registers if needed, boots the abort manager and every provider in
// registration order, then fires init. Field group failures raised during
// init are returned. Booting twice does nothing.
func (a *Application) Boot(ctx context.Context) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.booted {
		return nil
	}

	ctx, span := a.tracer.Start(ctx, "app.boot")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := a.register(); err != nil {
		return err
	}

	if err := a.abort.Boot(ctx); err != nil {
		return fmt.Errorf("%w: abort manager: %v", ErrBoot, err)
	}

	for _, np := range a.providers {
		if err := a.bootProvider(ctx, np); err != nil {
			return err
		}
	}

	if a.runtime.DidAction(HookInit) == 0 {
		a.hooks.WithoutNamespace().Fire(ctx, HookInit)
	}

	if err := a.acfErr(); err != nil {
		return fmt.Errorf("%w: %w", ErrBoot, err)
	}

	a.booted = true
	a.logger.Info(ctx, "application booted",
		zap.String("app", a.cfg.App.Name),
		zap.String("env", a.cfg.App.Env),
		zap.Int("providers", len(a.providers)))
	return nil
}

func (a *Application) bootProvider(ctx context.Context, np namedProvider) error {
	ctx, span := a.tracer.Start(ctx, "app.provider.boot",
		trace.WithAttributes(attribute.String("provider", np.name)))
	defer span.End()

	if err := np.p.Boot(ctx, a.container); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %s provider: %w", ErrBoot, np.name, err)
	}
	a.logger.Debug(ctx, "provider booted", zap.String("provider", np.name))
	return nil
}

// acfErr reports a field group failure recorded while acf/init ran. It is
// nil when ACF never bootstrapped.
func (a *Application) acfErr() error {
	if !a.container.Bound(acf.KeyACF) {
		return nil
	}
	svc, err := container.Resolve[*acf.Service](a.container, acf.KeyACF)
	if err != nil {
		return err
	}
	return svc.Err()
}

// Booted reports whether Boot completed.
func (a *Application) Booted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booted
}

// Container returns the application container.
func (a *Application) Container() *container.Container { return a.container }

// Hub resolves the service hub. Register must have run.
func (a *Application) Hub() (*services.Hub, error) {
	return container.Resolve[*services.Hub](a.container, services.HubAlias)
}

// Hooks returns the root registrar, carrying the configured namespace.
func (a *Application) Hooks() *hooks.Hooks { return a.hooks }

// Runtime returns the platform runtime.
func (a *Application) Runtime() *platform.Runtime { return a.runtime }

// Abort returns the abort manager.
func (a *Application) Abort() abort.Manager { return a.abort }

// Config returns the application configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger { return a.logger }

// ACF resolves the ACF service.
func (a *Application) ACF() (*acf.Service, error) {
	return container.Resolve[*acf.Service](a.container, acf.KeyACF)
}

// ACFHelper resolves the ACF field helper.
func (a *Application) ACFHelper() (*acf.Helper, error) {
	return container.Resolve[*acf.Helper](a.container, acf.KeyHelper)
}
