package services

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/rooty/internal/container"
	"go.uber.org/zap"
)

// Status is the outcome of a lookup.
type Status int

const (
	Found Status = iota
	NotFound
	MissingClass
	Unbound
	WrongType
	Failed
	// Bound means registered and bound but not resolved. Only View.Inspect
	// reports it.
	Bound
)

var statusNames = [...]string{"found", "not_found", "missing_class", "unbound", "wrong_type", "failed", "bound"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of Hub.Lookup.
type Result struct {
	Name    string
	Key     string
	Class   Class
	Status  Status
	Service Service
	Err     error
}

// OK reports whether the service resolved.
func (r Result) OK() bool { return r.Status == Found }

// Binder is the container surface the hub reads.
type Binder interface {
	container.Maker
	Bound(key string) bool
}

// Hub resolves named services from the container.
type Hub struct {
	c        Binder
	services *Map
	catalog  *Catalog
	logger   *zap.Logger
	debug    bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *zap.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithDebug makes Call reject arguments with an error.
func WithDebug(debug bool) HubOption {
	return func(h *Hub) { h.debug = debug }
}

// NewHub creates a hub over services. A nil catalog treats every class as
// present.
func NewHub(c Binder, services *Map, catalog *Catalog, opts ...HubOption) *Hub {
	h := &Hub{
		c:        c,
		services: services,
		catalog:  catalog,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Services returns the introspection view.
func (h *Hub) Services() *View {
	return &View{c: h.c, services: h.services, catalog: h.catalog}
}

// Lookup walks name through the service map, the catalog and the
// container and reports the first step that failed.
func (h *Hub) Lookup(name string) Result {
	res := h.lookup(name)
	lookupsTotal.WithLabelValues(res.Status.String()).Inc()
	return res
}

// inspect runs the checks that need no instance: map, catalog, binding.
// It stops at Bound.
func inspect(c Binder, services *Map, catalog *Catalog, name string) Result {
	key := Key(name)
	res := Result{Name: name, Key: key}

	class, ok := services.Lookup(name)
	if !ok {
		res.Status = NotFound
		res.Err = &ResolutionError{Kind: ErrUnknownService, Name: name, Key: key, Available: services.Names()}
		return res
	}
	res.Class = class

	if catalog != nil && !catalog.Has(class) {
		res.Status = MissingClass
		res.Err = &ResolutionError{Kind: ErrMissingClass, Name: name, Key: key, Class: class}
		return res
	}

	if !c.Bound(key) {
		res.Status = Unbound
		res.Err = &ResolutionError{Kind: ErrNotBound, Name: name, Key: key, Class: class}
		return res
	}

	res.Status = Bound
	return res
}

func (h *Hub) lookup(name string) Result {
	res := inspect(h.c, h.services, h.catalog, name)
	if res.Status != Bound {
		return res
	}
	key, class := res.Key, res.Class

	v, err := h.c.Make(key)
	if err != nil {
		res.Status = Failed
		res.Err = &ResolutionError{Kind: ErrResolveFailed, Name: name, Key: key, Class: class, Cause: err}
		return res
	}

	svc, ok := v.(Service)
	if !ok {
		res.Status = WrongType
		res.Err = &ResolutionError{
			Kind:  ErrWrongType,
			Name:  name,
			Key:   key,
			Class: class,
			Want:  "services.Service",
			Given: typeName(v),
		}
		return res
	}

	res.Status = Found
	res.Service = svc
	return res
}

// Service resolves name.
func (h *Hub) Service(name string) (Service, error) {
	res := h.Lookup(name)
	return res.Service, res.Err
}

// Get is the property form of Service.
func (h *Hub) Get(name string) (Service, error) {
	return h.Service(name)
}

// Call is the dynamic-call form of Service. It only resolves; supplying
// arguments is a usage error in debug mode and ignored otherwise.
func (h *Hub) Call(name string, args ...any) (Service, error) {
	if len(args) > 0 {
		err := &ResolutionError{Kind: ErrArgumentsNotAccepted, Name: name, Key: Key(name)}
		if h.debug {
			return nil, err
		}
		h.logger.Warn("ignoring arguments to service call", zap.String("service", name), zap.Int("args", len(args)))
	}
	return h.Service(name)
}

// IsSet reports whether name is registered and bound, without resolving it.
func (h *Hub) IsSet(name string) bool {
	_, ok := h.services.Lookup(name)
	return ok && h.c.Bound(Key(name))
}

// Boot resolves every service in map order and boots those that satisfy
// the service contract. Bindings that resolve to anything else are skipped.
func (h *Hub) Boot(ctx context.Context) error {
	for _, name := range h.services.Names() {
		key := Key(name)
		v, err := h.c.Make(key)
		if err != nil {
			return fmt.Errorf("failed to boot WP service [%s]: %w", name, err)
		}
		svc, ok := v.(Service)
		if !ok {
			h.logger.Debug("skipping binding without Boot", zap.String("service", name), zap.String("type", typeName(v)))
			continue
		}
		if err := svc.Boot(ctx); err != nil {
			return fmt.Errorf("failed to boot WP service [%s]: %w", name, err)
		}
		bootedTotal.Inc()
		h.logger.Info("service booted", zap.String("service", name), zap.String("key", key))
	}
	return nil
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
