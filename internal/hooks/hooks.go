package hooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/rooty/internal/platform"
	"go.uber.org/zap"
)

const (
	// DefaultPriority is used when no Priority option is given.
	DefaultPriority = 10

	// DefaultAcceptedArgs is used when no AcceptedArgs option is given.
	DefaultAcceptedArgs = 1
)

// namespaceCutset matches the characters trimmed from a namespace prefix.
const namespaceCutset = "/ \t\n\r\x00\x0B"

// Hooks registers and dispatches platform actions and filters.
type Hooks struct {
	host   platform.Host
	ns     string
	ledger *ledger
	group  *Group
	logger *zap.Logger
	debug  bool
}

// Option configures a Hooks instance.
type Option func(*Hooks)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hooks) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithDebug makes malformed directive usage an error instead of a no-op.
func WithDebug(debug bool) Option {
	return func(h *Hooks) { h.debug = debug }
}

// WithNamespace starts the registrar with a namespace prefix.
func WithNamespace(prefix string) Option {
	return func(h *Hooks) { h.ns = strings.Trim(prefix, namespaceCutset) }
}

// New creates a registrar over host.
func New(host platform.Host, opts ...Option) *Hooks {
	h := &Hooks{
		host:   host,
		ledger: newLedger(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewFromConfig creates a registrar from cfg.
func NewFromConfig(host platform.Host, cfg *Config, logger *zap.Logger) *Hooks {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return New(host,
		WithLogger(logger),
		WithDebug(cfg.Debug),
		WithNamespace(cfg.Namespace))
}

// Boot satisfies the service contract. The registrar has nothing to set up.
func (h *Hooks) Boot(ctx context.Context) error {
	h.logger.Debug("hooks registrar ready", zap.String("namespace", h.ns))
	return nil
}

func (h *Hooks) clone() *Hooks {
	c := *h
	return &c
}

// Namespace returns a view whose hook names are prefixed with prefix/.
func (h *Hooks) Namespace(prefix string) *Hooks {
	c := h.clone()
	c.ns = strings.Trim(prefix, namespaceCutset)
	return c
}

// WithoutNamespace returns a view that leaves hook names untouched.
func (h *Hooks) WithoutNamespace() *Hooks {
	c := h.clone()
	c.ns = ""
	return c
}

// Prefix returns the namespace prefix, empty when there is none.
func (h *Hooks) Prefix() string { return h.ns }

// Debug reports whether directive misuse is reported as an error.
func (h *Hooks) Debug() bool { return h.debug }

// Host returns the underlying platform host.
func (h *Hooks) Host() platform.Host { return h.host }

// Resolve returns the platform hook name for hook in this view.
func (h *Hooks) Resolve(hook string) string {
	if h.ns == "" {
		return hook
	}
	return h.ns + "/" + strings.TrimLeft(hook, "/")
}

// Action registers cb to run when hook fires.
func (h *Hooks) Action(hook string, cb platform.Callback, opts ...HookOption) platform.Handle {
	return h.register(KindAction, hook, cb, newHookArgs(opts))
}

// Filter registers cb to transform the value passed through hook.
func (h *Hooks) Filter(hook string, cb platform.Callback, opts ...HookOption) platform.Handle {
	return h.register(KindFilter, hook, cb, newHookArgs(opts))
}

func (h *Hooks) register(kind Kind, hook string, cb platform.Callback, s hookArgs) platform.Handle {
	resolved := h.Resolve(hook)
	handle := h.host.AddFilter(resolved, cb, s.priority, s.acceptedArgs)

	h.ledger.append(Record{
		Kind:         kind,
		Hook:         resolved,
		Priority:     s.priority,
		AcceptedArgs: s.acceptedArgs,
		CallbackID:   cb.ID(),
		Handle:       handle,
	})
	if h.group != nil {
		h.group.add(handle)
	}

	registrationsTotal.WithLabelValues(string(kind)).Inc()
	h.logger.Debug("hook registered",
		zap.String("kind", string(kind)),
		zap.String("hook", resolved),
		zap.Int("priority", s.priority),
		zap.String("callback", cb.ID()))
	return handle
}

// Fire runs every action callback on hook.
func (h *Hooks) Fire(ctx context.Context, hook string, args ...any) {
	dispatchTotal.WithLabelValues(string(KindAction)).Inc()
	h.host.DoAction(ctx, h.Resolve(hook), args...)
}

// Apply threads value through every filter callback on hook.
func (h *Hooks) Apply(ctx context.Context, hook string, value any, args ...any) any {
	dispatchTotal.WithLabelValues(string(KindFilter)).Inc()
	return h.host.ApplyFilters(ctx, h.Resolve(hook), value, args...)
}

// Once runs fn the first time key is seen and reports whether it ran.
func (h *Hooks) Once(key string, fn func()) bool {
	if !h.ledger.claim(key) {
		onceSkippedTotal.Inc()
		return false
	}
	fn()
	return true
}

// OnceOn registers cb on hook unless the same callback identity is already
// registered there at the same priority through this ledger. Distinct
// closures always have distinct identities, so each of them registers.
func (h *Hooks) OnceOn(kind Kind, hook string, cb platform.Callback, opts ...HookOption) (platform.Handle, bool) {
	s := newHookArgs(opts)
	key := fmt.Sprintf("%s:%s:%d:%s", kind, h.Resolve(hook), s.priority, cb.ID())
	if !h.ledger.claim(key) {
		onceSkippedTotal.Inc()
		return platform.Handle{}, false
	}
	return h.register(kind, hook, cb, s), true
}

// RemoveAction unregisters cb from hook. Best effort: the ledger keeps the
// record.
func (h *Hooks) RemoveAction(hook string, cb platform.Callback, opts ...HookOption) bool {
	return h.remove(KindAction, hook, cb, newHookArgs(opts))
}

// RemoveFilter unregisters cb from hook. Best effort: the ledger keeps the
// record.
func (h *Hooks) RemoveFilter(hook string, cb platform.Callback, opts ...HookOption) bool {
	return h.remove(KindFilter, hook, cb, newHookArgs(opts))
}

func (h *Hooks) remove(kind Kind, hook string, cb platform.Callback, s hookArgs) bool {
	resolved := h.Resolve(hook)
	removed := h.host.RemoveFilter(resolved, cb, s.priority)
	if removed {
		removalsTotal.WithLabelValues(string(kind)).Inc()
	}
	return removed
}

// ReplaceFilter removes old from hook and registers replacement at the
// same priority.
func (h *Hooks) ReplaceFilter(hook string, old, replacement platform.Callback, opts ...HookOption) platform.Handle {
	s := newHookArgs(opts)
	h.remove(KindFilter, hook, old, s)
	return h.register(KindFilter, hook, replacement, s)
}

// Records returns a copy of the registration ledger in registration order.
func (h *Hooks) Records() []Record {
	return h.ledger.snapshot()
}

// HookOption sets the priority or accepted argument count of a
// registration.
type HookOption func(*hookArgs)

type hookArgs struct {
	priority     int
	acceptedArgs int
}

// Priority sets the registration priority. Lower runs first.
func Priority(p int) HookOption {
	return func(s *hookArgs) { s.priority = p }
}

// AcceptedArgs sets how many dispatch arguments the callback receives.
func AcceptedArgs(n int) HookOption {
	return func(s *hookArgs) { s.acceptedArgs = n }
}

func newHookArgs(opts []HookOption) hookArgs {
	s := hookArgs{priority: DefaultPriority, acceptedArgs: DefaultAcceptedArgs}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
