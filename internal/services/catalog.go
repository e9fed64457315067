package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/rooty/internal/abort"
	"github.com/fyrsmithlabs/rooty/internal/capabilities"
	"github.com/fyrsmithlabs/rooty/internal/conflicts"
	"github.com/fyrsmithlabs/rooty/internal/container"
	"github.com/fyrsmithlabs/rooty/internal/hooks"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"go.uber.org/zap"
)

// Container keys the stock constructors resolve their dependencies from.
const (
	KeyPlatform = "platform"
	KeyHooks    = "hooks"
	KeyAbort    = "abort"
	KeyLogger   = "logger"
)

// Stock service classes.
const (
	ClassConflicts    Class = "conflicts.Guard"
	ClassCapabilities Class = "capabilities.Service"
	ClassHooks        Class = "hooks.Hooks"
)

// Stock service names.
const (
	NameConflicts = "conflicts"
	NameCaps      = "caps"
	NameHooks     = "hooks"
)

// Constructor builds a service, resolving dependencies from r.
type Constructor func(r container.Maker) (Service, error)

// Catalog maps classes to constructors.
type Catalog struct {
	mu    sync.RWMutex
	ctors map[Class]Constructor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[Class]Constructor)}
}

// Register adds a constructor for class, replacing any previous one.
func (c *Catalog) Register(class Class, ctor Constructor) {
	c.mu.Lock()
	c.ctors[class] = ctor
	c.mu.Unlock()
}

// Has reports whether class has a constructor.
func (c *Catalog) Has(class Class) bool {
	_, ok := c.Constructor(class)
	return ok
}

// Constructor returns the constructor for class.
func (c *Catalog) Constructor(class Class) (Constructor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctor, ok := c.ctors[class]
	return ctor, ok
}

// Classes returns the registered classes, sorted.
func (c *Catalog) Classes() []Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Class, 0, len(c.ctors))
	for cl := range c.ctors {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultMap returns the stock service map.
func DefaultMap() *Map {
	m, err := NewMap(
		Entry{Name: NameConflicts, Class: ClassConflicts},
		Entry{Name: NameCaps, Class: ClassCapabilities},
		Entry{Name: NameHooks, Class: ClassHooks},
	)
	if err != nil {
		panic(fmt.Sprintf("services: invalid default map: %v", err))
	}
	return m
}

// DefaultCatalog returns a catalog with the stock service constructors.
// They resolve the platform runtime, the root hooks registrar, the abort
// manager and the logger from the container.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.Register(ClassHooks, func(r container.Maker) (Service, error) {
		h, err := container.Resolve[*hooks.Hooks](r, KeyHooks)
		if err != nil {
			return nil, err
		}
		return h, nil
	})

	c.Register(ClassCapabilities, func(r container.Maker) (Service, error) {
		rt, err := container.Resolve[*platform.Runtime](r, KeyPlatform)
		if err != nil {
			return nil, err
		}
		return capabilities.New(rt, loggerFrom(r).Named("caps")), nil
	})

	c.Register(ClassConflicts, func(r container.Maker) (Service, error) {
		rt, err := container.Resolve[*platform.Runtime](r, KeyPlatform)
		if err != nil {
			return nil, err
		}
		h, err := container.Resolve[*hooks.Hooks](r, KeyHooks)
		if err != nil {
			return nil, err
		}
		am, err := container.Resolve[abort.Manager](r, KeyAbort)
		if err != nil {
			return nil, err
		}
		return conflicts.New(h, rt, am, conflicts.WithLogger(loggerFrom(r).Named("conflicts"))), nil
	})

	return c
}

func loggerFrom(r container.Maker) *zap.Logger {
	if l, err := container.Resolve[*zap.Logger](r, KeyLogger); err == nil && l != nil {
		return l
	}
	return zap.NewNop()
}
