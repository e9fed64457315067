package services

import (
	"reflect"

	"github.com/fyrsmithlabs/rooty/internal/capabilities"
	"github.com/fyrsmithlabs/rooty/internal/conflicts"
	"github.com/fyrsmithlabs/rooty/internal/hooks"
)

// Registry provides typed access to the stock services.
type Registry interface {
	Conflicts() (*conflicts.Guard, error)
	Caps() (*capabilities.Service, error)
	Hooks() (*hooks.Hooks, error)
}

var _ Registry = (*Hub)(nil)

// Conflicts resolves the conflicts service.
func (h *Hub) Conflicts() (*conflicts.Guard, error) { return resolveAs[*conflicts.Guard](h, NameConflicts) }

// Caps resolves the caps service.
func (h *Hub) Caps() (*capabilities.Service, error) { return resolveAs[*capabilities.Service](h, NameCaps) }

// Hooks resolves the hooks service.
func (h *Hub) Hooks() (*hooks.Hooks, error) { return resolveAs[*hooks.Hooks](h, NameHooks) }

func resolveAs[T Service](h *Hub, name string) (T, error) {
	var zero T
	res := h.Lookup(name)
	if !res.OK() {
		return zero, res.Err
	}
	t, ok := res.Service.(T)
	if !ok {
		return zero, &ResolutionError{
			Kind:  ErrWrongType,
			Name:  name,
			Key:   res.Key,
			Class: res.Class,
			Want:  reflect.TypeOf((*T)(nil)).Elem().String(),
			Given: typeName(res.Service),
		}
	}
	return t, nil
}
