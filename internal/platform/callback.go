package platform

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
)

// Func is the signature every hook callback runs with. Actions ignore the
// returned value; filters thread it into the next callback.
type Func func(ctx context.Context, args ...any) any

// Invoker is an object that can be called as a hook callback.
type Invoker interface {
	Invoke(ctx context.Context, args ...any) any
}

// Callback pairs a Func with the identity used for removal and dedup.
type Callback struct {
	id string
	fn Func
}

var closureSeq atomic.Uint64

// Closure wraps an anonymous function. Every call yields a distinct
// identity, so two closures are never considered the same callback even
// when they do the same thing.
func Closure(fn Func) Callback {
	return Callback{
		id: fmt.Sprintf("closure:%d", closureSeq.Add(1)),
		fn: fn,
	}
}

// Method wraps a method bound to recv. Two Method callbacks are identical
// iff recv is the same pointer and the method names match. A receiver that
// is not a pointer has no instance identity and is treated as a closure.
func Method(recv any, method string, fn Func) Callback {
	v := reflect.ValueOf(recv)
	switch v.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan:
		return Callback{
			id: fmt.Sprintf("obj:%s@%#x::%s", v.Type(), v.Pointer(), method),
			fn: fn,
		}
	}
	return Closure(fn)
}

// Static wraps a method that belongs to a type rather than an instance.
func Static(typeName, method string, fn Func) Callback {
	return Callback{
		id: "cls:" + typeName + "::" + method,
		fn: fn,
	}
}

// Function wraps a named package-level function.
func Function(name string, fn Func) Callback {
	return Callback{
		id: "func:" + name,
		fn: fn,
	}
}

// Invokable wraps an object implementing Invoker. Identity is the object
// instance.
func Invokable(obj Invoker) Callback {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer {
		return Closure(obj.Invoke)
	}
	return Callback{
		id: fmt.Sprintf("invokable:%s@%#x", v.Type(), v.Pointer()),
		fn: obj.Invoke,
	}
}

// ID returns the stable identity token.
func (c Callback) ID() string { return c.id }

// Valid reports whether the callback has a function to run.
func (c Callback) Valid() bool { return c.fn != nil }

// Call runs the callback. A zero Callback returns the first argument.
func (c Callback) Call(ctx context.Context, args ...any) any {
	if c.fn == nil {
		return first(args)
	}
	return c.fn(ctx, args...)
}

// Handle identifies exactly one hook registration.
type Handle struct {
	id uint64
}

// IsZero reports whether the handle was never issued.
func (h Handle) IsZero() bool { return h.id == 0 }

// String implements fmt.Stringer.
func (h Handle) String() string { return fmt.Sprintf("hook#%d", h.id) }

func first(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
