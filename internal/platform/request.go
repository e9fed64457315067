package platform

import (
	"context"
	"io"
	"net/url"
)

// User is the authenticated user for a request.
type User struct {
	ID          int
	Login       string
	Email       string
	DisplayName string
	Roles       []string
	// Caps holds per-user grants on top of role capabilities.
	Caps map[string]bool
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Request is the per-page-load environment a hook callback observes.
type Request struct {
	// Admin is true for back-office requests.
	Admin bool
	// Screen is the current admin screen id, empty when unknown.
	Screen string
	Query  url.Values
	User   *User
}

type requestCtxKey struct{}

// WithRequest attaches req to ctx.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, req)
}

// RequestFromContext returns the request on ctx, or nil.
func RequestFromContext(ctx context.Context) *Request {
	if ctx == nil {
		return nil
	}
	if r, ok := ctx.Value(requestCtxKey{}).(*Request); ok {
		return r
	}
	return nil
}

type outputCtxKey struct{}

// WithOutput attaches the writer callbacks print page output to.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputCtxKey{}, w)
}

// Output returns the page output writer on ctx. Without one, output is
// discarded.
func Output(ctx context.Context) io.Writer {
	if ctx != nil {
		if w, ok := ctx.Value(outputCtxKey{}).(io.Writer); ok && w != nil {
			return w
		}
	}
	return io.Discard
}
