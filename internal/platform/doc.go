// Package platform provides the host runtime rooty services run against.
//
// The runtime exposes the primitives a content platform offers to plugins:
// a priority-ordered hook table shared by actions and filters, request-scoped
// environment (admin screen, current user, query parameters), user roles and
// capabilities, an options store, the installed plugin list, a
// global class/function registry populated by included plugin files, and
// options-page registration.
//
// Hook callbacks are values of type Callback. A callback carries a stable
// identity derived from how it was built (Closure, Method, Static, Function,
// Invokable) so the same logical callback can be recognised on removal or
// deduplication without comparing Go func values. Every registration returns
// an opaque Handle that removes exactly that registration.
//
// Request-scoped state travels on the context:
//
//	ctx = platform.WithRequest(ctx, &platform.Request{
//	    Admin:  true,
//	    Screen: "toplevel_page_rooty-editor",
//	    Query:  url.Values{"page": {"rooty-editor"}},
//	})
//	rt.DoAction(ctx, "admin_init")
//
// Runtime is safe for concurrent use. Callbacks run outside the table lock,
// so a callback may register or remove hooks while a hook is dispatching.
package platform
