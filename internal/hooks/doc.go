// Package hooks is the registrar rooty services use to attach callbacks to
// platform actions and filters.
//
// A Hooks value wraps a platform.Host and adds namespacing, deduplication by
// callback identity, guard composition and reversible batch registration:
//
//	editor := h.Namespace("rooty/editor")
//	editor.Action("enqueue_scripts", cb)             // rooty/editor/enqueue_scripts
//	editor.WithoutNamespace().Action("admin_init", cb) // admin_init
//
//	g := h.Group(func(h *hooks.Hooks) {
//	    h.Filter("the_title", upper, hooks.Priority(5))
//	})
//	defer g.Undo()
//
// Every view derived with Namespace or WithoutNamespace shares one
// registration ledger and one once-set with the value it came from.
//
// Directives exposes the registrar to html/template as the hook, hookIf and
// hookUnless functions.
package hooks
