package hooks

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/fyrsmithlabs/rooty/internal/platform"
	"go.uber.org/zap"
)

// ErrInvalidDirective is wrapped by every directive usage error.
var ErrInvalidDirective = errors.New("invalid hook directive")

// DirectiveError reports malformed hook directive usage.
type DirectiveError struct {
	Msg string
}

func (e *DirectiveError) Error() string { return "[@hook] " + e.Msg }

func (e *DirectiveError) Unwrap() error { return ErrInvalidDirective }

// Directive modes.
const (
	ModeFire  = "fire"
	ModeApply = "apply"
)

// Directives returns the template functions bound to ctx:
//
//	{{ hook "fire:rooty/editor/head" }}
//	{{ hook "apply" "rooty/editor/title" .Title }}
//	{{ hookIf .ShowToolbar "fire" "rooty/editor/toolbar" }}
//	{{ hookUnless .Embedded "apply:rooty/editor/footer" "" }}
//
// fire renders whatever the action callbacks print to platform.Output;
// apply renders the filtered value.
func (h *Hooks) Directives(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"hook": func(args ...any) (any, error) {
			return h.dispatchDirective(ctx, args)
		},
		"hookIf": func(cond any, args ...any) (any, error) {
			if !truthy(cond) {
				return "", nil
			}
			return h.dispatchDirective(ctx, args)
		},
		"hookUnless": func(cond any, args ...any) (any, error) {
			if truthy(cond) {
				return "", nil
			}
			return h.dispatchDirective(ctx, args)
		},
	}
}

func truthy(v any) bool {
	ok, _ := template.IsTrue(v)
	return ok
}

func (h *Hooks) dispatchDirective(ctx context.Context, args []any) (any, error) {
	if len(args) == 0 {
		return h.directiveFail("Missing arguments. Expected hook \"mode\" \"hook\" ... or hook \"mode:hook\" ....")
	}

	var mode, hook string
	var rest []any
	if s, ok := args[0].(string); ok && strings.Contains(s, ":") {
		m, name, _ := strings.Cut(s, ":")
		mode = strings.ToLower(strings.TrimSpace(m))
		hook = strings.TrimSpace(name)
		rest = args[1:]
	} else {
		mode = strings.ToLower(strings.TrimSpace(fmt.Sprint(args[0])))
		if len(args) > 1 {
			hook = strings.TrimSpace(fmt.Sprint(args[1]))
			rest = args[2:]
		}
	}

	if mode != ModeFire && mode != ModeApply {
		return h.directiveFail(fmt.Sprintf("Invalid mode '%s'. Allowed: 'fire' or 'apply'.", mode))
	}
	if hook == "" {
		return h.directiveFail("Missing hook name.")
	}

	if mode == ModeApply {
		var value any
		var extra []any
		if len(rest) > 0 {
			value, extra = rest[0], rest[1:]
		}
		out := h.Apply(ctx, hook, value, extra...)
		if out == nil {
			return "", nil
		}
		return out, nil
	}

	var buf strings.Builder
	h.Fire(platform.WithOutput(ctx, &buf), hook, rest...)
	return template.HTML(buf.String()), nil //nolint:gosec // callbacks own their markup
}

// directiveFail returns an error in debug mode and renders nothing
// otherwise.
func (h *Hooks) directiveFail(msg string) (any, error) {
	directiveErrorsTotal.Inc()
	err := &DirectiveError{Msg: msg}
	if h.debug {
		return nil, err
	}
	h.logger.Debug("hook directive ignored", zap.Error(err))
	return "", nil
}
