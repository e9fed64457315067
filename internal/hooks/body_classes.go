package hooks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

// AdminBodyClassHook is the platform filter carrying extra admin body
// classes as a space-separated string.
const AdminBodyClassHook = "admin_body_class"

var (
	classSplit   = regexp.MustCompile(`\s+`)
	keyUnallowed = regexp.MustCompile(`[^a-z0-9_\-]`)
)

// AddBodyClasses registers fn as a body-classes filter on hook. fn gets the
// current classes and returns the new list; normalization happens in
// BodyClasses.
func (h *Hooks) AddBodyClasses(hook string, fn func(ctx context.Context, classes []string) []string, opts ...HookOption) platform.Handle {
	cb := platform.Closure(func(ctx context.Context, args ...any) any {
		var classes []string
		if len(args) > 0 {
			classes = toClasses(args[0])
		}
		return fn(ctx, classes)
	})
	return h.Filter(hook, cb, append(opts, AcceptedArgs(1))...)
}

// BodyClasses applies hook to an empty class list and returns the
// normalized result. With mergeAdmin the admin_body_class filter output is
// appended.
func (h *Hooks) BodyClasses(ctx context.Context, hook string, mergeAdmin bool) []string {
	classes := toClasses(h.Apply(ctx, hook, []string{}))

	if mergeAdmin {
		admin := strings.TrimSpace(fmt.Sprint(h.host.ApplyFilters(ctx, AdminBodyClassHook, "")))
		if admin != "" {
			classes = append(classes, classSplit.Split(admin, -1)...)
		}
	}
	return NormalizeClasses(classes)
}

// NormalizeClasses sanitizes each class, drops empties and removes
// duplicates, keeping first occurrences in order.
func NormalizeClasses(classes []string) []string {
	seen := make(map[string]struct{}, len(classes))
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		c = platform.SanitizeHTMLClass(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// PrefixedClass builds a class such as "page-about" from a prefix and a
// free-form value.
func PrefixedClass(prefix, value string) string {
	return strings.TrimRight(prefix, "-") + "-" + sanitizeKey(value)
}

func sanitizeKey(s string) string {
	return keyUnallowed.ReplaceAllString(strings.ToLower(s), "")
}

func toClasses(v any) []string {
	switch c := v.(type) {
	case nil:
		return nil
	case []string:
		return c
	case []any:
		out := make([]string, 0, len(c))
		for _, item := range c {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return classSplit.Split(strings.TrimSpace(c), -1)
	default:
		return []string{fmt.Sprint(c)}
	}
}
