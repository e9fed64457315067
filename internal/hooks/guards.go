package hooks

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

// guard wraps cb so it only runs when cond holds. Otherwise the first
// argument is returned, which leaves a filter value unchanged and is
// ignored by actions.
func guard(cb platform.Callback, cond func(ctx context.Context) bool) platform.Callback {
	return platform.Closure(func(ctx context.Context, args ...any) any {
		if cond(ctx) {
			return cb.Call(ctx, args...)
		}
		if len(args) == 0 {
			return nil
		}
		return args[0]
	})
}

// AdminOnly runs cb only on back-office requests.
func (h *Hooks) AdminOnly(cb platform.Callback) platform.Callback {
	return guard(cb, h.host.IsAdmin)
}

// FrontendOnly runs cb only outside the back office.
func (h *Hooks) FrontendOnly(cb platform.Callback) platform.Callback {
	return guard(cb, func(ctx context.Context) bool { return !h.host.IsAdmin(ctx) })
}

// WhenUserCan runs cb only when the current user has capability.
func (h *Hooks) WhenUserCan(capability string, cb platform.Callback) platform.Callback {
	return guard(cb, func(ctx context.Context) bool {
		return h.host.CurrentUserCan(ctx, capability)
	})
}

// GuardScreen runs cb when the current admin screen is screenID. When it is
// not, and both fallbackParam and expected are non-empty, the sanitized
// query parameter fallbackParam is compared to expected case-insensitively.
func (h *Hooks) GuardScreen(screenID string, cb platform.Callback, fallbackParam, expected string) platform.Callback {
	return guard(cb, func(ctx context.Context) bool {
		if id, ok := h.host.CurrentScreen(ctx); ok && id == screenID {
			return true
		}
		if fallbackParam == "" || expected == "" {
			return false
		}
		raw, ok := h.host.QueryParam(ctx, fallbackParam)
		if !ok {
			return false
		}
		return strings.EqualFold(platform.SanitizeTextField(raw), expected)
	})
}
