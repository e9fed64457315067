package logging

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

// ContextFields extracts correlation data from ctx: the trace, the request
// ID and the platform request (admin flag, screen and user).
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 8)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	if req := platform.RequestFromContext(ctx); req != nil {
		fields = append(fields, zap.Bool("request.admin", req.Admin))
		if req.Screen != "" {
			fields = append(fields, zap.String("screen", req.Screen))
		}
		if req.User != nil {
			fields = append(fields, zap.String("user.id", strconv.Itoa(req.User.ID)))
			if req.User.Login != "" {
				fields = append(fields, zap.String("user.login", req.User.Login))
			}
		}
	}

	return fields
}

type requestCtxKey struct{}

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateRequestID checks that id is safe to log and propagate.
func ValidateRequestID(id string) error {
	if id == "" {
		return fmt.Errorf("requestID cannot be empty")
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("requestID contains invalid UTF-8")
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("requestID exceeds max length %d", maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("requestID contains invalid characters (must be alphanumeric, hyphen, underscore)")
	}
	return nil
}

// NewRequestID returns a fresh request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// WithRequestID adds request ID to context.
// Panics if requestID is empty or contains invalid characters; callers
// handling untrusted input check it with ValidateRequestID first.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if err := ValidateRequestID(requestID); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
			return l
		}
	}
	return Nop()
}
