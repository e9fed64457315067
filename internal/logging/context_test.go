package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

func fieldMap(fields []zap.Field) map[string]zap.Field {
	m := make(map[string]zap.Field, len(fields))
	for _, f := range fields {
		m[f.Key] = f
	}
	return m
}

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_Trace(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := fieldMap(ContextFields(ctx))
	assert.Equal(t, traceID.String(), fields["trace_id"].String)
	assert.Equal(t, spanID.String(), fields["span_id"].String)
	assert.Contains(t, fields, "trace_sampled")
}

func TestContextFields_PlatformRequest(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	ctx = platform.WithRequest(ctx, &platform.Request{
		Admin:  true,
		Screen: "plugins",
		User:   &platform.User{ID: 7, Login: "admin"},
	})

	fields := fieldMap(ContextFields(ctx))
	assert.Equal(t, "req-42", fields["request.id"].String)
	assert.Equal(t, "plugins", fields["screen"].String)
	assert.Equal(t, "7", fields["user.id"].String)
	assert.Equal(t, "admin", fields["user.login"].String)
	assert.Contains(t, fields, "request.admin")
}

func TestContextFields_AnonymousFrontRequest(t *testing.T) {
	ctx := platform.WithRequest(context.Background(), &platform.Request{})

	fields := fieldMap(ContextFields(ctx))
	assert.Contains(t, fields, "request.admin")
	assert.NotContains(t, fields, "screen")
	assert.NotContains(t, fields, "user.id")
}

func TestLogger_InjectsContextFields(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithRequestID(context.Background(), "abc_123")

	tl.Warn(ctx, "[ACF] skipping bootstrap")
	tl.AssertField(t, "skipping bootstrap", "request.id", "abc_123")
}

func TestValidateRequestID(t *testing.T) {
	assert.NoError(t, ValidateRequestID(NewRequestID()))

	invalid := []string{
		"",
		"has space",
		"semi;colon",
		"line\nbreak",
		strings.Repeat("a", maxIDLen+1),
		string([]byte{0xff, 0xfe}),
	}
	for _, id := range invalid {
		assert.Error(t, ValidateRequestID(id), "%q", id)
	}
}

func TestWithRequestID_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithRequestID(context.Background(), "bad id") })
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestNewRequestID_Unique(t *testing.T) {
	assert.NotEqual(t, NewRequestID(), NewRequestID())
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()), "missing logger falls back to nop")

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Info(ctx, "from context")
	tl.AssertLogged(t, zap.InfoLevel, "from context")
}
