// Package logging provides structured logging with OpenTelemetry
// integration.
//
// Logger wraps Zap with a custom Trace level (-2, below Debug), console
// and OTEL outputs, secret redaction, level-aware sampling and automatic
// context fields. ContextFields adds the trace, the request ID and, when
// the platform request is on the context, the admin flag, the screen and
// the user:
//
//	ctx = logging.WithRequestID(ctx, logging.NewRequestID())
//	ctx = platform.WithRequest(ctx, req)
//	logger.Info(ctx, "plugin activation blocked", zap.String("plugin", file))
//
// Components receive a plain *zap.Logger from Component and prefix their
// messages with their name, e.g. "[ACF] skipping bootstrap".
//
// FromConfig derives the logging configuration from config.Config. Sampling
// is enabled in production only:
//   - Trace: first 1 per second, drop rest
//   - Debug: first 10 per second, drop rest
//   - Info: first 100, then 1 every 10
//   - Warn: first 100, then 1 every 100
//   - Error+: never sampled
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "booted", zap.String("service", "caps"))
//	tl.AssertField(t, "booted", "service", "caps")
package logging
