// Package telemetry wires OpenTelemetry tracing and metrics for rooty.
//
// Telemetry is disabled by default. When enabled, spans and metrics are
// exported over OTLP gRPC to observability.endpoint. Provider failures
// never stop the application: the instance is marked degraded and the
// global no-op providers are used instead.
//
//	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg, version), logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer("rooty/app").Start(ctx, "app.boot")
//	defer span.End()
//
// Tests use NewTestTelemetry, which records spans in memory and collects
// metrics through a manual reader.
package telemetry
