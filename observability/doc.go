// Package observability wires OpenTelemetry tracing and metrics for build runs.
//
// Telemetry is off unless an OTLP/HTTP endpoint is configured. With it off
// the global no-op providers stay installed, so spans and instruments created
// by the task middleware cost nothing.
//
//	shutdown, err := observability.Setup(ctx, cfg.Telemetry, "mbedjs", version.Get().Short())
//	defer shutdown(context.Background())
package observability
