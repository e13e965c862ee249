// Package observability wires OpenTelemetry tracing and metrics for
// servicekit.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("orders"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "registry.register")
//	defer observability.EndSpan(span, err)
//
// RegistryMetrics records one counter and one histogram per discovery
// operation so dashboards can split agent latency from failures.
package observability
