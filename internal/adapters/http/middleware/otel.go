package middleware

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/telemetry"
)

// Tracing returns middleware that creates a server span for each incoming
// request and records server request metrics. It extracts W3C Trace Context
// from incoming headers so that distributed traces are connected. Once chi
// has matched a route, the span is renamed to the route pattern.
//
// If metrics is nil, metric recording is skipped (safe nil check).
func Tracing(metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			tracer := otel.GetTracerProvider().Tracer("middleware")
			ctx, span := tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.url", r.URL.String()),
				),
			)
			defer span.End()

			cw, wrapped, r := capture(w, r.WithContext(ctx), 0, nil)
			next.ServeHTTP(wrapped, r)

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					span.SetName(fmt.Sprintf("HTTP %s %s", r.Method, pattern))
					span.SetAttributes(semconv.HTTPRouteKey.String(pattern))
				}
			}

			status := cw.Status()
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			recordServerMetrics(ctx, metrics, r.Method, start, status)
		})
	}
}

// TraceMeta is a reqlog.MetaFunc that adds the active trace and span IDs so
// entries can be joined with traces.
func TraceMeta(x *reqlog.Exchange) map[string]any {
	if x.Request == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(x.Request.Context())
	if !sc.IsValid() {
		return nil
	}
	return map[string]any{
		"traceId": sc.TraceID().String(),
		"spanId":  sc.SpanID().String(),
	}
}

// CombineMeta merges the results of several meta functions; later functions
// win on key collision. Nil functions are skipped.
func CombineMeta(fns ...reqlog.MetaFunc) reqlog.MetaFunc {
	return func(x *reqlog.Exchange) map[string]any {
		var out map[string]any
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			m := fn(x)
			if len(m) == 0 {
				continue
			}
			if out == nil {
				out = make(map[string]any, len(m))
			}
			maps.Copy(out, m)
		}
		return out
	}
}

// recordServerMetrics records server request duration and count metrics.
// Safe to call with nil metrics.
func recordServerMetrics(ctx context.Context, metrics *telemetry.Metrics, method string, start time.Time, status int) {
	if metrics == nil {
		return
	}

	duration := time.Since(start).Seconds()

	result := "success"
	if status >= http.StatusBadRequest {
		result = "error"
	}

	attrs := metric.WithAttributes(
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPStatus.Int(status),
		telemetry.AttrResult.String(result),
	)

	metrics.ServerRequestDuration.Record(ctx, duration, attrs)
	metrics.ServerRequestTotal.Add(ctx, 1, attrs)
}
