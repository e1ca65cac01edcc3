package engine

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_scn_query = "scn.query"
	report_scn_login = "scn.login"
	report_bnc_query = "bnc.query"
)

var tracer = otel.Tracer("freqgrabber/engine")

var meter = otel.Meter("freqgrabber/engine")
var queryCounter, _ = meter.Int64Counter("engine.queries")
var failureCounter, _ = meter.Int64Counter("engine.failures")
var loginCounter, _ = meter.Int64Counter("engine.logins")

// recordOutcome counts a finished query and marks its span.
func recordOutcome(ctx context.Context, span trace.Span, engine string, err error) {
	attrs := metric.WithAttributes(attribute.String("engine", engine))
	queryCounter.Add(ctx, 1, attrs)
	if err == nil {
		return
	}

	kind := "unknown"
	var engineErr *Error
	if errors.As(err, &engineErr) {
		kind = engineErr.Kind.String()
	}
	failureCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("kind", kind),
	))
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
}
