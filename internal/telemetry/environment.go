package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/types"
)

const storeScopeName = "github.com/nicholasrussellconsulting/contentful-utility-suite/store"

// InstrumentedEnvironment wraps a closure.Environment with OTel tracing and
// metrics. Every fetch gets a span and is counted in cfu.store.* metrics.
// Use WrapEnvironment to create one.
type InstrumentedEnvironment struct {
	inner  closure.Environment
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapEnvironment returns env decorated with OTel instrumentation.
// When telemetry is disabled, env is returned as-is.
func WrapEnvironment(env closure.Environment) closure.Environment {
	if !Enabled() {
		return env
	}
	m := Meter(storeScopeName)
	ops, _ := m.Int64Counter("cfu.store.fetches",
		metric.WithDescription("Total entry and asset fetches"),
	)
	dur, _ := m.Float64Histogram("cfu.store.fetch.duration",
		metric.WithDescription("Fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("cfu.store.errors",
		metric.WithDescription("Total failed fetches, not-found included"),
	)
	ie := &InstrumentedEnvironment{
		inner:  env,
		tracer: Tracer(storeScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
	if nr, ok := env.(closure.NodeResolver); ok {
		return &instrumentedNodeEnvironment{InstrumentedEnvironment: ie, resolver: nr}
	}
	return ie
}

// instrumentedNodeEnvironment keeps the closure.NodeResolver capability of
// the wrapped environment visible to the resolver.
type instrumentedNodeEnvironment struct {
	*InstrumentedEnvironment
	resolver closure.NodeResolver
}

// ResolveNode implements closure.NodeResolver.
func (e *instrumentedNodeEnvironment) ResolveNode(ctx context.Context, id string) (closure.Node, error) {
	ctx, span, start, kind := e.op(ctx, "node", id)
	node, err := e.resolver.ResolveNode(ctx, id)
	e.done(ctx, span, start, err, kind)
	return node, err
}

func (e *InstrumentedEnvironment) op(ctx context.Context, kind, id string) (context.Context, trace.Span, time.Time, attribute.KeyValue) {
	kindAttr := attribute.String("cfu.kind", kind)
	ctx, span := e.tracer.Start(ctx, "store.get_"+kind,
		trace.WithAttributes(kindAttr, attribute.String("cfu.id", id)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	e.ops.Add(ctx, 1, metric.WithAttributes(kindAttr))
	return ctx, span, time.Now(), kindAttr
}

func (e *InstrumentedEnvironment) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	e.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// GetEntry implements closure.Environment.
func (e *InstrumentedEnvironment) GetEntry(ctx context.Context, id string) (*types.Entry, error) {
	ctx, span, start, kind := e.op(ctx, "entry", id)
	entry, err := e.inner.GetEntry(ctx, id)
	e.done(ctx, span, start, err, kind)
	return entry, err
}

// GetAsset implements closure.Environment.
func (e *InstrumentedEnvironment) GetAsset(ctx context.Context, id string) (*types.Asset, error) {
	ctx, span, start, kind := e.op(ctx, "asset", id)
	asset, err := e.inner.GetAsset(ctx, id)
	e.done(ctx, span, start, err, kind)
	return asset, err
}
