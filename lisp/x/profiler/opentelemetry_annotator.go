// Copyright © 2018 The ELPS authors

package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/dan/lisp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	// ContextOpenTelemetryTracerKey looks up a parent tracer name from a context key.
	ContextOpenTelemetryTracerKey contextKey = "otelParentTracer"

	defaultTracerName = "dan"
)

var _ lisp.Profiler = &otelAnnotator{}

type otelAnnotator struct {
	profiler
	currentContext context.Context
}

// NewOpenTelemetryAnnotator returns a profiler that records a span for each
// function call as a child of the span in parentContext.
func NewOpenTelemetryAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) lisp.Profiler {
	p := &otelAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *otelAnnotator) Enable() error {
	if p.currentContext == nil {
		return errors.New("spans can only be added to a context linked to opentelemetry")
	}
	p.runtime.Profiler = p
	return p.profiler.Enable()
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = defaultTracerName
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (p *otelAnnotator) Start(fun *lisp.LVal) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	oldContext := p.currentContext
	label, name := p.prettyFunName(fun)
	var span trace.Span
	p.currentContext, span = contextTracer(p.currentContext).Start(p.currentContext, label)
	p.addCodeAttributes(span, fun, name)
	return func() {
		span.End()
		p.currentContext = oldContext
	}
}

func (p *otelAnnotator) addCodeAttributes(span trace.Span, fun *lisp.LVal, name string) {
	attrs := []attribute.KeyValue{
		semconv.CodeNamespace(funModule(fun)),
		semconv.CodeFunction(name),
	}
	if loc := p.callSite(fun); loc != nil {
		attrs = append(attrs,
			semconv.CodeColumn(loc.Col),
			semconv.CodeFilepath(loc.File),
			semconv.CodeLineNumber(loc.Line),
		)
	}
	span.SetAttributes(attrs...)
}
