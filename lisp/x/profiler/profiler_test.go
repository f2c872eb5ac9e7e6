// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/luthersystems/dan/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testSource = `(define (add-it x y)
  "Adds two numbers. @trace{ Add It }"
  (+ x y))
(define (sq x) (* x x))
(add-it (sq 2) 3)`

func newEnv(t *testing.T) *lisp.LEnv {
	env, err := lisplib.NewEnv(lisp.WithStdout(&bytes.Buffer{}), lisp.WithStderr(&bytes.Buffer{}))
	require.NoError(t, err)
	return env
}

func evalSource(t *testing.T, env *lisp.LEnv) {
	v := env.EvalString("test.dan", testSource)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "7", v.String())
}

func newTracerProvider(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		assert.NoError(t, tp.Shutdown(context.Background()), "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpenTelemetryAnnotator(t *testing.T) {
	exporter := newTracerProvider(t)
	env := newEnv(t)
	ppa := profiler.NewOpenTelemetryAnnotator(env.Runtime, context.Background(), profiler.WithDocLabeler())
	require.NoError(t, ppa.Enable())
	assert.Same(t, ppa, env.Runtime.Profiler)
	evalSource(t, env)
	require.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	var names []string
	for _, s := range spans {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"number.*", "sq", "number.+", "Add_It"}, names)

	sq := spans[1]
	fn, ok := spanAttr(sq.Attributes, "code.function")
	require.True(t, ok)
	assert.Equal(t, "sq", fn.AsString())
	line, ok := spanAttr(sq.Attributes, "code.lineno")
	require.True(t, ok)
	assert.Equal(t, int64(5), line.AsInt64())
	file, ok := spanAttr(sq.Attributes, "code.filepath")
	require.True(t, ok)
	assert.Equal(t, "test.dan", file.AsString())

	// Calls made inside a function are children of its span.
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[3].SpanContext.SpanID(), spans[2].Parent.SpanID())
	assert.False(t, spans[1].Parent.IsValid())
}

func TestOpenTelemetryAnnotatorDocFilter(t *testing.T) {
	exporter := newTracerProvider(t)
	env := newEnv(t)
	ppa := profiler.NewOpenTelemetryAnnotator(env.Runtime, context.Background(),
		profiler.WithDocFilter(),
		profiler.WithDocLabeler())
	require.NoError(t, ppa.Enable())
	evalSource(t, env)
	require.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "Add_It", spans[0].Name)
	fn, ok := spanAttr(spans[0].Attributes, "code.function")
	require.True(t, ok)
	assert.Equal(t, "add-it", fn.AsString())
}

func TestOpenTelemetryAnnotatorNilContext(t *testing.T) {
	env := newEnv(t)
	//nolint:staticcheck // a nil context is the error under test
	ppa := profiler.NewOpenTelemetryAnnotator(env.Runtime, nil)
	assert.Error(t, ppa.Enable())
	assert.False(t, ppa.IsEnabled())
	assert.Nil(t, env.Runtime.Profiler)
}

type spanRecorder struct {
	mu    sync.Mutex
	spans []*octrace.SpanData
}

func (r *spanRecorder) ExportSpan(sd *octrace.SpanData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, sd)
}

func TestOpenCensusAnnotator(t *testing.T) {
	octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
	rec := &spanRecorder{}
	octrace.RegisterExporter(rec)
	t.Cleanup(func() { octrace.UnregisterExporter(rec) })

	env := newEnv(t)
	ppa := profiler.NewOpenCensusAnnotator(env.Runtime, context.Background(), profiler.WithSkipFilter(func(fun *lisp.LVal) bool {
		return fun.Fun().Builtin != nil
	}))
	require.NoError(t, ppa.Enable())
	evalSource(t, env)
	require.NoError(t, ppa.Complete())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var names []string
	for _, sd := range rec.spans {
		names = append(names, sd.Name)
	}
	assert.Equal(t, []string{"sq", "add-it"}, names)
	require.Len(t, rec.spans[0].Annotations, 1)
	assert.Equal(t, "source", rec.spans[0].Annotations[0].Message)
	assert.Equal(t, "test.dan", rec.spans[0].Annotations[0].Attributes["file"])
}

type nopCloser struct {
	bytes.Buffer
	closed bool
}

func (w *nopCloser) Close() error {
	w.closed = true
	return nil
}

func TestCallgrindProfiler(t *testing.T) {
	env := newEnv(t)
	prof := profiler.NewCallgrindProfiler(env.Runtime)
	assert.Error(t, prof.Enable(), "no output set")
	out := &nopCloser{}
	require.NoError(t, prof.SetWriter(out))
	require.NoError(t, prof.Enable())
	assert.Error(t, prof.SetWriter(&nopCloser{}))
	evalSource(t, env)
	require.NoError(t, prof.Complete())
	assert.True(t, out.closed)

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "version: 1\ncreator: dan "+lisp.Version))
	assert.Contains(t, text, "events: Time_(ns) Memory_(bytes)")
	assert.Contains(t, text, ") sq\n")
	assert.Contains(t, text, ") number.*\n")
	assert.Contains(t, text, ") ENTRYPOINT\n")
	assert.Contains(t, text, "calls=1 0 0\n")
	assert.Contains(t, text, "summary: ")
}

func TestCallgrindProfilerFile(t *testing.T) {
	env := newEnv(t)
	prof := profiler.NewCallgrindProfiler(env.Runtime)
	require.NoError(t, prof.SetFile(filepath.Join(t.TempDir(), "callgrind.out")))
	require.NoError(t, prof.Enable())
	evalSource(t, env)
	require.NoError(t, prof.Complete())
}

func TestPprofAnnotator(t *testing.T) {
	env := newEnv(t)
	ppa := profiler.NewPprofAnnotator(env.Runtime, nil)
	require.NoError(t, ppa.Enable())
	assert.Error(t, ppa.Enable(), "already enabled")
	evalSource(t, env)
	require.NoError(t, ppa.Complete())
}
