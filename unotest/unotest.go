// Package unotest provides a null provider adapter and assertion helpers
// for exercising pipelines in tests without any cloud runtime.
package unotest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	uno "github.com/uno-serverless/uno-go"
)

// Provider is the adapter discriminator placed on every uniform context.
const Provider = "test"

// Invoker returns a direct invocation entry point for a built pipeline,
// the test stand-in for a provider adapter.
func Invoker(t *testing.T, iv *uno.Invocable) func(ctx context.Context, event uno.Event) (any, error) {
	log := NewLogger(t)
	return func(ctx context.Context, event uno.Event) (any, error) {
		uctx := &uno.Context{
			InvocationID: uuid.NewString(),
			Log:          log,
			Provider:     Provider,
		}
		return iv.Invoke(ctx, event, uctx)
	}
}

// NewLogger creates a uniform logger that integrates with testing.T logging.
func NewLogger(t *testing.T) uno.Logger {
	return uno.SlogLogger(slog.New(slog.NewJSONHandler(&testLogWriter{t: t}, nil)))
}

type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// EventOpt decorates a test http event.
type EventOpt func(*uno.HTTPEvent)

// WithBody sets the raw body.
func WithBody(body string) EventOpt {
	return func(ev *uno.HTTPEvent) { ev.RawBody = []byte(body) }
}

// WithHeader adds a header.
func WithHeader(key, value string) EventOpt {
	return func(ev *uno.HTTPEvent) { ev.Headers.Add(key, value) }
}

// WithParam sets a parameter.
func WithParam(key string, value any) EventOpt {
	return func(ev *uno.HTTPEvent) { ev.Params[key] = value }
}

// HTTPEvent builds a uniform http event for tests.
func HTTPEvent(method, url string, opts ...EventOpt) *uno.HTTPEvent {
	ev := uno.NewHTTPEvent(nil)
	ev.Method = method
	ev.URL = url
	for _, o := range opts {
		o(ev)
	}
	return ev
}
