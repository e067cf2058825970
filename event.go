package uno

import (
	"context"
	"encoding/json"
	"net/http"
)

// EventType discriminates the uniform event kinds.
type EventType string

const (
	// EventTypeHTTP marks a single HTTP request/response invocation.
	EventTypeHTTP EventType = "http"
	// EventTypeAny marks a generic invocation with an opaque payload.
	EventTypeAny EventType = "any"
)

// Event is the provider-independent representation of an inbound invocation.
// The event type is fixed by the provider adapter at translation time and
// never changes downstream.
type Event interface {
	EventType() EventType
	// Original returns the opaque provider-native payload. It is borrowed
	// from the adapter for the duration of the invocation.
	Original() any
}

// AnyEvent carries a generic, non-HTTP invocation payload.
type AnyEvent struct {
	Payload json.RawMessage

	original any
}

// NewAnyEvent creates a generic event from the provider-native payload.
func NewAnyEvent(payload json.RawMessage, original any) *AnyEvent {
	return &AnyEvent{Payload: payload, original: original}
}

func (e *AnyEvent) EventType() EventType { return EventTypeAny }
func (e *AnyEvent) Original() any        { return e.original }

// Params holds the merged path and query parameters. Values are strings or,
// for multi-value query parameters, slices of strings. Merging is
// later-wins on key collision.
type Params map[string]any

// String returns the parameter as a single string. Multi-value parameters
// yield their first value.
func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// Strings returns all values for the parameter.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	return nil
}

// Merge folds src into p, later-wins.
func (p Params) Merge(src Params) {
	for k, v := range src {
		p[k] = v
	}
}

// Principal is the resolved caller identity.
type Principal struct {
	ID     string
	Name   string
	Claims map[string]any
}

// PrincipalResolver resolves the caller identity for an invocation.
// Installed by authentication middleware.
type PrincipalResolver func(ctx context.Context) (Principal, error)

// BodyOptions controls HTTPEvent body access.
type BodyOptions struct {
	// Required makes an absent body an error.
	Required bool
}

// HTTPEvent is the uniform representation of an HTTP invocation.
type HTTPEvent struct {
	Method   string
	URL      string
	Headers  http.Header
	Params   Params
	RawBody  []byte
	ClientIP string

	original  any
	principal PrincipalResolver
}

// NewHTTPEvent creates an HTTP event borrowing the provider-native payload.
func NewHTTPEvent(original any) *HTTPEvent {
	return &HTTPEvent{
		Headers:  make(http.Header),
		Params:   make(Params),
		original: original,
	}
}

func (e *HTTPEvent) EventType() EventType { return EventTypeHTTP }
func (e *HTTPEvent) Original() any        { return e.original }

// Header returns a header value with case-insensitive lookup.
func (e *HTTPEvent) Header(key string) string {
	return e.Headers.Get(key)
}

// Body lazily parses the raw body as JSON. A malformed body raises a
// badRequest classified error, as does an absent body when required.
func (e *HTTPEvent) Body(opts BodyOptions) (json.RawMessage, error) {
	if len(e.RawBody) == 0 {
		if opts.Required {
			return nil, BadRequestError("request body is required")
		}
		return nil, nil
	}
	if !json.Valid(e.RawBody) {
		return nil, BadRequestError("request body is not valid JSON")
	}
	return json.RawMessage(e.RawBody), nil
}

// Bind decodes the body into v under the same rules as Body.
func (e *HTTPEvent) Bind(v any, opts BodyOptions) error {
	raw, err := e.Body(opts)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return BadRequestError("failed to unmarshal request body: " + err.Error())
	}
	return nil
}

// Principal resolves the caller identity. Without an installed resolver it
// fails unauthorized.
func (e *HTTPEvent) Principal(ctx context.Context) (Principal, error) {
	if e.principal == nil {
		return Principal{}, UnauthorizedError("principal")
	}
	return e.principal(ctx)
}

// SetPrincipalResolver installs the identity resolver for this invocation.
func (e *HTTPEvent) SetPrincipalResolver(r PrincipalResolver) {
	e.principal = r
}
