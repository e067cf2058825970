package uno

// Context carries the provider-assigned invocation metadata through the
// pipeline. Created once per invocation by the provider adapter.
type Context struct {
	// InvocationID is the provider-assigned identifier for this invocation.
	InvocationID string
	// Log is the uniform three-level logger bound to this invocation.
	Log Logger
	// Provider discriminates the adapter that produced this context.
	Provider string
	// Original is the opaque provider-native context.
	Original any
}

// Services maps dependency names to instances. Injected once per pipeline
// construction and shared read-mostly across all invocations of that
// pipeline instance.
type Services map[string]any

// Get returns the named service or nil.
func (s Services) Get(name string) any { return s[name] }

// FunctionArg is the single argument handed through the middleware chain to
// the terminal handler. It lives for one pipeline traversal.
type FunctionArg struct {
	Event    Event
	Context  *Context
	Services Services
}

// HTTP returns the event as an HTTPEvent, or nil when the invocation was
// not classified http.
func (a *FunctionArg) HTTP() *HTTPEvent {
	e, _ := a.Event.(*HTTPEvent)
	return e
}

// Log is a convenience accessor that never returns nil.
func (a *FunctionArg) Log() Logger {
	if a.Context == nil || a.Context.Log == nil {
		return NopLogger()
	}
	return a.Context.Log
}
