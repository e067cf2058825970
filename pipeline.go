package uno

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
)

// Handler is the terminal request/response lifecycle handler.
type Handler interface {
	Handle(ctx context.Context, arg *FunctionArg) (any, error)
}

// HandlerFn wraps a function to return a handler. Similar to the
// http.HandlerFunc.
type HandlerFn func(ctx context.Context, arg *FunctionArg) (any, error)

// Handle is the request/response lifecycle handler.
func (h HandlerFn) Handle(ctx context.Context, arg *FunctionArg) (any, error) {
	return h(ctx, arg)
}

// Middleware wraps the next stage in the chain. It may inspect or mutate the
// argument before calling next, short-circuit by returning an error without
// calling next, transform the downstream result or error, or observe them
// without altering control flow.
type Middleware func(Handler) Handler

// Pipeline accumulates an ordered middleware chain around a terminal
// handler. Registration order is insertion order and the first registered
// middleware is the outermost wrapper: it runs first on the way in and last
// on the way out. Building is a one-time cold-start step; the built
// Invocable is the per-request path.
type Pipeline struct {
	mws      []Middleware
	services Services
}

// PipelineOpt configures a pipeline at construction.
type PipelineOpt func(*Pipeline)

// WithServices injects the dependency mapping shared across all invocations
// of the built pipeline.
func WithServices(s Services) PipelineOpt {
	return func(p *Pipeline) { p.services = s }
}

// NewPipeline creates an empty pipeline.
func NewPipeline(opts ...PipelineOpt) *Pipeline {
	p := &Pipeline{}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Use appends middlewares to the chain, preserving registration order.
func (p *Pipeline) Use(mws ...Middleware) *Pipeline {
	p.mws = append(p.mws, mws...)
	return p
}

// Build composes the chain around the terminal handler. The fold runs right
// to left so the first registered middleware ends up outermost.
func (p *Pipeline) Build(h Handler) *Invocable {
	for i := len(p.mws) - 1; i >= 0; i-- {
		h = p.mws[i](h)
	}
	return &Invocable{h: h, services: p.services}
}

// Invocable is a built pipeline, ready for per-request invocation by a
// provider adapter.
type Invocable struct {
	h        Handler
	services Services
}

// Invoke runs one invocation through the chain. Any error escaping the
// chain without the status-code capability is normalized to
// internalServerError here, before the provider adapter consumes it.
func (iv *Invocable) Invoke(ctx context.Context, event Event, uctx *Context) (any, error) {
	arg := &FunctionArg{Event: event, Context: uctx, Services: iv.services}
	res, err := iv.h.Handle(ctx, arg)
	if err != nil {
		return nil, NormalizeError(err)
	}
	return res, nil
}

// Recoverer converts a panic anywhere below it into an internalServerError,
// logging the stack trace.
func Recoverer() Middleware {
	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (res any, err error) {
			defer func() {
				if r := recover(); r != nil {
					arg.Log().Error("panic caught", "panic", fmt.Sprint(r), "stack_trace", string(debug.Stack()))
					err = InternalServerError(fmt.Errorf("panic: %v", r))
				}
			}()
			return next.Handle(ctx, arg)
		})
	}
}

// Runner executes a built pipeline inside a specific provider runtime.
type Runner func(ctx context.Context, iv *Invocable)

const envProvider = "UNO_PROVIDER"

var runners = map[string]Runner{}

// RegisterRunner registers a provider runner under its provider name.
func RegisterRunner(provider string, r Runner) {
	if _, ok := runners[provider]; ok {
		panic(fmt.Sprintf("runner already registered: %q", provider))
	}
	runners[provider] = r
}

// Run starts the runner selected by the UNO_PROVIDER env var.
func Run(ctx context.Context, iv *Invocable) {
	provider := os.Getenv(envProvider)
	r := runners[provider]
	if r == nil {
		panic(fmt.Sprintf("no runner registered for provider: %q", provider))
	}
	r(ctx, iv)
}
