package uno

import (
	"context"
	"fmt"
	"strings"
)

// MethodRouter dispatches to a handler selected by HTTP method. A miss
// raises methodNotAllowedError.
func MethodRouter(routes map[string]Handler) Handler {
	normalized := make(map[string]Handler, len(routes))
	for m, h := range routes {
		if h == nil {
			panic(fmt.Sprintf("nil handler for method: %q", m))
		}
		normalized[strings.ToUpper(m)] = h
	}

	return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
		ev := arg.HTTP()
		if ev == nil {
			return nil, BadRequestError("expected an http event")
		}
		h, ok := normalized[strings.ToUpper(ev.Method)]
		if !ok {
			return nil, MethodNotAllowedError(ev.Method)
		}
		return h.Handle(ctx, arg)
	})
}

// Router matches path-templated routes against the request path and
// dispatches by method. Routes are tried in declaration order, first match
// wins. Named :segments are extracted and merged into the event parameters,
// later-wins on key collision.
//
// A path matching no pattern raises notFoundError; a matched pattern
// without the method raises methodNotAllowedError.
type Router struct {
	routes    []route
	pathParam string
}

type route struct {
	pattern string
	segs    []string
	methods map[string]Handler
}

// RouterOpt configures a Router.
type RouterOpt func(*Router)

// WithPathParam takes the routed path from the named catch-all parameter
// instead of the event URL. Useful behind gateways that capture the path
// suffix into a parameter.
func WithPathParam(name string) RouterOpt {
	return func(r *Router) { r.pathParam = name }
}

// NewRouter creates an empty router.
func NewRouter(opts ...RouterOpt) *Router {
	r := &Router{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Route registers a pattern with its per-method handlers. Registration
// order is match order.
func (r *Router) Route(pattern string, methods map[string]Handler) *Router {
	if pattern == "" {
		panic("route pattern must be provided")
	}
	if len(methods) == 0 {
		panic(fmt.Sprintf("no handlers provided for route: %q", pattern))
	}
	for _, rt := range r.routes {
		if rt.pattern == pattern {
			panic(fmt.Sprintf("multiple registrations for route: %q", pattern))
		}
	}

	normalized := make(map[string]Handler, len(methods))
	for m, h := range methods {
		if h == nil {
			panic(fmt.Sprintf("nil handler for: %q", m+" "+pattern))
		}
		normalized[strings.ToUpper(m)] = h
	}

	r.routes = append(r.routes, route{
		pattern: pattern,
		segs:    splitPath(pattern),
		methods: normalized,
	})
	return r
}

// Handle implements Handler.
func (r *Router) Handle(ctx context.Context, arg *FunctionArg) (any, error) {
	ev := arg.HTTP()
	if ev == nil {
		return nil, BadRequestError("expected an http event")
	}

	path := r.routedPath(ev)
	for _, rt := range r.routes {
		params, ok := matchRoute(rt.segs, splitPath(path))
		if !ok {
			continue
		}

		h, ok := rt.methods[strings.ToUpper(ev.Method)]
		if !ok {
			return nil, MethodNotAllowedError(ev.Method)
		}

		ev.Params.Merge(params)
		return h.Handle(ctx, arg)
	}

	return nil, NotFoundError(path)
}

func (r *Router) routedPath(ev *HTTPEvent) string {
	if r.pathParam != "" {
		return ev.Params.String(r.pathParam)
	}
	path := ev.URL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchRoute(pattern, path []string) (Params, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	params := make(Params)
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			params[seg[1:]] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}
