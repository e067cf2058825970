package uno

import "context"

// Dependency names an external client (database, queue, HTTP API) at the
// framework boundary. Calls routed through it get uniform failure
// classification: an error that does not already carry the status-code
// capability is re-raised as a dependencyError targeting this dependency.
// Already classified errors pass through unchanged.
//
// Go has no dynamic property interception, so instead of proxying every
// method the wrapper is applied per call site. Plain field reads on the
// underlying client are unaffected.
type Dependency struct {
	name string
}

// NewDependency creates a named dependency boundary.
func NewDependency(name string) Dependency {
	return Dependency{name: name}
}

// Name returns the dependency name used as the error target.
func (d Dependency) Name() string { return d.name }

// Do invokes fn and classifies its failure.
func (d Dependency) Do(ctx context.Context, fn func(context.Context) error) error {
	return d.classify(fn(ctx))
}

func (d Dependency) classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(StatusCoder); ok {
		return err
	}
	return DependencyError(d.name, err)
}

// DepCall invokes a value-returning dependency call, classifying its failure.
func DepCall[T any](ctx context.Context, d Dependency, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	return v, d.classify(err)
}

// DepCall2 invokes a two-value dependency call, classifying its failure.
func DepCall2[T, U any](ctx context.Context, d Dependency, fn func(context.Context) (T, U, error)) (T, U, error) {
	v1, v2, err := fn(ctx)
	return v1, v2, d.classify(err)
}
