package uno

import (
	"context"
)

// HandleOf provides a means to translate incoming HTTP events to the
// destination body type. This normalizes the sad path and hands the caller
// a zero fuss typed body to work with, reducing json boilerplate for what
// is essentially the same operation on different types.
func HandleOf[T any](fn func(ctx context.Context, arg *FunctionArg, body T) (any, error)) Handler {
	return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
		ev := arg.HTTP()
		if ev == nil {
			return nil, BadRequestError("expected an http event")
		}

		var v T
		if err := ev.Bind(&v, BodyOptions{Required: true}); err != nil {
			return nil, err
		}

		return fn(ctx, arg, v)
	})
}

// HandleOfOK decodes the body like HandleOf and additionally runs the body
// type's own validation via its OK method before invoking fn.
func HandleOfOK[T interface{ OK() []ErrorData }](fn func(ctx context.Context, arg *FunctionArg, body T) (any, error)) Handler {
	return HandleOf(func(ctx context.Context, arg *FunctionArg, body T) (any, error) {
		if details := body.OK(); len(details) > 0 {
			return nil, ValidationError(details...)
		}
		return fn(ctx, arg, body)
	})
}

// ErrHandler creates a handler that only fails with the given error.
func ErrHandler(err error) Handler {
	return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
		return nil, err
	})
}
