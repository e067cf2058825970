package uno

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// defaultBodyMethods is the set of methods expected to carry a request body.
// The enumeration is configurable via WithBodyMethods since custom methods
// exist in the wild.
var defaultBodyMethods = []string{"POST", "PUT", "PATCH"}

// ValidateOpt configures the validation middlewares.
type ValidateOpt func(*validateCfg)

type validateCfg struct {
	bodyMethods []string
}

// WithBodyMethods overrides the methods treated as body-bearing.
func WithBodyMethods(methods ...string) ValidateOpt {
	return func(c *validateCfg) { c.bodyMethods = methods }
}

// ValidateBody validates the parsed request body against a JSON schema.
// Methods outside the body-bearing set (default POST/PUT/PATCH) pass
// through untouched. An entirely absent body raises badRequest, never
// validationError; schema violations raise a validationError with one
// ErrorData per violated constraint.
func ValidateBody(schema string, opts ...ValidateOpt) Middleware {
	cfg := validateCfg{bodyMethods: defaultBodyMethods}
	for _, o := range opts {
		o(&cfg)
	}
	compiled := mustCompileSchema(schema)

	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
			ev := arg.HTTP()
			if ev == nil || !methodIn(ev.Method, cfg.bodyMethods) {
				return next.Handle(ctx, arg)
			}

			raw, err := ev.Body(BodyOptions{Required: true})
			if err != nil {
				return nil, err
			}

			if err := validateDocument(compiled, gojsonschema.NewBytesLoader(raw)); err != nil {
				return nil, err
			}

			return next.Handle(ctx, arg)
		})
	}
}

// ValidateParameters validates the merged path+query parameters against a
// JSON schema.
func ValidateParameters(schema string) Middleware {
	compiled := mustCompileSchema(schema)

	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
			ev := arg.HTTP()
			if ev == nil {
				return next.Handle(ctx, arg)
			}

			if err := validateDocument(compiled, gojsonschema.NewGoLoader(map[string]any(ev.Params))); err != nil {
				return nil, err
			}

			return next.Handle(ctx, arg)
		})
	}
}

// ValidateEvent validates a document view of the whole http event (method,
// url, headers, parameters, body) against a JSON schema.
func ValidateEvent(schema string) Middleware {
	compiled := mustCompileSchema(schema)

	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
			ev := arg.HTTP()
			if ev == nil {
				return next.Handle(ctx, arg)
			}

			doc := map[string]any{
				"httpMethod": ev.Method,
				"url":        ev.URL,
				"headers":    flattenHeaders(ev),
				"parameters": map[string]any(ev.Params),
			}
			if raw, err := ev.Body(BodyOptions{}); err == nil && raw != nil {
				doc["body"] = json.RawMessage(raw)
			}

			if err := validateDocument(compiled, gojsonschema.NewGoLoader(doc)); err != nil {
				return nil, err
			}

			return next.Handle(ctx, arg)
		})
	}
}

func mustCompileSchema(schema string) *gojsonschema.Schema {
	sl := gojsonschema.NewSchemaLoader()
	compiled, err := sl.Compile(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid validation schema: %s", err))
	}
	return compiled
}

func validateDocument(schema *gojsonschema.Schema, doc gojsonschema.JSONLoader) error {
	result, err := schema.Validate(doc)
	if err != nil {
		return BadRequestError("failed to validate document: " + err.Error())
	}
	if result.Valid() {
		return nil
	}

	details := make([]ErrorData, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		details = append(details, ErrorData{
			Code:    violation.Type(),
			Message: violation.Description(),
			Target:  violation.Field(),
		})
	}
	return ValidationError(details...)
}

func methodIn(method string, set []string) bool {
	for _, m := range set {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func flattenHeaders(ev *HTTPEvent) map[string]any {
	out := make(map[string]any, len(ev.Headers))
	for k := range ev.Headers {
		out[k] = ev.Headers.Get(k)
	}
	return out
}
