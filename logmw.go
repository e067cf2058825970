package uno

import (
	"context"
	"strings"
)

// redactedValue replaces sensitive values in logged payloads.
const redactedValue = "[redacted]"

var defaultSensitiveKeys = []string{
	"authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"password",
	"secret",
	"token",
	"access_token",
	"refresh_token",
}

// ErrorLoggingOpt configures the error logging middleware.
type ErrorLoggingOpt func(*errorLoggingCfg)

type errorLoggingCfg struct {
	sensitiveKeys []string
}

// WithSensitiveKeys overrides the keys redacted from logged payloads.
func WithSensitiveKeys(keys ...string) ErrorLoggingOpt {
	return func(c *errorLoggingCfg) { c.sensitiveKeys = keys }
}

// ErrorLogging observes any error unwinding through it, emits a redacted
// logging payload on the uniform logger, and re-raises the error unchanged.
// Register it first so it sees failures from every inner layer.
func ErrorLogging(opts ...ErrorLoggingOpt) Middleware {
	cfg := errorLoggingCfg{sensitiveKeys: defaultSensitiveKeys}
	for _, o := range opts {
		o(&cfg)
	}

	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
			res, err := next.Handle(ctx, arg)
			if err == nil {
				return res, nil
			}

			args := []any{
				"error", err.Error(),
				"error_data", ErrorDataOf(err),
				"event_type", string(arg.Event.EventType()),
			}
			if arg.Context != nil {
				args = append(args, "invocation_id", arg.Context.InvocationID, "provider", arg.Context.Provider)
			}
			if ev := arg.HTTP(); ev != nil {
				args = append(args,
					"http_method", ev.Method,
					"url", ev.URL,
					"headers", redactMap(headersToMap(ev), cfg.sensitiveKeys),
					"parameters", redactMap(ev.Params, cfg.sensitiveKeys),
				)
			}
			arg.Log().Error("unhandled error", args...)

			return res, err
		})
	}
}

func headersToMap(ev *HTTPEvent) map[string]any {
	out := make(map[string]any, len(ev.Headers))
	for k := range ev.Headers {
		out[k] = ev.Headers.Get(k)
	}
	return out
}

func redactMap(in map[string]any, sensitive []string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if isSensitive(k, sensitive) {
			out[k] = redactedValue
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitive(key string, sensitive []string) bool {
	for _, s := range sensitive {
		if strings.EqualFold(key, s) {
			return true
		}
	}
	return false
}
