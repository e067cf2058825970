package uno

import (
	"context"
	"encoding/json"
	"mime"
	"strings"
)

// ParseBody verifies the raw body of an http event is parseable up front so
// inner middlewares and the terminal handler can rely on Body accessors not
// failing on syntax. Content type is taken from the declared header, falling
// back to sniffing, with JSON as the default. Malformed input short-circuits
// with a badRequest classified error.
func ParseBody() Middleware {
	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
			ev := arg.HTTP()
			if ev == nil || len(ev.RawBody) == 0 {
				return next.Handle(ctx, arg)
			}

			if isJSONContent(ev) && !json.Valid(ev.RawBody) {
				return nil, BadRequestError("request body is not valid JSON")
			}

			return next.Handle(ctx, arg)
		})
	}
}

func isJSONContent(ev *HTTPEvent) bool {
	ct := ev.Header("Content-Type")
	if ct == "" {
		return sniffJSON(ev.RawBody)
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func sniffJSON(body []byte) bool {
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '{', '[', '"', 't', 'f', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}
