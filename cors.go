package uno

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// CORSOpts declares the cross-origin policy applied by the CORS middleware.
type CORSOpts struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	MaxAgeSecs   int
}

// CORS answers preflight OPTIONS requests directly and decorates every
// other http response with the declared cross-origin headers.
func CORS(opts CORSOpts) Middleware {
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}

	headers := make(http.Header)
	headers.Set("Access-Control-Allow-Origin", opts.AllowOrigin)
	if len(opts.AllowMethods) > 0 {
		headers.Set("Access-Control-Allow-Methods", strings.Join(opts.AllowMethods, ", "))
	}
	if len(opts.AllowHeaders) > 0 {
		headers.Set("Access-Control-Allow-Headers", strings.Join(opts.AllowHeaders, ", "))
	}
	if opts.MaxAgeSecs > 0 {
		headers.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAgeSecs))
	}

	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
			ev := arg.HTTP()
			if ev == nil {
				return next.Handle(ctx, arg)
			}

			if strings.EqualFold(ev.Method, http.MethodOptions) {
				return HTTPResponse{StatusCode: http.StatusNoContent, Headers: cloneHeader(headers)}, nil
			}

			res, err := next.Handle(ctx, arg)
			if err != nil {
				return nil, ErrWithHeaders(err, headers)
			}

			resp := ResultResponse(res)
			if resp.Headers == nil {
				resp.Headers = make(http.Header)
			}
			for k, vals := range headers {
				for _, v := range vals {
					resp.Headers.Set(k, v)
				}
			}
			return resp, nil
		})
	}
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vals := range h {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
