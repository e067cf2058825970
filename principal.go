package uno

import (
	"context"
	"encoding/base64"
	"strings"
)

// BasicAuthVerifier checks a Basic Auth credential pair and resolves the
// caller identity.
type BasicAuthVerifier func(ctx context.Context, username, password string) (Principal, error)

// PrincipalFromBasicAuth installs a principal resolver that derives the
// caller identity from the Authorization Basic header. Resolution is lazy:
// nothing is verified until the handler asks for the principal.
func PrincipalFromBasicAuth(verify BasicAuthVerifier) Middleware {
	return func(next Handler) Handler {
		return HandlerFn(func(ctx context.Context, arg *FunctionArg) (any, error) {
			ev := arg.HTTP()
			if ev == nil {
				return next.Handle(ctx, arg)
			}

			ev.SetPrincipalResolver(func(ctx context.Context) (Principal, error) {
				user, pass, err := parseBasicAuth(ev.Header("Authorization"))
				if err != nil {
					return Principal{}, err
				}
				return verify(ctx, user, pass)
			})

			return next.Handle(ctx, arg)
		})
	}
}

func parseBasicAuth(header string) (string, string, error) {
	const prefix = "Basic "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", "", UnauthorizedError("authorization header")
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", UnauthorizedError("authorization header")
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", UnauthorizedError("authorization header")
	}
	return user, pass, nil
}
