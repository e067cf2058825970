// Package awslambda adapts AWS Lambda invocations onto the uniform event
// model. API Gateway proxy events are classified http, everything else runs
// through the generic any path.
package awslambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"

	uno "github.com/uno-serverless/uno-go"
)

// Provider is the adapter discriminator placed on every uniform context.
const Provider = "aws"

// Opt configures the adapter.
type Opt func(*adapter)

type adapter struct {
	log uno.Logger
}

// WithLogger overrides the default zerolog stdout logger.
func WithLogger(l uno.Logger) Opt {
	return func(a *adapter) { a.log = l }
}

func newAdapter(opts []Opt) *adapter {
	a := &adapter{}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
		a.log = uno.ZerologLogger(zl)
	}
	return a
}

// APIGatewayHandler produces the native Lambda handler signature for API
// Gateway proxy integrations. The handler never lets a pipeline error
// escape: every failure still yields a valid proxy response.
func APIGatewayHandler(iv *uno.Invocable, opts ...Opt) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	a := newAdapter(opts)

	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		event, err := toHTTPEvent(&req)
		if err != nil {
			return toProxyResponse(uno.ErrorResponse(err)), nil
		}

		res, err := iv.Invoke(ctx, event, a.unoContext(ctx))
		if err != nil {
			return toProxyResponse(uno.ErrorResponse(err)), nil
		}
		return toProxyResponse(uno.ResultResponse(res)), nil
	}
}

// AnyHandler produces the native Lambda handler signature for generic
// payloads. The result and any error are forwarded on Lambda's own
// completion channel.
func AnyHandler(iv *uno.Invocable, opts ...Opt) func(context.Context, json.RawMessage) (any, error) {
	a := newAdapter(opts)

	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		event := uno.NewAnyEvent(payload, payload)
		return iv.Invoke(ctx, event, a.unoContext(ctx))
	}
}

// Start hands the API Gateway handler to the Lambda runtime.
func Start(iv *uno.Invocable, opts ...Opt) {
	lambda.Start(APIGatewayHandler(iv, opts...))
}

// StartAny hands the generic handler to the Lambda runtime.
func StartAny(iv *uno.Invocable, opts ...Opt) {
	lambda.Start(AnyHandler(iv, opts...))
}

// Runner returns a runner for registration with uno.RegisterRunner.
func Runner(opts ...Opt) uno.Runner {
	return func(ctx context.Context, iv *uno.Invocable) {
		Start(iv, opts...)
	}
}

func (a *adapter) unoContext(ctx context.Context) *uno.Context {
	invocationID := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		invocationID = lc.AwsRequestID
	}
	return &uno.Context{
		InvocationID: invocationID,
		Log:          a.log,
		Provider:     Provider,
		Original:     ctx,
	}
}

func toHTTPEvent(req *events.APIGatewayProxyRequest) (*uno.HTTPEvent, error) {
	ev := uno.NewHTTPEvent(req)
	ev.Method = req.HTTPMethod
	ev.URL = req.Path
	ev.ClientIP = req.RequestContext.Identity.SourceIP

	for k, v := range req.Headers {
		ev.Headers.Set(k, v)
	}
	for k, vals := range req.MultiValueHeaders {
		ev.Headers.Del(k)
		for _, v := range vals {
			ev.Headers.Add(k, v)
		}
	}

	// Query first, then path parameters, later-wins on collision.
	for k, v := range req.QueryStringParameters {
		ev.Params[k] = v
	}
	for k, vals := range req.MultiValueQueryStringParameters {
		switch len(vals) {
		case 0:
		case 1:
			ev.Params[k] = vals[0]
		default:
			ev.Params[k] = vals
		}
	}
	for k, v := range req.PathParameters {
		ev.Params[k] = v
	}

	if req.Body != "" {
		if req.IsBase64Encoded {
			raw, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return nil, uno.BadRequestError("failed to decode base64 request body")
			}
			ev.RawBody = raw
		} else {
			ev.RawBody = []byte(req.Body)
		}
	}

	return ev, nil
}

func toProxyResponse(resp uno.HTTPResponse) events.APIGatewayProxyResponse {
	out := events.APIGatewayProxyResponse{
		StatusCode:        resp.StatusCode,
		Headers:           map[string]string{},
		MultiValueHeaders: map[string][]string{},
	}
	for k, vals := range resp.Headers {
		out.Headers[k] = resp.Headers.Get(k)
		out.MultiValueHeaders[k] = vals
	}

	switch body := resp.Body.(type) {
	case nil:
	case string:
		out.Body = body
	case []byte:
		out.Body = base64.StdEncoding.EncodeToString(body)
		out.IsBase64Encoded = true
	default:
		b, err := json.Marshal(body)
		if err != nil {
			errResp := uno.ErrorResponse(uno.InternalServerError(err))
			b, _ = json.Marshal(errResp.Body)
			out.StatusCode = errResp.StatusCode
		}
		out.Body = string(b)
		if out.Headers["Content-Type"] == "" {
			out.Headers["Content-Type"] = "application/json"
		}
	}

	if out.StatusCode == 0 {
		out.StatusCode = http.StatusOK
	}
	return out
}
