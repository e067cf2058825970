package uno_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uno "github.com/uno-serverless/uno-go"
	"github.com/uno-serverless/uno-go/unotest"
)

type capturingLogger struct {
	msgs []string
	args [][]any
}

func (c *capturingLogger) Info(msg string, args ...any) {}
func (c *capturingLogger) Warn(msg string, args ...any) {}
func (c *capturingLogger) Error(msg string, args ...any) {
	c.msgs = append(c.msgs, msg)
	c.args = append(c.args, args)
}

func loggedValue(t *testing.T, args []any, key string) any {
	t.Helper()
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1]
		}
	}
	t.Fatalf("key %q not found in logged args", key)
	return nil
}

func TestErrorLogging(t *testing.T) {
	logger := &capturingLogger{}
	raised := uno.NotFoundError("widget")

	iv := uno.NewPipeline().
		Use(uno.ErrorLogging()).
		Build(uno.ErrHandler(raised))

	ev := unotest.HTTPEvent("GET", "/widgets/1",
		unotest.WithHeader("Authorization", "Bearer s3cr3t"),
		unotest.WithHeader("Accept", "application/json"),
		unotest.WithParam("token", "abc"),
		unotest.WithParam("id", "1"),
	)

	_, err := iv.Invoke(context.Background(), ev, &uno.Context{InvocationID: "inv-1", Provider: "test", Log: logger})

	require.ErrorIs(t, err, raised, "error must be re-raised unchanged")
	require.Len(t, logger.msgs, 1)

	args := logger.args[0]
	assert.Equal(t, "inv-1", loggedValue(t, args, "invocation_id"))
	assert.Equal(t, "GET", loggedValue(t, args, "http_method"))

	headers := loggedValue(t, args, "headers").(map[string]any)
	assert.Equal(t, "[redacted]", headers["Authorization"])
	assert.Equal(t, "application/json", headers["Accept"])

	params := loggedValue(t, args, "parameters").(map[string]any)
	assert.Equal(t, "[redacted]", params["token"])
	assert.Equal(t, "1", params["id"])
}

func TestErrorLoggingSilentOnSuccess(t *testing.T) {
	logger := &capturingLogger{}

	iv := uno.NewPipeline().
		Use(uno.ErrorLogging()).
		Build(okHandler())

	_, err := iv.Invoke(context.Background(), unotest.HTTPEvent("GET", "/"), &uno.Context{Log: logger})
	require.NoError(t, err)
	assert.Empty(t, logger.msgs)
}

func TestErrorLoggingCustomSensitiveKeys(t *testing.T) {
	logger := &capturingLogger{}

	iv := uno.NewPipeline().
		Use(uno.ErrorLogging(uno.WithSensitiveKeys("x-internal"))).
		Build(uno.ErrHandler(uno.BadRequestError("nope")))

	ev := unotest.HTTPEvent("GET", "/",
		unotest.WithHeader("X-Internal", "hidden"),
		unotest.WithHeader("Authorization", "now visible"),
	)

	_, err := iv.Invoke(context.Background(), ev, &uno.Context{Log: logger})
	require.Error(t, err)

	headers := loggedValue(t, logger.args[0], "headers").(map[string]any)
	assert.Equal(t, "[redacted]", headers["X-Internal"])
	assert.Equal(t, "now visible", headers["Authorization"])
}
