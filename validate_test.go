package uno_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uno "github.com/uno-serverless/uno-go"
	"github.com/uno-serverless/uno-go/unotest"
)

const userSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer", "minimum": 0}
	},
	"required": ["name"],
	"additionalProperties": false
}`

func okHandler() uno.Handler {
	return uno.HandlerFn(func(ctx context.Context, arg *uno.FunctionArg) (any, error) {
		return "ok", nil
	})
}

func TestValidateBody(t *testing.T) {
	iv := uno.NewPipeline().
		Use(uno.ValidateBody(userSchema)).
		Build(okHandler())
	invoke := unotest.Invoker(t, iv)

	t.Run("GET never raises regardless of schema", func(t *testing.T) {
		res, err := invoke(context.Background(), unotest.HTTPEvent("GET", "/users"))
		require.NoError(t, err)
		assert.Equal(t, "ok", res)
	})

	t.Run("valid body passes", func(t *testing.T) {
		ev := unotest.HTTPEvent("POST", "/users", unotest.WithBody(`{"name":"sam","age":3}`))
		_, err := invoke(context.Background(), ev)
		assert.NoError(t, err)
	})

	t.Run("schema violations raise validationError with one detail per constraint", func(t *testing.T) {
		ev := unotest.HTTPEvent("POST", "/users", unotest.WithBody(`{"age":-2,"bogus":true}`))
		_, err := invoke(context.Background(), ev)

		unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeValidation), unotest.WantStatus(400))

		data := uno.ErrorDataOf(err)
		// missing name, age below minimum, additional property
		assert.Len(t, data.Details, 3)
		for _, d := range data.Details {
			assert.NotEmpty(t, d.Code)
			assert.NotEmpty(t, d.Message)
		}
	})

	t.Run("absent body raises badRequest not validationError", func(t *testing.T) {
		_, err := invoke(context.Background(), unotest.HTTPEvent("PUT", "/users"))
		unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeBadRequest))
	})

	t.Run("malformed body raises badRequest", func(t *testing.T) {
		ev := unotest.HTTPEvent("POST", "/users", unotest.WithBody(`{"name":`))
		_, err := invoke(context.Background(), ev)
		unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeBadRequest))
	})
}

func TestValidateBodyCustomMethods(t *testing.T) {
	iv := uno.NewPipeline().
		Use(uno.ValidateBody(userSchema, uno.WithBodyMethods("REPORT"))).
		Build(okHandler())
	invoke := unotest.Invoker(t, iv)

	// POST is no longer body-bearing under the custom set
	_, err := invoke(context.Background(), unotest.HTTPEvent("POST", "/users"))
	assert.NoError(t, err)

	_, err = invoke(context.Background(), unotest.HTTPEvent("REPORT", "/users"))
	unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeBadRequest))
}

func TestValidateParameters(t *testing.T) {
	const schema = `{
		"type": "object",
		"properties": {"limit": {"type": "string", "pattern": "^[0-9]+$"}},
		"required": ["limit"]
	}`

	iv := uno.NewPipeline().
		Use(uno.ValidateParameters(schema)).
		Build(okHandler())
	invoke := unotest.Invoker(t, iv)

	_, err := invoke(context.Background(), unotest.HTTPEvent("GET", "/", unotest.WithParam("limit", "10")))
	assert.NoError(t, err)

	_, err = invoke(context.Background(), unotest.HTTPEvent("GET", "/"))
	unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeValidation))

	_, err = invoke(context.Background(), unotest.HTTPEvent("GET", "/", unotest.WithParam("limit", "ten")))
	unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeValidation))
}

func TestValidateEvent(t *testing.T) {
	const schema = `{
		"type": "object",
		"properties": {"httpMethod": {"enum": ["GET", "POST"]}},
		"required": ["httpMethod"]
	}`

	iv := uno.NewPipeline().
		Use(uno.ValidateEvent(schema)).
		Build(okHandler())
	invoke := unotest.Invoker(t, iv)

	_, err := invoke(context.Background(), unotest.HTTPEvent("GET", "/"))
	assert.NoError(t, err)

	_, err = invoke(context.Background(), unotest.HTTPEvent("TRACE", "/"))
	unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeValidation))
}

func TestValidateInvalidSchemaPanics(t *testing.T) {
	assert.Panics(t, func() { uno.ValidateBody(`{"type": 12}`) })
}
