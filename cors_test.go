package uno_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uno "github.com/uno-serverless/uno-go"
	"github.com/uno-serverless/uno-go/unotest"
)

func TestCORS(t *testing.T) {
	iv := uno.NewPipeline().
		Use(uno.CORS(uno.CORSOpts{
			AllowOrigin:  "https://app.example.com",
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Content-Type"},
			MaxAgeSecs:   600,
		})).
		Build(okHandler())
	invoke := unotest.Invoker(t, iv)

	t.Run("preflight short-circuits", func(t *testing.T) {
		res, err := invoke(context.Background(), unotest.HTTPEvent("OPTIONS", "/"))
		require.NoError(t, err)

		resp := uno.ResultResponse(res)
		assert.Equal(t, 204, resp.StatusCode)
		assert.Equal(t, "https://app.example.com", resp.Headers.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST", resp.Headers.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", resp.Headers.Get("Access-Control-Max-Age"))
	})

	t.Run("response decorated on the way out", func(t *testing.T) {
		res, err := invoke(context.Background(), unotest.HTTPEvent("GET", "/"))
		require.NoError(t, err)

		resp := uno.ResultResponse(res)
		assert.Equal(t, "https://app.example.com", resp.Headers.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "ok", resp.Body)
	})

	t.Run("error responses carry the cors headers", func(t *testing.T) {
		raised := uno.NotFoundError("x")
		failing := uno.NewPipeline().
			Use(uno.CORS(uno.CORSOpts{AllowOrigin: "https://app.example.com"})).
			Build(uno.ErrHandler(raised))

		_, err := unotest.Invoker(t, failing)(context.Background(), unotest.HTTPEvent("GET", "/"))
		unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeNotFound), unotest.WantStatus(404))
		require.ErrorIs(t, err, raised, "classification and identity survive the decoration")

		resp := uno.ErrorResponse(err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.Equal(t, "https://app.example.com", resp.Headers.Get("Access-Control-Allow-Origin"))
	})
}
