package uno_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uno "github.com/uno-serverless/uno-go"
)

func TestResultResponse(t *testing.T) {
	t.Run("nil result is no content with no body", func(t *testing.T) {
		resp := uno.ResultResponse(nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Nil(t, resp.Body)
	})

	t.Run("string result passes through raw", func(t *testing.T) {
		resp := uno.ResultResponse("hello")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hello", resp.Body)
		assert.True(t, resp.IsRaw)
	})

	t.Run("byte result passes through raw", func(t *testing.T) {
		resp := uno.ResultResponse([]byte{0x1, 0x2})
		assert.True(t, resp.IsRaw)
		assert.Equal(t, []byte{0x1, 0x2}, resp.Body)
	})

	t.Run("declared status carried on raw body", func(t *testing.T) {
		resp := uno.ResultResponse(uno.HTTPResponse{StatusCode: 201, Body: "created"})
		assert.Equal(t, 201, resp.StatusCode)
		assert.Equal(t, "created", resp.Body)
		assert.True(t, resp.IsRaw)
	})

	t.Run("empty response defaults to no content", func(t *testing.T) {
		resp := uno.ResultResponse(uno.HTTPResponse{})
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("struct result left to provider serialization", func(t *testing.T) {
		type out struct{ N int }
		resp := uno.ResultResponse(out{N: 1})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, resp.IsRaw)
	})
}

func TestErrorResponse(t *testing.T) {
	t.Run("error data mirrored in body", func(t *testing.T) {
		resp := uno.ErrorResponse(uno.NotFoundError("user"))
		assert.Equal(t, 404, resp.StatusCode)

		body, ok := resp.Body.(struct {
			Error uno.ErrorData `json:"error"`
		})
		require.True(t, ok)
		assert.Equal(t, string(uno.ErrCodeNotFound), body.Error.Code)
		assert.Equal(t, "user", body.Error.Target)
	})

	t.Run("custom payload replaces error data", func(t *testing.T) {
		resp := uno.ErrorResponse(uno.OAuthError("invalid_grant", "expired"))
		assert.Equal(t, 400, resp.StatusCode)

		payload, ok := resp.Body.(uno.OAuthPayload)
		require.True(t, ok)
		assert.Equal(t, "invalid_grant", payload.Error)
	})

	t.Run("decorated error keeps headers, status and payload", func(t *testing.T) {
		headers := make(http.Header)
		headers.Set("Access-Control-Allow-Origin", "*")

		resp := uno.ErrorResponse(uno.ErrWithHeaders(uno.OAuthError("invalid_grant", "expired"), headers))
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, "*", resp.Headers.Get("Access-Control-Allow-Origin"))

		_, ok := resp.Body.(uno.OAuthPayload)
		assert.True(t, ok, "payload capability found through the decoration")
	})

	t.Run("decorated error data resolves through the decoration", func(t *testing.T) {
		err := uno.ErrWithHeaders(uno.NotFoundError("user"), make(http.Header))
		assert.Equal(t, string(uno.ErrCodeNotFound), uno.ErrorDataOf(err).Code)
		assert.Equal(t, 404, uno.StatusCodeOf(err))
	})
}
