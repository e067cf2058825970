package uno_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uno "github.com/uno-serverless/uno-go"
	"github.com/uno-serverless/uno-go/unotest"
)

func TestHTTPEventBody(t *testing.T) {
	t.Run("absent optional body", func(t *testing.T) {
		ev := unotest.HTTPEvent("GET", "/")
		raw, err := ev.Body(uno.BodyOptions{})
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("absent required body", func(t *testing.T) {
		ev := unotest.HTTPEvent("POST", "/")
		_, err := ev.Body(uno.BodyOptions{Required: true})
		unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeBadRequest))
	})

	t.Run("malformed body", func(t *testing.T) {
		ev := unotest.HTTPEvent("POST", "/", unotest.WithBody(`{"a":`))
		_, err := ev.Body(uno.BodyOptions{})
		unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeBadRequest))
	})

	t.Run("bind decodes into target", func(t *testing.T) {
		type payload struct {
			Name string `json:"name"`
		}
		ev := unotest.HTTPEvent("POST", "/", unotest.WithBody(`{"name":"frodo"}`))

		var v payload
		require.NoError(t, ev.Bind(&v, uno.BodyOptions{Required: true}))
		assert.Equal(t, "frodo", v.Name)
	})
}

func TestHTTPEventHeadersCaseInsensitive(t *testing.T) {
	ev := unotest.HTTPEvent("GET", "/", unotest.WithHeader("X-Correlation-Id", "abc"))

	assert.Equal(t, "abc", ev.Header("x-correlation-id"))
	assert.Equal(t, "abc", ev.Header("X-CORRELATION-ID"))
}

func TestParams(t *testing.T) {
	p := uno.Params{"id": "5", "tags": []string{"a", "b"}}

	assert.Equal(t, "5", p.String("id"))
	assert.Equal(t, "a", p.String("tags"))
	assert.Equal(t, []string{"a", "b"}, p.Strings("tags"))
	assert.Equal(t, []string{"5"}, p.Strings("id"))
	assert.Equal(t, "", p.String("missing"))

	p.Merge(uno.Params{"id": "7", "page": "2"})
	assert.Equal(t, "7", p.String("id"), "merge is later-wins")
	assert.Equal(t, "2", p.String("page"))
}

func TestPrincipalDefaultsToUnauthorized(t *testing.T) {
	ev := unotest.HTTPEvent("GET", "/")

	_, err := ev.Principal(context.Background())
	unotest.Want(t, nil, err, unotest.WantErrCode(uno.ErrCodeUnauthorized), unotest.WantStatus(401))
}

func TestPrincipalResolverInstalled(t *testing.T) {
	ev := unotest.HTTPEvent("GET", "/")
	ev.SetPrincipalResolver(func(ctx context.Context) (uno.Principal, error) {
		return uno.Principal{ID: "u-1", Name: "sam"}, nil
	})

	p, err := ev.Principal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
}

func TestEventTypes(t *testing.T) {
	httpEv := unotest.HTTPEvent("GET", "/")
	assert.Equal(t, uno.EventTypeHTTP, httpEv.EventType())

	anyEv := uno.NewAnyEvent([]byte(`{"k":1}`), "native")
	assert.Equal(t, uno.EventTypeAny, anyEv.EventType())
	assert.Equal(t, "native", anyEv.Original())
}
