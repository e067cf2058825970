package uno

import (
	"errors"
	"net/http"
)

// HTTPResponse is the uniform response shape for http classified events.
// IsRaw marks the body as final string/bytes content that must not be
// re-serialized by the provider adapter.
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       any
	IsRaw      bool
}

// ResultResponse maps a handler result onto the uniform HTTP response:
//   - nil becomes 204 No Content with no body,
//   - a string or byte slice passes through as a raw body,
//   - an HTTPResponse keeps its declared status and headers,
//   - anything else relies on the provider's native serialization.
func ResultResponse(res any) HTTPResponse {
	switch v := res.(type) {
	case nil:
		return HTTPResponse{StatusCode: http.StatusNoContent}
	case HTTPResponse:
		return normalizeResponse(v)
	case *HTTPResponse:
		return normalizeResponse(*v)
	case string:
		return HTTPResponse{StatusCode: http.StatusOK, Body: v, IsRaw: true}
	case []byte:
		return HTTPResponse{StatusCode: http.StatusOK, Body: v, IsRaw: true}
	default:
		return HTTPResponse{StatusCode: http.StatusOK, Body: v}
	}
}

func normalizeResponse(r HTTPResponse) HTTPResponse {
	if r.StatusCode == 0 {
		if r.Body == nil {
			r.StatusCode = http.StatusNoContent
		} else {
			r.StatusCode = http.StatusOK
		}
	}
	switch r.Body.(type) {
	case string, []byte:
		r.IsRaw = true
	}
	return r
}

// ResponseHeaderer is the capability an error satisfies by carrying HTTP
// headers that ride along on the mapped error response.
type ResponseHeaderer interface {
	ResponseHeaders() http.Header
}

// ErrWithHeaders decorates err so the error response produced for it
// carries the given headers. Classification, status and payload are
// preserved and errors.Is/As keep seeing the original chain.
func ErrWithHeaders(err error, headers http.Header) error {
	if err == nil {
		return nil
	}
	return &headeredError{err: NormalizeError(err), headers: headers}
}

type headeredError struct {
	err     error
	headers http.Header
}

func (h *headeredError) Error() string                { return h.err.Error() }
func (h *headeredError) Unwrap() error                { return h.err }
func (h *headeredError) StatusCode() int              { return StatusCodeOf(h.err) }
func (h *headeredError) ErrorData() ErrorData         { return ErrorDataOf(h.err) }
func (h *headeredError) ResponseHeaders() http.Header { return h.headers }

// ErrorResponse maps a pipeline error onto the uniform HTTP response. The
// body mirrors ErrorData, except for errors carrying the custom payload
// capability, whose payload is used verbatim. Headers attached via
// ErrWithHeaders are carried over.
func ErrorResponse(err error) HTTPResponse {
	resp := HTTPResponse{StatusCode: StatusCodeOf(err)}
	if rh, ok := err.(ResponseHeaderer); ok {
		resp.Headers = cloneHeader(rh.ResponseHeaders())
	}

	var rp ResponsePayloader
	if errors.As(err, &rp) {
		resp.Body = rp.ResponsePayload()
		return resp
	}
	resp.Body = struct {
		Error ErrorData `json:"error"`
	}{Error: ErrorDataOf(err)}
	return resp
}
