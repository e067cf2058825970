package unotest

import (
	"encoding/json"
	"testing"

	uno "github.com/uno-serverless/uno-go"
)

// WantFn defines the assertions for an invocation outcome.
type WantFn func(t *testing.T, res any, err error)

// Want runs a set of want fns upon the invocation outcome.
func Want(t *testing.T, res any, err error, wants ...WantFn) {
	t.Helper()

	for _, want := range wants {
		want(t, res, err)
	}
}

// WantNoErr verifies the invocation succeeded.
func WantNoErr() WantFn {
	return func(t *testing.T, res any, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("received unexpected error:\n\t\tgot:\t%s", err)
		}
	}
}

// WantErrCode verifies the invocation failed with the given standard code.
func WantErrCode(code uno.ErrorCode) WantFn {
	return func(t *testing.T, res any, err error) {
		t.Helper()
		if err == nil {
			t.Fatalf("expected error with code %q, got nil error and result %+v", code, res)
		}
		got := uno.ErrorDataOf(err)
		if got.Code != string(code) {
			t.Errorf("error code does not match:\n\t\twant:\t%s\n\t\tgot:\t%s (%s)", code, got.Code, err)
		}
	}
}

// WantStatus verifies the mapped HTTP status of the outcome.
func WantStatus(want int) WantFn {
	return func(t *testing.T, res any, err error) {
		t.Helper()
		got := 0
		if err != nil {
			got = uno.StatusCodeOf(err)
		} else {
			got = uno.ResultResponse(res).StatusCode
		}
		if got != want {
			t.Errorf("status does not match:\n\t\twant:\t%d\n\t\tgot:\t%d", want, got)
		}
	}
}

// WantRawBody verifies the result maps to a raw body with matching content.
func WantRawBody(want string) WantFn {
	return func(t *testing.T, res any, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("received unexpected error:\n\t\tgot:\t%s", err)
		}
		resp := uno.ResultResponse(res)
		if !resp.IsRaw {
			t.Fatalf("expected a raw body, got %+v", resp)
		}
		var got string
		switch v := resp.Body.(type) {
		case string:
			got = v
		case []byte:
			got = string(v)
		}
		if got != want {
			t.Errorf("raw body does not match:\n\t\twant:\t%s\n\t\tgot:\t%s", want, got)
		}
	}
}

// WantJSONBody verifies the result serializes to the wanted JSON document.
func WantJSONBody(want string) WantFn {
	return func(t *testing.T, res any, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("received unexpected error:\n\t\tgot:\t%s", err)
		}
		b, merr := json.Marshal(uno.ResultResponse(res).Body)
		if merr != nil {
			t.Fatalf("failed to marshal result body: %s", merr)
		}

		var gotDoc, wantDoc any
		if err := json.Unmarshal(b, &gotDoc); err != nil {
			t.Fatalf("result body is not valid JSON: %s", err)
		}
		if err := json.Unmarshal([]byte(want), &wantDoc); err != nil {
			t.Fatalf("want body is not valid JSON: %s", err)
		}

		gotNorm, _ := json.Marshal(gotDoc)
		wantNorm, _ := json.Marshal(wantDoc)
		if string(gotNorm) != string(wantNorm) {
			t.Errorf("json body does not match:\n\t\twant:\t%s\n\t\tgot:\t%s", wantNorm, gotNorm)
		}
	}
}
