// Package azurefunc adapts the Azure Functions custom handler protocol onto
// the uniform event model. The functions host round-trips every invocation
// over a local HTTP hop: the worker receives an envelope with the trigger
// bindings and answers with outputs, collected logs and a return value.
package azurefunc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	uno "github.com/uno-serverless/uno-go"
)

// Provider is the adapter discriminator placed on every uniform context.
const Provider = "azure"

const (
	envPort         = "FUNCTIONS_CUSTOMHANDLER_PORT"
	httpBindingIn   = "req"
	httpBindingOut  = "res"
	invocationIDHdr = "X-Azure-Functions-InvocationId"
)

// invokeRequest is the host-to-worker invocation envelope.
type invokeRequest struct {
	Data     map[string]json.RawMessage `json:"Data"`
	Metadata map[string]json.RawMessage `json:"Metadata"`
}

// httpTriggerData is the http binding payload within the envelope.
type httpTriggerData struct {
	URL     string              `json:"Url"`
	Method  string              `json:"Method"`
	Query   map[string]string   `json:"Query"`
	Headers map[string][]string `json:"Headers"`
	Params  map[string]string   `json:"Params"`
	Body    string              `json:"Body"`
}

// invokeResponse is the worker-to-host completion envelope.
type invokeResponse struct {
	Outputs     map[string]any `json:"Outputs,omitempty"`
	Logs        []string       `json:"Logs,omitempty"`
	ReturnValue any            `json:"ReturnValue,omitempty"`
}

type httpOutput struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`
}

// Handler serves the custom handler protocol for a built pipeline. Exposed
// for tests; Runner wires it into the worker HTTP server.
func Handler(iv *uno.Invocable) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			_, _ = io.Copy(io.Discard, req.Body)
			_ = req.Body.Close()
		}()

		var envelope invokeRequest
		if err := json.NewDecoder(req.Body).Decode(&envelope); err != nil {
			writeEnvelope(w, http.StatusBadRequest, invokeResponse{
				Logs: []string{"failed to decode invocation envelope: " + err.Error()},
			})
			return
		}

		logs := &logCollector{}
		uctx := &uno.Context{
			InvocationID: invocationID(req, envelope),
			Log:          logs,
			Provider:     Provider,
			Original:     &envelope,
		}

		if raw, ok := envelope.Data[httpBindingIn]; ok {
			completeHTTP(req.Context(), w, iv, uctx, logs, raw)
			return
		}
		completeAny(req.Context(), w, iv, uctx, logs, envelope)
	})
}

func completeHTTP(ctx context.Context, w http.ResponseWriter, iv *uno.Invocable, uctx *uno.Context, logs *logCollector, raw json.RawMessage) {
	event, err := toHTTPEvent(raw)

	var resp uno.HTTPResponse
	if err == nil {
		var res any
		res, err = iv.Invoke(ctx, event, uctx)
		if err == nil {
			resp = uno.ResultResponse(res)
		}
	}
	if err != nil {
		// The http path always completes with a provider-valid response.
		resp = uno.ErrorResponse(uno.NormalizeError(err))
	}

	out, marshalErr := toHTTPOutput(resp)
	if marshalErr != nil {
		out, _ = toHTTPOutput(uno.ErrorResponse(uno.InternalServerError(marshalErr)))
	}

	writeEnvelope(w, http.StatusOK, invokeResponse{
		Outputs: map[string]any{httpBindingOut: out},
		Logs:    logs.entries(),
	})
}

func completeAny(ctx context.Context, w http.ResponseWriter, iv *uno.Invocable, uctx *uno.Context, logs *logCollector, envelope invokeRequest) {
	payload, _ := json.Marshal(envelope.Data)
	event := uno.NewAnyEvent(payload, &envelope)

	res, err := iv.Invoke(ctx, event, uctx)
	if err != nil {
		// Non-2xx marks the invocation failed on the host's error channel.
		writeEnvelope(w, http.StatusInternalServerError, invokeResponse{
			Logs: append(logs.entries(), "invocation failed: "+err.Error()),
		})
		return
	}

	writeEnvelope(w, http.StatusOK, invokeResponse{
		Logs:        logs.entries(),
		ReturnValue: res,
	})
}

func toHTTPEvent(raw json.RawMessage) (*uno.HTTPEvent, error) {
	var data httpTriggerData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, uno.BadRequestError("failed to decode http trigger data: " + err.Error())
	}

	ev := uno.NewHTTPEvent(&data)
	ev.Method = data.Method
	ev.URL = data.URL
	if data.Body != "" {
		ev.RawBody = []byte(data.Body)
	}

	for k, vals := range data.Headers {
		for _, v := range vals {
			ev.Headers.Add(k, v)
		}
	}
	ev.ClientIP = ev.Headers.Get("X-Forwarded-For")

	// Query first, then route params, later-wins on collision.
	for k, v := range data.Query {
		ev.Params[k] = v
	}
	for k, v := range data.Params {
		ev.Params[k] = v
	}

	return ev, nil
}

func toHTTPOutput(resp uno.HTTPResponse) (httpOutput, error) {
	out := httpOutput{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{},
	}
	// The envelope carries a flat header map, multiple values are combined.
	for k, vals := range resp.Headers {
		out.Headers[k] = strings.Join(vals, ", ")
	}

	switch body := resp.Body.(type) {
	case nil:
	case string:
		out.Body = body
	case []byte:
		out.Body = string(body)
	default:
		b, err := json.Marshal(body)
		if err != nil {
			return httpOutput{}, err
		}
		out.Body = string(b)
		if out.Headers["Content-Type"] == "" {
			out.Headers["Content-Type"] = "application/json"
		}
	}
	return out, nil
}

func invocationID(req *http.Request, envelope invokeRequest) string {
	if id := req.Header.Get(invocationIDHdr); id != "" {
		return id
	}
	var sys struct {
		RandGuid string `json:"RandGuid"`
	}
	if raw, ok := envelope.Metadata["sys"]; ok {
		_ = json.Unmarshal(raw, &sys)
	}
	if sys.RandGuid != "" {
		return sys.RandGuid
	}
	return uuid.NewString()
}

func writeEnvelope(w http.ResponseWriter, status int, resp invokeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// logCollector buffers the three-level log entries for one invocation so
// they can ride back to the host in the completion envelope.
type logCollector struct {
	mu   sync.Mutex
	logs []string
}

func (l *logCollector) Info(msg string, args ...any)  { l.append("info", msg, args) }
func (l *logCollector) Warn(msg string, args ...any)  { l.append("warn", msg, args) }
func (l *logCollector) Error(msg string, args ...any) { l.append("error", msg, args) }

func (l *logCollector) append(level, msg string, args []any) {
	entry := "[" + level + "] " + msg
	for i := 0; i+1 < len(args); i += 2 {
		entry += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	l.mu.Lock()
	l.logs = append(l.logs, entry)
	l.mu.Unlock()
}

func (l *logCollector) entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.logs...)
}

// Runner serves the worker HTTP server on the port assigned by the
// functions host, shutting down gracefully when ctx is done.
func Runner() uno.Runner {
	return func(ctx context.Context, iv *uno.Invocable) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		s := &http.Server{
			Addr:    fmt.Sprintf(":%d", port()),
			Handler: Handler(iv),
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			logger.Info("shutting down custom handler worker...")
			if err := s.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown worker", "err", err)
			}
		}()

		logger.Info("serving custom handler worker on port " + strconv.Itoa(port()))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("unexpected shutdown of worker", "err", err)
		}
	}
}

func port() int {
	if v, _ := strconv.Atoi(os.Getenv(envPort)); v > 0 {
		return v
	}
	return 8080
}
