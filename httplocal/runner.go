// Package httplocal runs a built pipeline behind a plain HTTP server for
// local development. Requests map straight onto the uniform http event, so
// a function can be exercised with curl before it ever sees a cloud
// runtime.
package httplocal

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
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	uno "github.com/uno-serverless/uno-go"
)

// Provider is the adapter discriminator placed on every uniform context.
const Provider = "local"

const (
	envPort = "PORT"

	mb      = 1 << 20
	maxBody = 5 * mb
)

// bodyTooLargeError maps an oversized request body to 413 while keeping the
// client-error classification on the wire.
type bodyTooLargeError struct{}

func (bodyTooLargeError) Error() string   { return "request body exceeds the size limit" }
func (bodyTooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }
func (e bodyTooLargeError) ErrorData() uno.ErrorData {
	return uno.ErrorData{Code: string(uno.ErrCodeBadRequest), Message: e.Error()}
}

// Handler serves the pipeline over plain HTTP.
func Handler(iv *uno.Invocable, log uno.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			_, _ = io.Copy(io.Discard, req.Body)
			_ = req.Body.Close()
		}()

		event, err := toHTTPEvent(req)
		uctx := &uno.Context{
			InvocationID: uuid.NewString(),
			Log:          log,
			Provider:     Provider,
			Original:     req,
		}

		var resp uno.HTTPResponse
		if err == nil {
			var res any
			res, err = iv.Invoke(req.Context(), event, uctx)
			if err == nil {
				resp = uno.ResultResponse(res)
			}
		}
		if err != nil {
			resp = uno.ErrorResponse(err)
		}

		writeResponse(w, resp, log)
	})
}

func toHTTPEvent(req *http.Request) (*uno.HTTPEvent, error) {
	ev := uno.NewHTTPEvent(req)
	ev.Method = req.Method
	ev.URL = req.URL.Path
	ev.Headers = req.Header.Clone()
	ev.ClientIP = req.RemoteAddr

	for k, vals := range req.URL.Query() {
		if len(vals) == 1 {
			ev.Params[k] = vals[0]
			continue
		}
		ev.Params[k] = vals
	}

	if req.Body != nil {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxBody+1))
		if err != nil {
			return nil, uno.InternalServerError(fmt.Errorf("failed to read request body: %w", err))
		}
		if len(body) > maxBody {
			return nil, bodyTooLargeError{}
		}
		ev.RawBody = body
	}

	return ev, nil
}

func writeResponse(w http.ResponseWriter, resp uno.HTTPResponse, log uno.Logger) {
	for k, vals := range resp.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}

	var body []byte
	switch v := resp.Body.(type) {
	case nil:
	case string:
		body = []byte(v)
	case []byte:
		body = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			log.Error("failed to marshal response body", "err", err)
			errResp := uno.ErrorResponse(uno.InternalServerError(err))
			b, _ = json.Marshal(errResp.Body)
			resp.StatusCode = errResp.StatusCode
		}
		body = b
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		log.Error("failed to write response", "err", err)
	}
}

// Runner serves the pipeline on $PORT (default 8081) with graceful
// shutdown. Console output is pretty-printed when attached to a terminal,
// JSON otherwise.
func Runner() uno.Runner {
	return func(ctx context.Context, iv *uno.Invocable) {
		logger := newLogger()

		s := &http.Server{
			Addr:           fmt.Sprintf(":%d", port()),
			Handler:        Handler(iv, uno.SlogLogger(logger)),
			MaxHeaderBytes: mb,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			logger.Info("shutting down HTTP server...")
			if err := s.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown server", "err", err)
			}
		}()

		logger.Info("serving HTTP server on port " + strconv.Itoa(port()))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("unexpected shutdown of server", "err", err)
		}
	}
}

func newLogger() *slog.Logger {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func port() int {
	if v, _ := strconv.Atoi(os.Getenv(envPort)); v > 0 {
		return v
	}
	return 8081
}
