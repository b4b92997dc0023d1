// Package http makes the view service endpoints available via HTTP.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	gohttp "net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"

	viewendpoint "github.com/rwool/viewcounter/pkg/endpoint"
)

// LivenessMessage is the body served at the root path.
const LivenessMessage = "Counter Backend API is running!"

// Config contains the configuration for the API handler.
type Config struct {
	// AllowedOrigins is the cross-origin allow-list. A single "*" entry allows
	// every origin.
	AllowedOrigins []string
	Log            log.Logger
	// Metrics, if set, is served at /metrics.
	Metrics gohttp.Handler
	// Options holds extra Go kit server options keyed by route name
	// ("IncrementView" or "Views").
	Options map[string][]http.ServerOption
}

// NewAPIHTTPHandler returns a handler that makes the view service endpoints
// available via HTTP.
func NewAPIHTTPHandler(eps viewendpoint.Endpoints, conf Config) gohttp.Handler {
	if conf.Options == nil {
		conf.Options = make(map[string][]http.ServerOption)
	}
	if conf.Log == nil {
		conf.Log = log.NewNopLogger()
	}
	common := []http.ServerOption{
		http.ServerErrorEncoder(encodeError),
		http.ServerErrorLogger(conf.Log),
	}

	m := gohttp.NewServeMux()
	m.HandleFunc("/", handleRoot)
	makeRoute(m, "/api/increment-view", gohttp.MethodPost, eps.IncrementView,
		decodeIncrementViewRequest,
		append(common, conf.Options["IncrementView"]...)...)
	makeRoute(m, "/api/views", gohttp.MethodGet, eps.Views,
		decodeViewsRequest,
		append(common, conf.Options["Views"]...)...)
	if conf.Metrics != nil {
		m.Handle("/metrics", conf.Metrics)
	}

	return newCORSPolicy(conf.AllowedOrigins, conf.Log).wrap(m)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var serverError = errorResponse{Success: false, Message: "Server error"}

func writeJSON(w gohttp.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return errors.WithStack(json.NewEncoder(w).Encode(v))
}

// encodeAPIResponse writes r as JSON, or the generic server error if the
// business logic failed. Error detail never reaches the client.
func encodeAPIResponse(_ context.Context, w gohttp.ResponseWriter, r interface{}) error {
	if v, ok := r.(endpoint.Failer); ok && v.Failed() != nil {
		_ = writeJSON(w, gohttp.StatusInternalServerError, serverError)
		return nil
	}
	return writeJSON(w, gohttp.StatusOK, r)
}

func encodeError(_ context.Context, _ error, w gohttp.ResponseWriter) {
	_ = writeJSON(w, gohttp.StatusInternalServerError, serverError)
}

// decodeIncrementViewRequest ignores the body; the route takes no input.
func decodeIncrementViewRequest(_ context.Context, _ *gohttp.Request) (interface{}, error) {
	return viewendpoint.IncrementViewRequest{}, nil
}

func decodeViewsRequest(_ context.Context, _ *gohttp.Request) (interface{}, error) {
	return viewendpoint.ViewsRequest{}, nil
}

func handleRoot(w gohttp.ResponseWriter, r *gohttp.Request) {
	if r.URL.Path != "/" {
		gohttp.NotFound(w, r)
		return
	}
	if r.Method != gohttp.MethodGet && r.Method != gohttp.MethodHead {
		w.WriteHeader(gohttp.StatusMethodNotAllowed)
		_, _ = fmt.Fprintf(w, "Invalid request method %s", r.Method)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, LivenessMessage)
}

func makeRoute(m *gohttp.ServeMux, path, method string, e endpoint.Endpoint, dec http.DecodeRequestFunc, options ...http.ServerOption) {
	handler := http.NewServer(e, dec, encodeAPIResponse, options...)
	hf := func(w gohttp.ResponseWriter, r *gohttp.Request) {
		// HEAD is answered like GET; net/http discards the body.
		if r.Method != method && !(method == gohttp.MethodGet && r.Method == gohttp.MethodHead) {
			w.WriteHeader(gohttp.StatusMethodNotAllowed)
			_, _ = fmt.Fprintf(w, "Invalid request method %s", r.Method)
			return
		}
		handler.ServeHTTP(w, r)
	}
	m.Handle(path, gohttp.HandlerFunc(hf))
}
