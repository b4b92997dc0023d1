package http

import (
	gohttp "net/http"

	"github.com/go-kit/kit/log"
	"github.com/hashicorp/go-secure-stdlib/strutil"
	"github.com/pkg/errors"
)

// ErrInvalidOrigin is logged when a request comes from an origin outside the
// allow-list.
var ErrInvalidOrigin = errors.New("origin not allowed")

const corsAllowedMethods = "GET,HEAD,PUT,PATCH,POST,DELETE"

var corsRejected = errorResponse{Success: false, Message: "Not allowed by CORS"}

type corsPolicy struct {
	origins  []string
	wildcard bool
	log      log.Logger
}

func newCORSPolicy(origins []string, l log.Logger) *corsPolicy {
	return &corsPolicy{
		origins:  origins,
		wildcard: strutil.StrListContains(origins, "*"),
		log:      l,
	}
}

func (p *corsPolicy) allowed(origin string) bool {
	return p.wildcard || strutil.StrListContains(p.origins, origin)
}

// wrap rejects requests from origins outside the allow-list before they reach
// next, and answers preflight requests from allowed origins itself.
//
// Requests without an Origin header are not cross-origin and pass through.
func (p *corsPolicy) wrap(next gohttp.Handler) gohttp.Handler {
	return gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !p.allowed(origin) {
			_ = p.log.Log("LEVEL", "WARN", "MESSAGE", ErrInvalidOrigin.Error(), "ORIGIN", origin, "PATH", r.URL.Path)
			_ = writeJSON(w, gohttp.StatusForbidden, corsRejected)
			return
		}

		h := w.Header()
		if p.wildcard {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}

		if r.Method == gohttp.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
				h.Add("Vary", "Access-Control-Request-Headers")
			}
			h.Set("Content-Length", "0")
			w.WriteHeader(gohttp.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
