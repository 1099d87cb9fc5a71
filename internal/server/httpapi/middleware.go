package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/auth"
	"github.com/dmitrijs2005/agrocms/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/segmentio/ksuid"
)

const requestIDHeader = "X-Request-Id"

// requestID tags every request with a KSUID, or keeps a sane inbound one.
// The id is stored under chi's key so middleware.GetReqID finds it, and
// under the logging key so every log line of the request carries it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = ksuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		ctx = logging.ContextWithRequestID(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer-when-downgrade")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		if h.Get("Content-Security-Policy") == "" {
			h.Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
		}
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog logs one line per request and feeds the HTTP metrics. The route
// label is chi's matched pattern, read after the handler ran.
func accessLog(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			dur := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(status), dur)

			log.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", ww.BytesWritten(),
			)
		})
	}
}

// loadSession resolves the session cookie to a user. A valid session is
// re-signed with a fresh expiry on every request; a stale cookie is cleared.
// Requests without a usable session continue anonymously.
func (a *API) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.SessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		sid, err := auth.GetSessionIDFromToken(token, a.secret)
		if err != nil {
			auth.ClearSessionCookie(w, a.cookie)
			next.ServeHTTP(w, r)
			return
		}

		user, sess, err := a.auth.CurrentUser(r.Context(), sid)
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				auth.ClearSessionCookie(w, a.cookie)
			} else {
				a.log.Error(r.Context(), "session lookup failed", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		if err := a.issueCookie(w, sess); err != nil {
			a.log.Error(r.Context(), "failed to refresh session cookie", "error", err)
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, sid)))
	})
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.auth.RequireAdmin(UserFromContext(r.Context())); err != nil {
			writeError(w, r, a.log, err, "Authorization failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}
