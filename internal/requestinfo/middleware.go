// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo and writes
// one access-log line per request.
//
/*
Context
--------
This handler sits directly after chi's RequestID and Recoverer.  For every
request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  3. Performs an optional GeoLite2 lookup.
  4. Stores `*RequestInfo` and a request-scoped zap logger (carrying the
     request ID) in the request context.
  5. After the handler returns, logs method, path, status, bytes, and
     duration at INFO.

Notes
-----
  • All look-ups are read-only, so the middleware is safe under heavy
    concurrency.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/shortly/internal/logger"
	"github.com/yanizio/shortly/internal/ua"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich returns middleware that attaches *RequestInfo and a request logger.
// geo may be nil.
func Enrich(base *zap.SugaredLogger, geo *GeoDB) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.S()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ip := clientIP(r)

			info := &RequestInfo{
				UA:          ua.Parse(r.UserAgent()),
				Geo:         geo.Lookup(ip),
				PrimaryLang: primaryLang(r.Header.Get("Accept-Language")),
				Timestamp:   start.UTC(),
			}

			log := base.With("req_id", chimw.GetReqID(r.Context()))
			ctx := context.WithValue(r.Context(), ctxKey{}, info)
			ctx = logger.WithContext(ctx, log)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
				"ip", ip,
				"country", info.Geo.CountryISO,
				"ua", info.UA.Summary(),
				"bot", info.UA.IsBot,
			)
		})
	}
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
