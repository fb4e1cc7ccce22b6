package httpserver

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/felixge/httpsnoop"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/auth"
	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/limiter"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an id, reusing a sane client-supplied one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.Must(uuid.NewV4()).String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// Logging writes one structured line per request.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			// metadata only, never payloads
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", m.Code),
				zap.Int64("bytes", m.Written),
				zap.Duration("dur", m.Duration),
				zap.String("remote", clientIP(r)),
				zap.String("request_id", RequestIDFromCtx(r.Context())),
			)
		})
	}
}

// Recover turns a panic into a 500 response.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic",
						zap.Any("reason", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestIDFromCtx(r.Context())),
					)
					writeJSON(w, http.StatusInternalServerError, errorBody(internalMessage))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate resolves a bearer token into the request context. Without an
// Authorization header the request continues anonymously unless required.
func (s *Server) authenticate(required bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			if required {
				s.fail(w, r, errs.New(errs.ErrUnauthorized, "Not authenticated"))
				return
			}
			next(w, r)
			return
		}
		tok, ok := auth.BearerToken(h)
		if !ok {
			s.fail(w, r, errs.New(errs.ErrUnauthorized, "Not authenticated"))
			return
		}
		u, err := s.svc.Auth.Authenticate(r.Context(), tok)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), u)))
	}
}

// rateLimit applies a per-client request budget.
func (s *Server) rateLimit(lim limiter.RequestLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retry, err := lim.Take(r.Context(), clientIP(r))
		if err != nil {
			// fails open
			s.log.Warn("rate limiter", zap.Error(err))
		} else if !ok {
			s.fail(w, r, &errs.Limited{RetryAfter: retry})
			return
		}
		next(w, r)
	}
}

func retryAfterSeconds(l *errs.Limited) string {
	return fmt.Sprint(int64(math.Max(1, math.Ceil(l.RetryAfter.Seconds()))))
}

// clientIP is the host part of RemoteAddr. Behind a trusted proxy the
// ProxyHeaders middleware has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
