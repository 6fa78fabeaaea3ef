package rest

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

// actor returns log fields naming the authenticated caller.
func actor(r *http.Request) []any {
	c, ok := claimsFromContext(r.Context())
	if !ok {
		return nil
	}
	return []any{"user", c.Subject, "role", c.Role}
}

// requireAuth accepts "Authorization: Bearer <jwt>" and, for clients that
// cannot set headers (browsers opening a WebSocket), the token query
// parameter.
func requireAuth(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get(common.AccessTokenQueryParam)
		}
		if token == "" {
			writeProblem(w, http.StatusUnauthorized, "unauthorized", "missing token")
			return
		}

		claims, err := auth.ParseToken(token, secret)
		if err != nil {
			detail := "invalid token"
			if errors.Is(err, common.ErrTokenExpired) {
				detail = "token expired"
			}
			writeProblem(w, http.StatusUnauthorized, "unauthorized", detail)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// statusRecorder captures the response status. It forwards Hijack so
// WebSocket upgrades pass through.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

const requestIDHeader = "X-Request-ID"

// logRequests tags each request with an id (taken from X-Request-ID when the
// caller sent one) and logs it once the handler returns.
func logRequests(log logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(logging.ContextWithRequestID(r.Context(), id))

		next.ServeHTTP(rec, r)

		log.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
