package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"studentintake/internal/model"
	"studentintake/internal/service"
)

type ctxKeyLog struct{}
type ctxKeyRequestID struct{}
type ctxKeyUser struct{}
type ctxKeySessionToken struct{}

// SessionLookup resolves a session token to the logged-in user.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (*model.User, error)
}

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

// RequestLogger tags every request with an ID and puts a field logger for it
// in the request context.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			start := time.Now()
			rr := &responseRecorder{w: w}

			entry := log.WithFields(logrus.Fields{
				"http.req.path":   r.URL.Path,
				"http.req.method": r.Method,
				"http.req.id":     requestID,
			})
			entry.Debug("request started")
			defer func() {
				entry.WithFields(logrus.Fields{
					"http.resp.took_ms": int64(time.Since(start) / time.Millisecond),
					"http.resp.status":  rr.status,
					"http.resp.bytes":   rr.b,
				}).Info("request complete")
			}()

			ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, requestID)
			ctx = context.WithValue(ctx, ctxKeyLog{}, logrus.FieldLogger(entry))
			next.ServeHTTP(rr, r.WithContext(ctx))
		})
	}
}

// Session loads the user behind the session cookie, if any. Requests
// without a valid session pass through anonymously.
func Session(cookieName string, sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySessionToken{}, c.Value)
			user, err := sessions.Lookup(ctx, c.Value)
			switch {
			case err == nil:
				ctx = context.WithValue(ctx, ctxKeyUser{}, user)
			case !errors.Is(err, service.ErrSessionNotFound):
				Logger(ctx).WithError(err).Warn("session lookup failed")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger returns the request-scoped logger, or the standard logger outside
// of a request.
func Logger(ctx context.Context) logrus.FieldLogger {
	if l, ok := ctx.Value(ctxKeyLog{}).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// CurrentUser returns the logged-in user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxKeyUser{}).(*model.User)
	return u
}

func SessionToken(ctx context.Context) string {
	t, _ := ctx.Value(ctxKeySessionToken{}).(string)
	return t
}
