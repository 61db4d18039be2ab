package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/repo"
	"github.com/fleetdesk/taxi/internal/session"
	"github.com/fleetdesk/taxi/orm"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/accounts/login/"

// Principal is the signed-in driver and the session carrying them.
type Principal struct {
	Driver  model.Driver
	Session model.Session
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal set by RequireLogin.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Resolve returns the principal of the request's session cookie.
func Resolve(r *http.Request, sessions *session.Store, drivers *repo.DriverRepository) (Principal, error) {
	ctx := r.Context()
	id, ok := session.ReadCookie(r)
	if !ok {
		return Principal{}, session.ErrInvalid
	}
	sess, err := sessions.Get(ctx, id)
	if err != nil {
		return Principal{}, err //nolint:wrapcheck // sentinel or already wrapped
	}
	d, err := drivers.FindByID(ctx, sess.DriverID)
	if errors.Is(err, orm.ErrNotFound) {
		return Principal{}, session.ErrInvalid
	}
	if err != nil {
		return Principal{}, err //nolint:wrapcheck // already wrapped
	}
	return Principal{Driver: d, Session: sess}, nil
}

// RequireLogin runs next only for requests with a live session. Everything
// else is redirected to the login page with the requested path in next.
// Store failures are passed to onError, which owns logging them.
func RequireLogin(sessions *session.Store, drivers *repo.DriverRepository, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := Resolve(r, sessions, drivers)
			if errors.Is(err, session.ErrInvalid) {
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
				return
			}
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// LoginURL is the login page that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext returns next when it is a local absolute path, else "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
