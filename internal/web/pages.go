package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/fleetdesk/taxi/internal/auth"
	"github.com/fleetdesk/taxi/internal/form"
	"github.com/fleetdesk/taxi/internal/session"
	"github.com/fleetdesk/taxi/internal/web/httpx"
	"github.com/fleetdesk/taxi/internal/web/templates"
)

const msgBadLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// handleIndex shows the record counts and bumps the session visit counter.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := auth.FromContext(ctx)

	var (
		view templates.IndexView
		err  error
	)
	if view.Drivers, err = s.drivers.Count(ctx); err != nil {
		s.serverError(w, r, err)
		return
	}
	if view.Cars, err = s.cars.Count(ctx); err != nil {
		s.serverError(w, r, err)
		return
	}
	if view.Manufacturers, err = s.manufacturers.Count(ctx); err != nil {
		s.serverError(w, r, err)
		return
	}

	st, err := s.sessions.Load(ctx, p.Session.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	view.Visits = st.Int(session.VisitsKey, 0) + 1
	st.SetInt(session.VisitsKey, view.Visits)
	if err := s.sessions.Save(ctx, st); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "Home page", templates.Index(view))
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, form.New(form.LoginSchema(), nil), r.URL.Query().Get("next"))
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, f *form.Form, next string) {
	s.render(w, r, http.StatusOK, "Login", templates.Login(templates.LoginView{Form: f, Next: next}))
}

// handleLogin opens a session for valid credentials and sends the browser
// on to next. Failures re-render the form without creating a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	f := form.Bind(form.LoginSchema(), r.PostForm)
	next := r.PostForm.Get("next")
	if !f.Valid() {
		s.renderLogin(w, r, f, next)
		return
	}

	d, err := auth.Authenticate(ctx, s.drivers, f.Value("username"), f.Value("password"))
	if errors.Is(err, auth.ErrBadCredentials) {
		f.AddNonFieldError(msgBadLogin)
		s.renderLogin(w, r, f, next)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	// Drop any session the browser already carries before issuing a new id.
	if old, ok := session.ReadCookie(r); ok {
		if err := s.sessions.Delete(ctx, old); err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	sess, err := s.sessions.Create(ctx, d.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	session.WriteCookie(w, sess.ID, time.UnixMilli(sess.ExpiresAt), s.opts.SecureCookies)
	s.logger.InfoContext(ctx, "driver signed in",
		"request_id", httpx.RequestIDFrom(ctx), "driver_id", d.ID)
	httpx.WriteRedirect(w, r, auth.SafeNext(next))
}

// handleLogout ends the session and returns to the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := session.ReadCookie(r); ok {
		if err := s.sessions.Delete(r.Context(), id); err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	session.ClearCookie(w, s.opts.SecureCookies)
	httpx.WriteRedirect(w, r, auth.LoginPath)
}
