// Package web serves the fleet site: the home page, sign-in, and the list,
// detail and edit pages of every record type.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/fleetdesk/taxi/internal/auth"
	"github.com/fleetdesk/taxi/internal/naming"
	"github.com/fleetdesk/taxi/internal/repo"
	"github.com/fleetdesk/taxi/internal/session"
	"github.com/fleetdesk/taxi/internal/web/httpx"
	"github.com/fleetdesk/taxi/internal/web/templates"
	"github.com/fleetdesk/taxi/orm"
)

// Options tune the server.
type Options struct {
	PageSize      int
	SecureCookies bool
}

// Server holds the handlers and their dependencies.
type Server struct {
	opts          Options
	logger        *slog.Logger
	manufacturers *repo.ManufacturerRepository
	cars          *repo.CarRepository
	drivers       *repo.DriverRepository
	sessions      *session.Store
	mux           *http.ServeMux
}

// New wires the routes over db.
func New(db orm.Querier, sessions *session.Store, logger *slog.Logger, opts Options) *Server {
	if opts.PageSize < 1 {
		opts.PageSize = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:          opts,
		logger:        logger,
		manufacturers: repo.NewManufacturerRepository(db),
		cars:          repo.NewCarRepository(db),
		drivers:       repo.NewDriverRepository(db),
		sessions:      sessions,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return httpx.Chain(s.mux,
		httpx.RequestID(),
		httpx.AccessLog(s.logger),
		httpx.RecoverPanic(s.logger, func(w http.ResponseWriter, r *http.Request) {
			s.renderError(w, r, http.StatusInternalServerError)
		}),
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET "+auth.LoginPath+"{$}", s.handleLoginForm)
	s.mux.HandleFunc("POST "+auth.LoginPath+"{$}", s.handleLogin)
	s.mux.HandleFunc("POST /accounts/logout/{$}", s.handleLogout)
	s.mux.Handle("GET /{$}", s.protect(http.HandlerFunc(s.handleIndex)))

	register(s, s.manufacturerResource())
	register(s, s.carResource())
	register(s, s.driverResource())

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound)
	})
}

func (s *Server) protect(h http.Handler) http.Handler {
	return auth.RequireLogin(s.sessions, s.drivers, s.serverError)(h)
}

// render writes a full page with status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	view := templates.LayoutView{Title: naming.Title(title)}
	if p, ok := auth.FromContext(r.Context()); ok {
		view.Username = p.Driver.Username
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Layout(view).Render(templ.WithChildren(r.Context(), body), w); err != nil {
		s.logger.ErrorContext(r.Context(), "render page",
			"request_id", httpx.RequestIDFrom(r.Context()), "title", title, "error", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	s.render(w, r, status, templates.ErrorTitle(status), templates.Error(status))
}

// serverError logs err and renders the 500 page. Missing records render 404.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, orm.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	s.logger.ErrorContext(r.Context(), "request failed",
		"request_id", httpx.RequestIDFrom(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	s.renderError(w, r, http.StatusInternalServerError)
}

// pathID parses the {id} segment. ok is false for anything that cannot
// name a record.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// pageNumber reads ?page=, treating missing or invalid values as page 1.
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
