package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fleetdesk/taxi/internal/form"
	"github.com/fleetdesk/taxi/internal/naming"
	"github.com/fleetdesk/taxi/internal/repo"
	"github.com/fleetdesk/taxi/internal/web/httpx"
	"github.com/fleetdesk/taxi/internal/web/templates"
)

// resource describes the pages of one record type. Optional parts that are
// nil get no routes.
type resource[T any] struct {
	// name is the singular snake_case type name, e.g. "car".
	name    string
	headers []string
	page    func(ctx context.Context, number, size int) (repo.Page[T], error)
	row     func(T) []templates.Cell

	detail func(ctx context.Context, id int) (templates.DetailView, error)
	edit   *editor[T]
	remove *remover
}

// editor drives the create and update pages.
type editor[T any] struct {
	schema  func(ctx context.Context) (form.Schema, error)
	load    func(ctx context.Context, id int) (T, error)
	initial func(T) url.Values
	checks  func(id int) []form.Check
	// save stores a valid form (id is 0 on create) and returns where to go next.
	save func(ctx context.Context, id int, f *form.Form) (string, error)
}

// remover drives the delete confirmation page.
type remover struct {
	// describe names the record and warns about what goes with it.
	describe func(ctx context.Context, id int) (object, warning string, err error)
	delete   func(ctx context.Context, id int) error
}

func (res resource[T]) plural() string { return naming.Plural(res.name) }
func (res resource[T]) label() string  { return naming.Humanize(res.name) }
func (res resource[T]) base() string   { return "/" + res.plural() + "/" }

func (res resource[T]) itemURL(id int) string {
	return res.base() + strconv.Itoa(id) + "/"
}

// register mounts the routes of res on the server mux, all behind the
// login gate.
func register[T any](s *Server, res resource[T]) {
	h := &resourceHandler[T]{s: s, res: res}
	base := res.base()
	handle := func(pattern string, fn http.HandlerFunc) {
		s.mux.Handle(pattern, s.protect(fn))
	}

	handle("GET "+base+"{$}", h.list)
	if res.detail != nil {
		handle("GET "+base+"{id}/{$}", h.show)
	}
	if res.edit != nil {
		handle("GET "+base+"create/{$}", h.createForm)
		handle("POST "+base+"create/{$}", h.create)
		handle("GET "+base+"{id}/update/{$}", h.updateForm)
		handle("POST "+base+"{id}/update/{$}", h.update)
	}
	if res.remove != nil {
		handle("GET "+base+"{id}/delete/{$}", h.confirmDelete)
		handle("POST "+base+"{id}/delete/{$}", h.delete)
	}
}

type resourceHandler[T any] struct {
	s   *Server
	res resource[T]
}

func (h *resourceHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	p, err := h.res.page(r.Context(), pageNumber(r), h.s.opts.PageSize)
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	rows := make([][]templates.Cell, len(p.Items))
	for i, item := range p.Items {
		rows[i] = h.res.row(item)
	}
	view := templates.ListView{
		Title:   h.res.label() + " list",
		Headers: h.res.headers,
		Rows:    rows,
		Empty:   "There are no " + h.res.plural() + " in the service.",
		Pager: templates.Pager{
			Number:     p.Number,
			NumPages:   p.NumPages,
			HasPrev:    p.HasPrevious(),
			HasNext:    p.HasNext(),
			PrevNumber: p.PreviousNumber(),
			NextNumber: p.NextNumber(),
			BasePath:   h.res.base(),
			OtherPages: p.HasOtherPages(),
		},
	}
	if h.res.edit != nil {
		view.CreateURL = h.res.base() + "create/"
	}
	h.s.render(w, r, http.StatusOK, view.Title, templates.List(view))
}

func (h *resourceHandler[T]) show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.s.renderError(w, r, http.StatusNotFound)
		return
	}
	view, err := h.res.detail(r.Context(), id)
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	h.s.render(w, r, http.StatusOK, view.Title, templates.Detail(view))
}

func (h *resourceHandler[T]) createForm(w http.ResponseWriter, r *http.Request) {
	schema, err := h.res.edit.schema(r.Context())
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	h.renderForm(w, r, 0, form.New(schema, nil))
}

func (h *resourceHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, 0)
}

func (h *resourceHandler[T]) updateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.s.renderError(w, r, http.StatusNotFound)
		return
	}
	item, err := h.res.edit.load(r.Context(), id)
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	schema, err := h.res.edit.schema(r.Context())
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	h.renderForm(w, r, id, form.New(schema, h.res.edit.initial(item)))
}

func (h *resourceHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.s.renderError(w, r, http.StatusNotFound)
		return
	}
	if _, err := h.res.edit.load(r.Context(), id); err != nil {
		h.s.serverError(w, r, err)
		return
	}
	h.submit(w, r, id)
}

// submit binds the posted form, re-rendering it with errors or saving it
// and redirecting.
func (h *resourceHandler[T]) submit(w http.ResponseWriter, r *http.Request, id int) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.s.renderError(w, r, http.StatusBadRequest)
		return
	}
	schema, err := h.res.edit.schema(ctx)
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	f := form.Bind(schema, r.PostForm)
	var checks []form.Check
	if h.res.edit.checks != nil {
		checks = h.res.edit.checks(id)
	}
	valid, err := f.Validate(ctx, checks...)
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	if !valid {
		h.renderForm(w, r, id, f)
		return
	}
	next, err := h.res.edit.save(ctx, id, f)
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	httpx.WriteRedirect(w, r, next)
}

func (h *resourceHandler[T]) renderForm(w http.ResponseWriter, r *http.Request, id int, f *form.Form) {
	view := templates.FormView{Form: f, Submit: "Submit", Cancel: h.res.base()}
	if id == 0 {
		view.Title = "Create " + h.res.label()
		view.Action = h.res.base() + "create/"
	} else {
		view.Title = "Update " + h.res.label()
		view.Action = h.res.itemURL(id) + "update/"
		if h.res.detail != nil {
			view.Cancel = h.res.itemURL(id)
		}
	}
	h.s.render(w, r, http.StatusOK, view.Title, templates.Form(view))
}

func (h *resourceHandler[T]) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.s.renderError(w, r, http.StatusNotFound)
		return
	}
	object, warning, err := h.res.remove.describe(r.Context(), id)
	if err != nil {
		h.s.serverError(w, r, err)
		return
	}
	cancel := h.res.base()
	if h.res.detail != nil {
		cancel = h.res.itemURL(id)
	}
	view := templates.ConfirmView{
		Title:   "Delete " + h.res.label(),
		Object:  object,
		Warning: warning,
		Action:  h.res.itemURL(id) + "delete/",
		Cancel:  cancel,
	}
	h.s.render(w, r, http.StatusOK, view.Title, templates.ConfirmDelete(view))
}

func (h *resourceHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.s.renderError(w, r, http.StatusNotFound)
		return
	}
	if err := h.res.remove.delete(r.Context(), id); err != nil {
		h.s.serverError(w, r, err)
		return
	}
	httpx.WriteRedirect(w, r, h.res.base())
}
