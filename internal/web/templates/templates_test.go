package templates

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/fleetdesk/taxi/internal/form"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return b.String()
}

func TestLayoutWrapsChildren(t *testing.T) {
	t.Parallel()

	child := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p id="child">hi</p>`)
		return err
	})
	var b strings.Builder
	err := Layout(LayoutView{Title: "Cars", Username: "ann"}).Render(templ.WithChildren(context.Background(), child), &b)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := b.String()
	for _, want := range []string{`<title>Cars | Taxi Service</title>`, `<p id="child">hi</p>`, `User: ann`, `action="/accounts/logout/"`, `href="/drivers/"`} {
		if !strings.Contains(got, want) {
			t.Errorf("layout missing %q:\n%s", want, got)
		}
	}
}

func TestLayoutAnonymous(t *testing.T) {
	t.Parallel()

	got := renderString(t, Layout(LayoutView{Title: "Login"}))
	if strings.Contains(got, "/accounts/logout/") || strings.Contains(got, `href="/cars/"`) {
		t.Fatalf("anonymous layout shows private navigation:\n%s", got)
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	got := renderString(t, Index(IndexView{Drivers: 3, Cars: 2, Manufacturers: 1, Visits: 1}))
	for _, want := range []string{`<span id="num-drivers">3</span>`, `<span id="num-cars">2</span>`, `<span id="num-manufacturers">1</span>`, `<span id="num-visits">1</span> time.`} {
		if !strings.Contains(got, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestListEscapesAndPaginates(t *testing.T) {
	t.Parallel()

	got := renderString(t, List(ListView{
		Title:   "Car list",
		Headers: []string{"ID", "Model"},
		Rows:    [][]Cell{{{Label: "1", Href: "/cars/1/"}, {Label: "<script>"}}},
		Pager: Pager{
			Number: 2, NumPages: 3, HasPrev: true, HasNext: true,
			PrevNumber: 1, NextNumber: 3, BasePath: "/cars/", OtherPages: true,
		},
	}))
	if strings.Contains(got, "<script>") {
		t.Fatal("cell text was not escaped")
	}
	for _, want := range []string{`&lt;script&gt;`, `href="/cars/?page=1"`, `href="/cars/?page=3"`, `Page 2 of 3`} {
		if !strings.Contains(got, want) {
			t.Errorf("list missing %q:\n%s", want, got)
		}
	}
}

func TestListRowsAndLinks(t *testing.T) {
	t.Parallel()

	got := renderString(t, List(ListView{
		Title:     "Manufacturer list",
		CreateURL: "/manufacturers/create/",
		Headers:   []string{"ID", "Name"},
		Rows: [][]Cell{
			{{Label: "1", Href: "/manufacturers/1/"}, {Label: "Lincoln"}},
			{{Label: "2", Href: "javascript:alert(1)"}, {Label: "BMW"}},
		},
		Pager: Pager{Number: 1, NumPages: 1},
	}))
	if n := strings.Count(got, "<tr><td>"); n != 2 {
		t.Errorf("rows = %d, want 2:\n%s", n, got)
	}
	for _, want := range []string{
		`<th>ID</th><th>Name</th>`,
		`<td><a href="/manufacturers/1/">1</a></td><td>Lincoln</td>`,
		`href="/manufacturers/create/"`,
		`href="about:invalid#TemplFailedSanitizationURL"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("list missing %q:\n%s", want, got)
		}
	}
}

func TestPaginationEdges(t *testing.T) {
	t.Parallel()

	first := renderString(t, Pagination(Pager{Number: 1, NumPages: 2, HasNext: true, NextNumber: 2, BasePath: "/cars/", OtherPages: true}))
	if strings.Contains(first, ">prev<") || !strings.Contains(first, `href="/cars/?page=2"`) {
		t.Errorf("first page controls:\n%s", first)
	}
	last := renderString(t, Pagination(Pager{Number: 2, NumPages: 2, HasPrev: true, PrevNumber: 1, BasePath: "/cars/", OtherPages: true}))
	if strings.Contains(last, ">next<") || !strings.Contains(last, `href="/cars/?page=1"`) {
		t.Errorf("last page controls:\n%s", last)
	}
}

func TestListEmpty(t *testing.T) {
	t.Parallel()

	got := renderString(t, List(ListView{Title: "Drivers", Empty: "There are no drivers.", Pager: Pager{Number: 1, NumPages: 1}}))
	if !strings.Contains(got, "There are no drivers.") || strings.Contains(got, "<table") || strings.Contains(got, "pagination") {
		t.Fatalf("unexpected empty list:\n%s", got)
	}
}

func TestFormRendersValuesAndErrors(t *testing.T) {
	t.Parallel()

	schema := form.Schema{Fields: []form.Field{
		{Name: "model", Label: "Model", Kind: form.Text, Required: true, MaxLength: 255},
		{Name: "manufacturer", Label: "Manufacturer", Kind: form.Choice, Required: true, Options: []form.Option{{Value: "1", Label: "Lincoln"}, {Value: "2", Label: "BMW"}}},
		{Name: "drivers", Label: "Drivers", Kind: form.MultiChoice, Options: []form.Option{{Value: "7", Label: "ann"}}},
	}}
	f := form.Bind(schema, url.Values{"model": {`"Town" Car`}, "manufacturer": {"2"}, "drivers": {"7"}})
	f.AddError("model", "Bad model.")

	got := renderString(t, Form(FormView{Title: "Create car", Action: "/cars/create/", Submit: "Save", Form: f}))
	for _, want := range []string{
		`value="&#34;Town&#34; Car"`,
		`<option value="2" selected>BMW</option>`,
		`<option value="7" selected>ann</option>`,
		`<ul class="errorlist"><li>Bad model.</li></ul>`,
		`<option value="">---------</option>`,
		`<select name="drivers" id="id_drivers" multiple>`,
		`action="/cars/create/"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("form missing %q:\n%s", want, got)
		}
	}
}

func TestLoginShowsNonFieldErrorsAndKeepsNext(t *testing.T) {
	t.Parallel()

	f := form.Bind(form.LoginSchema(), url.Values{"username": {"ann"}, "password": {"hunter2"}})
	f.AddNonFieldError("Please enter a correct username and password.")

	got := renderString(t, Login(LoginView{Form: f, Next: "/cars/?page=2"}))
	for _, want := range []string{
		`<ul class="errorlist nonfield"><li>Please enter a correct username and password.</li></ul>`,
		`name="username" id="id_username" value="ann" maxlength="150" required`,
		`<input type="password" name="password" id="id_password" required>`,
		`<input type="hidden" name="next" value="/cars/?page=2">`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("login missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "hunter2") {
		t.Errorf("password echoed back:\n%s", got)
	}
}

func TestDetail(t *testing.T) {
	t.Parallel()

	got := renderString(t, Detail(DetailView{
		Title:   "Town Car",
		Attrs:   []Attr{{Label: "Model", Value: "Town Car"}},
		Actions: []Link{{Label: "Update", Href: "/cars/1/update/"}},
		Sections: []Section{
			{Title: "Drivers", Items: []Link{{Label: "ann", Href: "/drivers/7/"}}},
			{Title: "Owners", Empty: "Nobody owns this car."},
		},
	}))
	for _, want := range []string{
		`<dt>Model</dt><dd>Town Car</dd>`,
		`<li><a href="/cars/1/update/">Update</a></li>`,
		`<h2>Drivers</h2><ul><li><a href="/drivers/7/">ann</a></li></ul>`,
		`<p class="empty">Nobody owns this car.</p>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("detail missing %q:\n%s", want, got)
		}
	}
}

func TestConfirmDelete(t *testing.T) {
	t.Parallel()

	got := renderString(t, ConfirmDelete(ConfirmView{
		Title:   "Delete manufacturer",
		Object:  "Lincoln <USA>",
		Warning: "Its 2 car(s) will be deleted as well.",
		Action:  "/manufacturers/1/delete/",
		Cancel:  "/manufacturers/1/",
	}))
	for _, want := range []string{
		`<strong>Lincoln &lt;USA&gt;</strong>?`,
		`<p class="warning">Its 2 car(s) will be deleted as well.</p>`,
		`<form method="post" action="/manufacturers/1/delete/">`,
		`<a href="/manufacturers/1/">Cancel</a>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("confirm page missing %q:\n%s", want, got)
		}
	}
}

func TestErrorPage(t *testing.T) {
	t.Parallel()

	got := renderString(t, Error(http.StatusNotFound))
	if !strings.Contains(got, "404 Not Found") {
		t.Fatalf("unexpected 404 page:\n%s", got)
	}
	if got := renderString(t, Error(http.StatusInternalServerError)); !strings.Contains(got, "Something went wrong") {
		t.Fatalf("unexpected 500 page:\n%s", got)
	}
	if ErrorTitle(599) != "Internal Server Error" {
		t.Fatalf("unknown statuses fall back to 500 text")
	}
}
