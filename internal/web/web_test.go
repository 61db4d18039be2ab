package web_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdesk/taxi/internal/auth"
	"github.com/fleetdesk/taxi/internal/form"
	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/query"
	"github.com/fleetdesk/taxi/internal/repo"
	"github.com/fleetdesk/taxi/internal/session"
	"github.com/fleetdesk/taxi/internal/storage/storagetest"
	"github.com/fleetdesk/taxi/internal/web"
	"github.com/fleetdesk/taxi/orm"
)

const testPassword = "s3cret-pass"

type harness struct {
	t       *testing.T
	db      *orm.DB
	handler http.Handler
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := storagetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := web.New(db, session.NewStore(db, time.Hour), logger, web.Options{PageSize: 5})
	return &harness{t: t, db: db, handler: srv.Handler()}
}

func (h *harness) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) get(target string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(http.MethodGet, target, nil)
}

func (h *harness) post(target string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(http.MethodPost, target, form)
}

func (h *harness) createDriver(username, license string) model.Driver {
	h.t.Helper()
	d, err := auth.CreateDriver(h.t.Context(), repo.NewDriverRepository(h.db), auth.NewDriver{
		Username:      username,
		Password:      testPassword,
		FirstName:     strings.ToUpper(username[:1]) + username[1:],
		LastName:      "Driver",
		LicenseNumber: license,
	})
	require.NoError(h.t, err)
	return d
}

// login signs in as a fresh driver and keeps the session cookie.
func (h *harness) login() model.Driver {
	h.t.Helper()
	d := h.createDriver("admin", "ADM00001")
	rec := h.post("/accounts/login/", url.Values{"username": {"admin"}, "password": {testPassword}})
	require.Equal(h.t, http.StatusFound, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			h.cookie = c
		}
	}
	require.NotNil(h.t, h.cookie, "login must set the session cookie")
	return d
}

func (h *harness) manufacturer(name, country string) model.Manufacturer {
	h.t.Helper()
	m := model.Manufacturer{Name: name, Country: country}
	require.NoError(h.t, repo.NewManufacturerRepository(h.db).Create(h.t.Context(), &m))
	return m
}

func (h *harness) car(name string, manufacturerID int, driverIDs ...int) model.Car {
	h.t.Helper()
	c := model.Car{Model: name, ManufacturerID: manufacturerID}
	require.NoError(h.t, repo.NewCarRepository(h.db).Create(h.t.Context(), &c, driverIDs))
	return c
}

func rows(body string) int {
	return strings.Count(body, "<tr><td>")
}

func TestPagesRequireLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for _, target := range []string{"/", "/manufacturers/", "/cars/?page=2", "/cars/create/", "/drivers/1/"} {
		t.Run(target, func(t *testing.T) {
			rec := h.get(target)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, auth.LoginURL(target), rec.Header().Get("Location"))
		})
	}

	rec := h.post("/manufacturers/create/", url.Values{"name": {"Lincoln"}, "country": {"USA"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	n, err := repo.NewManufacturerRepository(h.db).Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n, "anonymous posts must not write")

	rec = h.get("/accounts/login/?next=%2Fcars%2F")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="next" value="/cars/"`)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("wrong password creates no session", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.createDriver("ann", "ANN00001")

		rec := h.post("/accounts/login/", url.Values{"username": {"ann"}, "password": {"nope"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please enter a correct username and password.")
		assert.Empty(t, rec.Result().Cookies())

		n, err := query.Sessions(h.db).Count(t.Context())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("blank fields are required", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.createDriver("ann", "ANN00001")

		rec := h.post("/accounts/login/", url.Values{"username": {"ann"}, "next": {"/cars/"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, form.MsgRequired)
		assert.Contains(t, body, `value="ann"`)
		assert.Contains(t, body, `name="next" value="/cars/"`)
		assert.NotContains(t, body, "Please enter a correct username and password.")
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("password is not echoed", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.createDriver("ann", "ANN00001")

		rec := h.post("/accounts/login/", url.Values{"username": {"ann"}, "password": {"s3cret-guess"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "s3cret-guess")
	})

	t.Run("redirects to next", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.createDriver("ann", "ANN00001")

		rec := h.post("/accounts/login/", url.Values{
			"username": {"ann"}, "password": {testPassword}, "next": {"/cars/?page=2"},
		})
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/cars/?page=2", rec.Header().Get("Location"))
	})

	t.Run("ignores foreign next", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.createDriver("ann", "ANN00001")

		rec := h.post("/accounts/login/", url.Values{
			"username": {"ann"}, "password": {testPassword}, "next": {"//evil.example/"},
		})
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("logout ends the session", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.login()

		require.Equal(t, http.StatusOK, h.get("/").Code)

		rec := h.post("/accounts/logout/", url.Values{})
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, auth.LoginPath, rec.Header().Get("Location"))

		rec = h.get("/")
		assert.Equal(t, http.StatusFound, rec.Code, "old cookie must no longer authenticate")
	})
}

func TestIndexCountsAndVisits(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	admin := h.login()

	m := h.manufacturer("Lincoln", "USA")
	h.manufacturer("BMW", "Germany")
	h.car("Town Car", m.ID, admin.ID)

	for visit := 1; visit <= 3; visit++ {
		rec := h.get("/")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<span id="num-drivers">1</span>`)
		assert.Contains(t, body, `<span id="num-cars">1</span>`)
		assert.Contains(t, body, `<span id="num-manufacturers">2</span>`)
		assert.Contains(t, body, fmt.Sprintf(`<span id="num-visits">%d</span>`, visit))
	}

	// A new session starts counting again.
	h.cookie = nil
	rec := h.post("/accounts/login/", url.Values{"username": {"admin"}, "password": {testPassword}})
	require.Equal(t, http.StatusFound, rec.Code)
	h.cookie = rec.Result().Cookies()[0]
	assert.Contains(t, h.get("/").Body.String(), `<span id="num-visits">1</span>`)
}

func TestManufacturerLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()
	ctx := t.Context()
	makers := repo.NewManufacturerRepository(h.db)

	rec := h.get("/manufacturers/create/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="country"`)

	rec = h.post("/manufacturers/create/", url.Values{"name": {"Lincoln"}, "country": {"USA"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/manufacturers/", rec.Header().Get("Location"))

	body := h.get("/manufacturers/").Body.String()
	assert.Contains(t, body, "Lincoln")
	assert.Equal(t, 1, rows(body))

	m, err := makers.FindByName(ctx, "Lincoln")
	require.NoError(t, err)

	t.Run("duplicate name", func(t *testing.T) {
		rec := h.post("/manufacturers/create/", url.Values{"name": {"Lincoln"}, "country": {"UK"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Manufacturer with this Name already exists.")
		n, err := makers.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("missing field", func(t *testing.T) {
		rec := h.post("/manufacturers/create/", url.Values{"name": {"Ford"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), form.MsgRequired)
		assert.Contains(t, rec.Body.String(), `value="Ford"`, "submitted values are kept")
	})

	t.Run("update keeps its own name", func(t *testing.T) {
		target := "/manufacturers/" + strconv.Itoa(m.ID) + "/update/"
		rec := h.get(target)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="USA"`)

		rec = h.post(target, url.Values{"name": {"Lincoln"}, "country": {"United States"}})
		require.Equal(t, http.StatusFound, rec.Code)
		got, err := makers.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "United States", got.Country)
	})

	t.Run("delete cascades to cars", func(t *testing.T) {
		h.car("Town Car", m.ID)
		h.car("Navigator", m.ID)
		target := "/manufacturers/" + strconv.Itoa(m.ID) + "/delete/"

		rec := h.get(target)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Its 2 car(s) will be deleted as well.")

		rec = h.post(target, url.Values{})
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/manufacturers/", rec.Header().Get("Location"))

		n, err := repo.NewCarRepository(h.db).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		assert.Equal(t, http.StatusNotFound, h.post(target, url.Values{}).Code)
	})
}

func TestCarForms(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	admin := h.login()
	ctx := t.Context()
	cars := repo.NewCarRepository(h.db)
	m := h.manufacturer("Lincoln", "USA")
	bob := h.createDriver("bob", "BOB00001")

	t.Run("unknown manufacturer", func(t *testing.T) {
		rec := h.post("/cars/create/", url.Values{"model": {"Ghost"}, "manufacturer": {"999"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), form.MsgInvalidChoice)
		n, err := cars.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("unknown driver", func(t *testing.T) {
		rec := h.post("/cars/create/", url.Values{
			"model": {"Ghost"}, "manufacturer": {strconv.Itoa(m.ID)}, "drivers": {"999"},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Select a valid choice. 999 is not one of the available choices.")
	})

	var carID int
	t.Run("create with drivers", func(t *testing.T) {
		rec := h.post("/cars/create/", url.Values{
			"model":        {"Town Car"},
			"manufacturer": {strconv.Itoa(m.ID)},
			"drivers":      {strconv.Itoa(admin.ID), strconv.Itoa(bob.ID)},
		})
		require.Equal(t, http.StatusFound, rec.Code)

		c, err := query.Cars(h.db).Where("model = ?", "Town Car").First(ctx)
		require.NoError(t, err)
		carID = c.ID
		assert.Equal(t, "/cars/"+strconv.Itoa(c.ID)+"/", rec.Header().Get("Location"))

		got, err := cars.FindDetail(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{admin.ID, bob.ID}, got.DriverIDs())
	})

	t.Run("detail and update", func(t *testing.T) {
		target := "/cars/" + strconv.Itoa(carID) + "/"
		body := h.get(target).Body.String()
		assert.Contains(t, body, "Town Car")
		assert.Contains(t, body, "Lincoln")
		assert.Contains(t, body, "bob (Bob Driver)")

		rec := h.post(target+"update/", url.Values{
			"model": {"Continental"}, "manufacturer": {strconv.Itoa(m.ID)}, "drivers": {strconv.Itoa(bob.ID)},
		})
		require.Equal(t, http.StatusFound, rec.Code)
		got, err := cars.FindDetail(ctx, carID)
		require.NoError(t, err)
		assert.Equal(t, "Continental", got.Model)
		assert.Equal(t, []int{bob.ID}, got.DriverIDs())
	})

	t.Run("delete", func(t *testing.T) {
		rec := h.post("/cars/"+strconv.Itoa(carID)+"/delete/", url.Values{})
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/cars/", rec.Header().Get("Location"))
		assert.Equal(t, http.StatusNotFound, h.get("/cars/"+strconv.Itoa(carID)+"/").Code)
	})
}

func TestListPaging(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()
	for i := 1; i <= 7; i++ {
		h.manufacturer(fmt.Sprintf("Maker %d", i), "Nowhere")
	}

	tests := []struct {
		target   string
		wantRows int
		wantText string
	}{
		{target: "/manufacturers/", wantRows: 5, wantText: "Page 1 of 2"},
		{target: "/manufacturers/?page=2", wantRows: 2, wantText: "Page 2 of 2"},
		{target: "/manufacturers/?page=abc", wantRows: 5, wantText: "Page 1 of 2"},
		{target: "/manufacturers/?page=9", wantRows: 0, wantText: "There are no manufacturers in the service."},
		{target: "/manufacturers/?page=1844674407370955162", wantRows: 0, wantText: "There are no manufacturers in the service."},
		{target: "/manufacturers/?page=3689348814741910324", wantRows: 0, wantText: "There are no manufacturers in the service."},
		{target: "/manufacturers/?page=99999999999999999999", wantRows: 5, wantText: "Page 1 of 2"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := h.get(tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Equal(t, tt.wantRows, rows(body))
			assert.Contains(t, body, tt.wantText)
		})
	}

	body := h.get("/drivers/").Body.String()
	assert.Equal(t, 1, rows(body))
	assert.NotContains(t, body, "Page 1 of", "single pages have no pager")
}

func TestDriverDetail(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	admin := h.login()
	lincoln := h.manufacturer("Lincoln", "USA")
	bmw := h.manufacturer("BMW", "Germany")
	h.car("Town Car", lincoln.ID, admin.ID)
	h.car("X5", bmw.ID, admin.ID)
	idle := h.createDriver("idle", "IDL00001")

	rec := h.get("/drivers/" + strconv.Itoa(admin.ID) + "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ADM00001")
	assert.Contains(t, body, "Town Car (Lincoln)")
	assert.Contains(t, body, "X5 (BMW)")

	body = h.get("/drivers/" + strconv.Itoa(idle.ID) + "/").Body.String()
	assert.Contains(t, body, "This driver has no cars.")

	assert.Equal(t, http.StatusNotFound, h.get("/drivers/"+strconv.Itoa(admin.ID)+"/update/").Code,
		"drivers have no edit pages")
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	for _, target := range []string{
		"/cars/999/",
		"/cars/abc/",
		"/drivers/0/",
		"/manufacturers/999/update/",
		"/manufacturers/999/delete/",
		"/nowhere/",
	} {
		t.Run(target, func(t *testing.T) {
			rec := h.get(target)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "The page you requested does not exist.")
		})
	}
}
