package query_test

import (
	"testing"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/query"
	"github.com/fleetdesk/taxi/internal/storage/storagetest"
	"github.com/fleetdesk/taxi/orm"
)

type fleet struct {
	db      *orm.DB
	lincoln model.Manufacturer
	bmw     model.Manufacturer
	town    model.Car
	x5      model.Car
	ann     model.Driver
	bob     model.Driver
}

func setupFleet(t *testing.T) fleet {
	t.Helper()
	ctx := t.Context()
	f := fleet{db: storagetest.New(t)}

	f.lincoln = model.Manufacturer{Name: "Lincoln", Country: "USA"}
	f.bmw = model.Manufacturer{Name: "BMW", Country: "Germany"}
	for _, m := range []*model.Manufacturer{&f.lincoln, &f.bmw} {
		if err := query.Manufacturers(f.db).Create(ctx, m); err != nil {
			t.Fatalf("create manufacturer: %v", err)
		}
	}

	f.town = model.Car{Model: "Town Car", ManufacturerID: f.lincoln.ID}
	f.x5 = model.Car{Model: "X5", ManufacturerID: f.bmw.ID}
	for _, c := range []*model.Car{&f.town, &f.x5} {
		if err := query.Cars(f.db).Create(ctx, c); err != nil {
			t.Fatalf("create car: %v", err)
		}
	}

	f.ann = model.Driver{Username: "ann", PasswordHash: "x", FirstName: "Ann", LastName: "Lee", LicenseNumber: "ABC12345"}
	f.bob = model.Driver{Username: "bob", PasswordHash: "x", LicenseNumber: "XYZ54321"}
	for _, d := range []*model.Driver{&f.ann, &f.bob} {
		if err := query.Drivers(f.db).Create(ctx, d); err != nil {
			t.Fatalf("create driver: %v", err)
		}
	}

	if err := orm.ReplaceJoinRows(ctx, f.db, query.CarDriversTable, "driver_id", "car_id", f.ann.ID, []int{f.town.ID, f.x5.ID}); err != nil {
		t.Fatalf("link ann: %v", err)
	}
	if err := orm.ReplaceJoinRows(ctx, f.db, query.CarDriversTable, "driver_id", "car_id", f.bob.ID, []int{f.x5.ID}); err != nil {
		t.Fatalf("link bob: %v", err)
	}
	return f
}

func TestCarsJoinManufacturer(t *testing.T) {
	t.Parallel()
	f := setupFleet(t)
	q := query.Cars(f.db)

	cars, err := q.Join("Manufacturer").OrderBy(q.Column("id")).All(t.Context())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(cars) != 2 {
		t.Fatalf("got %d cars, want 2", len(cars))
	}
	for _, c := range cars {
		if c.Manufacturer == nil {
			t.Fatalf("car %d: manufacturer not populated by join", c.ID)
		}
		if c.Manufacturer.ID != c.ManufacturerID {
			t.Errorf("car %d: manufacturer id %d, want %d", c.ID, c.Manufacturer.ID, c.ManufacturerID)
		}
	}
	if cars[0].Manufacturer.Name != "Lincoln" || cars[1].Manufacturer.Country != "Germany" {
		t.Errorf("unexpected manufacturers: %+v, %+v", *cars[0].Manufacturer, *cars[1].Manufacturer)
	}
}

func TestCarWithoutJoinLeavesManufacturerNil(t *testing.T) {
	t.Parallel()
	f := setupFleet(t)

	c, err := query.Cars(f.db).WherePK(f.town.ID).First(t.Context())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if c.Manufacturer != nil {
		t.Errorf("Manufacturer = %+v, want nil", c.Manufacturer)
	}
}

func TestCarPreloads(t *testing.T) {
	t.Parallel()
	f := setupFleet(t)

	c, err := query.Cars(f.db).WherePK(f.x5.ID).Preload("Manufacturer", "Drivers").First(t.Context())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if c.Manufacturer == nil || c.Manufacturer.Name != "BMW" {
		t.Errorf("Manufacturer = %+v, want BMW", c.Manufacturer)
	}
	got := c.DriverIDs()
	if len(got) != 2 || got[0] != f.ann.ID || got[1] != f.bob.ID {
		t.Errorf("DriverIDs = %v, want [%d %d]", got, f.ann.ID, f.bob.ID)
	}
}

func TestDriverNestedPreload(t *testing.T) {
	t.Parallel()
	f := setupFleet(t)

	d, err := query.Drivers(f.db).WherePK(f.ann.ID).Preload("Cars.Manufacturer").First(t.Context())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if len(d.Cars) != 2 {
		t.Fatalf("got %d cars, want 2", len(d.Cars))
	}
	want := map[string]string{"Town Car": "Lincoln", "X5": "BMW"}
	for _, c := range d.Cars {
		if c.Manufacturer == nil {
			t.Fatalf("car %q: manufacturer not preloaded", c.Model)
		}
		if want[c.Model] != c.Manufacturer.Name {
			t.Errorf("car %q: manufacturer %q, want %q", c.Model, c.Manufacturer.Name, want[c.Model])
		}
	}
}

func TestDriverWithoutCars(t *testing.T) {
	t.Parallel()
	f := setupFleet(t)
	ctx := t.Context()

	if err := orm.ReplaceJoinRows[int, int](ctx, f.db, query.CarDriversTable, "driver_id", "car_id", f.bob.ID, nil); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	d, err := query.Drivers(f.db).WherePK(f.bob.ID).Preload("Cars").First(ctx)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if len(d.Cars) != 0 {
		t.Errorf("Cars = %v, want none", d.Cars)
	}
}

func TestManufacturerCarsPreload(t *testing.T) {
	t.Parallel()
	f := setupFleet(t)
	ctx := t.Context()

	extra := model.Car{Model: "Navigator", ManufacturerID: f.lincoln.ID}
	if err := query.Cars(f.db).Create(ctx, &extra); err != nil {
		t.Fatalf("create: %v", err)
	}

	ms, err := query.Manufacturers(f.db).OrderBy("id").Preload("Cars").All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("got %d manufacturers, want 2", len(ms))
	}
	if n := len(ms[0].Cars); n != 2 {
		t.Errorf("Lincoln has %d cars, want 2", n)
	}
	if n := len(ms[1].Cars); n != 1 {
		t.Errorf("BMW has %d cars, want 1", n)
	}
}

func TestSessionValuesUpsert(t *testing.T) {
	t.Parallel()
	f := setupFleet(t)
	ctx := t.Context()

	s := model.Session{ID: "5f0c7a64-9c1e-4a55-9d2b-0f4a3c8e7b21", DriverID: f.ann.ID, CreatedAt: 1, ExpiresAt: 2}
	if err := query.Sessions(f.db).Create(ctx, &s); err != nil {
		t.Fatalf("create session: %v", err)
	}

	for _, v := range []string{"1", "2"} {
		sv := model.SessionValue{SessionID: s.ID, Key: "num_visits", Value: v}
		if err := query.SessionValues(f.db).OnConflict("session_id", "name").Upsert(ctx, &sv); err != nil {
			t.Fatalf("Upsert %s: %v", v, err)
		}
	}

	values, err := query.SessionValues(f.db).Where("session_id = ?", s.ID).All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(values) != 1 || values[0].Value != "2" {
		t.Errorf("values = %+v, want one num_visits=2", values)
	}

	got, err := query.Sessions(f.db).WherePK(s.ID).First(ctx)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if got != s {
		t.Errorf("session = %+v, want %+v", got, s)
	}
}
