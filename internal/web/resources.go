package web

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fleetdesk/taxi/internal/form"
	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/web/templates"
)

func (s *Server) manufacturerResource() resource[model.Manufacturer] {
	res := resource[model.Manufacturer]{
		name:    "manufacturer",
		headers: []string{"ID", "Name", "Country", "", ""},
		page:    s.manufacturers.Page,
	}
	res.row = func(m model.Manufacturer) []templates.Cell {
		return []templates.Cell{
			{Label: strconv.Itoa(m.ID)},
			{Label: m.Name},
			{Label: m.Country},
			{Label: "Update", Href: res.itemURL(m.ID) + "update/"},
			{Label: "Delete", Href: res.itemURL(m.ID) + "delete/"},
		}
	}
	res.edit = &editor[model.Manufacturer]{
		schema: func(context.Context) (form.Schema, error) {
			return form.ManufacturerSchema(), nil
		},
		load:    s.manufacturers.FindByID,
		initial: form.ManufacturerValues,
		checks: func(id int) []form.Check {
			return []form.Check{form.Unique("name", "Manufacturer", func(ctx context.Context, name string) (bool, error) {
				return s.manufacturers.NameTaken(ctx, name, id)
			})}
		},
		save: func(ctx context.Context, id int, f *form.Form) (string, error) {
			m := model.Manufacturer{ID: id}
			form.ApplyManufacturer(f, &m)
			var err error
			if id == 0 {
				err = s.manufacturers.Create(ctx, &m)
			} else {
				err = s.manufacturers.Update(ctx, &m)
			}
			return res.base(), err
		},
	}
	res.remove = &remover{
		describe: func(ctx context.Context, id int) (string, string, error) {
			m, err := s.manufacturers.FindWithCars(ctx, id)
			if err != nil {
				return "", "", err
			}
			warning := ""
			if n := len(m.Cars); n > 0 {
				warning = fmt.Sprintf("Its %d car(s) will be deleted as well.", n)
			}
			return m.String(), warning, nil
		},
		delete: s.manufacturers.Delete,
	}
	return res
}

func (s *Server) carResource() resource[model.Car] {
	res := resource[model.Car]{
		name:    "car",
		headers: []string{"ID", "Model", "Manufacturer"},
		page:    s.cars.Page,
	}
	res.row = func(c model.Car) []templates.Cell {
		maker := ""
		if c.Manufacturer != nil {
			maker = c.Manufacturer.Name
		}
		return []templates.Cell{
			{Label: strconv.Itoa(c.ID), Href: res.itemURL(c.ID)},
			{Label: c.Model, Href: res.itemURL(c.ID)},
			{Label: maker},
		}
	}
	res.detail = func(ctx context.Context, id int) (templates.DetailView, error) {
		c, err := s.cars.FindDetail(ctx, id)
		if err != nil {
			return templates.DetailView{}, err
		}
		view := templates.DetailView{
			Title: c.Model,
			Attrs: []templates.Attr{{Label: "Model", Value: c.Model}},
			Actions: []templates.Link{
				{Label: "Update", Href: res.itemURL(c.ID) + "update/"},
				{Label: "Delete", Href: res.itemURL(c.ID) + "delete/"},
			},
		}
		if c.Manufacturer != nil {
			view.Attrs = append(view.Attrs,
				templates.Attr{Label: "Manufacturer", Value: c.Manufacturer.Name},
				templates.Attr{Label: "Country", Value: c.Manufacturer.Country},
			)
		}
		drivers := templates.Section{Title: "Drivers", Empty: "No drivers are assigned to this car."}
		for _, d := range c.Drivers {
			drivers.Items = append(drivers.Items, templates.Link{
				Label: d.String(),
				Href:  "/drivers/" + strconv.Itoa(d.ID) + "/",
			})
		}
		view.Sections = []templates.Section{drivers}
		return view, nil
	}
	res.edit = &editor[model.Car]{
		schema:  s.carSchema,
		load:    s.cars.FindDetail,
		initial: form.CarValues,
		save: func(ctx context.Context, id int, f *form.Form) (string, error) {
			c := model.Car{ID: id}
			driverIDs := form.ApplyCar(f, &c)
			var err error
			if id == 0 {
				err = s.cars.Create(ctx, &c, driverIDs)
			} else {
				err = s.cars.Update(ctx, &c, driverIDs)
			}
			return res.itemURL(c.ID), err
		},
	}
	res.remove = &remover{
		describe: func(ctx context.Context, id int) (string, string, error) {
			c, err := s.cars.FindByID(ctx, id)
			if err != nil {
				return "", "", err
			}
			return c.String(), "", nil
		},
		delete: s.cars.Delete,
	}
	return res
}

// carSchema offers the manufacturers and drivers that exist right now, so
// a stale or forged id fails choice validation.
func (s *Server) carSchema(ctx context.Context) (form.Schema, error) {
	makers, err := s.manufacturers.All(ctx)
	if err != nil {
		return form.Schema{}, err
	}
	staff, err := s.drivers.All(ctx)
	if err != nil {
		return form.Schema{}, err
	}
	return form.CarSchema(makers, staff), nil
}

func (s *Server) driverResource() resource[model.Driver] {
	res := resource[model.Driver]{
		name:    "driver",
		headers: []string{"ID", "Username", "Full name", "License number"},
		page:    s.drivers.Page,
	}
	res.row = func(d model.Driver) []templates.Cell {
		return []templates.Cell{
			{Label: strconv.Itoa(d.ID), Href: res.itemURL(d.ID)},
			{Label: d.Username, Href: res.itemURL(d.ID)},
			{Label: d.FullName()},
			{Label: d.LicenseNumber},
		}
	}
	res.detail = func(ctx context.Context, id int) (templates.DetailView, error) {
		d, err := s.drivers.FindDetail(ctx, id)
		if err != nil {
			return templates.DetailView{}, err
		}
		cars := templates.Section{Title: "Cars", Empty: "This driver has no cars."}
		for _, c := range d.Cars {
			cars.Items = append(cars.Items, templates.Link{
				Label: c.String(),
				Href:  "/cars/" + strconv.Itoa(c.ID) + "/",
			})
		}
		return templates.DetailView{
			Title: d.FullName(),
			Attrs: []templates.Attr{
				{Label: "Username", Value: d.Username},
				{Label: "First name", Value: d.FirstName},
				{Label: "Last name", Value: d.LastName},
				{Label: "License number", Value: d.LicenseNumber},
			},
			Sections: []templates.Section{cars},
		}, nil
	}
	return res
}
