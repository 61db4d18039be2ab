package form

import (
	"net/url"
	"strconv"

	"github.com/fleetdesk/taxi/internal/model"
)

// LoginSchema lists the sign-in fields.
func LoginSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "username", Label: "Username", Kind: Text, Required: true, MaxLength: 150},
		{Name: "password", Label: "Password", Kind: Text, Required: true, Secret: true},
	}}
}

// ManufacturerSchema lists the editable manufacturer fields.
func ManufacturerSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "name", Label: "Name", Kind: Text, Required: true, MaxLength: 255},
		{Name: "country", Label: "Country", Kind: Text, Required: true, MaxLength: 255},
	}}
}

func ManufacturerValues(m model.Manufacturer) url.Values {
	return url.Values{"name": {m.Name}, "country": {m.Country}}
}

// ApplyManufacturer copies a valid form onto m.
func ApplyManufacturer(f *Form, m *model.Manufacturer) {
	m.Name = f.Value("name")
	m.Country = f.Value("country")
}

// CarSchema lists the editable car fields. The manufacturer and driver
// options are the records that currently exist.
func CarSchema(manufacturers []model.Manufacturer, drivers []model.Driver) Schema {
	makers := make([]Option, len(manufacturers))
	for i, m := range manufacturers {
		makers[i] = Option{Value: strconv.Itoa(m.ID), Label: m.String()}
	}
	staff := make([]Option, len(drivers))
	for i, d := range drivers {
		staff[i] = Option{Value: strconv.Itoa(d.ID), Label: d.String()}
	}
	return Schema{Fields: []Field{
		{Name: "model", Label: "Model", Kind: Text, Required: true, MaxLength: 255},
		{Name: "manufacturer", Label: "Manufacturer", Kind: Choice, Required: true, Options: makers},
		{Name: "drivers", Label: "Drivers", Kind: MultiChoice, Options: staff},
	}}
}

func CarValues(c model.Car) url.Values {
	v := url.Values{"model": {c.Model}}
	if c.ManufacturerID != 0 {
		v.Set("manufacturer", strconv.Itoa(c.ManufacturerID))
	}
	for _, id := range c.DriverIDs() {
		v.Add("drivers", strconv.Itoa(id))
	}
	return v
}

// ApplyCar copies a valid form onto c and returns the chosen driver ids.
func ApplyCar(f *Form, c *model.Car) []int {
	c.Model = f.Value("model")
	c.ManufacturerID = f.Int("manufacturer")
	return f.Ints("drivers")
}
