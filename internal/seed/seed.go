// Package seed loads demo records from YAML fixtures.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fleetdesk/taxi/internal/auth"
	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/query"
	"github.com/fleetdesk/taxi/internal/repo"
	"github.com/fleetdesk/taxi/orm"
)

//go:embed default.yaml
var defaultFixtures []byte

// Fixtures is the document layout of a seed file.
type Fixtures struct {
	Manufacturers []Manufacturer `yaml:"manufacturers"`
	Drivers       []Driver       `yaml:"drivers"`
	Cars          []Car          `yaml:"cars"`
}

type Manufacturer struct {
	Name    string `yaml:"name"`
	Country string `yaml:"country"`
}

type Driver struct {
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	FirstName     string `yaml:"first_name"`
	LastName      string `yaml:"last_name"`
	LicenseNumber string `yaml:"license_number"`
}

// Car names its manufacturer and drivers by name and username, which may
// refer to records in the same file or already in the database.
type Car struct {
	Model        string   `yaml:"model"`
	Manufacturer string   `yaml:"manufacturer"`
	Drivers      []string `yaml:"drivers"`
}

// Result counts the records a Load created.
type Result struct {
	Manufacturers int
	Drivers       int
	Cars          int
}

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return Fixtures{}, nil
		}
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return Fixtures{}, err
	}
	return fx, nil
}

// Default returns the embedded demo fleet.
func Default() (Fixtures, error) {
	return Parse(bytes.NewReader(defaultFixtures))
}

// Validate checks the fields every record needs.
func (fx Fixtures) Validate() error {
	var errs []error
	for i, m := range fx.Manufacturers {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Country) == "" {
			errs = append(errs, fmt.Errorf("manufacturers[%d]: name and country are required", i))
		}
	}
	for i, d := range fx.Drivers {
		if strings.TrimSpace(d.Username) == "" || d.Password == "" {
			errs = append(errs, fmt.Errorf("drivers[%d]: username and password are required", i))
		}
	}
	for i, c := range fx.Cars {
		if strings.TrimSpace(c.Model) == "" || strings.TrimSpace(c.Manufacturer) == "" {
			errs = append(errs, fmt.Errorf("cars[%d]: model and manufacturer are required", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid fixtures: %w", err)
	}
	return nil
}

// Load stores fx in one transaction. Manufacturers and drivers that already
// exist by name or username are reused, and a car is skipped when its
// manufacturer already has a car with the same model, so loading the same
// file twice is a no-op.
func Load(ctx context.Context, db orm.Querier, fx Fixtures) (Result, error) {
	var res Result
	err := orm.InTransaction(ctx, db, func(q orm.Querier) error {
		var err error
		res, err = load(ctx, q, fx)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("seed: %w", err)
	}
	return res, nil
}

func load(ctx context.Context, q orm.Querier, fx Fixtures) (Result, error) {
	var res Result
	makers := repo.NewManufacturerRepository(q)
	drivers := repo.NewDriverRepository(q)
	cars := repo.NewCarRepository(q)

	makerIDs := make(map[string]int, len(fx.Manufacturers))
	var fresh []*model.Manufacturer
	for _, in := range fx.Manufacturers {
		name := strings.TrimSpace(in.Name)
		if _, ok := makerIDs[name]; ok {
			continue
		}
		m, err := makers.FindByName(ctx, name)
		switch {
		case err == nil:
			makerIDs[name] = m.ID
		case errors.Is(err, orm.ErrNotFound):
			makerIDs[name] = 0
			fresh = append(fresh, &model.Manufacturer{Name: name, Country: strings.TrimSpace(in.Country)})
		default:
			return res, err
		}
	}
	if len(fresh) > 0 {
		if err := makers.CreateAll(ctx, fresh); err != nil {
			return res, err
		}
		for _, m := range fresh {
			makerIDs[m.Name] = m.ID
		}
		res.Manufacturers = len(fresh)
	}

	driverIDs := make(map[string]int, len(fx.Drivers))
	for _, in := range fx.Drivers {
		username := strings.TrimSpace(in.Username)
		if _, ok := driverIDs[username]; ok {
			continue
		}
		existing, err := drivers.FindByUsername(ctx, username)
		if err == nil {
			driverIDs[username] = existing.ID
			continue
		}
		if !errors.Is(err, orm.ErrNotFound) {
			return res, err
		}
		d, err := auth.CreateDriver(ctx, drivers, auth.NewDriver{
			Username:      username,
			Password:      in.Password,
			FirstName:     in.FirstName,
			LastName:      in.LastName,
			LicenseNumber: in.LicenseNumber,
		})
		if err != nil {
			return res, fmt.Errorf("driver %q: %w", username, err)
		}
		driverIDs[username] = d.ID
		res.Drivers++
	}

	for _, in := range fx.Cars {
		carModel := strings.TrimSpace(in.Model)
		makerID, err := resolveManufacturer(ctx, makers, makerIDs, strings.TrimSpace(in.Manufacturer))
		if err != nil {
			return res, fmt.Errorf("car %q: %w", carModel, err)
		}
		ids, err := resolveDrivers(ctx, drivers, driverIDs, in.Drivers)
		if err != nil {
			return res, fmt.Errorf("car %q: %w", carModel, err)
		}
		exists, err := query.Cars(q).Where("model = ? AND manufacturer_id = ?", carModel, makerID).Exists(ctx)
		if err != nil {
			return res, fmt.Errorf("car %q: %w", carModel, err)
		}
		if exists {
			continue
		}
		if err := cars.Create(ctx, &model.Car{Model: carModel, ManufacturerID: makerID}, ids); err != nil {
			return res, err
		}
		res.Cars++
	}
	return res, nil
}

func resolveManufacturer(ctx context.Context, makers *repo.ManufacturerRepository, known map[string]int, name string) (int, error) {
	if id, ok := known[name]; ok {
		return id, nil
	}
	m, err := makers.FindByName(ctx, name)
	if errors.Is(err, orm.ErrNotFound) {
		return 0, fmt.Errorf("unknown manufacturer %q", name)
	}
	if err != nil {
		return 0, err
	}
	known[name] = m.ID
	return m.ID, nil
}

func resolveDrivers(ctx context.Context, drivers *repo.DriverRepository, known map[string]int, usernames []string) ([]int, error) {
	ids := make([]int, 0, len(usernames))
	var missing []string
	for _, u := range usernames {
		u = strings.TrimSpace(u)
		if id, ok := known[u]; ok {
			ids = append(ids, id)
			continue
		}
		missing = append(missing, u)
	}
	if len(missing) == 0 {
		return ids, nil
	}
	found, err := drivers.FindByUsernames(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, d := range found {
		known[d.Username] = d.ID
		ids = append(ids, d.ID)
	}
	for _, u := range missing {
		if _, ok := known[u]; !ok {
			return nil, fmt.Errorf("unknown driver %q", u)
		}
	}
	return ids, nil
}
