package repo

import (
	"context"
	"fmt"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/query"
	"github.com/fleetdesk/taxi/orm"
)

type CarRepository struct {
	db orm.Querier
}

func NewCarRepository(db orm.Querier) *CarRepository {
	return &CarRepository{db: db}
}

func (r *CarRepository) Count(ctx context.Context) (int64, error) {
	n, err := query.Cars(r.db).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count cars: %w", err)
	}
	return n, nil
}

// Page lists cars with their manufacturer selected through one JOIN.
func (r *CarRepository) Page(ctx context.Context, number, size int) (Page[model.Car], error) {
	p, err := paginate(ctx, query.Cars(r.db).Join("Manufacturer"), number, size)
	if err != nil {
		return p, fmt.Errorf("list cars: %w", err)
	}
	return p, nil
}

func (r *CarRepository) FindByID(ctx context.Context, id int) (model.Car, error) {
	return query.Cars(r.db).WherePK(id).Join("Manufacturer").First(ctx)
}

// FindDetail loads the car with its manufacturer and drivers.
func (r *CarRepository) FindDetail(ctx context.Context, id int) (model.Car, error) {
	return query.Cars(r.db).WherePK(id).Join("Manufacturer").Preload("Drivers").First(ctx)
}

// Create inserts the car and its driver links in one transaction.
func (r *CarRepository) Create(ctx context.Context, c *model.Car, driverIDs []int) error {
	err := orm.InTransaction(ctx, r.db, func(q orm.Querier) error {
		if err := query.Cars(q).Create(ctx, c); err != nil {
			return err //nolint:wrapcheck // wrapped below
		}
		return setDrivers(ctx, q, c.ID, driverIDs)
	})
	if err != nil {
		return fmt.Errorf("create car: %w", err)
	}
	return nil
}

// Update saves the car and replaces its driver links in one transaction.
func (r *CarRepository) Update(ctx context.Context, c *model.Car, driverIDs []int) error {
	err := orm.InTransaction(ctx, r.db, func(q orm.Querier) error {
		if err := query.Cars(q).Update(ctx, c); err != nil {
			return err //nolint:wrapcheck // wrapped below
		}
		return setDrivers(ctx, q, c.ID, driverIDs)
	})
	if err != nil {
		return fmt.Errorf("update car %d: %w", c.ID, err)
	}
	return nil
}

func (r *CarRepository) Delete(ctx context.Context, id int) error {
	if err := deleteByID(ctx, query.Cars(r.db), id); err != nil {
		return fmt.Errorf("delete car %d: %w", id, err)
	}
	return nil
}

func setDrivers(ctx context.Context, q orm.Querier, carID int, driverIDs []int) error {
	return orm.ReplaceJoinRows(ctx, q, query.CarDriversTable, "car_id", "driver_id", carID, driverIDs) //nolint:wrapcheck // wrapped by caller
}
