package repo

import (
	"context"
	"fmt"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/query"
	"github.com/fleetdesk/taxi/orm"
	"github.com/fleetdesk/taxi/scope"
)

type DriverRepository struct {
	db orm.Querier
}

func NewDriverRepository(db orm.Querier) *DriverRepository {
	return &DriverRepository{db: db}
}

func (r *DriverRepository) Count(ctx context.Context) (int64, error) {
	n, err := query.Drivers(r.db).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count drivers: %w", err)
	}
	return n, nil
}

func (r *DriverRepository) Page(ctx context.Context, number, size int) (Page[model.Driver], error) {
	p, err := paginate(ctx, query.Drivers(r.db), number, size)
	if err != nil {
		return p, fmt.Errorf("list drivers: %w", err)
	}
	return p, nil
}

// All returns every driver by username, for choice lists.
func (r *DriverRepository) All(ctx context.Context) ([]model.Driver, error) {
	ds, err := query.Drivers(r.db).OrderBy("username").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return ds, nil
}

func (r *DriverRepository) FindByID(ctx context.Context, id int) (model.Driver, error) {
	return query.Drivers(r.db).WherePK(id).First(ctx)
}

// FindDetail loads the driver, the driver's cars and each car's
// manufacturer in one prefetch pass.
func (r *DriverRepository) FindDetail(ctx context.Context, id int) (model.Driver, error) {
	return query.Drivers(r.db).WherePK(id).Preload("Cars.Manufacturer").First(ctx)
}

func (r *DriverRepository) FindByUsername(ctx context.Context, username string) (model.Driver, error) {
	return query.Drivers(r.db).Where("username = ?", username).First(ctx)
}

// FindByUsernames returns the drivers with the given usernames, in id order.
func (r *DriverRepository) FindByUsernames(ctx context.Context, usernames []string) ([]model.Driver, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	ds, err := query.Drivers(r.db).Scopes(scope.In("username", usernames), scope.OrderBy("id")).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("find drivers: %w", err)
	}
	return ds, nil
}

func (r *DriverRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	taken, err := query.Drivers(r.db).Where("username = ?", username).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return taken, nil
}

func (r *DriverRepository) LicenseTaken(ctx context.Context, license string) (bool, error) {
	taken, err := query.Drivers(r.db).Where("license_number = ?", license).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check license number: %w", err)
	}
	return taken, nil
}

// ExistingIDs returns the subset of ids that name a driver.
func (r *DriverRepository) ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	out := make(map[int]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ds, err := query.Drivers(r.db).Scopes(scope.In("id", ids)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("check drivers: %w", err)
	}
	for _, d := range ds {
		out[d.ID] = true
	}
	return out, nil
}

func (r *DriverRepository) Create(ctx context.Context, d *model.Driver) error {
	if err := query.Drivers(r.db).Create(ctx, d); err != nil {
		return fmt.Errorf("create driver: %w", err)
	}
	return nil
}
