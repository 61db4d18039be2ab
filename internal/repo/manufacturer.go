package repo

import (
	"context"
	"fmt"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/query"
	"github.com/fleetdesk/taxi/orm"
)

type ManufacturerRepository struct {
	db orm.Querier
}

func NewManufacturerRepository(db orm.Querier) *ManufacturerRepository {
	return &ManufacturerRepository{db: db}
}

func (r *ManufacturerRepository) Count(ctx context.Context) (int64, error) {
	n, err := query.Manufacturers(r.db).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count manufacturers: %w", err)
	}
	return n, nil
}

func (r *ManufacturerRepository) Page(ctx context.Context, number, size int) (Page[model.Manufacturer], error) {
	p, err := paginate(ctx, query.Manufacturers(r.db), number, size)
	if err != nil {
		return p, fmt.Errorf("list manufacturers: %w", err)
	}
	return p, nil
}

// All returns every manufacturer by name, for choice lists.
func (r *ManufacturerRepository) All(ctx context.Context) ([]model.Manufacturer, error) {
	ms, err := query.Manufacturers(r.db).OrderBy("name").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manufacturers: %w", err)
	}
	return ms, nil
}

func (r *ManufacturerRepository) FindByID(ctx context.Context, id int) (model.Manufacturer, error) {
	return query.Manufacturers(r.db).WherePK(id).First(ctx)
}

// FindWithCars loads the manufacturer and the cars a delete would cascade to.
func (r *ManufacturerRepository) FindWithCars(ctx context.Context, id int) (model.Manufacturer, error) {
	return query.Manufacturers(r.db).WherePK(id).Preload("Cars").First(ctx)
}

func (r *ManufacturerRepository) FindByName(ctx context.Context, name string) (model.Manufacturer, error) {
	return query.Manufacturers(r.db).Where("name = ?", name).First(ctx)
}

// NameTaken reports whether another manufacturer already uses name.
// excludeID is the record being edited, or 0.
func (r *ManufacturerRepository) NameTaken(ctx context.Context, name string, excludeID int) (bool, error) {
	taken, err := query.Manufacturers(r.db).Where("name = ? AND id <> ?", name, excludeID).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check manufacturer name: %w", err)
	}
	return taken, nil
}

func (r *ManufacturerRepository) Create(ctx context.Context, m *model.Manufacturer) error {
	if err := query.Manufacturers(r.db).Create(ctx, m); err != nil {
		return fmt.Errorf("create manufacturer: %w", err)
	}
	return nil
}

func (r *ManufacturerRepository) CreateAll(ctx context.Context, ms []*model.Manufacturer) error {
	if err := query.Manufacturers(r.db).CreateAll(ctx, ms); err != nil {
		return fmt.Errorf("create manufacturers: %w", err)
	}
	return nil
}

func (r *ManufacturerRepository) Update(ctx context.Context, m *model.Manufacturer) error {
	if err := query.Manufacturers(r.db).Update(ctx, m); err != nil {
		return fmt.Errorf("update manufacturer %d: %w", m.ID, err)
	}
	return nil
}

// Delete removes the manufacturer; its cars go with it.
func (r *ManufacturerRepository) Delete(ctx context.Context, id int) error {
	if err := deleteByID(ctx, query.Manufacturers(r.db), id); err != nil {
		return fmt.Errorf("delete manufacturer %d: %w", id, err)
	}
	return nil
}
