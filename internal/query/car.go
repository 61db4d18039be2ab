package query

import (
	"context"
	"database/sql"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/orm"
	"github.com/fleetdesk/taxi/scope"
)

// CarDriversTable links cars and drivers.
const CarDriversTable = "car_drivers"

// Cars returns a new Query for the cars table.
func Cars(db orm.Querier) *orm.Query[model.Car] {
	q := orm.NewQuery[model.Car](
		db, tableOf[model.Car](), carsColumns, "id",
		scanCar, carColumnValuePairs, setCarPK,
	)
	q.RegisterJoin("Manufacturer", orm.JoinConfig{
		TargetTable: tableOf[model.Manufacturer](), TargetColumn: "id",
		SourceTable: tableOf[model.Car](), SourceColumn: "manufacturer_id",
		SelectColumns: []string{"id", "name", "country"},
	})
	q.RegisterPreloader("Manufacturer", preloadCarManufacturer)
	q.RegisterPreloader("Drivers", preloadCarDrivers)
	return q
}

var carsColumns = []string{"id", "model", "manufacturer_id"}

func scanCar(rows *sql.Rows) (model.Car, error) {
	cols, _ := rows.Columns()
	var v model.Car
	var joinScanManufacturerPK sql.NullInt64
	var joinScanManufacturer model.Manufacturer
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "model":
			dest[i] = &v.Model
		case "manufacturer_id":
			dest[i] = &v.ManufacturerID
		case "Manufacturer__id":
			dest[i] = &joinScanManufacturerPK
		case "Manufacturer__name":
			dest[i] = &joinScanManufacturer.Name
		case "Manufacturer__country":
			dest[i] = &joinScanManufacturer.Country
		default:
			dest[i] = new(any)
		}
	}
	err := rows.Scan(dest...)
	if joinScanManufacturerPK.Valid {
		joinScanManufacturer.ID = int(joinScanManufacturerPK.Int64)
		v.Manufacturer = &joinScanManufacturer
	}
	return v, err
}

func carColumnValuePairs(v *model.Car, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"id", "model", "manufacturer_id"},
			[]any{v.ID, v.Model, v.ManufacturerID}
	}
	return []string{"model", "manufacturer_id"},
		[]any{v.Model, v.ManufacturerID}
}

func setCarPK(v *model.Car, id int64) {
	v.ID = int(id)
}

func preloadCarManufacturer(ctx context.Context, db orm.Querier, results []model.Car, nested ...string) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]int, len(results))
	for i := range results {
		ids[i] = results[i].ManufacturerID
	}
	related, err := Manufacturers(db).Scopes(scope.In("id", ids)).Preload(nested...).All(ctx)
	if err != nil {
		return err
	}
	byPK := make(map[int]*model.Manufacturer)
	for i := range related {
		byPK[related[i].ID] = &related[i]
	}
	for i := range results {
		results[i].Manufacturer = byPK[results[i].ManufacturerID]
	}
	return nil
}

func preloadCarDrivers(ctx context.Context, db orm.Querier, results []model.Car, nested ...string) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]int, len(results))
	for i := range results {
		ids[i] = results[i].ID
	}
	pairs, err := orm.QueryJoinTable[int, int](
		ctx, db, CarDriversTable, "car_id", "driver_id", ids,
	)
	if err != nil {
		return err
	}
	targetIDs := orm.UniqueTargets(pairs)
	related, err := Drivers(db).Scopes(scope.In("id", targetIDs)).Preload(nested...).All(ctx)
	if err != nil {
		return err
	}
	byPK := make(map[int]model.Driver)
	for _, r := range related {
		byPK[r.ID] = r
	}
	grouped := orm.GroupBySource(pairs)
	for i := range results {
		tIDs := grouped[results[i].ID]
		items := make([]model.Driver, 0, len(tIDs))
		for _, tid := range tIDs {
			if v, ok := byPK[tid]; ok {
				items = append(items, v)
			}
		}
		results[i].Drivers = items
	}
	return nil
}
