// Package query holds the per-type query factories: column lists, row
// scanners, column/value extractors and relation preloaders for every
// record in internal/model.
package query

import (
	"context"
	"database/sql"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/orm"
	"github.com/fleetdesk/taxi/scope"
)

// Manufacturers returns a new Query for the manufacturers table.
func Manufacturers(db orm.Querier) *orm.Query[model.Manufacturer] {
	q := orm.NewQuery[model.Manufacturer](
		db, tableOf[model.Manufacturer](), manufacturersColumns, "id",
		scanManufacturer, manufacturerColumnValuePairs, setManufacturerPK,
	)
	q.RegisterJoin("Cars", orm.JoinConfig{
		TargetTable: tableOf[model.Car](), TargetColumn: "manufacturer_id",
		SourceTable: tableOf[model.Manufacturer](), SourceColumn: "id",
	})
	q.RegisterPreloader("Cars", preloadManufacturerCars)
	return q
}

var manufacturersColumns = []string{"id", "name", "country"}

func scanManufacturer(rows *sql.Rows) (model.Manufacturer, error) {
	cols, _ := rows.Columns()
	var v model.Manufacturer
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "name":
			dest[i] = &v.Name
		case "country":
			dest[i] = &v.Country
		default:
			dest[i] = new(any)
		}
	}
	err := rows.Scan(dest...)
	return v, err
}

func manufacturerColumnValuePairs(v *model.Manufacturer, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"id", "name", "country"},
			[]any{v.ID, v.Name, v.Country}
	}
	return []string{"name", "country"},
		[]any{v.Name, v.Country}
}

func setManufacturerPK(v *model.Manufacturer, id int64) {
	v.ID = int(id)
}

func preloadManufacturerCars(ctx context.Context, db orm.Querier, results []model.Manufacturer, nested ...string) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]int, len(results))
	for i := range results {
		ids[i] = results[i].ID
	}
	related, err := Cars(db).Scopes(scope.In("manufacturer_id", ids), scope.OrderBy("id")).Preload(nested...).All(ctx)
	if err != nil {
		return err
	}
	byFK := make(map[int][]model.Car)
	for _, r := range related {
		byFK[r.ManufacturerID] = append(byFK[r.ManufacturerID], r)
	}
	for i := range results {
		results[i].Cars = byFK[results[i].ID]
	}
	return nil
}
