package query

import (
	"context"
	"database/sql"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/orm"
	"github.com/fleetdesk/taxi/scope"
)

// Drivers returns a new Query for the drivers table.
func Drivers(db orm.Querier) *orm.Query[model.Driver] {
	q := orm.NewQuery[model.Driver](
		db, tableOf[model.Driver](), driversColumns, "id",
		scanDriver, driverColumnValuePairs, setDriverPK,
	)
	q.RegisterPreloader("Cars", preloadDriverCars)
	return q
}

var driversColumns = []string{"id", "username", "password_hash", "first_name", "last_name", "license_number"}

func scanDriver(rows *sql.Rows) (model.Driver, error) {
	cols, _ := rows.Columns()
	var v model.Driver
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "username":
			dest[i] = &v.Username
		case "password_hash":
			dest[i] = &v.PasswordHash
		case "first_name":
			dest[i] = &v.FirstName
		case "last_name":
			dest[i] = &v.LastName
		case "license_number":
			dest[i] = &v.LicenseNumber
		default:
			dest[i] = new(any)
		}
	}
	err := rows.Scan(dest...)
	return v, err
}

func driverColumnValuePairs(v *model.Driver, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"id", "username", "password_hash", "first_name", "last_name", "license_number"},
			[]any{v.ID, v.Username, v.PasswordHash, v.FirstName, v.LastName, v.LicenseNumber}
	}
	return []string{"username", "password_hash", "first_name", "last_name", "license_number"},
		[]any{v.Username, v.PasswordHash, v.FirstName, v.LastName, v.LicenseNumber}
}

func setDriverPK(v *model.Driver, id int64) {
	v.ID = int(id)
}

func preloadDriverCars(ctx context.Context, db orm.Querier, results []model.Driver, nested ...string) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]int, len(results))
	for i := range results {
		ids[i] = results[i].ID
	}
	pairs, err := orm.QueryJoinTable[int, int](
		ctx, db, CarDriversTable, "driver_id", "car_id", ids,
	)
	if err != nil {
		return err
	}
	targetIDs := orm.UniqueTargets(pairs)
	related, err := Cars(db).Scopes(scope.In("id", targetIDs)).Preload(nested...).All(ctx)
	if err != nil {
		return err
	}
	byPK := make(map[int]model.Car)
	for _, r := range related {
		byPK[r.ID] = r
	}
	grouped := orm.GroupBySource(pairs)
	for i := range results {
		tIDs := grouped[results[i].ID]
		items := make([]model.Car, 0, len(tIDs))
		for _, tid := range tIDs {
			if v, ok := byPK[tid]; ok {
				items = append(items, v)
			}
		}
		results[i].Cars = items
	}
	return nil
}
