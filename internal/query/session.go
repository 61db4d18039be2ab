package query

import (
	"database/sql"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/orm"
)

// Sessions returns a new Query for the sessions table.
func Sessions(db orm.Querier) *orm.Query[model.Session] {
	return orm.NewQuery[model.Session](
		db, tableOf[model.Session](), sessionsColumns, "id",
		scanSession, sessionColumnValuePairs, nil,
	)
}

var sessionsColumns = []string{"id", "driver_id", "created_at", "expires_at"}

func scanSession(rows *sql.Rows) (model.Session, error) {
	cols, _ := rows.Columns()
	var v model.Session
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "driver_id":
			dest[i] = &v.DriverID
		case "created_at":
			dest[i] = &v.CreatedAt
		case "expires_at":
			dest[i] = &v.ExpiresAt
		default:
			dest[i] = new(any)
		}
	}
	err := rows.Scan(dest...)
	return v, err
}

func sessionColumnValuePairs(v *model.Session, _ bool) ([]string, []any) {
	return []string{"id", "driver_id", "created_at", "expires_at"},
		[]any{v.ID, v.DriverID, v.CreatedAt, v.ExpiresAt}
}

// SessionValues returns a new Query for the session_values table. Rows are
// keyed by (session_id, name); write them with OnConflict("session_id", "name").Upsert.
func SessionValues(db orm.Querier) *orm.Query[model.SessionValue] {
	return orm.NewQuery[model.SessionValue](
		db, tableOf[model.SessionValue](), sessionValuesColumns, "session_id",
		scanSessionValue, sessionValueColumnValuePairs, nil,
	)
}

var sessionValuesColumns = []string{"session_id", "name", "value"}

func scanSessionValue(rows *sql.Rows) (model.SessionValue, error) {
	cols, _ := rows.Columns()
	var v model.SessionValue
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "session_id":
			dest[i] = &v.SessionID
		case "name":
			dest[i] = &v.Key
		case "value":
			dest[i] = &v.Value
		default:
			dest[i] = new(any)
		}
	}
	err := rows.Scan(dest...)
	return v, err
}

func sessionValueColumnValuePairs(v *model.SessionValue, _ bool) ([]string, []any) {
	return []string{"session_id", "name", "value"},
		[]any{v.SessionID, v.Key, v.Value}
}
