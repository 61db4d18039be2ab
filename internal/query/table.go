package query

import (
	"reflect"

	"github.com/fleetdesk/taxi/internal/naming"
	"github.com/fleetdesk/taxi/orm"
)

// tableOf resolves the table of T. Types without a TableName method map to
// the snake_case plural of their name: SessionValue -> session_values.
func tableOf[T any]() string {
	return orm.ResolveTableName[T](naming.TableName(reflect.TypeFor[T]().Name()))
}
