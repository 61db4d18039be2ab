package scope_test

import (
	"math"
	"testing"

	"github.com/fleetdesk/taxi/scope"
)

// recorder collects what a Scope applies.
type recorder struct {
	wheres   []string
	args     [][]any
	orderBys []string
	selects  []string
	limit    *int
	offset   *int
}

func (r *recorder) ApplyWhere(clause string, args []any) {
	r.wheres = append(r.wheres, clause)
	r.args = append(r.args, args)
}
func (r *recorder) ApplyOrderBy(clause string) { r.orderBys = append(r.orderBys, clause) }
func (r *recorder) ApplyLimit(n int)           { r.limit = &n }
func (r *recorder) ApplyOffset(n int)          { r.offset = &n }
func (r *recorder) ApplySelect(columns string) { r.selects = append(r.selects, columns) }

func apply(scopes ...scope.Scope) *recorder {
	r := &recorder{}
	for _, s := range scopes {
		s.Apply(r)
	}
	return r
}

func TestWhereAndOrderBy(t *testing.T) {
	t.Parallel()

	r := apply(scope.Where("manufacturer_id = ?", 7), scope.OrderBy("id"))

	if len(r.wheres) != 1 || r.wheres[0] != "manufacturer_id = ?" {
		t.Fatalf("wheres = %v", r.wheres)
	}
	if len(r.args[0]) != 1 || r.args[0][0] != 7 {
		t.Errorf("args = %v, want [7]", r.args[0])
	}
	if len(r.orderBys) != 1 || r.orderBys[0] != "id" {
		t.Errorf("orderBys = %v", r.orderBys)
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	r := apply(scope.Select("id", "name"))
	if len(r.selects) != 1 || r.selects[0] != "id, name" {
		t.Errorf("selects = %v", r.selects)
	}
}

func TestIn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scope  scope.Scope
		clause string
		args   int
	}{
		{name: "ints", scope: scope.In("id", []int{1, 2, 3}), clause: "id IN (?, ?, ?)", args: 3},
		{name: "strings", scope: scope.In("username", []string{"joyce", "ana"}), clause: "username IN (?, ?)", args: 2},
		{name: "empty matches nothing", scope: scope.In("id", []int{}), clause: "1 = 0", args: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := apply(tt.scope)
			if len(r.wheres) != 1 || r.wheres[0] != tt.clause {
				t.Fatalf("wheres = %v, want [%s]", r.wheres, tt.clause)
			}
			if len(r.args[0]) != tt.args {
				t.Errorf("args = %v, want %d args", r.args[0], tt.args)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, perPage int
		limit, offset int
	}{
		{page: 1, perPage: 5, limit: 5, offset: 0},
		{page: 3, perPage: 5, limit: 5, offset: 10},
		{page: 0, perPage: 5, limit: 5, offset: 0},
		{page: -4, perPage: 5, limit: 5, offset: 0},
		{page: 2, perPage: 0, limit: 1, offset: 1},
		{page: 1844674407370955162, perPage: 5, limit: 5, offset: math.MaxInt - 2},
		{page: 3689348814741910324, perPage: 5, limit: 5, offset: math.MaxInt},
		{page: math.MaxInt, perPage: 1, limit: 1, offset: math.MaxInt - 1},
	}
	for _, tt := range tests {
		r := apply(scope.Paginate(tt.page, tt.perPage)...)
		if r.limit == nil || *r.limit != tt.limit {
			t.Errorf("Paginate(%d, %d) limit = %v, want %d", tt.page, tt.perPage, r.limit, tt.limit)
		}
		if r.offset == nil || *r.offset != tt.offset {
			t.Errorf("Paginate(%d, %d) offset = %v, want %d", tt.page, tt.perPage, r.offset, tt.offset)
		}
	}
}

func TestScopesAppendAndMergeDoNotMutate(t *testing.T) {
	t.Parallel()

	base := scope.Combine(scope.OrderBy("id"))
	appended := base.Append(scope.Where("country = ?", "Japan"))
	merged := base.Merge(scope.Paginate(2, 5))

	if len(base) != 1 {
		t.Fatalf("base mutated: len = %d", len(base))
	}
	if len(appended) != 2 {
		t.Errorf("appended len = %d, want 2", len(appended))
	}
	if len(merged) != 3 {
		t.Errorf("merged len = %d, want 3", len(merged))
	}

	r := apply(merged...)
	if r.limit == nil || *r.limit != 5 || r.offset == nil || *r.offset != 5 {
		t.Errorf("limit/offset = %v/%v, want 5/5", r.limit, r.offset)
	}
}
