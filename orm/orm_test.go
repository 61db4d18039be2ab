package orm_test

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/fleetdesk/taxi/orm"
)

type Maker struct {
	ID      int
	Name    string
	Country string
}

var makersColumns = []string{"id", "name", "country"}

func scanMaker(rows *sql.Rows) (Maker, error) {
	cols, _ := rows.Columns()
	var v Maker
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

func makerColumnValuePairs(v *Maker, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"id", "name", "country"}, []any{v.ID, v.Name, v.Country}
	}
	return []string{"name", "country"}, []any{v.Name, v.Country}
}

func setMakerPK(v *Maker, id int64) {
	v.ID = int(id)
}

func Makers(db orm.Querier) *orm.Query[Maker] {
	return orm.NewQuery[Maker](db, "makers", makersColumns, "id", scanMaker, makerColumnValuePairs, setMakerPK)
}

type dialectSetup struct {
	name    string
	driver  string
	dsn     string
	dialect orm.Dialect
	schema  []string
}

// dialects always includes in-memory SQLite; MySQL and PostgreSQL join when
// TAXI_TEST_MYSQL_DSN / TAXI_TEST_POSTGRES_DSN point at a scratch database.
func dialects() []dialectSetup {
	out := []dialectSetup{{
		name:    "SQLite",
		driver:  "sqlite",
		dsn:     ":memory:",
		dialect: orm.SQLite,
		schema: []string{
			`CREATE TABLE makers (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, country TEXT NOT NULL)`,
			`CREATE TABLE maker_tags (maker_id INTEGER NOT NULL, tag_id INTEGER NOT NULL, PRIMARY KEY (maker_id, tag_id))`,
		},
	}}
	if dsn := os.Getenv("TAXI_TEST_MYSQL_DSN"); dsn != "" {
		out = append(out, dialectSetup{
			name: "MySQL", driver: "mysql", dsn: dsn, dialect: orm.MySQL,
			schema: []string{
				"DROP TABLE IF EXISTS maker_tags",
				"DROP TABLE IF EXISTS makers",
				`CREATE TABLE makers (id INT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(255) NOT NULL UNIQUE, country VARCHAR(255) NOT NULL)`,
				`CREATE TABLE maker_tags (maker_id INT NOT NULL, tag_id INT NOT NULL, PRIMARY KEY (maker_id, tag_id))`,
			},
		})
	}
	if dsn := os.Getenv("TAXI_TEST_POSTGRES_DSN"); dsn != "" {
		out = append(out, dialectSetup{
			name: "PostgreSQL", driver: "pgx", dsn: dsn, dialect: orm.PostgreSQL,
			schema: []string{
				"DROP TABLE IF EXISTS maker_tags",
				"DROP TABLE IF EXISTS makers",
				`CREATE TABLE makers (id SERIAL PRIMARY KEY, name VARCHAR(255) NOT NULL UNIQUE, country VARCHAR(255) NOT NULL)`,
				`CREATE TABLE maker_tags (maker_id INT NOT NULL, tag_id INT NOT NULL, PRIMARY KEY (maker_id, tag_id))`,
			},
		})
	}
	return out
}

func setupDB(t *testing.T, ds dialectSetup) *orm.DB {
	t.Helper()

	sqlDB, err := sql.Open(ds.driver, ds.dsn)
	if err != nil {
		t.Fatalf("open %s: %v", ds.name, err)
	}
	if ds.driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range ds.schema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			t.Fatalf("schema %s: %v", ds.name, err)
		}
	}
	return orm.New(sqlDB, ds.dialect)
}

func TestCRUD(t *testing.T) {
	for _, ds := range dialects() {
		t.Run(ds.name, func(t *testing.T) {
			db := setupDB(t, ds)
			ctx := t.Context()

			m := &Maker{Name: "Lincoln", Country: "USA"}
			if err := Makers(db).Create(ctx, m); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if m.ID == 0 {
				t.Fatal("expected ID to be set after Create")
			}

			got, err := Makers(db).WherePK(m.ID).First(ctx)
			if err != nil {
				t.Fatalf("First: %v", err)
			}
			if got != *m {
				t.Errorf("First = %+v, want %+v", got, *m)
			}

			m.Country = "United States"
			if err := Makers(db).Update(ctx, m); err != nil {
				t.Fatalf("Update: %v", err)
			}
			got, err = Makers(db).WherePK(m.ID).First(ctx)
			if err != nil {
				t.Fatalf("First after Update: %v", err)
			}
			if got.Country != "United States" {
				t.Errorf("Country = %q, want %q", got.Country, "United States")
			}

			n, err := Makers(db).WherePK(m.ID).DeleteCount(ctx)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if n != 1 {
				t.Errorf("deleted %d rows, want 1", n)
			}
			if _, err := Makers(db).WherePK(m.ID).First(ctx); !errors.Is(err, orm.ErrNotFound) {
				t.Errorf("expected ErrNotFound after Delete, got %v", err)
			}
		})
	}
}

func TestCreateAllSetsEveryPK(t *testing.T) {
	for _, ds := range dialects() {
		t.Run(ds.name, func(t *testing.T) {
			db := setupDB(t, ds)
			ctx := t.Context()

			items := []*Maker{
				{Name: "Lincoln", Country: "USA"},
				{Name: "Nissan", Country: "Japan"},
				{Name: "BMW", Country: "Germany"},
			}
			if err := Makers(db).CreateAll(ctx, items); err != nil {
				t.Fatalf("CreateAll: %v", err)
			}

			for _, want := range items {
				got, err := Makers(db).WherePK(want.ID).First(ctx)
				if err != nil {
					t.Fatalf("First(%d): %v", want.ID, err)
				}
				if got.Name != want.Name {
					t.Errorf("row %d name = %q, want %q", want.ID, got.Name, want.Name)
				}
			}

			count, err := Makers(db).Count(ctx)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if count != 3 {
				t.Errorf("Count = %d, want 3", count)
			}
		})
	}
}

func TestUpsertOnConflict(t *testing.T) {
	for _, ds := range dialects() {
		t.Run(ds.name, func(t *testing.T) {
			db := setupDB(t, ds)
			ctx := t.Context()

			m := &Maker{Name: "Lincoln", Country: "USA"}
			if err := Makers(db).Create(ctx, m); err != nil {
				t.Fatalf("Create: %v", err)
			}

			again := &Maker{ID: m.ID, Name: "Lincoln", Country: "Canada"}
			if err := Makers(db).OnConflict("name").Upsert(ctx, again); err != nil {
				t.Fatalf("Upsert: %v", err)
			}

			all, err := Makers(db).All(ctx)
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			if len(all) != 1 || all[0].Country != "Canada" {
				t.Errorf("All = %+v, want one row with Country=Canada", all)
			}
		})
	}
}

func TestTransactionRollsBack(t *testing.T) {
	for _, ds := range dialects() {
		t.Run(ds.name, func(t *testing.T) {
			db := setupDB(t, ds)
			ctx := t.Context()

			err := db.Transaction(ctx, func(tx *orm.Tx) error {
				return Makers(tx).Create(ctx, &Maker{Name: "Committed", Country: "USA"})
			})
			if err != nil {
				t.Fatalf("Transaction commit: %v", err)
			}

			boom := errors.New("boom")
			err = orm.InTransaction(ctx, db, func(q orm.Querier) error {
				if err := Makers(q).Create(ctx, &Maker{Name: "RolledBack", Country: "USA"}); err != nil {
					return err
				}
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}

			exists, err := Makers(db).Where("name = ?", "RolledBack").Exists(ctx)
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if exists {
				t.Error("rolled back row is visible")
			}
			exists, err = Makers(db).Where("name = ?", "Committed").Exists(ctx)
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if !exists {
				t.Error("committed row is missing")
			}
		})
	}
}

func TestJoinTableRoundTrip(t *testing.T) {
	for _, ds := range dialects() {
		t.Run(ds.name, func(t *testing.T) {
			db := setupDB(t, ds)
			ctx := t.Context()

			if err := orm.ReplaceJoinRows(ctx, db, "maker_tags", "maker_id", "tag_id", 1, []int{3, 1, 2}); err != nil {
				t.Fatalf("ReplaceJoinRows: %v", err)
			}
			if err := orm.ReplaceJoinRows(ctx, db, "maker_tags", "maker_id", "tag_id", 2, []int{3}); err != nil {
				t.Fatalf("ReplaceJoinRows: %v", err)
			}
			if err := orm.ReplaceJoinRows(ctx, db, "maker_tags", "maker_id", "tag_id", 1, []int{2, 3}); err != nil {
				t.Fatalf("ReplaceJoinRows again: %v", err)
			}

			pairs, err := orm.QueryJoinTable[int, int](ctx, db, "maker_tags", "maker_id", "tag_id", []int{1, 2})
			if err != nil {
				t.Fatalf("QueryJoinTable: %v", err)
			}
			grouped := orm.GroupBySource(pairs)
			if got := grouped[1]; len(got) != 2 || got[0] != 2 || got[1] != 3 {
				t.Errorf("maker 1 tags = %v, want [2 3]", got)
			}
			if got := grouped[2]; len(got) != 1 || got[0] != 3 {
				t.Errorf("maker 2 tags = %v, want [3]", got)
			}
		})
	}
}
