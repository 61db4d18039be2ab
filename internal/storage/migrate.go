package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/fleetdesk/taxi/internal/storage/migrations"
	"github.com/fleetdesk/taxi/orm"
)

const migrationTable = "schema_migrations"

type migrationRecord struct {
	Name      string
	AppliedAt int64
}

func migrationRecords(db orm.Querier) *orm.Query[migrationRecord] {
	return orm.NewQuery[migrationRecord](
		db, migrationTable, []string{"name", "applied_at"}, "name",
		scanMigrationRecord, migrationRecordColumnValuePairs, nil,
	)
}

func scanMigrationRecord(rows *sql.Rows) (migrationRecord, error) {
	var v migrationRecord
	err := rows.Scan(&v.Name, &v.AppliedAt)
	return v, err
}

func migrationRecordColumnValuePairs(v *migrationRecord, _ bool) ([]string, []any) {
	return []string{"name", "applied_at"}, []any{v.Name, v.AppliedAt}
}

// Migrate applies the embedded migrations of the store's dialect that are
// not yet recorded in schema_migrations, each in its own transaction. It
// returns the names it applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	return Migrate(ctx, s.db, migrations.FS)
}

// Migrate applies the "<dialect>/*.sql" files of fsys to db in name order.
func Migrate(ctx context.Context, db *orm.DB, fsys fs.FS) ([]string, error) {
	root := db.Dialect().Name()
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("storage: read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	createSQL := "CREATE TABLE IF NOT EXISTS " + migrationTable +
		" (name VARCHAR(255) NOT NULL PRIMARY KEY, applied_at BIGINT NOT NULL)"
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return nil, fmt.Errorf("storage: ensure migration table: %w", err)
	}

	var applied []string
	for _, file := range files {
		done, err := migrationRecords(db).Where("name = ?", file).Exists(ctx)
		if err != nil {
			return applied, fmt.Errorf("storage: check migration %s: %w", file, err)
		}
		if done {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(root, file))
		if err != nil {
			return applied, fmt.Errorf("storage: read migration %s: %w", file, err)
		}
		stmts := SplitStatements(ExtractUpMigration(string(content)))
		if len(stmts) == 0 {
			continue
		}

		err = db.Transaction(ctx, func(tx *orm.Tx) error {
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil && !tolerable(db.Dialect(), err) {
					return err //nolint:wrapcheck // wrapped below
				}
			}
			return migrationRecords(tx).Create(ctx, &migrationRecord{
				Name:      file,
				AppliedAt: orm.Now(ctx).UnixMilli(),
			})
		})
		if err != nil {
			return applied, fmt.Errorf("storage: apply migration %s: %w", file, err)
		}
		applied = append(applied, file)
	}
	return applied, nil
}

// ExtractUpMigration returns the SQL in the -- +migrate Up section.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

// SplitStatements splits a script into statements terminated by a ';' at
// the end of a line. Comment-only lines are dropped.
func SplitStatements(script string) []string {
	var (
		stmts []string
		cur   []string
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur = append(cur, line)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(strings.Join(cur, "\n"))
			stmts = append(stmts, strings.TrimSuffix(stmt, ";"))
			cur = nil
		}
	}
	if rest := strings.TrimSpace(strings.Join(cur, "\n")); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}

// tolerable reports whether a failed migration statement can be skipped.
// MySQL commits DDL implicitly and has no CREATE INDEX IF NOT EXISTS, so a
// rerun after a partial apply hits objects that already exist. PostgreSQL
// and SQLite migrations use IF NOT EXISTS and every error is fatal; on
// PostgreSQL the failed statement aborts the transaction anyway.
func tolerable(d orm.Dialect, err error) bool {
	return d == orm.MySQL && IsAlreadyExistsError(err)
}

// IsAlreadyExistsError reports whether err indicates idempotent DDL success.
func IsAlreadyExistsError(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}
