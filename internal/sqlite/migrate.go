package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"
)

// migrateTo brings the live database up to the declarative schema in
// schema.sql. The target schema is materialised in a scratch database and
// diffed against the live one. Removed and new tables are handled directly;
// changed tables run through SQLite's 12-step migration
// (https://www.sqlite.org/lang_altertable.html#otheralter). Triggers and
// indexes are synchronised last.
//
// After https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	start := time.Now()

	detach, err := db.attachTargetSchema(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach target schema: %w", err)
	}
	defer detach()

	// Step 1: foreign key validation off for the duration.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign key validation: %w", err)
	}
	// Step 12: turn it back on. Failing to do so risks silent corruption, so
	// the process goes down rather than continue without it.
	defer func() {
		if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			err = fmt.Errorf("re-enable foreign key validation: %w", err)
			db.logger.LogAttrs(ctx, slog.LevelError, "exit to avoid data corruption", slog.Any("error", err))
			if err = syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
				os.Exit(1)
			}
		}
	}()

	// Step 2: one transaction for the whole diff.
	var tx *sql.Tx
	if tx, err = db.ReadWrite.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer db.rollback(ctx, tx)()

	// Steps 3-7.
	if err = db.syncTables(ctx, tx); err != nil {
		return fmt.Errorf("sync tables: %w", err)
	}

	// Step 8: triggers and indexes.
	if err = db.syncSchemaObjects(ctx, tx, schemaTypeTrigger); err != nil {
		return fmt.Errorf("sync triggers: %w", err)
	}
	if err = db.syncSchemaObjects(ctx, tx, schemaTypeIndex); err != nil {
		return fmt.Errorf("sync indexes: %w", err)
	}

	// Steps 9-10: no views to recreate, verify foreign keys.
	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}

	// Step 11.
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))

	return nil
}

// attachTargetSchema materialises the target schema in a throwaway in-memory
// database and attaches it to the live connection as schemaTarget. The
// returned function detaches it and must run after the migration.
func (db *Database) attachTargetSchema(ctx context.Context, schemaDefinition string) (func(), error) {
	var err error
	targetDSN := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	targetDB, err := sql.Open("sqlite3", targetDSN)
	if err != nil {
		return nil, fmt.Errorf("open target schema database: %w", err)
	}
	defer func() {
		if err = targetDB.Close(); err != nil {
			err = fmt.Errorf("close target schema database: %w", err)
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close target schema database",
				slog.Any("error", err))
		}
	}()
	if _, err = targetDB.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("apply target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", targetDSN); err != nil {
		return nil, fmt.Errorf("attach target schema database: %w", err)
	}
	return func() {
		if _, err = db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); err != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach target schema database", slog.Any("error", err))
		}
	}, nil
}

func (db *Database) rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			err = fmt.Errorf("rollback transaction: %w", err)
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", slog.Any("error", err))
		}
	}
}

// syncTables reconciles the live tables with the target schema. A table with
// a changed shape is rebuilt under a temporary name and swapped in.
func (db *Database) syncTables(ctx context.Context, tx *sql.Tx) error {
	var err error

	var dropped []string
	if dropped, err = db.queryColumn(ctx, tx, `SELECT live.name AS dropped_table
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = 'table'
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`); err != nil {
		return fmt.Errorf("query dropped tables: %w", err)
	}
	for _, table := range dropped {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", table)); err != nil {
			return fmt.Errorf("DROP TABLE %s: %w", table, err)
		}
	}

	var created []string
	if created, err = db.queryColumn(ctx, tx, `SELECT target.sql AS sql
FROM sqlite_schema AS live RIGHT JOIN schemaTarget.sqlite_schema AS target
ON live.name=target.name AND live.type=target.type
WHERE target.type = 'table'
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'`); err != nil {
		return fmt.Errorf("query new tables: %w", err)
	}
	for _, createSQL := range created {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	var changed []schemaDiff
	if changed, err = db.querySchemaDiffs(ctx, tx, `SELECT live.name AS changed_table,
       live.sql  AS live_sql,
       target.sql   AS new_sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = 'table'
  AND live.name NOT LIKE 'sqlite_%'
  -- Renaming a table quotes its name in sqlite_schema, strip quotes before diffing.
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')
`); err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}

	for _, table := range changed {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
			slog.String("table", table.name),
			slog.String("live_sql", table.liveSQL),
			slog.String("new_sql", table.targetSQL))

		// Step 4: create the new shape under a temporary name.
		tempName := table.name + "_migration_temp"
		tempSQL := strings.Replace(table.targetSQL, table.name, tempName, 1)
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table under temporary name",
			slog.String("query", tempSQL))
		if _, err = tx.ExecContext(ctx, tempSQL); err != nil {
			return fmt.Errorf("create table under temporary name %s: %w", tempSQL, err)
		}

		// Step 5: copy the columns both shapes share.
		var shared []string
		if shared, err = db.querySharedColumns(ctx, tx, table.name); err != nil {
			return fmt.Errorf("query shared columns: %w", err)
		}
		columns := strings.Join(shared, ", ")
		copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;", //nolint: gosec // we trust the query.
			tempName, columns, columns, table.name)
		db.logger.LogAttrs(ctx, slog.LevelInfo, "copying data", slog.String("query", copySQL))
		if _, err = tx.ExecContext(ctx, copySQL); err != nil {
			return fmt.Errorf("copy data: %w", err)
		}

		// Step 6: drop the old table.
		dropSQL := fmt.Sprintf("DROP TABLE %s;", table.name)
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping old table", slog.String("query", dropSQL))
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop old table: %w", err)
		}

		// Step 7: swap the new table into place.
		renameSQL := fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", tempName, table.name)
		db.logger.LogAttrs(ctx, slog.LevelInfo, "renaming new table", slog.String("query", renameSQL))
		if _, err = tx.ExecContext(ctx, renameSQL); err != nil {
			return fmt.Errorf("rename new table: %w", err)
		}
	}
	return nil
}

// querySharedColumns lists the columns present in both the live and target
// shape of a table. Names come back double-quoted so SQLite keywords survive.
func (db *Database) querySharedColumns(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	var (
		shared []string
		err    error
	)
	if shared, err = db.queryColumn(ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table)); err != nil {
		return nil, fmt.Errorf("query column: %w", err)
	}
	return shared, nil
}

// queryColumn collects the single string column a query returns.
func (db *Database) queryColumn(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	var (
		results []string
		rows    *sql.Rows
		err     error
	)
	if rows, err = tx.QueryContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			err = fmt.Errorf("close rows: %w", err)
			db.logger.Error("could not close rows", slog.Any("error", err))
		}
	}()
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// schemaDiff is one schema object whose live definition differs from the
// target.
type schemaDiff struct {
	name      string
	liveSQL   string
	targetSQL string
}

func (db *Database) querySchemaDiffs(
	ctx context.Context,
	tx *sql.Tx,
	query string,
	args ...any,
) ([]schemaDiff, error) {
	var (
		diffs []schemaDiff
		rows  *sql.Rows
		err   error
	)
	if rows, err = tx.QueryContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			err = fmt.Errorf("close rows: %w", err)
			db.logger.Error("could not close rows", slog.Any("error", err))
		}
	}()
	for rows.Next() {
		var diff schemaDiff
		if err = rows.Scan(&diff.name, &diff.liveSQL, &diff.targetSQL); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		diffs = append(diffs, diff)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return diffs, nil
}

type schemaType string

const (
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

// syncSchemaObjects synchronises all objects of the given type with the
// target. Triggers and indexes carry no data, so a changed one is simply
// dropped and recreated.
func (db *Database) syncSchemaObjects(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	var (
		err     error
		deleted []string
		logger  = db.logger.With(slog.String("schemaType", string(typ)))
	)

	if deleted, err = db.queryColumn(ctx, tx, `SELECT live.name AS deleted
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`, typ); err != nil {
		return fmt.Errorf("query deleted %s: %w", string(typ), err)
	}
	for _, name := range deleted {
		dropQuery := fmt.Sprintf("DROP %s %s;", strings.ToUpper(string(typ)), name)
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("name", name), slog.String("query", dropQuery))
		if _, err = tx.ExecContext(ctx, dropQuery, name); err != nil {
			return fmt.Errorf("drop %s %s: %w", string(typ), name, err)
		}
	}

	var created []string
	if created, err = db.queryColumn(ctx, tx, `SELECT target.sql AS new_sql
FROM sqlite_schema AS live
         RIGHT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE target.type = ?
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'`, typ); err != nil {
		return fmt.Errorf("query created %s: %w", string(typ), err)
	}
	for _, createSQL := range created {
		logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create %s: %w", string(typ), err)
		}
	}

	var changed []schemaDiff
	if changed, err = db.querySchemaDiffs(ctx, tx, `SELECT live.name  AS changed,
       live.sql   AS live_sql,
       target.sql AS new_sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%'
  AND live.sql <> target.sql`, typ); err != nil {
		return fmt.Errorf("query changed %s: %w", string(typ), err)
	}

	for _, diff := range changed {
		logger.LogAttrs(ctx, slog.LevelInfo, "migrating",
			slog.String("changed", diff.name),
			slog.String("live_sql", diff.liveSQL),
			slog.String("new_sql", diff.targetSQL))

		dropSQL := fmt.Sprintf("DROP %s %s;", strings.ToUpper(string(typ)), diff.name)
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping old",
			slog.String("name", diff.name), slog.String("query", dropSQL))
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop old %s %s: %w", string(typ), diff.name, err)
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "creating new", slog.String("query", diff.targetSQL))
		if _, err = tx.ExecContext(ctx, diff.targetSQL); err != nil {
			return fmt.Errorf("create new %s %s: %w", string(typ), diff.name, err)
		}
	}
	return nil
}
