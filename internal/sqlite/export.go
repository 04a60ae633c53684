package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"
)

// Export writes a standalone snapshot of the database into a separate SQLite
// database file under basePath and returns the path to the created file.
//
// This backs the data export feature so the whole training history can be
// taken to another device or kept as a backup.
func (db *Database) Export(ctx context.Context, basePath string) (_ string, err error) {
	exportPath := filepath.Join(basePath, fmt.Sprintf("liftlog-export-%s.sqlite3", time.Now().Format("2006-01-02")))
	exportDsn := fmt.Sprintf("file:%s?mode=rwc", exportPath)

	conn, err := db.ReadOnly.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("get db connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close db connection: %w", closeErr)
		}
	}()

	// The read-only pool runs with QUERY_ONLY which would block writes to the
	// attached export database, so it is lifted for the duration of the export.
	if _, err = conn.ExecContext(ctx, "PRAGMA QUERY_ONLY = FALSE"); err != nil {
		return "", fmt.Errorf("disable read only mode: %w", err)
	}
	defer func() {
		if _, pragmaErr := conn.ExecContext(ctx, "PRAGMA QUERY_ONLY = TRUE"); pragmaErr != nil && err == nil {
			err = fmt.Errorf("restore read only mode: %w", pragmaErr)
		}
	}()

	return db.executeExport(ctx, conn, exportDsn, exportPath)
}

// executeExport copies every table's schema and data into the attached export database.
func (db *Database) executeExport(
	ctx context.Context, conn *sql.Conn, exportDsn string, exportPath string,
) (string, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback() // Ignore rollback errors to preserve original error
		}
	}()

	if _, err = tx.ExecContext(ctx, `ATTACH DATABASE ? AS export`, exportDsn); err != nil {
		return "", fmt.Errorf("create export database: %w", err)
	}

	tables, err := db.exportableTables(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("list exportable tables: %w", err)
	}

	for _, table := range tables {
		if err = db.copyTableSchema(ctx, tx, table); err != nil {
			return "", fmt.Errorf("copy schema for table %s: %w", table, err)
		}
		copySQL := "INSERT INTO export." + table + " SELECT * FROM main." + table //nolint:gosec // table names come from sqlite_schema.
		if _, err = tx.ExecContext(ctx, copySQL); err != nil {
			return "", fmt.Errorf("copy data for table %s: %w", table, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `PRAGMA export.foreign_keys = ON`); err != nil {
		return "", fmt.Errorf("enable foreign keys in export database: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit export database: %w", err)
	}
	committed = true

	if _, err = conn.ExecContext(ctx, `DETACH DATABASE export`); err != nil {
		return "", fmt.Errorf("detach export database: %w", err)
	}

	return exportPath, nil
}

// exportableTables lists all tables except SQLite internals and the HTTP
// session store, which only holds transient cookie state.
func (db *Database) exportableTables(ctx context.Context, tx *sql.Tx) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT name FROM sqlite_schema WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'sessions'`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	var tables []string
	for rows.Next() {
		var tableName string
		if err = rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over tables: %w", err)
	}

	return tables, nil
}

// copyTableSchema copies the schema for a table from the main database to the export database.
func (db *Database) copyTableSchema(ctx context.Context, tx *sql.Tx, tableName string) error {
	var createSQL string
	schemaQuery := `SELECT sql FROM sqlite_schema WHERE type = 'table' AND name = ?`
	if err := tx.QueryRowContext(ctx, schemaQuery, tableName).Scan(&createSQL); err != nil {
		return fmt.Errorf("get schema for table %s: %w", tableName, err)
	}

	// Rewrite the CREATE TABLE statement to target the attached export database.
	exportSQL := fmt.Sprintf("CREATE TABLE export.%s%s", tableName, createSQL[len("CREATE TABLE "+tableName):])
	if _, err := tx.ExecContext(ctx, exportSQL); err != nil {
		return fmt.Errorf("create table schema in export db: %w", err)
	}

	return nil
}
