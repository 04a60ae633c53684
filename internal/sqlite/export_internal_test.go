package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/mvantaa/liftlog/internal/testhelpers"
)

func TestDatabase_Export(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		setupSchema    string
		setupData      []string
		expectedCounts map[string]int
	}{
		{
			name: "exports all tables",
			setupSchema: `
				CREATE TABLE exercises (id INTEGER PRIMARY KEY, name TEXT);
				CREATE TABLE logged_sets (id INTEGER PRIMARY KEY, exercise_id INTEGER, weight_kg REAL,
					FOREIGN KEY (exercise_id) REFERENCES exercises(id));
			`,
			setupData: []string{
				"INSERT INTO exercises (id, name) VALUES (1, 'Squat')",
				"INSERT INTO exercises (id, name) VALUES (2, 'Bench Press')",
				"INSERT INTO logged_sets (id, exercise_id, weight_kg) VALUES (1, 1, 100)",
				"INSERT INTO logged_sets (id, exercise_id, weight_kg) VALUES (2, 1, 102.5)",
			},
			expectedCounts: map[string]int{
				"exercises":   2,
				"logged_sets": 2,
			},
		},
		{
			name: "skips cookie session store",
			setupSchema: `
				CREATE TABLE exercises (id INTEGER PRIMARY KEY, name TEXT);
				CREATE TABLE sessions (token TEXT PRIMARY KEY, data BLOB NOT NULL, expiry REAL NOT NULL);
			`,
			setupData: []string{
				"INSERT INTO exercises (id, name) VALUES (1, 'Deadlift')",
				"INSERT INTO sessions (token, data, expiry) VALUES ('tok', x'00', 0)",
			},
			expectedCounts: map[string]int{
				"exercises": 1,
				"sessions":  -1, // table must not exist in the export
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
			db, err := connect(ctx, ":memory:", logger)
			if err != nil {
				t.Fatalf("Failed to connect to database: %v", err)
			}
			t.Cleanup(func() {
				if closeErr := db.Close(); closeErr != nil {
					t.Errorf("Failed to close database: %v", closeErr)
				}
			})

			if err = db.migrateTo(ctx, tt.setupSchema); err != nil {
				t.Fatalf("Failed to migrate: %v", err)
			}
			for _, stmt := range tt.setupData {
				if _, err = db.ReadWrite.ExecContext(ctx, stmt); err != nil {
					t.Fatalf("Failed to insert data: %v", err)
				}
			}

			exportPath, err := db.Export(ctx, t.TempDir())
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			exportDB, err := sql.Open("sqlite3", exportPath)
			if err != nil {
				t.Fatalf("Failed to open export database: %v", err)
			}
			t.Cleanup(func() {
				if closeErr := exportDB.Close(); closeErr != nil {
					t.Errorf("Failed to close export database: %v", closeErr)
				}
			})

			for table, want := range tt.expectedCounts {
				got, countErr := countRows(ctx, exportDB, table)
				if want < 0 {
					if countErr == nil {
						t.Errorf("expected table %s to be absent from export", table)
					}
					continue
				}
				if countErr != nil {
					t.Errorf("count rows in %s: %v", table, countErr)
					continue
				}
				if got != want {
					t.Errorf("table %s: got %d rows, want %d", table, got, want)
				}
			}
		})
	}
}

func countRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count) //nolint:gosec // test-controlled table name.
	return count, err
}
