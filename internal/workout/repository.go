package workout

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/mvantaa/liftlog/internal/errors"
	"github.com/mvantaa/liftlog/internal/sqlite"
)

const dateFormat = time.DateOnly
const timestampFormat = "2006-01-02T15:04:05.000Z"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.NewSentinel("not found")

// ErrNoAPIKey is returned when form cue generation is requested without an
// OpenAI API key configured.
var ErrNoAPIKey = errors.NewSentinel("openai api key not configured")

// ErrNoActiveSession is returned when an operation requires an in-progress
// session and there is none.
var ErrNoActiveSession = errors.NewSentinel("no session in progress")

// IsNotFound reports whether the error means a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// baseRepository carries the database handles shared by all repositories.
type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{db: db, logger: logger}
}

// repository bundles the SQLite-backed repositories behind the service.
type repository struct {
	plan     *sqlitePlanRepository
	sessions *sqliteSessionRepository
	records  *sqliteRecordRepository
	settings *sqliteSettingsRepository
}

func newRepository(db *sqlite.Database, logger *slog.Logger) *repository {
	base := newBaseRepository(db, logger)
	return &repository{
		plan:     &sqlitePlanRepository{baseRepository: base},
		sessions: &sqliteSessionRepository{baseRepository: base},
		records:  &sqliteRecordRepository{baseRepository: base},
		settings: &sqliteSettingsRepository{baseRepository: base},
	}
}

func formatDate(date time.Time) string {
	return date.Format(dateFormat)
}

func parseDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(dateFormat, dateStr)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse date", slog.String("date", dateStr))
	}
	return date, nil
}

// formatTimestamp renders a timestamp for storage, NULL for the zero value.
func formatTimestamp(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timestampFormat), Valid: true}
}

// parseTimestamp converts a nullable column back to a time, zero for NULL.
func parseTimestamp(timestampStr sql.NullString) (time.Time, error) {
	if !timestampStr.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(timestampFormat, timestampStr.String)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse timestamp", slog.String("timestamp", timestampStr.String))
	}
	return t, nil
}
