package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqliteRecordRepository stores personal records keyed by exercise id.
type sqliteRecordRepository struct {
	baseRepository
}

// Get returns the record for an exercise with its full history, ErrNotFound
// when no qualifying set was ever logged.
func (r *sqliteRecordRepository) Get(ctx context.Context, exerciseID int) (PersonalRecord, error) {
	var (
		record         PersonalRecord
		bestWeightDate string
		bestRepsDate   string
		bestVolumeDate string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT exercise_id, best_weight_kg, best_weight_date,
		       best_reps, best_reps_date, best_volume_kg, best_volume_date
		FROM personal_records
		WHERE exercise_id = ?`, exerciseID).Scan(
		&record.ExerciseID,
		&record.BestWeightKg,
		&bestWeightDate,
		&record.BestReps,
		&bestRepsDate,
		&record.BestVolumeKg,
		&bestVolumeDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return PersonalRecord{}, ErrNotFound
	}
	if err != nil {
		return PersonalRecord{}, fmt.Errorf("query personal record: %w", err)
	}

	if record.BestWeightDate, err = parseRecordDate(bestWeightDate); err != nil {
		return PersonalRecord{}, fmt.Errorf("parse best weight date: %w", err)
	}
	if record.BestRepsDate, err = parseRecordDate(bestRepsDate); err != nil {
		return PersonalRecord{}, fmt.Errorf("parse best reps date: %w", err)
	}
	if record.BestVolumeDate, err = parseRecordDate(bestVolumeDate); err != nil {
		return PersonalRecord{}, fmt.Errorf("parse best volume date: %w", err)
	}

	if record.History, err = r.loadHistory(ctx, exerciseID); err != nil {
		return PersonalRecord{}, fmt.Errorf("load record history: %w", err)
	}
	return record, nil
}

// List returns all personal records without their histories, ordered by
// exercise id.
func (r *sqliteRecordRepository) List(ctx context.Context) (_ []PersonalRecord, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT exercise_id, best_weight_kg, best_weight_date,
		       best_reps, best_reps_date, best_volume_kg, best_volume_date
		FROM personal_records
		ORDER BY exercise_id`)
	if err != nil {
		return nil, fmt.Errorf("query personal records: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var records []PersonalRecord
	for rows.Next() {
		var (
			record         PersonalRecord
			bestWeightDate string
			bestRepsDate   string
			bestVolumeDate string
		)
		if err = rows.Scan(
			&record.ExerciseID,
			&record.BestWeightKg,
			&bestWeightDate,
			&record.BestReps,
			&bestRepsDate,
			&record.BestVolumeKg,
			&bestVolumeDate,
		); err != nil {
			return nil, fmt.Errorf("scan personal record: %w", err)
		}
		if record.BestWeightDate, err = parseRecordDate(bestWeightDate); err != nil {
			return nil, fmt.Errorf("parse best weight date: %w", err)
		}
		if record.BestRepsDate, err = parseRecordDate(bestRepsDate); err != nil {
			return nil, fmt.Errorf("parse best reps date: %w", err)
		}
		if record.BestVolumeDate, err = parseRecordDate(bestVolumeDate); err != nil {
			return nil, fmt.Errorf("parse best volume date: %w", err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// Upsert replaces the stored record and its history with the given one.
func (r *sqliteRecordRepository) Upsert(ctx context.Context, record PersonalRecord) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO personal_records (
			exercise_id, best_weight_kg, best_weight_date,
			best_reps, best_reps_date, best_volume_kg, best_volume_date
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (exercise_id) DO UPDATE SET
			best_weight_kg = excluded.best_weight_kg,
			best_weight_date = excluded.best_weight_date,
			best_reps = excluded.best_reps,
			best_reps_date = excluded.best_reps_date,
			best_volume_kg = excluded.best_volume_kg,
			best_volume_date = excluded.best_volume_date`,
		record.ExerciseID,
		record.BestWeightKg, formatRecordDate(record.BestWeightDate),
		record.BestReps, formatRecordDate(record.BestRepsDate),
		record.BestVolumeKg, formatRecordDate(record.BestVolumeDate))
	if err != nil {
		return fmt.Errorf("upsert personal record: %w", err)
	}

	// History is replaced wholesale. The record aggregate owns it and entries
	// are only ever appended, so this stays correct and simple.
	if _, err = tx.ExecContext(ctx, `
		DELETE FROM personal_record_history WHERE exercise_id = ?`, record.ExerciseID); err != nil {
		return fmt.Errorf("delete record history: %w", err)
	}
	for _, entry := range record.History {
		rpe := sql.NullFloat64{}
		if entry.RPE > 0 {
			rpe = sql.NullFloat64{Float64: entry.RPE, Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO personal_record_history (exercise_id, record_date, weight_kg, reps, rpe)
			VALUES (?, ?, ?, ?, ?)`,
			record.ExerciseID, formatRecordDate(entry.Date), entry.WeightKg, entry.Reps, rpe); err != nil {
			return fmt.Errorf("insert record history entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *sqliteRecordRepository) loadHistory(ctx context.Context, exerciseID int) (_ []RecordEntry, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT record_date, weight_kg, reps, rpe
		FROM personal_record_history
		WHERE exercise_id = ?
		ORDER BY record_date, id`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("query record history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var history []RecordEntry
	for rows.Next() {
		var (
			entry   RecordEntry
			dateStr string
			rpe     sql.NullFloat64
		)
		if err = rows.Scan(&dateStr, &entry.WeightKg, &entry.Reps, &rpe); err != nil {
			return nil, fmt.Errorf("scan record history entry: %w", err)
		}
		if entry.Date, err = parseRecordDate(dateStr); err != nil {
			return nil, fmt.Errorf("parse record date: %w", err)
		}
		if rpe.Valid {
			entry.RPE = rpe.Float64
		}
		history = append(history, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return history, nil
}

// formatRecordDate renders a date column, empty string for the zero value so
// a never-achieved dimension stays blank.
func formatRecordDate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return formatDate(date)
}

func parseRecordDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, nil
	}
	return parseDate(dateStr)
}
