package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqliteSettingsRepository stores the single settings row and the per-exercise
// rest-timer overrides.
type sqliteSettingsRepository struct {
	baseRepository
}

// Get returns the settings. The fixtures guarantee the row exists.
func (r *sqliteSettingsRepository) Get(ctx context.Context) (Settings, error) {
	var settings Settings
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT current_day_index, theme
		FROM settings
		WHERE id = 1`).Scan(&settings.CurrentDayIndex, &settings.Theme)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}

	overrides, err := r.loadRestOverrides(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load rest overrides: %w", err)
	}
	settings.RestOverrides = overrides

	return settings, nil
}

// Update applies updateFn to the current settings and persists them when the
// function reports a change.
func (r *sqliteSettingsRepository) Update(
	ctx context.Context,
	updateFn func(settings *Settings) (bool, error),
) error {
	settings, err := r.Get(ctx)
	if err != nil {
		return fmt.Errorf("get settings for update: %w", err)
	}

	updated, err := updateFn(&settings)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}
	if !updated {
		return nil
	}

	if err = r.save(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *sqliteSettingsRepository) save(ctx context.Context, settings Settings) (err error) {
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
		INSERT INTO settings (id, current_day_index, theme)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			current_day_index = excluded.current_day_index,
			theme = excluded.theme`,
		settings.CurrentDayIndex, settings.Theme)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM rest_timer_overrides`); err != nil {
		return fmt.Errorf("delete rest overrides: %w", err)
	}
	for exerciseID, seconds := range settings.RestOverrides {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO rest_timer_overrides (exercise_id, seconds)
			VALUES (?, ?)`, exerciseID, seconds); err != nil {
			return fmt.Errorf("insert rest override: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *sqliteSettingsRepository) loadRestOverrides(ctx context.Context) (_ map[int]int, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT exercise_id, seconds
		FROM rest_timer_overrides`)
	if err != nil {
		return nil, fmt.Errorf("query rest overrides: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	overrides := map[int]int{}
	for rows.Next() {
		var exerciseID, seconds int
		if err = rows.Scan(&exerciseID, &seconds); err != nil {
			return nil, fmt.Errorf("scan rest override: %w", err)
		}
		overrides[exerciseID] = seconds
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return overrides, nil
}
