package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqlitePlanRepository reads the workout plan. The session engine never
// mutates the plan, so this repository is read-only.
type sqlitePlanRepository struct {
	baseRepository
}

// Days returns the full plan, days ordered by day number with their exercise
// slots in position order.
func (r *sqlitePlanRepository) Days(ctx context.Context) (_ []Day, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, day_number, name
		FROM workout_days
		ORDER BY day_number`)
	if err != nil {
		return nil, fmt.Errorf("query workout days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var days []Day
	for rows.Next() {
		var day Day
		if err = rows.Scan(&day.ID, &day.Number, &day.Name); err != nil {
			return nil, fmt.Errorf("scan workout day: %w", err)
		}
		days = append(days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range days {
		if err = r.loadDayDetails(ctx, &days[i]); err != nil {
			return nil, fmt.Errorf("load day %d: %w", days[i].ID, err)
		}
	}

	return days, nil
}

// Day returns a single day with its exercises, ErrNotFound when missing.
func (r *sqlitePlanRepository) Day(ctx context.Context, id int) (Day, error) {
	var day Day
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, day_number, name
		FROM workout_days
		WHERE id = ?`, id).Scan(&day.ID, &day.Number, &day.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Day{}, ErrNotFound
	}
	if err != nil {
		return Day{}, fmt.Errorf("query workout day: %w", err)
	}

	if err = r.loadDayDetails(ctx, &day); err != nil {
		return Day{}, fmt.Errorf("load day %d: %w", day.ID, err)
	}
	return day, nil
}

func (r *sqlitePlanRepository) loadDayDetails(ctx context.Context, day *Day) error {
	focus, err := r.queryStrings(ctx, `
		SELECT muscle_group
		FROM workout_day_focus_muscles
		WHERE day_id = ?
		ORDER BY muscle_group`, day.ID)
	if err != nil {
		return fmt.Errorf("query focus muscles: %w", err)
	}
	day.FocusMuscles = focus

	exercises, err := r.loadDayExercises(ctx, day.ID)
	if err != nil {
		return fmt.Errorf("load day exercises: %w", err)
	}
	day.Exercises = exercises

	supersets, err := r.loadSupersets(ctx, day.ID)
	if err != nil {
		return fmt.Errorf("load supersets: %w", err)
	}
	day.Supersets = supersets

	return nil
}

func (r *sqlitePlanRepository) loadDayExercises(ctx context.Context, dayID int) (_ []DayExercise, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT e.id, e.name, e.exercise_type, e.form_cue,
		       wde.target_sets, wde.rep_range_min, wde.rep_range_max, wde.rest_seconds
		FROM workout_day_exercises wde
		JOIN exercises e ON e.id = wde.exercise_id
		WHERE wde.day_id = ?
		ORDER BY wde.position`, dayID)
	if err != nil {
		return nil, fmt.Errorf("query day exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var slots []DayExercise
	for rows.Next() {
		var slot DayExercise
		if err = rows.Scan(
			&slot.Exercise.ID,
			&slot.Exercise.Name,
			&slot.Exercise.Type,
			&slot.Exercise.FormCue,
			&slot.TargetSets,
			&slot.RepRangeMin,
			&slot.RepRangeMax,
			&slot.RestSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan day exercise: %w", err)
		}
		slots = append(slots, slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range slots {
		var groups []string
		groups, err = r.queryStrings(ctx, `
			SELECT muscle_group
			FROM exercise_muscle_groups
			WHERE exercise_id = ?
			ORDER BY muscle_group`, slots[i].Exercise.ID)
		if err != nil {
			return nil, fmt.Errorf("query muscle groups for exercise %d: %w", slots[i].Exercise.ID, err)
		}
		slots[i].Exercise.MuscleGroups = groups
	}

	return slots, nil
}

func (r *sqlitePlanRepository) loadSupersets(ctx context.Context, dayID int) (_ []SupersetPairing, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT first_exercise_id, second_exercise_id
		FROM superset_pairings
		WHERE day_id = ?
		ORDER BY first_exercise_id`, dayID)
	if err != nil {
		return nil, fmt.Errorf("query superset pairings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var pairings []SupersetPairing
	for rows.Next() {
		var pairing SupersetPairing
		if err = rows.Scan(&pairing.FirstID, &pairing.SecondID); err != nil {
			return nil, fmt.Errorf("scan superset pairing: %w", err)
		}
		pairings = append(pairings, pairing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return pairings, nil
}

// Exercise returns a single exercise definition, ErrNotFound when missing.
func (r *sqlitePlanRepository) Exercise(ctx context.Context, id int) (Exercise, error) {
	var exercise Exercise
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, exercise_type, form_cue
		FROM exercises
		WHERE id = ?`, id).Scan(&exercise.ID, &exercise.Name, &exercise.Type, &exercise.FormCue)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, ErrNotFound
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("query exercise: %w", err)
	}

	groups, err := r.queryStrings(ctx, `
		SELECT muscle_group
		FROM exercise_muscle_groups
		WHERE exercise_id = ?
		ORDER BY muscle_group`, id)
	if err != nil {
		return Exercise{}, fmt.Errorf("query muscle groups: %w", err)
	}
	exercise.MuscleGroups = groups

	return exercise, nil
}

// UpdateFormCue replaces the form cue text of an exercise.
func (r *sqlitePlanRepository) UpdateFormCue(ctx context.Context, exerciseID int, formCue string) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE exercises SET form_cue = ? WHERE id = ?`, formCue, exerciseID)
	if err != nil {
		return fmt.Errorf("update form cue: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// queryStrings returns a single text column as a slice.
func (r *sqlitePlanRepository) queryStrings(ctx context.Context, query string, args ...any) (_ []string, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var results []string
	for rows.Next() {
		var value string
		if err = rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, value)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}
