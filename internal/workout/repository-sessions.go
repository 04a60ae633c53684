package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqliteSessionRepository is the append-only history of completed sessions.
type sqliteSessionRepository struct {
	baseRepository
}

// Append stores a completed session with all its logged sets in one
// transaction.
func (r *sqliteSessionRepository) Append(ctx context.Context, sess Session) (err error) {
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
		INSERT INTO workout_sessions (
			id, day_id, day_name, day_number, workout_date,
			started_at, completed_at, total_sets, total_volume_kg, prs_hit, completed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.DayID, sess.DayName, sess.DayNumber, formatDate(sess.Date),
		formatTimestamp(sess.StartedAt), formatTimestamp(sess.CompletedAt),
		sess.TotalSets, sess.TotalVolumeKg, sess.PRsHit, sess.Completed)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for position, ex := range sess.Exercises {
		var result sql.Result
		result, err = tx.ExecContext(ctx, `
			INSERT INTO session_exercises (session_id, position, exercise_id, exercise_name, personal_record)
			VALUES (?, ?, ?, ?, ?)`,
			sess.ID, position+1, ex.ExerciseID, ex.ExerciseName, ex.PersonalRecord)
		if err != nil {
			return fmt.Errorf("insert session exercise: %w", err)
		}
		var sessionExerciseID int64
		if sessionExerciseID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("session exercise id: %w", err)
		}

		for _, set := range ex.Sets {
			if err = insertLoggedSet(ctx, tx, sessionExerciseID, set); err != nil {
				return fmt.Errorf("insert logged set: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertLoggedSet(ctx context.Context, tx *sql.Tx, sessionExerciseID int64, set SetEntry) error {
	var (
		variant  string
		weightKg float64
		reps     int
		seconds  int
		side     string
	)
	switch v := set.Variant.(type) {
	case Bilateral:
		variant, weightKg, reps = "bilateral", v.WeightKg, v.Reps
	case Unilateral:
		variant, weightKg, reps, side = "unilateral", v.WeightKg, v.Reps, string(v.Side)
	case Timed:
		variant, seconds = "timed", v.Seconds
	case Bodyweight:
		variant, reps = "bodyweight", v.Reps
	default:
		return fmt.Errorf("unknown set variant %T", set.Variant)
	}

	rpe := sql.NullFloat64{}
	if set.RPE > 0 {
		rpe = sql.NullFloat64{Float64: set.RPE, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO logged_sets (
			session_exercise_id, set_number, variant,
			weight_kg, reps, duration_seconds, side, rpe, logged_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionExerciseID, set.Number, variant, weightKg, reps, seconds, side, rpe,
		formatTimestamp(set.LoggedAt))
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// List returns all completed sessions newest first.
func (r *sqliteSessionRepository) List(ctx context.Context) (_ []Session, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, day_id, day_name, day_number, workout_date,
		       started_at, completed_at, total_sets, total_volume_kg, prs_hit, completed
		FROM workout_sessions
		WHERE completed = TRUE
		ORDER BY workout_date DESC, started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if sess, err = scanSession(rows); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range sessions {
		if sessions[i].Exercises, err = r.loadLoggedExercises(ctx, sessions[i].ID); err != nil {
			return nil, fmt.Errorf("load exercises for session %s: %w", sessions[i].ID, err)
		}
	}

	return sessions, nil
}

// Get returns one session by id, ErrNotFound when missing.
func (r *sqliteSessionRepository) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, day_id, day_name, day_number, workout_date,
		       started_at, completed_at, total_sets, total_volume_kg, prs_hit, completed
		FROM workout_sessions
		WHERE id = ?`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}

	if sess.Exercises, err = r.loadLoggedExercises(ctx, sess.ID); err != nil {
		return Session{}, fmt.Errorf("load exercises for session %s: %w", sess.ID, err)
	}
	return sess, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		sess           Session
		workoutDateStr string
		startedAtStr   sql.NullString
		completedAtStr sql.NullString
	)
	err := row.Scan(
		&sess.ID, &sess.DayID, &sess.DayName, &sess.DayNumber, &workoutDateStr,
		&startedAtStr, &completedAtStr,
		&sess.TotalSets, &sess.TotalVolumeKg, &sess.PRsHit, &sess.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}

	if sess.Date, err = parseDate(workoutDateStr); err != nil {
		return Session{}, fmt.Errorf("parse workout date: %w", err)
	}
	if sess.StartedAt, err = parseTimestamp(startedAtStr); err != nil {
		return Session{}, fmt.Errorf("parse started_at: %w", err)
	}
	if sess.CompletedAt, err = parseTimestamp(completedAtStr); err != nil {
		return Session{}, fmt.Errorf("parse completed_at: %w", err)
	}
	return sess, nil
}

// loadLoggedExercises fetches the logged exercises of a session with their
// sets in logged order.
func (r *sqliteSessionRepository) loadLoggedExercises(ctx context.Context, sessionID string) (_ []LoggedExercise, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT se.id, se.exercise_id, se.exercise_name, se.personal_record
		FROM session_exercises se
		WHERE se.session_id = ?
		ORDER BY se.position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var (
		exercises   []LoggedExercise
		exerciseIDs []int64
	)
	for rows.Next() {
		var (
			rowID int64
			ex    LoggedExercise
		)
		if err = rows.Scan(&rowID, &ex.ExerciseID, &ex.ExerciseName, &ex.PersonalRecord); err != nil {
			return nil, fmt.Errorf("scan session exercise: %w", err)
		}
		ex.Sets = []SetEntry{}
		exercises = append(exercises, ex)
		exerciseIDs = append(exerciseIDs, rowID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i, rowID := range exerciseIDs {
		if exercises[i].Sets, err = r.loadLoggedSets(ctx, rowID); err != nil {
			return nil, fmt.Errorf("load sets for session exercise %d: %w", rowID, err)
		}
	}
	return exercises, nil
}

func (r *sqliteSessionRepository) loadLoggedSets(ctx context.Context, sessionExerciseID int64) (_ []SetEntry, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT set_number, variant, weight_kg, reps, duration_seconds, side, rpe, logged_at
		FROM logged_sets
		WHERE session_exercise_id = ?
		ORDER BY set_number`, sessionExerciseID)
	if err != nil {
		return nil, fmt.Errorf("query logged sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	sets := []SetEntry{}
	for rows.Next() {
		var (
			set         SetEntry
			variant     string
			weightKg    float64
			reps        int
			seconds     int
			side        string
			rpe         sql.NullFloat64
			loggedAtStr sql.NullString
		)
		if err = rows.Scan(&set.Number, &variant, &weightKg, &reps, &seconds, &side, &rpe, &loggedAtStr); err != nil {
			return nil, fmt.Errorf("scan logged set: %w", err)
		}

		switch variant {
		case "bilateral":
			set.Variant = Bilateral{WeightKg: weightKg, Reps: reps}
		case "unilateral":
			set.Variant = Unilateral{WeightKg: weightKg, Reps: reps, Side: Side(side)}
		case "timed":
			set.Variant = Timed{Seconds: seconds}
		case "bodyweight":
			set.Variant = Bodyweight{Reps: reps}
		default:
			return nil, fmt.Errorf("unknown set variant %q", variant)
		}
		if rpe.Valid {
			set.RPE = rpe.Float64
		}
		if set.LoggedAt, err = parseTimestamp(loggedAtStr); err != nil {
			return nil, fmt.Errorf("parse logged_at: %w", err)
		}
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return sets, nil
}
