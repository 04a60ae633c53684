package workout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryStore is the append-only log of completed sessions.
type HistoryStore interface {
	Append(ctx context.Context, sess Session) error
	List(ctx context.Context) ([]Session, error)
}

// RecordStore maps exercise ids to personal records. Get returns ErrNotFound
// when no qualifying set was ever logged for the exercise.
type RecordStore interface {
	Get(ctx context.Context, exerciseID int) (PersonalRecord, error)
	Upsert(ctx context.Context, record PersonalRecord) error
}

// SettingsStore supplies rest-timer overrides and the current day index.
type SettingsStore interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, updateFn func(settings *Settings) (bool, error)) error
}

// Notifier receives the engine's celebration-worthy events. The presentation
// layer decides how to render them, the engine does not know about UI.
type Notifier interface {
	PersonalRecordAchieved(exerciseName string)
	RestTimerExpired(exerciseName string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) PersonalRecordAchieved(string) {}
func (NopNotifier) RestTimerExpired(string)       {}

// Engine is the live workout state machine. It owns the single in-progress
// session slot: a session is started from a day, mutated set by set, and
// either finished into history or abandoned without trace.
//
// All collaborators are injected so the engine is testable with in-memory
// fakes. The mutex guards the slot since HTTP handlers call in concurrently.
type Engine struct {
	mu       sync.Mutex
	history  HistoryStore
	records  RecordStore
	settings SettingsStore
	notifier Notifier
	now      func() time.Time

	day     Day
	active  *Session
	current int
	timer   *restTimer
}

// NewEngine creates a session engine. A nil notifier falls back to NopNotifier.
func NewEngine(history HistoryStore, records RecordStore, settings SettingsStore, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		history:  history,
		records:  records,
		settings: settings,
		notifier: notifier,
		now:      time.Now,
	}
}

// Start builds a fresh session from the day and claims the in-progress slot.
// Any previous in-progress session is discarded without being persisted.
func (e *Engine) Start(day Day) Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTimerLocked()

	now := e.now()
	sess := Session{
		ID:        uuid.NewString(),
		DayID:     day.ID,
		DayName:   day.Name,
		DayNumber: day.Number,
		Date:      normalizeDate(now),
		StartedAt: now,
		Exercises: make([]LoggedExercise, len(day.Exercises)),
	}
	for i, slot := range day.Exercises {
		sess.Exercises[i] = LoggedExercise{
			ExerciseID:   slot.Exercise.ID,
			ExerciseName: slot.Exercise.Name,
			Sets:         []SetEntry{},
		}
	}

	e.day = day
	e.active = &sess
	e.current = 0
	return sess
}

// Active returns a copy of the in-progress session and the current exercise
// index. The third return value is false when no session is in progress.
func (e *Engine) Active() (Session, int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Session{}, 0, false
	}
	return *e.active, e.current, true
}

// Navigate moves the current-exercise pointer. Out-of-range requests are
// no-ops; logged data is never affected.
func (e *Engine) Navigate(toIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || toIndex < 0 || toIndex >= len(e.active.Exercises) {
		return
	}
	e.current = toIndex
}

// LogSet appends a set to the current exercise. Validation failures return a
// *ValidationError and leave the session untouched. Logging beyond the
// exercise's configured set count is silently rejected since the UI should
// never let it happen.
//
// A successful log recomputes the session totals, runs the personal-record
// check, and starts the rest timer unless the set was the exercise's last.
func (e *Engine) LogSet(ctx context.Context, variant SetVariant, rpe float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return nil
	}

	if verr := validateSet(variant, rpe); verr != nil {
		return verr
	}

	slot, ok := e.day.exerciseAt(e.current)
	if !ok {
		return nil
	}
	logged := &e.active.Exercises[e.current]
	if len(logged.Sets) >= slot.TargetSets {
		return nil
	}

	now := e.now()
	entry := SetEntry{
		Number:   len(logged.Sets) + 1,
		Variant:  variant,
		RPE:      rpe,
		LoggedAt: now,
	}
	logged.Sets = append(logged.Sets, entry)

	if achieved, err := e.checkPersonalRecord(ctx, slot.Exercise, entry); err != nil {
		return fmt.Errorf("personal record check: %w", err)
	} else if achieved {
		logged.PersonalRecord = true
		e.notifier.PersonalRecordAchieved(slot.Exercise.Name)
	}

	e.active.recomputeTotals()

	if len(logged.Sets) < slot.TargetSets {
		e.startRestLocked(ctx, slot)
	} else {
		e.stopTimerLocked()
	}

	return nil
}

// checkPersonalRecord upserts the record store when the set bests any of the
// three tracked dimensions. Each best field advances independently and the
// date is stamped only on fields that actually improved. An unloaded set
// never qualifies regardless of reps.
func (e *Engine) checkPersonalRecord(ctx context.Context, ex Exercise, entry SetEntry) (bool, error) {
	if entry.WeightKg() <= 0 {
		return false, nil
	}
	today := normalizeDate(e.now())

	record, err := e.records.Get(ctx, ex.ID)
	if err != nil {
		if !IsNotFound(err) {
			return false, fmt.Errorf("get record for exercise %d: %w", ex.ID, err)
		}
		record = PersonalRecord{ExerciseID: ex.ID}
	}

	if !advanceRecord(&record, entry, today) {
		return false, nil
	}
	if err := e.records.Upsert(ctx, record); err != nil {
		return false, fmt.Errorf("upsert record for exercise %d: %w", ex.ID, err)
	}
	return true, nil
}

// advanceRecord folds a qualifying set into the record, stamping the date only
// on fields that improved, and reports whether anything advanced. Unloaded
// sets never qualify.
func advanceRecord(record *PersonalRecord, entry SetEntry, date time.Time) bool {
	weight := entry.WeightKg()
	if weight <= 0 {
		return false
	}
	reps := entry.Reps()
	volume := entry.VolumeKg()

	improved := false
	if weight > record.BestWeightKg {
		record.BestWeightKg = weight
		record.BestWeightDate = date
		improved = true
	}
	if reps > record.BestReps {
		record.BestReps = reps
		record.BestRepsDate = date
		improved = true
	}
	if volume > record.BestVolumeKg {
		record.BestVolumeKg = volume
		record.BestVolumeDate = date
		improved = true
	}
	if !improved {
		return false
	}

	record.History = append(record.History, RecordEntry{
		Date:     date,
		WeightKg: weight,
		Reps:     reps,
		RPE:      entry.RPE,
	})
	return true
}

// startRestLocked replaces any running rest timer with a fresh one for the
// exercise, honoring a per-exercise override from settings.
func (e *Engine) startRestLocked(ctx context.Context, slot DayExercise) {
	seconds := slot.RestSeconds
	if settings, err := e.settings.Get(ctx); err == nil {
		if override, ok := settings.RestOverrides[slot.Exercise.ID]; ok {
			seconds = override
		}
	}
	if seconds <= 0 {
		return
	}

	e.stopTimerLocked()
	name := slot.Exercise.Name
	e.timer = startRestTimer(context.WithoutCancel(ctx), seconds, func() {
		e.notifier.RestTimerExpired(name)
	})
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Skip()
		e.timer = nil
	}
}

// RestStatus reports the running rest timer, Running false when there is none.
func (e *Engine) RestStatus() RestTimerStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer == nil {
		return RestTimerStatus{}
	}
	return e.timer.Status()
}

// AdjustRest nudges the running rest timer by the given number of 15-second
// steps, e.g. +1 or -1.
func (e *Engine) AdjustRest(steps int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Adjust(steps * adjustStepSeconds)
	}
}

// SkipRest cancels the running rest timer without firing the expiry event.
func (e *Engine) SkipRest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
}

// Finish finalizes the in-progress session, appends it to history, advances
// the current day index cyclically, and recomputes the streak. planLength is
// the number of days in the plan, used for the modulo advance.
func (e *Engine) Finish(ctx context.Context, planLength int) (Session, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return Session{}, 0, ErrNoActiveSession
	}

	e.stopTimerLocked()

	sess := *e.active
	sess.CompletedAt = e.now()
	sess.Completed = true
	sess.recomputeTotals()

	if err := e.history.Append(ctx, sess); err != nil {
		return Session{}, 0, fmt.Errorf("append session to history: %w", err)
	}
	e.active = nil
	e.current = 0
	e.day = Day{}

	if planLength > 0 {
		if err := e.settings.Update(ctx, func(settings *Settings) (bool, error) {
			settings.CurrentDayIndex = (settings.CurrentDayIndex + 1) % planLength
			return true, nil
		}); err != nil {
			return Session{}, 0, fmt.Errorf("advance day index: %w", err)
		}
	}

	streak, err := e.currentStreak(ctx)
	if err != nil {
		return Session{}, 0, fmt.Errorf("recompute streak: %w", err)
	}

	return sess, streak, nil
}

// Abandon discards the in-progress session unconditionally. Logged sets are
// lost and no history entry is created. Personal records already earned from
// the abandoned session stay in place, record bookkeeping is not transactional
// with session completion.
func (e *Engine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
	e.active = nil
	e.current = 0
	e.day = Day{}
}

// currentStreak walks the completed-session dates from history.
func (e *Engine) currentStreak(ctx context.Context) (int, error) {
	sessions, err := e.history.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	dates := make([]time.Time, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Completed {
			dates = append(dates, sess.Date)
		}
	}
	return Streak(dates), nil
}
