package workout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mvantaa/liftlog/internal/sqlite"
)

// Service handles the business logic for workout tracking.
type Service struct {
	repo         *repository
	engine       *Engine
	db           *sqlite.Database
	logger       *slog.Logger
	openaiAPIKey string
}

// NewService creates a new workout service. The engine's notifier may be nil.
func NewService(db *sqlite.Database, logger *slog.Logger, openaiAPIKey string, notifier Notifier) *Service {
	repo := newRepository(db, logger)
	return &Service{
		repo:         repo,
		engine:       NewEngine(repo.sessions, repo.records, repo.settings, notifier),
		db:           db,
		logger:       logger,
		openaiAPIKey: openaiAPIKey,
	}
}

// Days retrieves the full workout plan in order.
func (s *Service) Days(ctx context.Context) ([]Day, error) {
	days, err := s.repo.plan.Days(ctx)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return days, nil
}

// Day retrieves a single workout day with its exercises and supersets.
func (s *Service) Day(ctx context.Context, id int) (Day, error) {
	day, err := s.repo.plan.Day(ctx, id)
	if err != nil {
		return Day{}, fmt.Errorf("get day %d: %w", id, err)
	}
	return day, nil
}

// CurrentDay resolves the day the plan rotation points at next.
func (s *Service) CurrentDay(ctx context.Context) (Day, error) {
	settings, err := s.repo.settings.Get(ctx)
	if err != nil {
		return Day{}, fmt.Errorf("get settings: %w", err)
	}
	days, err := s.repo.plan.Days(ctx)
	if err != nil {
		return Day{}, fmt.Errorf("list days: %w", err)
	}
	if len(days) == 0 {
		return Day{}, ErrNotFound
	}
	index := settings.CurrentDayIndex % len(days)
	return days[index], nil
}

// StartSession starts a workout for the plan rotation's current day,
// discarding any in-progress session.
func (s *Service) StartSession(ctx context.Context) (Session, error) {
	day, err := s.CurrentDay(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("resolve current day: %w", err)
	}
	return s.startForDay(ctx, day)
}

// StartSessionForDay starts a workout for an explicitly chosen day, without
// touching the plan rotation until the session finishes.
func (s *Service) StartSessionForDay(ctx context.Context, dayID int) (Session, error) {
	day, err := s.repo.plan.Day(ctx, dayID)
	if err != nil {
		return Session{}, fmt.Errorf("get day %d: %w", dayID, err)
	}
	return s.startForDay(ctx, day)
}

func (s *Service) startForDay(ctx context.Context, day Day) (Session, error) {
	sess := s.engine.Start(day)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "started workout session",
		slog.String("sessionID", sess.ID),
		slog.String("day", day.Name))
	return sess, nil
}

// ActiveSession returns the in-progress session and the current exercise
// index, third return value false when idle.
func (s *Service) ActiveSession() (Session, int, bool) {
	return s.engine.Active()
}

// LogSet records a set against the current exercise of the active session.
func (s *Service) LogSet(ctx context.Context, variant SetVariant, rpe float64) error {
	return s.engine.LogSet(ctx, variant, rpe)
}

// Navigate moves the active session's current-exercise pointer.
func (s *Service) Navigate(toIndex int) {
	s.engine.Navigate(toIndex)
}

// Recommendation computes the overload advice for an exercise slot from the
// lifter's history. The second return value is false when there is no history
// to advise from.
func (s *Service) Recommendation(ctx context.Context, slot DayExercise) (Recommendation, bool, error) {
	history, err := s.repo.sessions.List(ctx)
	if err != nil {
		return Recommendation{}, false, fmt.Errorf("list sessions: %w", err)
	}
	rec, ok := Recommend(slot, history)
	return rec, ok, nil
}

// RestStatus reports the active rest timer.
func (s *Service) RestStatus() RestTimerStatus {
	return s.engine.RestStatus()
}

// AdjustRest nudges the active rest timer by 15-second steps.
func (s *Service) AdjustRest(steps int) {
	s.engine.AdjustRest(steps)
}

// SkipRest cancels the active rest timer.
func (s *Service) SkipRest() {
	s.engine.SkipRest()
}

// FinishSession completes the active session, persists it, advances the plan
// rotation and returns the finished session with the updated streak.
func (s *Service) FinishSession(ctx context.Context) (Session, int, error) {
	days, err := s.repo.plan.Days(ctx)
	if err != nil {
		return Session{}, 0, fmt.Errorf("list days: %w", err)
	}
	sess, streak, err := s.engine.Finish(ctx, len(days))
	if err != nil {
		return Session{}, 0, fmt.Errorf("finish session: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "finished workout session",
		slog.String("sessionID", sess.ID),
		slog.Int("totalSets", sess.TotalSets),
		slog.Int("streak", streak))
	return sess, streak, nil
}

// AbandonSession discards the active session. Already-earned personal records
// are kept.
func (s *Service) AbandonSession(ctx context.Context) {
	s.engine.Abandon()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "abandoned workout session")
}

// History lists completed sessions, most recent first.
func (s *Service) History(ctx context.Context) ([]Session, error) {
	sessions, err := s.repo.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// SessionByID retrieves one completed session for the summary view.
func (s *Service) SessionByID(ctx context.Context, id string) (Session, error) {
	sess, err := s.repo.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// Records lists all personal records.
func (s *Service) Records(ctx context.Context) ([]PersonalRecord, error) {
	records, err := s.repo.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Record retrieves the personal record for an exercise with its history.
func (s *Service) Record(ctx context.Context, exerciseID int) (PersonalRecord, error) {
	record, err := s.repo.records.Get(ctx, exerciseID)
	if err != nil {
		return PersonalRecord{}, fmt.Errorf("get record for exercise %d: %w", exerciseID, err)
	}
	return record, nil
}

// ImportSession backfills a completed session into history, used when
// restoring data or seeding a demo database. The session keeps its own date,
// and personal records advance the same way live logging would, stamped with
// the session's date rather than today.
func (s *Service) ImportSession(ctx context.Context, sess Session) (Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Date.IsZero() {
		return Session{}, fmt.Errorf("import session %s: date is required", sess.ID)
	}
	sess.Date = normalizeDate(sess.Date)
	if sess.CompletedAt.IsZero() {
		sess.CompletedAt = sess.Date
	}
	sess.Completed = true

	for i := range sess.Exercises {
		logged := &sess.Exercises[i]
		for _, entry := range logged.Sets {
			record, err := s.repo.records.Get(ctx, logged.ExerciseID)
			if err != nil {
				if !IsNotFound(err) {
					return Session{}, fmt.Errorf("get record for exercise %d: %w", logged.ExerciseID, err)
				}
				record = PersonalRecord{ExerciseID: logged.ExerciseID}
			}
			if !advanceRecord(&record, entry, sess.Date) {
				continue
			}
			if err = s.repo.records.Upsert(ctx, record); err != nil {
				return Session{}, fmt.Errorf("upsert record for exercise %d: %w", logged.ExerciseID, err)
			}
			logged.PersonalRecord = true
		}
	}
	sess.recomputeTotals()

	if err := s.repo.sessions.Append(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("append session to history: %w", err)
	}
	return sess, nil
}

// Streak computes the current workout streak from completed sessions.
func (s *Service) Streak(ctx context.Context) (int, error) {
	sessions, err := s.repo.sessions.List(ctx)
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

// Exercise retrieves an exercise definition.
func (s *Service) Exercise(ctx context.Context, id int) (Exercise, error) {
	exercise, err := s.repo.plan.Exercise(ctx, id)
	if err != nil {
		return Exercise{}, fmt.Errorf("get exercise %d: %w", id, err)
	}
	return exercise, nil
}

// CanGenerateFormCues reports whether AI form cue generation is configured.
func (s *Service) CanGenerateFormCues() bool {
	return s.openaiAPIKey != ""
}

// GenerateFormCue asks the language model for a fresh form cue and stores it
// on the exercise. Returns the updated exercise. Fails when no API key is
// configured.
func (s *Service) GenerateFormCue(ctx context.Context, exerciseID int) (Exercise, error) {
	if s.openaiAPIKey == "" {
		return Exercise{}, fmt.Errorf("generate form cue: %w", ErrNoAPIKey)
	}
	exercise, err := s.repo.plan.Exercise(ctx, exerciseID)
	if err != nil {
		return Exercise{}, fmt.Errorf("get exercise %d: %w", exerciseID, err)
	}

	gen := newFormCueGenerator(s.openaiAPIKey)
	cue, _, err := gen.Generate(ctx, exercise.Name)
	if err != nil {
		return Exercise{}, fmt.Errorf("generate form cue for %q: %w", exercise.Name, err)
	}

	if err = s.repo.plan.UpdateFormCue(ctx, exerciseID, cue); err != nil {
		return Exercise{}, fmt.Errorf("store form cue: %w", err)
	}
	exercise.FormCue = cue
	return exercise, nil
}

// SetRestOverride stores a per-exercise rest duration that takes precedence
// over the plan's prescription. Zero or negative seconds removes the override.
func (s *Service) SetRestOverride(ctx context.Context, exerciseID int, seconds int) error {
	err := s.repo.settings.Update(ctx, func(settings *Settings) (bool, error) {
		if settings.RestOverrides == nil {
			settings.RestOverrides = map[int]int{}
		}
		if seconds <= 0 {
			if _, ok := settings.RestOverrides[exerciseID]; !ok {
				return false, nil
			}
			delete(settings.RestOverrides, exerciseID)
			return true, nil
		}
		settings.RestOverrides[exerciseID] = seconds
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("set rest override: %w", err)
	}
	return nil
}

// SetTheme stores the UI theme preference.
func (s *Service) SetTheme(ctx context.Context, theme string) error {
	err := s.repo.settings.Update(ctx, func(settings *Settings) (bool, error) {
		if settings.Theme == theme {
			return false, nil
		}
		settings.Theme = theme
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("set theme: %w", err)
	}
	return nil
}

// Settings retrieves the stored settings.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	settings, err := s.repo.settings.Get(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// Export snapshots the workout database to a downloadable file under basePath
// and returns the written path.
func (s *Service) Export(ctx context.Context, basePath string) (string, error) {
	path, err := s.db.Export(ctx, basePath)
	if err != nil {
		return "", fmt.Errorf("export database: %w", err)
	}
	return path, nil
}
