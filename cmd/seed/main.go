// Command seed fills a database with generated workout history so the app has
// something to show on a fresh install or in a demo environment.
package main

import (
	"context"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mvantaa/liftlog/internal/envstruct"
	"github.com/mvantaa/liftlog/internal/errors"
	"github.com/mvantaa/liftlog/internal/logging"
	"github.com/mvantaa/liftlog/internal/sqlite"
	"github.com/mvantaa/liftlog/internal/workout"
)

type config struct {
	// SqliteURL is the URL to the SQLite database to seed.
	SqliteURL string `env:"LIFTLOG_SQLITE_URL" envDefault:"./liftlog.sqlite3"`
	// Weeks is how many weeks of history to generate, counting back from today.
	Weeks string `env:"LIFTLOG_SEED_WEEKS" envDefault:"12"`
	// RandomSeed makes the generated history reproducible when non-zero.
	RandomSeed string `env:"LIFTLOG_SEED_RANDOM_SEED" envDefault:"0"`
}

const (
	daysPerWeek = 7
	// restDayOdds is the one-in-n chance a planned day is skipped, so the
	// history has realistic gaps.
	restDayOdds = 6

	lowerBodyStartWeightKg = 60.0
	upperBodyStartWeightKg = 30.0
	lowerBodyWeeklyGainKg  = 2.5
	upperBodyWeeklyGainKg  = 1.25

	minRPE = 6.5
	maxRPE = 9.5

	minTimedHoldSeconds = 30
	maxTimedHoldSeconds = 90

	workoutHour = 17
)

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	weeks, err := strconv.Atoi(cfg.Weeks)
	if err != nil {
		return errors.Wrap(err, "parse LIFTLOG_SEED_WEEKS", slog.String("value", cfg.Weeks))
	}
	if weeks <= 0 {
		return errors.New("LIFTLOG_SEED_WEEKS must be positive")
	}
	randomSeed, err := strconv.ParseInt(cfg.RandomSeed, 10, 64)
	if err != nil {
		return errors.Wrap(err, "parse LIFTLOG_SEED_RANDOM_SEED", slog.String("value", cfg.RandomSeed))
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	svc := workout.NewService(db, logger, "", nil)

	days, err := svc.Days(ctx)
	if err != nil {
		return errors.Wrap(err, "list plan days")
	}
	if len(days) == 0 {
		return errors.New("plan has no days to seed from")
	}

	faker := gofakeit.New(randomSeed)
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -weeks*daysPerWeek)

	seeded := 0
	for offset := range weeks * daysPerWeek {
		if faker.IntRange(1, restDayOdds) == 1 {
			continue
		}
		date := start.AddDate(0, 0, offset)
		week := offset / daysPerWeek
		day := days[offset%len(days)]

		sess := buildSession(faker, day, date, week)
		if _, err = svc.ImportSession(ctx, sess); err != nil {
			return errors.Wrap(err, "import session", slog.String("date", date.Format("2006-01-02")))
		}
		seeded++
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "seeded workout history",
		slog.Int("sessions", seeded),
		slog.Int("weeks", weeks))
	return nil
}

// buildSession fabricates a plausible completed session: every slot is filled
// to its target sets, weights climb week over week, and reps and RPE wobble
// within the prescription.
func buildSession(faker *gofakeit.Faker, day workout.Day, date time.Time, week int) workout.Session {
	startedAt := date.Add(workoutHour * time.Hour)
	sess := workout.Session{
		DayID:     day.ID,
		DayName:   day.Name,
		DayNumber: day.Number,
		Date:      date,
		StartedAt: startedAt,
		Exercises: make([]workout.LoggedExercise, len(day.Exercises)),
	}

	loggedAt := startedAt
	for i, slot := range day.Exercises {
		logged := workout.LoggedExercise{
			ExerciseID:   slot.Exercise.ID,
			ExerciseName: slot.Exercise.Name,
			Sets:         make([]workout.SetEntry, 0, slot.TargetSets),
		}
		for setNumber := 1; setNumber <= slot.TargetSets; setNumber++ {
			loggedAt = loggedAt.Add(time.Duration(slot.RestSeconds) * time.Second)
			logged.Sets = append(logged.Sets, workout.SetEntry{
				Number:   setNumber,
				Variant:  fabricateVariant(faker, slot, week),
				RPE:      roundToHalf(faker.Float64Range(minRPE, maxRPE)),
				LoggedAt: loggedAt,
			})
		}
		sess.Exercises[i] = logged
	}
	return sess
}

func fabricateVariant(faker *gofakeit.Faker, slot workout.DayExercise, week int) workout.SetVariant {
	reps := faker.IntRange(slot.RepRangeMin, slot.RepRangeMax)
	switch slot.Exercise.Type {
	case workout.TypeTimed:
		return workout.Timed{Seconds: faker.IntRange(minTimedHoldSeconds, maxTimedHoldSeconds)}
	case workout.TypeBodyweight:
		return workout.Bodyweight{Reps: reps}
	case workout.TypeUnilateral:
		return workout.Unilateral{WeightKg: progressedWeight(slot.Exercise, week), Reps: reps, Side: workout.SideBoth}
	case workout.TypeBilateral:
		return workout.Bilateral{WeightKg: progressedWeight(slot.Exercise, week), Reps: reps}
	default:
		return workout.Bilateral{WeightKg: progressedWeight(slot.Exercise, week), Reps: reps}
	}
}

// progressedWeight models steady linear progression from a conservative start.
func progressedWeight(ex workout.Exercise, week int) float64 {
	if ex.IsLowerBody() {
		return lowerBodyStartWeightKg + float64(week)*lowerBodyWeeklyGainKg
	}
	return upperBodyStartWeightKg + float64(week)*upperBodyWeeklyGainKg
}

func roundToHalf(v float64) float64 {
	return math.Round(v*2) / 2 //nolint:mnd // half-point precision.
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "seeding failed", errors.SlogError(err))
		os.Exit(1)
	}
}
