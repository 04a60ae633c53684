package workout_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mvantaa/liftlog/internal/sqlite"
	"github.com/mvantaa/liftlog/internal/testhelpers"
	"github.com/mvantaa/liftlog/internal/workout"
)

func newTestService(t *testing.T) *workout.Service {
	t.Helper()
	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close database: %v", closeErr)
		}
	})

	return workout.NewService(db, logger, "", nil)
}

func TestService_PlanFixtures(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	days, err := svc.Days(ctx)
	if err != nil {
		t.Fatalf("Days() error = %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("Days() returned %d days, want 7", len(days))
	}
	if days[0].Name != "Legs — Quad Focus + Abs" {
		t.Errorf("days[0].Name = %q", days[0].Name)
	}

	day, err := svc.Day(ctx, days[0].ID)
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if len(day.Exercises) != 9 {
		t.Fatalf("day 1 has %d exercises, want 9", len(day.Exercises))
	}

	squat := day.Exercises[0]
	if squat.Exercise.Name != "Back Squat" {
		t.Errorf("first exercise = %q, want Back Squat", squat.Exercise.Name)
	}
	if squat.TargetSets != 4 || squat.RepRangeMin != 6 || squat.RepRangeMax != 8 || squat.RestSeconds != 180 {
		t.Errorf("squat prescription = %+v, want 4 sets of 6-8 with 180s rest", squat)
	}
	if !squat.Exercise.IsLowerBody() {
		t.Error("Back Squat not classified as lower body")
	}
}

func TestService_CurrentDayFollowsRotation(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	day, err := svc.CurrentDay(ctx)
	if err != nil {
		t.Fatalf("CurrentDay() error = %v", err)
	}
	if day.Number != 1 {
		t.Errorf("fresh install starts at day %d, want 1", day.Number)
	}
}

func TestService_WorkoutRoundTrip(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	sess, err := svc.StartSession(ctx)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if sess.DayNumber != 1 {
		t.Fatalf("session day = %d, want 1", sess.DayNumber)
	}

	for _, rpe := range []float64{7, 7, 8} {
		if err = svc.LogSet(ctx, workout.Bilateral{WeightKg: 100, Reps: 8}, rpe); err != nil {
			t.Fatalf("LogSet() error = %v", err)
		}
	}
	svc.SkipRest()

	finished, streak, err := svc.FinishSession(ctx)
	if err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}
	if finished.TotalSets != 3 {
		t.Errorf("TotalSets = %d, want 3", finished.TotalSets)
	}
	if finished.TotalVolumeKg != 2400 {
		t.Errorf("TotalVolumeKg = %v, want 2400", finished.TotalVolumeKg)
	}
	if streak != 1 {
		t.Errorf("streak = %d, want 1", streak)
	}

	// The session must round-trip through the database.
	stored, err := svc.SessionByID(ctx, finished.ID)
	if err != nil {
		t.Fatalf("SessionByID() error = %v", err)
	}
	if stored.TotalSets != 3 || stored.TotalVolumeKg != 2400 {
		t.Errorf("stored totals = %d sets / %v kg, want 3 / 2400", stored.TotalSets, stored.TotalVolumeKg)
	}
	if len(stored.Exercises) == 0 || len(stored.Exercises[0].Sets) != 3 {
		t.Fatalf("stored session lost its sets: %+v", stored.Exercises)
	}
	firstSet := stored.Exercises[0].Sets[0]
	if firstSet.WeightKg() != 100 || firstSet.Reps() != 8 {
		t.Errorf("stored set = %v kg x %d, want 100 x 8", firstSet.WeightKg(), firstSet.Reps())
	}

	// A 100x8 squat on a fresh install is a record on all three dimensions.
	record, err := svc.Record(ctx, stored.Exercises[0].ExerciseID)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if record.BestWeightKg != 100 || record.BestReps != 8 || record.BestVolumeKg != 800 {
		t.Errorf("record = %+v, want bests 100/8/800", record)
	}
	if len(record.History) != 1 {
		t.Errorf("record history has %d entries, want 1", len(record.History))
	}

	// Finishing advances the rotation.
	next, err := svc.CurrentDay(ctx)
	if err != nil {
		t.Fatalf("CurrentDay() error = %v", err)
	}
	if next.Number != 2 {
		t.Errorf("next day = %d, want 2", next.Number)
	}
}

func TestService_RecommendationAfterWorkout(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	if _, err := svc.StartSession(ctx); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	for range 3 {
		if err := svc.LogSet(ctx, workout.Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
			t.Fatalf("LogSet() error = %v", err)
		}
	}
	svc.SkipRest()
	if _, _, err := svc.FinishSession(ctx); err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}

	day, err := svc.Day(ctx, 1)
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	rec, ok, err := svc.Recommendation(ctx, day.Exercises[0])
	if err != nil {
		t.Fatalf("Recommendation() error = %v", err)
	}
	if !ok {
		t.Fatal("Recommendation() ok = false after a logged workout")
	}
	if rec.Action != workout.ActionAddWeight {
		t.Errorf("Action = %q, want %q", rec.Action, workout.ActionAddWeight)
	}
	if rec.SuggestedWeightKg != 105 {
		t.Errorf("SuggestedWeightKg = %v, want 105 for a lower-body lift", rec.SuggestedWeightKg)
	}
}

func TestService_RestOverride(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	if err := svc.SetRestOverride(ctx, 1, 240); err != nil {
		t.Fatalf("SetRestOverride() error = %v", err)
	}
	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.RestOverrides[1] != 240 {
		t.Errorf("RestOverrides[1] = %d, want 240", settings.RestOverrides[1])
	}

	if err = svc.SetRestOverride(ctx, 1, 0); err != nil {
		t.Fatalf("SetRestOverride() clear error = %v", err)
	}
	settings, err = svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if _, ok := settings.RestOverrides[1]; ok {
		t.Error("override still present after clearing")
	}
}

func TestService_AbandonSession(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	if _, err := svc.StartSession(ctx); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if err := svc.LogSet(ctx, workout.Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}
	svc.SkipRest()

	svc.AbandonSession(ctx)

	if _, _, ok := svc.ActiveSession(); ok {
		t.Error("ActiveSession() ok = true after abandon")
	}
	history, err := svc.History(ctx)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("abandoned session reached history, got %d entries", len(history))
	}

	// Records earned during the abandoned session stay.
	if _, err = svc.Record(ctx, 1); err != nil {
		t.Errorf("Record() error = %v, want the record kept", err)
	}
}

func TestService_GenerateFormCueWithoutKey(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	if _, err := svc.GenerateFormCue(ctx, 1); err == nil {
		t.Error("GenerateFormCue() error = nil without an API key")
	}
}

func TestService_Export(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	dir := t.TempDir()
	path, err := svc.Export(ctx, dir)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("export written to %q, want inside %q", path, dir)
	}
	if _, err = os.Stat(path); err != nil {
		t.Errorf("stat export file: %v", err)
	}
}
