package workout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeHistory struct {
	sessions []Session
}

func (f *fakeHistory) Append(_ context.Context, sess Session) error {
	f.sessions = append(f.sessions, sess)
	return nil
}

func (f *fakeHistory) List(_ context.Context) ([]Session, error) {
	return f.sessions, nil
}

type fakeRecords struct {
	records map[int]PersonalRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[int]PersonalRecord{}}
}

func (f *fakeRecords) Get(_ context.Context, exerciseID int) (PersonalRecord, error) {
	record, ok := f.records[exerciseID]
	if !ok {
		return PersonalRecord{}, ErrNotFound
	}
	return record, nil
}

func (f *fakeRecords) Upsert(_ context.Context, record PersonalRecord) error {
	f.records[record.ExerciseID] = record
	return nil
}

type fakeSettings struct {
	settings Settings
}

func (f *fakeSettings) Get(_ context.Context) (Settings, error) {
	return f.settings, nil
}

func (f *fakeSettings) Update(_ context.Context, updateFn func(*Settings) (bool, error)) error {
	_, err := updateFn(&f.settings)
	return err
}

type recordingNotifier struct {
	prs []string
}

func (n *recordingNotifier) PersonalRecordAchieved(exerciseName string) {
	n.prs = append(n.prs, exerciseName)
}

func (n *recordingNotifier) RestTimerExpired(string) {}

type engineFixture struct {
	engine   *Engine
	history  *fakeHistory
	records  *fakeRecords
	settings *fakeSettings
	notifier *recordingNotifier
}

func newEngineFixture(now time.Time) engineFixture {
	history := &fakeHistory{}
	records := newFakeRecords()
	settings := &fakeSettings{}
	notifier := &recordingNotifier{}
	engine := NewEngine(history, records, settings, notifier)
	engine.now = func() time.Time { return now }
	return engineFixture{
		engine:   engine,
		history:  history,
		records:  records,
		settings: settings,
		notifier: notifier,
	}
}

func legDay() Day {
	return Day{
		ID:     1,
		Number: 1,
		Name:   "Leg Day",
		Exercises: []DayExercise{
			squatSlot(),
			{
				Exercise: Exercise{
					ID:           3,
					Name:         "Plank",
					Type:         TypeTimed,
					MuscleGroups: []string{"abs"},
				},
				TargetSets:  3,
				RepRangeMin: 30,
				RepRangeMax: 60,
				RestSeconds: 60,
			},
		},
	}
}

func pushDay() Day {
	return Day{
		ID:        2,
		Number:    2,
		Name:      "Push Day",
		Exercises: []DayExercise{benchSlot()},
	}
}

func TestEngine_StartDiscardsPreviousSession(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine

	first := engine.Start(legDay())
	if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}

	second := engine.Start(pushDay())
	if second.ID == first.ID {
		t.Error("second session reused the first session's id")
	}

	active, index, ok := engine.Active()
	if !ok {
		t.Fatal("Active() ok = false, want true")
	}
	if active.DayID != 2 {
		t.Errorf("active.DayID = %d, want 2", active.DayID)
	}
	if index != 0 {
		t.Errorf("current index = %d, want 0", index)
	}
	if active.TotalSets != 0 {
		t.Errorf("active.TotalSets = %d, want 0", active.TotalSets)
	}
	if len(fixture.history.sessions) != 0 {
		t.Errorf("discarded session reached history, got %d sessions", len(fixture.history.sessions))
	}
}

func TestEngine_SessionDateIsLocalCalendarDay(t *testing.T) {
	// Half past midnight in UTC+10 is still the previous afternoon in UTC.
	// The session date must follow the local calendar, not the UTC one.
	sydney := time.FixedZone("UTC+10", 10*60*60)
	fixture := newEngineFixture(time.Date(2026, 3, 10, 0, 30, 0, 0, sydney))

	sess := fixture.engine.Start(legDay())

	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !sess.Date.Equal(want) {
		t.Errorf("sess.Date = %v, want %v", sess.Date, want)
	}
}

func TestEngine_LogSetValidationLeavesSessionUntouched(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine
	engine.Start(legDay())

	err := engine.LogSet(t.Context(), Bilateral{WeightKg: 0, Reps: 5}, 7)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("LogSet() error = %v, want *ValidationError", err)
	}
	if verr.Error() != "Enter weight (kg)" {
		t.Errorf("validation message = %q, want %q", verr.Error(), "Enter weight (kg)")
	}

	active, _, _ := engine.Active()
	if active.TotalSets != 0 || active.TotalVolumeKg != 0 {
		t.Errorf("totals changed after rejected set: sets=%d volume=%v", active.TotalSets, active.TotalVolumeKg)
	}
	if len(active.Exercises[0].Sets) != 0 {
		t.Errorf("rejected set was appended, got %d sets", len(active.Exercises[0].Sets))
	}
}

func TestEngine_LogSetNumbersSetsSequentially(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine
	engine.Start(legDay())
	defer engine.Abandon()

	for i := range 3 {
		if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8 - i}, 7); err != nil {
			t.Fatalf("LogSet() set %d error = %v", i+1, err)
		}
	}

	active, _, _ := engine.Active()
	for i, set := range active.Exercises[0].Sets {
		if set.Number != i+1 {
			t.Errorf("set %d has Number = %d", i, set.Number)
		}
	}
}

func TestEngine_LogSetBeyondTargetIsIgnored(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine
	engine.Start(legDay())
	defer engine.Abandon()

	for range 4 {
		if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
			t.Fatalf("LogSet() error = %v", err)
		}
	}

	active, _, _ := engine.Active()
	if got := len(active.Exercises[0].Sets); got != 3 {
		t.Errorf("logged %d sets, want 3", got)
	}
}

func TestEngine_RestTimerSkipsFinalSet(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine
	engine.Start(legDay())
	defer engine.Abandon()

	if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}
	if !engine.RestStatus().Running {
		t.Error("rest timer not running after a non-final set")
	}

	engine.SkipRest()
	if engine.RestStatus().Running {
		t.Error("rest timer still running after skip")
	}

	for range 2 {
		if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
			t.Fatalf("LogSet() error = %v", err)
		}
	}
	if engine.RestStatus().Running {
		t.Error("rest timer running after the final set")
	}
}

func TestEngine_RestTimerHonorsOverride(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	fixture.settings.settings.RestOverrides = map[int]int{1: 45}
	engine := fixture.engine
	engine.Start(legDay())
	defer engine.Abandon()

	if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}

	status := engine.RestStatus()
	if status.TotalSeconds != 45 {
		t.Errorf("TotalSeconds = %d, want the 45 second override", status.TotalSeconds)
	}
}

func TestEngine_PersonalRecordFieldsAdvanceIndependently(t *testing.T) {
	today := testDate(10)
	fixture := newEngineFixture(today)
	fixture.records.records[1] = PersonalRecord{
		ExerciseID:     1,
		BestWeightKg:   110,
		BestWeightDate: testDate(1),
		BestReps:       6,
		BestRepsDate:   testDate(1),
		BestVolumeKg:   660,
		BestVolumeDate: testDate(1),
	}
	engine := fixture.engine
	engine.Start(legDay())
	defer engine.Abandon()

	// 100x8 beats reps (8 > 6) and volume (800 > 660) but not weight.
	if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 8); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}

	record := fixture.records.records[1]
	if record.BestWeightKg != 110 {
		t.Errorf("BestWeightKg = %v, want untouched 110", record.BestWeightKg)
	}
	if !record.BestWeightDate.Equal(testDate(1)) {
		t.Errorf("BestWeightDate = %v, want untouched %v", record.BestWeightDate, testDate(1))
	}
	if record.BestReps != 8 {
		t.Errorf("BestReps = %d, want 8", record.BestReps)
	}
	if !record.BestRepsDate.Equal(today) {
		t.Errorf("BestRepsDate = %v, want %v", record.BestRepsDate, today)
	}
	if record.BestVolumeKg != 800 {
		t.Errorf("BestVolumeKg = %v, want 800", record.BestVolumeKg)
	}
	if !record.BestVolumeDate.Equal(today) {
		t.Errorf("BestVolumeDate = %v, want %v", record.BestVolumeDate, today)
	}

	want := []string{"Back Squat"}
	if diff := cmp.Diff(want, fixture.notifier.prs); diff != "" {
		t.Errorf("notified records mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_UnloadedSetNeverSetsRecord(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine
	engine.Start(legDay())
	defer engine.Abandon()

	engine.Navigate(1)
	if err := engine.LogSet(t.Context(), Timed{Seconds: 90}, 8); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}

	if len(fixture.records.records) != 0 {
		t.Errorf("timed set created a record: %v", fixture.records.records)
	}
}

func TestEngine_FullWorkout(t *testing.T) {
	today := testDate(10)
	fixture := newEngineFixture(today)
	engine := fixture.engine

	engine.Start(legDay())

	rpes := []float64{7, 7, 8}
	for _, rpe := range rpes {
		if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, rpe); err != nil {
			t.Fatalf("LogSet() error = %v", err)
		}
	}

	sess, streak, err := engine.Finish(t.Context(), 7)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if sess.TotalSets != 3 {
		t.Errorf("TotalSets = %d, want 3", sess.TotalSets)
	}
	if sess.TotalVolumeKg != 2400 {
		t.Errorf("TotalVolumeKg = %v, want 2400", sess.TotalVolumeKg)
	}
	if !sess.Completed {
		t.Error("finished session not marked completed")
	}
	if streak != 1 {
		t.Errorf("streak = %d, want 1", streak)
	}

	record := fixture.records.records[1]
	if record.BestWeightKg != 100 || record.BestReps != 8 || record.BestVolumeKg != 800 {
		t.Errorf("record = %+v, want bests 100/8/800", record)
	}
	if !record.BestWeightDate.Equal(today) {
		t.Errorf("BestWeightDate = %v, want %v", record.BestWeightDate, today)
	}

	if len(fixture.history.sessions) != 1 {
		t.Fatalf("history has %d sessions, want 1", len(fixture.history.sessions))
	}
	if fixture.settings.settings.CurrentDayIndex != 1 {
		t.Errorf("CurrentDayIndex = %d, want 1", fixture.settings.settings.CurrentDayIndex)
	}

	if _, _, ok := engine.Active(); ok {
		t.Error("Active() ok = true after finish, want false")
	}
}

func TestEngine_FinishWithoutSession(t *testing.T) {
	fixture := newEngineFixture(testDate(10))

	_, _, err := fixture.engine.Finish(t.Context(), 7)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Finish() error = %v, want ErrNoActiveSession", err)
	}
}

func TestEngine_DayIndexWrapsAround(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	fixture.settings.settings.CurrentDayIndex = 6
	engine := fixture.engine

	engine.Start(legDay())
	if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}
	if _, _, err := engine.Finish(t.Context(), 7); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if fixture.settings.settings.CurrentDayIndex != 0 {
		t.Errorf("CurrentDayIndex = %d, want wrap to 0", fixture.settings.settings.CurrentDayIndex)
	}
}

func TestEngine_AbandonKeepsRecords(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine

	engine.Start(legDay())
	if err := engine.LogSet(t.Context(), Bilateral{WeightKg: 100, Reps: 8}, 7); err != nil {
		t.Fatalf("LogSet() error = %v", err)
	}

	engine.Abandon()

	if _, _, ok := engine.Active(); ok {
		t.Error("Active() ok = true after abandon, want false")
	}
	if len(fixture.history.sessions) != 0 {
		t.Errorf("abandoned session reached history, got %d sessions", len(fixture.history.sessions))
	}
	if _, ok := fixture.records.records[1]; !ok {
		t.Error("personal record rolled back on abandon, want kept")
	}
}

func TestEngine_NavigateIgnoresOutOfRange(t *testing.T) {
	fixture := newEngineFixture(testDate(10))
	engine := fixture.engine
	engine.Start(legDay())
	defer engine.Abandon()

	engine.Navigate(5)
	if _, index, _ := engine.Active(); index != 0 {
		t.Errorf("index = %d after out-of-range navigate, want 0", index)
	}

	engine.Navigate(1)
	if _, index, _ := engine.Active(); index != 1 {
		t.Errorf("index = %d, want 1", index)
	}

	engine.Navigate(-1)
	if _, index, _ := engine.Active(); index != 1 {
		t.Errorf("index = %d after negative navigate, want 1", index)
	}
}
