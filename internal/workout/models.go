package workout

import (
	"time"
)

// ExerciseType tells how a set of the exercise is logged.
type ExerciseType string

const (
	// TypeBilateral is a regular weight-and-reps exercise, e.g. Back Squat.
	TypeBilateral ExerciseType = "bilateral"
	// TypeUnilateral is performed one side at a time, e.g. Walking Lunges.
	TypeUnilateral ExerciseType = "unilateral"
	// TypeTimed is held for a duration instead of reps, e.g. Plank.
	TypeTimed ExerciseType = "timed"
	// TypeBodyweight is loaded with bodyweight, e.g. Pull-Up.
	TypeBodyweight ExerciseType = "bodyweight"
)

// Exercise represents a single exercise definition, e.g. Squat, Bench Press, etc.
type Exercise struct {
	ID           int
	Name         string
	Type         ExerciseType
	FormCue      string
	MuscleGroups []string
}

// lowerBodyMuscles classifies an exercise for the weight increment used by the
// overload advisor. Lower-body lifts progress in larger jumps.
var lowerBodyMuscles = map[string]bool{ //nolint:gochecknoglobals // immutable lookup table.
	"quads":      true,
	"hamstrings": true,
	"glutes":     true,
	"calves":     true,
}

// IsLowerBody reports whether any of the exercise's muscle groups is a
// lower-body muscle.
func (e Exercise) IsLowerBody() bool {
	for _, mg := range e.MuscleGroups {
		if lowerBodyMuscles[mg] {
			return true
		}
	}
	return false
}

// DayExercise is an exercise slot within a workout day with its prescription.
type DayExercise struct {
	Exercise    Exercise
	TargetSets  int
	RepRangeMin int
	RepRangeMax int
	RestSeconds int
}

// SupersetPairing links two exercises performed back to back with no rest.
type SupersetPairing struct {
	FirstID  int
	SecondID int
}

// Day is an ordered sequence of exercises with a name and focus muscles.
type Day struct {
	ID           int
	Number       int
	Name         string
	FocusMuscles []string
	Exercises    []DayExercise
	Supersets    []SupersetPairing
}

// SupersetPartner returns the id of the exercise paired with the given one, or
// 0 when the exercise is not part of a superset.
func (d Day) SupersetPartner(exerciseID int) int {
	for _, p := range d.Supersets {
		if p.FirstID == exerciseID {
			return p.SecondID
		}
		if p.SecondID == exerciseID {
			return p.FirstID
		}
	}
	return 0
}

// exerciseAt returns the exercise slot at the given position, second return
// value false when out of range.
func (d Day) exerciseAt(index int) (DayExercise, bool) {
	if index < 0 || index >= len(d.Exercises) {
		return DayExercise{}, false
	}
	return d.Exercises[index], true
}

// LoggedExercise is the per-exercise record within a session. The exercise
// name is denormalized at session start so later plan edits do not rewrite
// history.
type LoggedExercise struct {
	ExerciseID     int
	ExerciseName   string
	PersonalRecord bool
	Sets           []SetEntry
}

// Session represents one workout, in progress or completed.
type Session struct {
	ID            string
	DayID         int
	DayName       string
	DayNumber     int
	Date          time.Time
	StartedAt     time.Time
	CompletedAt   time.Time
	Exercises     []LoggedExercise
	TotalSets     int
	TotalVolumeKg float64
	PRsHit        int
	Completed     bool
}

// normalizeDate floors a timestamp to the calendar day of the zone it
// carries, stored at midnight UTC so dates compare and format consistently.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Duration is the wall time between starting and finishing the session,
// rounded to the minute. Zero for backfilled sessions without a start time.
func (s Session) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt).Round(time.Minute)
}

// recomputeTotals folds the logged sets into the cached session aggregates.
// The aggregates are derived fields, never the source of truth.
func (s *Session) recomputeTotals() {
	s.TotalSets = 0
	s.TotalVolumeKg = 0
	s.PRsHit = 0
	for _, ex := range s.Exercises {
		s.TotalSets += len(ex.Sets)
		for _, set := range ex.Sets {
			s.TotalVolumeKg += set.VolumeKg()
		}
		if ex.PersonalRecord {
			s.PRsHit++
		}
	}
}

// RecordEntry is one qualifying set in a personal record's history.
type RecordEntry struct {
	Date     time.Time
	WeightKg float64
	Reps     int
	RPE      float64
}

// PersonalRecord tracks the best-ever values for an exercise. Each best field
// is tracked independently, so a new weight record does not require besting
// reps or volume.
type PersonalRecord struct {
	ExerciseID     int
	BestWeightKg   float64
	BestWeightDate time.Time
	BestReps       int
	BestRepsDate   time.Time
	BestVolumeKg   float64
	BestVolumeDate time.Time
	History        []RecordEntry
}

// Settings holds the user-tunable state the session engine consults.
type Settings struct {
	// CurrentDayIndex is the zero-based position in the plan of the day to
	// start next. It advances cyclically on every finished session.
	CurrentDayIndex int
	Theme           string
	// RestOverrides maps exercise id to a rest duration in seconds that takes
	// precedence over the day's prescription.
	RestOverrides map[int]int
}
