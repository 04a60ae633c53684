package workout

import (
	"math"
	"sort"
)

// Action is the progression the overload advisor suggests for an exercise.
type Action string

const (
	// ActionAddWeight means the rep range is owned at a comfortable effort,
	// time to load the bar.
	ActionAddWeight Action = "add_weight"
	// ActionMaintain means keep the current weight and grind out more reps.
	ActionMaintain Action = "maintain"
	// ActionConsolidate means the user is below the target range, back off
	// volume or intensity until the range is reached.
	ActionConsolidate Action = "consolidate"
	// ActionStall flags a plateau. The working weight has not moved in three
	// sessions and the numbers do not justify adding weight.
	ActionStall Action = "stall"
)

// Recommendation is the overload advisor's output for one exercise. The last
// session's averages ride along for display, the caller never re-derives them.
type Recommendation struct {
	Action            Action
	SuggestedWeightKg float64
	SuggestedReps     int
	LastWeightKg      float64
	LastReps          float64
	LastRPE           float64
}

const (
	lowerBodyIncrementKg = 5
	upperBodyIncrementKg = 2.5
	comfortableRPE       = 9
	plateauWindow        = 3
)

// Recommend inspects the training history of an exercise and suggests how to
// progress it. It is a pure function, safe to call on every page render.
//
// The history may arrive in any order; the advisor sorts it by date descending
// itself before slicing out the most recent sessions. The second return value
// is false when there is not enough data to say anything.
func Recommend(slot DayExercise, history []Session) (Recommendation, bool) {
	recent := recentSessionsWithExercise(slot.Exercise.ID, history, plateauWindow)
	if len(recent) == 0 {
		return Recommendation{}, false
	}

	sets := loggedSetsFor(slot.Exercise.ID, recent[0])
	if len(sets) == 0 {
		return Recommendation{}, false
	}

	var weightSum, repsSum, rpeSum float64
	for _, set := range sets {
		weightSum += set.WeightKg()
		repsSum += float64(set.Reps())
		rpeSum += set.RPE
	}
	avgWeight := weightSum / float64(len(sets))
	avgReps := repsSum / float64(len(sets))
	avgRPE := rpeSum / float64(len(sets))

	increment := upperBodyIncrementKg
	if slot.Exercise.IsLowerBody() {
		increment = lowerBodyIncrementKg
	}

	rec := Recommendation{
		Action:            ActionMaintain,
		SuggestedWeightKg: roundToQuarter(avgWeight),
		SuggestedReps:     int(math.Round(avgReps)),
		LastWeightKg:      avgWeight,
		LastReps:          avgReps,
		LastRPE:           math.Round(avgRPE*10) / 10, //nolint:mnd // one decimal.
	}

	switch {
	case avgReps >= float64(slot.RepRangeMax) && avgRPE < comfortableRPE:
		rec.Action = ActionAddWeight
		rec.SuggestedWeightKg = roundToQuarter(avgWeight + increment)
	case avgReps >= float64(slot.RepRangeMin) && avgRPE >= comfortableRPE:
		rec.Action = ActionMaintain
	case avgReps < float64(slot.RepRangeMin):
		rec.Action = ActionConsolidate
	default:
		rec.Action = ActionMaintain
	}

	// Plateau check compares the first set's weight across the three most
	// recent sessions. The first set is a proxy for the working weight.
	if rec.Action != ActionAddWeight && len(recent) >= plateauWindow {
		if firstSetWeightsIdentical(slot.Exercise.ID, recent[:plateauWindow]) {
			rec.Action = ActionStall
		}
	}

	return rec, true
}

// recentSessionsWithExercise returns up to limit sessions that include the
// exercise, newest first. A session counts as soon as the exercise was on the
// day, logged sets or not, so a skipped exercise still ends the lookback. The
// input slice is left untouched.
func recentSessionsWithExercise(exerciseID int, history []Session, limit int) []Session {
	matching := make([]Session, 0, limit)
	for _, sess := range history {
		if sessionIncludesExercise(exerciseID, sess) {
			matching = append(matching, sess)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Date.After(matching[j].Date)
	})
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching
}

// sessionIncludesExercise reports whether the session carried a slot for the
// exercise, regardless of whether any sets were logged.
func sessionIncludesExercise(exerciseID int, sess Session) bool {
	for _, ex := range sess.Exercises {
		if ex.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// loggedSetsFor returns the sets logged for the exercise in the session.
func loggedSetsFor(exerciseID int, sess Session) []SetEntry {
	for _, ex := range sess.Exercises {
		if ex.ExerciseID == exerciseID {
			return ex.Sets
		}
	}
	return nil
}

// firstSetWeightsIdentical treats a session with no sets for the exercise as
// a working weight of zero, so skipped sessions take part in the comparison.
func firstSetWeightsIdentical(exerciseID int, sessions []Session) bool {
	var reference float64
	for i, sess := range sessions {
		var weight float64
		if sets := loggedSetsFor(exerciseID, sess); len(sets) > 0 {
			weight = sets[0].WeightKg()
		}
		if i == 0 {
			reference = weight
			continue
		}
		if weight != reference {
			return false
		}
	}
	return true
}

// roundToQuarter rounds a weight to the nearest 0.25 kg, the smallest change
// achievable with standard fractional plates.
func roundToQuarter(weightKg float64) float64 {
	return math.Round(weightKg*4) / 4 //nolint:mnd // quarter-kilo steps.
}
