package main

import (
	"fmt"
	"net/http"

	"github.com/mvantaa/liftlog/internal/errors"
	"github.com/mvantaa/liftlog/internal/workout"
)

// loggedSetView decorates a logged set with whether it beat the matching set
// of the previous session.
type loggedSetView struct {
	workout.SetEntry
	BeatLast bool
}

type sessionTemplateData struct {
	BaseTemplateData
	Session      workout.Session
	CurrentIndex int
	// Current is the exercise slot being performed with its prescription.
	Current workout.DayExercise
	// Logged are the sets recorded so far for the current exercise.
	Logged []loggedSetView
	// SetNumber is the 1-based number of the next set.
	SetNumber int
	// Prefill is the previous session's matching set, used to prefill the
	// logging form. HasPrefill false on the first encounter with the set.
	Prefill    workout.SetEntry
	HasPrefill bool
	// Remaining is how many prescribed sets are left for the current exercise.
	Remaining int
	// Recommendation is the overload advice for the current exercise, HasRecommendation
	// false on the first encounter with an exercise.
	Recommendation    workout.Recommendation
	HasRecommendation bool
	// PlatesPerSide is the plate breakdown for the suggested weight, nil for
	// unloaded or sub-bar weights.
	PlatesPerSide []float64
	// SupersetPartner is the name of the paired exercise, empty when not in a superset.
	SupersetPartner string
	// Rest is the rest timer snapshot at render time.
	Rest workout.RestTimerStatus
	// Exercises lists all slots of the day for navigation.
	Exercises []workout.DayExercise
}

func (app *application) sessionStartPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, err)
		return
	}

	var err error
	if dayIDStr := r.PostForm.Get("day_id"); dayIDStr != "" {
		var dayID int
		if dayID, err = parseOptionalInt(dayIDStr); err != nil {
			app.notFound(w, r)
			return
		}
		_, err = app.workoutService.StartSessionForDay(ctx, dayID)
	} else {
		_, err = app.workoutService.StartSession(ctx)
	}
	if err != nil {
		if errors.Is(err, workout.ErrNotFound) {
			app.notFound(w, r)
			return
		}
		app.serverError(w, r, err)
		return
	}

	redirect(w, r, "/session")
}

func (app *application) sessionGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, index, ok := app.workoutService.ActiveSession()
	if !ok {
		redirect(w, r, "/")
		return
	}

	day, err := app.workoutService.Day(ctx, sess.DayID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if index >= len(day.Exercises) {
		app.serverError(w, r, fmt.Errorf("exercise index %d out of range for day %d", index, day.ID))
		return
	}
	current := day.Exercises[index]
	logged := sess.Exercises[index].Sets

	history, err := app.workoutService.History(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	prevSets := previousSets(history, current.Exercise.ID)

	views := make([]loggedSetView, len(logged))
	for i, entry := range logged {
		views[i] = loggedSetView{SetEntry: entry}
		if prev, found := prevSets[entry.Number]; found && beatsPrevious(entry, prev) {
			views[i].BeatLast = true
		}
	}

	data := sessionTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Session:          sess,
		CurrentIndex:     index,
		Current:          current,
		Logged:           views,
		SetNumber:        len(logged) + 1,
		Remaining:        current.TargetSets - len(logged),
		Rest:             app.workoutService.RestStatus(),
		Exercises:        day.Exercises,
	}

	if prev, found := prevSets[len(logged)+1]; found {
		data.Prefill = prev
		data.HasPrefill = true
	}

	if rec, hasRec, recErr := app.workoutService.Recommendation(ctx, current); recErr != nil {
		app.serverError(w, r, recErr)
		return
	} else if hasRec {
		data.Recommendation = rec
		data.HasRecommendation = true
		data.PlatesPerSide = workout.PlatesPerSide(rec.SuggestedWeightKg)
	}

	if partnerID := day.SupersetPartner(current.Exercise.ID); partnerID != 0 {
		partner, partnerErr := app.workoutService.Exercise(ctx, partnerID)
		if partnerErr != nil {
			app.serverError(w, r, partnerErr)
			return
		}
		data.SupersetPartner = partner.Name
	}

	app.render(w, r, http.StatusOK, "session", data)
}

// previousSets returns the sets of the most recent completed session that
// includes the exercise, keyed by set number. History is newest first.
func previousSets(history []workout.Session, exerciseID int) map[int]workout.SetEntry {
	for _, sess := range history {
		for _, ex := range sess.Exercises {
			if ex.ExerciseID != exerciseID || len(ex.Sets) == 0 {
				continue
			}
			sets := make(map[int]workout.SetEntry, len(ex.Sets))
			for _, set := range ex.Sets {
				sets[set.Number] = set
			}
			return sets
		}
	}
	return nil
}

// beatsPrevious reports whether a set tops the previous session's matching
// set: more weight, or more reps at the same weight.
func beatsPrevious(entry, prev workout.SetEntry) bool {
	if entry.WeightKg() != prev.WeightKg() {
		return entry.WeightKg() > prev.WeightKg()
	}
	return entry.Reps() > prev.Reps()
}

// parseSetVariant builds the set variant matching the exercise type from the
// submitted form values.
func parseSetVariant(exerciseType workout.ExerciseType, form map[string]string) (workout.SetVariant, error) {
	weight, err := parseOptionalFloat(form["weight"])
	if err != nil {
		return nil, err
	}
	reps, err := parseOptionalInt(form["reps"])
	if err != nil {
		return nil, err
	}
	duration, err := parseOptionalInt(form["duration"])
	if err != nil {
		return nil, err
	}

	switch exerciseType {
	case workout.TypeBilateral:
		return workout.Bilateral{WeightKg: weight, Reps: reps}, nil
	case workout.TypeUnilateral:
		side := workout.Side(form["side"])
		if side == "" {
			side = workout.SideBoth
		}
		return workout.Unilateral{WeightKg: weight, Reps: reps, Side: side}, nil
	case workout.TypeTimed:
		return workout.Timed{Seconds: duration}, nil
	case workout.TypeBodyweight:
		return workout.Bodyweight{Reps: reps}, nil
	default:
		return nil, fmt.Errorf("unknown exercise type %q", exerciseType)
	}
}

func (app *application) sessionLogSetPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, err)
		return
	}

	sess, index, ok := app.workoutService.ActiveSession()
	if !ok {
		redirect(w, r, "/")
		return
	}

	day, err := app.workoutService.Day(ctx, sess.DayID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	current := day.Exercises[index]

	form := map[string]string{
		"weight":   r.PostForm.Get("weight"),
		"reps":     r.PostForm.Get("reps"),
		"duration": r.PostForm.Get("duration"),
		"side":     r.PostForm.Get("side"),
	}
	variant, err := parseSetVariant(current.Exercise.Type, form)
	if err != nil {
		app.sessionManager.Put(ctx, flashErrorKey, "Enter valid numbers")
		redirect(w, r, "/session")
		return
	}
	rpe, err := parseOptionalFloat(r.PostForm.Get("rpe"))
	if err != nil {
		app.sessionManager.Put(ctx, flashErrorKey, "Enter valid numbers")
		redirect(w, r, "/session")
		return
	}

	hadRecord := sess.Exercises[index].PersonalRecord

	if err = app.workoutService.LogSet(ctx, variant, rpe); err != nil {
		var verr *workout.ValidationError
		if errors.As(err, &verr) {
			app.sessionManager.Put(ctx, flashErrorKey, verr.Error())
			redirect(w, r, "/session")
			return
		}
		app.serverError(w, r, err)
		return
	}

	if after, _, stillActive := app.workoutService.ActiveSession(); stillActive {
		if !hadRecord && after.Exercises[index].PersonalRecord {
			app.sessionManager.Put(ctx, flashKey,
				fmt.Sprintf("New personal record on %s!", current.Exercise.Name))
		}
	}

	redirect(w, r, "/session")
}

func (app *application) sessionNavigatePOST(w http.ResponseWriter, r *http.Request) {
	index, ok := app.parseIntParam(w, r, "index")
	if !ok {
		return
	}
	app.workoutService.Navigate(index)
	redirect(w, r, "/session")
}

func (app *application) sessionFinishPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, streak, err := app.workoutService.FinishSession(ctx)
	if err != nil {
		if errors.Is(err, workout.ErrNoActiveSession) {
			redirect(w, r, "/")
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.sessionManager.Put(ctx, flashKey, fmt.Sprintf("Workout complete. Streak: %d days.", streak))
	redirect(w, r, "/sessions/"+sess.ID)
}

func (app *application) sessionAbandonPOST(w http.ResponseWriter, r *http.Request) {
	app.workoutService.AbandonSession(r.Context())
	redirect(w, r, "/")
}

type sessionSummaryTemplateData struct {
	BaseTemplateData
	Session workout.Session
}

func (app *application) sessionSummaryGET(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	sess, err := app.workoutService.SessionByID(r.Context(), sessionID)
	if err != nil {
		if workout.IsNotFound(err) {
			app.notFound(w, r)
			return
		}
		app.serverError(w, r, err)
		return
	}

	data := sessionSummaryTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Session:          sess,
	}

	app.render(w, r, http.StatusOK, "session-summary", data)
}
