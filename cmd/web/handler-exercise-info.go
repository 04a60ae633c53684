package main

import (
	"net/http"
	"strconv"

	"github.com/mvantaa/liftlog/internal/errors"
	"github.com/mvantaa/liftlog/internal/workout"
)

// exerciseInfoTemplateData contains data for the exercise info template.
type exerciseInfoTemplateData struct {
	BaseTemplateData
	Exercise workout.Exercise
	// Record is the personal record for the exercise, HasRecord false when
	// nothing qualifying was ever logged.
	Record    workout.PersonalRecord
	HasRecord bool
	// RestOverrideSeconds is the stored per-exercise rest override, 0 when unset.
	RestOverrideSeconds int
	// CanGenerateCue indicates whether AI form cue generation is available.
	CanGenerateCue bool
}

// exerciseInfoGET handles GET requests to view exercise information.
func (app *application) exerciseInfoGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exerciseID, ok := app.parseIntParam(w, r, "exerciseID")
	if !ok {
		return
	}

	exercise, err := app.workoutService.Exercise(ctx, exerciseID)
	if err != nil {
		if workout.IsNotFound(err) {
			app.notFound(w, r)
			return
		}
		app.serverError(w, r, err)
		return
	}

	data := exerciseInfoTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Exercise:         exercise,
	}

	record, err := app.workoutService.Record(ctx, exerciseID)
	if err == nil {
		data.Record = record
		data.HasRecord = true
	} else if !workout.IsNotFound(err) {
		app.serverError(w, r, err)
		return
	}

	settings, err := app.workoutService.Settings(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	data.RestOverrideSeconds = settings.RestOverrides[exerciseID]

	data.CanGenerateCue = app.workoutService.CanGenerateFormCues()

	app.render(w, r, http.StatusOK, "exercise-info", data)
}

// exerciseFormCuePOST regenerates the exercise's form cue with the language model.
func (app *application) exerciseFormCuePOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exerciseID, ok := app.parseIntParam(w, r, "exerciseID")
	if !ok {
		return
	}

	if _, err := app.workoutService.GenerateFormCue(ctx, exerciseID); err != nil {
		if errors.Is(err, workout.ErrNoAPIKey) {
			app.sessionManager.Put(ctx, flashErrorKey, "Form cue generation is not configured")
			redirect(w, r, "/exercises/"+strconv.Itoa(exerciseID))
			return
		}
		app.serverError(w, r, err)
		return
	}

	redirect(w, r, "/exercises/"+strconv.Itoa(exerciseID))
}

// exerciseRestOverridePOST stores a per-exercise rest duration.
func (app *application) exerciseRestOverridePOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exerciseID, ok := app.parseIntParam(w, r, "exerciseID")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, err)
		return
	}

	seconds, err := parseOptionalInt(r.PostForm.Get("seconds"))
	if err != nil {
		app.sessionManager.Put(ctx, flashErrorKey, "Enter valid numbers")
		redirect(w, r, "/exercises/"+strconv.Itoa(exerciseID))
		return
	}

	if err = app.workoutService.SetRestOverride(ctx, exerciseID, seconds); err != nil {
		app.serverError(w, r, err)
		return
	}

	redirect(w, r, "/exercises/"+strconv.Itoa(exerciseID))
}
