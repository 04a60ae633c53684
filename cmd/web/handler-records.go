package main

import (
	"net/http"

	"github.com/mvantaa/liftlog/internal/workout"
)

// recordView pairs a personal record with its exercise name for display.
type recordView struct {
	Exercise workout.Exercise
	Record   workout.PersonalRecord
}

type recordsTemplateData struct {
	BaseTemplateData
	Records []recordView
}

func (app *application) recordsGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := app.workoutService.Records(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	views := make([]recordView, 0, len(records))
	for _, record := range records {
		exercise, exErr := app.workoutService.Exercise(ctx, record.ExerciseID)
		if exErr != nil {
			app.serverError(w, r, exErr)
			return
		}
		views = append(views, recordView{Exercise: exercise, Record: record})
	}

	data := recordsTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Records:          views,
	}

	app.render(w, r, http.StatusOK, "records", data)
}
