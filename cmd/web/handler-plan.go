package main

import (
	"net/http"

	"github.com/mvantaa/liftlog/internal/workout"
)

type planTemplateData struct {
	BaseTemplateData
	Days []workout.Day
	// CurrentDayID is the day the rotation points at next.
	CurrentDayID int
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := app.workoutService.Days(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	current, err := app.workoutService.CurrentDay(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := planTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Days:             days,
		CurrentDayID:     current.ID,
	}

	app.render(w, r, http.StatusOK, "plan", data)
}

type planDayTemplateData struct {
	BaseTemplateData
	Day workout.Day
	// PartnerNames maps exercise id to its superset partner's name.
	PartnerNames map[int]string
}

func (app *application) planDayGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dayID, ok := app.parseIntParam(w, r, "dayID")
	if !ok {
		return
	}

	day, err := app.workoutService.Day(ctx, dayID)
	if err != nil {
		if workout.IsNotFound(err) {
			app.notFound(w, r)
			return
		}
		app.serverError(w, r, err)
		return
	}

	partnerNames := map[int]string{}
	for _, slot := range day.Exercises {
		partnerID := day.SupersetPartner(slot.Exercise.ID)
		if partnerID == 0 {
			continue
		}
		partner, partnerErr := app.workoutService.Exercise(ctx, partnerID)
		if partnerErr != nil {
			app.serverError(w, r, partnerErr)
			return
		}
		partnerNames[slot.Exercise.ID] = partner.Name
	}

	data := planDayTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Day:              day,
		PartnerNames:     partnerNames,
	}

	app.render(w, r, http.StatusOK, "plan-day", data)
}
