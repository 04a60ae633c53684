package main

import (
	"net/http"
)

type historyTemplateData struct {
	BaseTemplateData
	Sessions []sessionView
	Streak   int
}

func (app *application) historyGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := app.workoutService.History(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	streak, err := app.workoutService.Streak(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := historyTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Sessions:         toSessionViews(sessions, len(sessions)),
		Streak:           streak,
	}

	app.render(w, r, http.StatusOK, "history", data)
}
