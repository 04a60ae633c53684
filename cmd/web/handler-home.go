package main

import (
	"net/http"
	"time"

	"github.com/mvantaa/liftlog/internal/workout"
)

type homeTemplateData struct {
	BaseTemplateData
	// Today is the current day of the plan rotation.
	Today workout.Day
	// Streak is the current workout streak in training days.
	Streak int
	// HasActiveSession indicates a workout is in progress.
	HasActiveSession bool
	// RecentSessions is a short tail of completed workouts, newest first.
	RecentSessions []sessionView
}

// sessionView is a completed session prepared for display.
type sessionView struct {
	ID            string
	DayName       string
	Date          time.Time
	TotalSets     int
	TotalVolumeKg float64
	PRsHit        int
}

func toSessionViews(sessions []workout.Session, limit int) []sessionView {
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	views := make([]sessionView, len(sessions))
	for i, sess := range sessions {
		views[i] = sessionView{
			ID:            sess.ID,
			DayName:       sess.DayName,
			Date:          sess.Date,
			TotalSets:     sess.TotalSets,
			TotalVolumeKg: sess.TotalVolumeKg,
			PRsHit:        sess.PRsHit,
		}
	}
	return views
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	today, err := app.workoutService.CurrentDay(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	streak, err := app.workoutService.Streak(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	history, err := app.workoutService.History(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	_, _, active := app.workoutService.ActiveSession()

	data := homeTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Today:            today,
		Streak:           streak,
		HasActiveSession: active,
		RecentSessions:   toSessionViews(history, 5), //nolint:mnd // recent tail.
	}

	app.render(w, r, http.StatusOK, "home", data)
}
