package main

import (
	"encoding/json"
	"net/http"
)

func (app *application) restAdjustPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, err)
		return
	}
	steps, err := parseOptionalInt(r.PostForm.Get("steps"))
	if err != nil {
		http.Error(w, "Invalid steps parameter", http.StatusBadRequest)
		return
	}
	app.workoutService.AdjustRest(steps)
	redirect(w, r, "/session")
}

func (app *application) restSkipPOST(w http.ResponseWriter, r *http.Request) {
	app.workoutService.SkipRest()
	redirect(w, r, "/session")
}

// restStatusGET reports the rest timer as JSON for the countdown script to poll.
func (app *application) restStatusGET(w http.ResponseWriter, r *http.Request) {
	status := app.workoutService.RestStatus()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		RemainingSeconds int  `json:"remaining_seconds"`
		TotalSeconds     int  `json:"total_seconds"`
		Running          bool `json:"running"`
	}{
		RemainingSeconds: status.RemainingSeconds,
		TotalSeconds:     status.TotalSeconds,
		Running:          status.Running,
	}); err != nil {
		app.serverError(w, r, err)
	}
}
