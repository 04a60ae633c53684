package main

import (
	"net/http"
	"path/filepath"

	"github.com/mvantaa/liftlog/internal/workout"
)

type settingsTemplateData struct {
	BaseTemplateData
	Settings workout.Settings
}

func (app *application) settingsGET(w http.ResponseWriter, r *http.Request) {
	settings, err := app.workoutService.Settings(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := settingsTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Settings:         settings,
	}

	app.render(w, r, http.StatusOK, "settings", data)
}

func (app *application) settingsThemePOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, err)
		return
	}

	theme := r.PostForm.Get("theme")
	if theme != "dark" && theme != "light" {
		app.sessionManager.Put(ctx, flashErrorKey, "Unknown theme")
		redirect(w, r, "/settings")
		return
	}

	if err := app.workoutService.SetTheme(ctx, theme); err != nil {
		app.serverError(w, r, err)
		return
	}

	redirect(w, r, "/settings")
}

// exportDataGET snapshots the database and serves it as a download.
func (app *application) exportDataGET(w http.ResponseWriter, r *http.Request) {
	path, err := app.workoutService.Export(r.Context(), app.exportPath)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
