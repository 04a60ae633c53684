package main

import (
	"fmt"
	"net/http"
)

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		noSession = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				commonContext(app.timeout(next))))))
		}
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
					commonContext(app.timeout(next))))))))
		}
	)

	mux.Handle("POST /session/start", session(http.HandlerFunc(app.sessionStartPOST)))
	mux.Handle("GET /session", session(http.HandlerFunc(app.sessionGET)))
	mux.Handle("POST /session/sets", session(http.HandlerFunc(app.sessionLogSetPOST)))
	mux.Handle("POST /session/exercises/{index}", session(http.HandlerFunc(app.sessionNavigatePOST)))
	mux.Handle("POST /session/rest/adjust", session(http.HandlerFunc(app.restAdjustPOST)))
	mux.Handle("POST /session/rest/skip", session(http.HandlerFunc(app.restSkipPOST)))
	mux.Handle("POST /session/finish", session(http.HandlerFunc(app.sessionFinishPOST)))
	mux.Handle("POST /session/abandon", session(http.HandlerFunc(app.sessionAbandonPOST)))
	mux.Handle("GET /sessions/{sessionID}", session(http.HandlerFunc(app.sessionSummaryGET)))

	mux.Handle("GET /history", session(http.HandlerFunc(app.historyGET)))
	mux.Handle("GET /records", session(http.HandlerFunc(app.recordsGET)))

	mux.Handle("GET /plan", session(http.HandlerFunc(app.planGET)))
	mux.Handle("GET /plan/{dayID}", session(http.HandlerFunc(app.planDayGET)))

	mux.Handle("GET /exercises/{exerciseID}", session(http.HandlerFunc(app.exerciseInfoGET)))
	mux.Handle("POST /exercises/{exerciseID}/form-cue", session(http.HandlerFunc(app.exerciseFormCuePOST)))
	mux.Handle("POST /exercises/{exerciseID}/rest", session(http.HandlerFunc(app.exerciseRestOverridePOST)))

	mux.Handle("GET /settings", session(http.HandlerFunc(app.settingsGET)))
	mux.Handle("POST /settings/theme", session(http.HandlerFunc(app.settingsThemePOST)))
	mux.Handle("GET /settings/export-data", session(http.HandlerFunc(app.exportDataGET)))

	mux.Handle("GET /api/healthy", noSession(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/rest", session(http.HandlerFunc(app.restStatusGET)))
	mux.Handle("GET /api/test/timeout", noSession(http.HandlerFunc(app.testTimeout)))

	// Home route (most specific)
	mux.Handle("GET /{$}", session(http.HandlerFunc(app.home)))

	// File server with custom 404 handling
	fileServerHandler, err := app.fileServerHandler()
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", fileServerHandler)

	return mux, nil
}
