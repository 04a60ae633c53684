package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mvantaa/liftlog/internal/errors"
)

// Flash message keys in the scs session.
const (
	flashKey      = "flash"
	flashErrorKey = "flashError"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.render(w, r, http.StatusInternalServerError, "error", BaseTemplateData{})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusNotFound, "not-found", app.newBaseTemplateData(r))
}

// redirect detects if the request is originating from a fetch API call or a top-level navigation and points the user
// to the correct URL.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("Sec-Fetch-Dest") == "empty" {
		w.Header().Set("Content-Location", path)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, path, http.StatusSeeOther)
}

// parseIntParam parses a numeric path parameter from the request URL.
// On failure, sends HTTP 404 response automatically.
func (app *application) parseIntParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		app.notFound(w, r)
		return 0, false
	}
	return value, true
}

// parseOptionalFloat parses a form value into a float, empty string means zero.
func parseOptionalFloat(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse float", slog.String("value", value))
	}
	return f, nil
}

// parseOptionalInt parses a form value into an int, empty string means zero.
func parseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrap(err, "parse int", slog.String("value", value))
	}
	return i, nil
}
