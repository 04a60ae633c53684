package main

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/mvantaa/liftlog/internal/e2etest"
	"github.com/mvantaa/liftlog/internal/testhelpers"
)

func Test_application_plan(t *testing.T) {
	var (
		ctx = t.Context()
		doc *goquery.Document
		err error
	)
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	client := server.Client()

	if doc, err = client.GetDoc(ctx, "/plan"); err != nil {
		t.Fatalf("Failed to get plan page: %v", err)
	}

	t.Run("Lists all seven days with the current one marked", func(t *testing.T) {
		if count := doc.Find(".days li").Length(); count != 7 {
			t.Errorf("Expected 7 plan days, got %d", count)
		}
		current := doc.Find(".days li.current")
		if current.Length() != 1 {
			t.Fatalf("Expected exactly 1 current day, got %d", current.Length())
		}
		if !strings.Contains(current.Text(), "Legs — Quad Focus + Abs") {
			t.Errorf("Expected day 1 to be up next, got: %s", current.Text())
		}
	})

	t.Run("Day detail shows prescriptions and superset partners", func(t *testing.T) {
		dayDoc, getErr := client.GetDoc(ctx, "/plan/2")
		if getErr != nil {
			t.Fatalf("Failed to get day page: %v", getErr)
		}
		heading := dayDoc.Find("h1").First().Text()
		if !strings.Contains(heading, "Push — Chest/Shoulders/Triceps + Abs") {
			t.Errorf("Expected day 2 heading, got: %s", heading)
		}
		first := dayDoc.Find(".exercises li").First()
		if !strings.Contains(first.Text(), "Flat Barbell Bench Press") {
			t.Errorf("Expected Flat Barbell Bench Press first, got: %s", first.Text())
		}
		if !strings.Contains(first.Find(".prescription").Text(), "4 × 6–8") {
			t.Errorf("Expected 4 × 6–8 prescription, got: %s", first.Find(".prescription").Text())
		}
	})

	t.Run("Unknown day returns 404", func(t *testing.T) {
		resp, getErr := client.Get(ctx, "/plan/999")
		if getErr != nil {
			t.Fatalf("Failed to get unknown day: %v", getErr)
		}
		resp.Body.Close()
		if resp.StatusCode != 404 {
			t.Errorf("Expected 404 for unknown day, got %d", resp.StatusCode)
		}
	})

	t.Run("Starting from a day page overrides the rotation", func(t *testing.T) {
		dayDoc, getErr := client.GetDoc(ctx, "/plan/3")
		if getErr != nil {
			t.Fatalf("Failed to get day page: %v", getErr)
		}
		sessionDoc, submitErr := client.SubmitForm(ctx, dayDoc, "/session/start", nil)
		if submitErr != nil {
			t.Fatalf("Failed to start workout from day page: %v", submitErr)
		}
		heading := sessionDoc.Find("h1").First().Text()
		if !strings.Contains(heading, "Pull — Back/Biceps + Abs") {
			t.Errorf("Expected session for day 3, got: %s", heading)
		}
	})
}
