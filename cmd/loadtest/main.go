// Command loadtest hammers a running server with the traffic pattern of a
// lifter mid-workout: a burst of page loads and rest-timer polls between sets.
// The app stores a single lifter's data, so writes run as one sequential
// workout while reads fan out concurrently.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mvantaa/liftlog/internal/e2etest"
	"github.com/mvantaa/liftlog/internal/logging"
	"github.com/mvantaa/liftlog/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	smokeTimeout         = 10 * time.Second
	readBurstTimeout     = 2 * time.Minute
	maxConcurrentReaders = 20
	readIterations       = 200
	successRateThreshold = 95.0
	percentage           = 100
	expectedArgsCount    = 2
)

// readPaths are the pages and endpoints a lifter hits between sets.
var readPaths = []string{ //nolint:gochecknoglobals // fixed scenario.
	"/",
	"/plan",
	"/history",
	"/records",
	"/settings",
	"/api/rest",
	"/api/healthy",
}

// smokeWorkout walks one complete workout through the UI: start the session,
// log a set on the first exercise, and finish.
func smokeWorkout(ctx context.Context, client *e2etest.Client, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, smokeTimeout)
	defer cancel()

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get home page: %w", err)
	}

	if doc, err = client.SubmitForm(ctx, doc, "/session/start", nil); err != nil {
		return fmt.Errorf("start workout: %w", err)
	}

	fields := map[string]string{
		"Reps": "8",
		"RPE":  "7",
	}
	// Timed exercises prescribe a duration instead of weight and reps.
	if _, findErr := e2etest.FindInputForLabel(doc.Selection, "Weight (kg)"); findErr == nil {
		fields["Weight (kg)"] = "40"
	} else {
		fields = map[string]string{"Duration (seconds)": "45", "RPE": "7"}
	}
	if doc, err = client.SubmitForm(ctx, doc, "/session/sets", fields); err != nil {
		return fmt.Errorf("log set: %w", err)
	}

	if doc, err = client.SubmitForm(ctx, doc, "/session/finish", nil); err != nil {
		return fmt.Errorf("finish workout: %w", err)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "smoke workout completed",
		slog.String("summary_url", doc.Url.Path))
	return nil
}

// runReadBurst fires concurrent page loads and reports the success rate.
func runReadBurst(ctx context.Context, serverURL string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, readBurstTimeout)
	defer cancel()

	var successCount, failureCount int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReaders)

	for i := range readIterations {
		path := readPaths[i%len(readPaths)]
		g.Go(func() error {
			client, err := e2etest.NewClient(serverURL)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			resp, err := client.Get(ctx, path)
			if err != nil {
				atomic.AddInt64(&failureCount, 1)
				logger.LogAttrs(ctx, slog.LevelWarn, "read failed",
					slog.String("path", path),
					slog.Any("error", err))
				return nil // Keep the burst going, the rate check decides.
			}
			resp.Body.Close()
			if resp.StatusCode >= 500 { //nolint:mnd // server errors fail the run.
				atomic.AddInt64(&failureCount, 1)
				logger.LogAttrs(ctx, slog.LevelWarn, "read returned server error",
					slog.String("path", path),
					slog.Int("status", resp.StatusCode))
				return nil
			}
			atomic.AddInt64(&successCount, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("read burst: %w", err)
	}

	successRate := float64(successCount) / float64(readIterations) * percentage
	logger.LogAttrs(ctx, slog.LevelInfo, "read burst completed",
		slog.Int64("successful", successCount),
		slog.Int64("failed", failureCount),
		slog.Float64("success_rate", successRate))

	if successRate < successRateThreshold {
		return fmt.Errorf("success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: loadtest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))

	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	if err = smokeWorkout(ctx, client, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke workout failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err = runReadBurst(ctx, url, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "load test completed",
		slog.Duration("total_duration", time.Since(start)),
		slog.Int("read_iterations", readIterations))
}
