package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"cvanswers/engine"
)

// answerSourceAuto and answerSourceManual tag modification history rows.
const (
	answerSourceAuto   = "auto"
	answerSourceManual = "manual"
)

// ProcessDataset evaluates every unresolved answer entry and persists the
// answers that were found. One failing entry never aborts the run; it is
// counted and the run moves on. jobID may be empty when the run was not
// started through the job queue.
func (app *App) ProcessDataset(ctx context.Context, opts BatchOptions, jobID string) (BatchReport, error) {
	records := app.Store.Records()
	report := BatchReport{}

	log.WithFields(logrus.Fields{
		"entries": len(records),
		"force":   opts.Force,
	}).Info("Starting dataset run")

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if opts.Limit > 0 && report.Processed >= opts.Limit {
			break
		}
		if IsResolved(rec) && !opts.Force {
			report.Skipped++
			continue
		}

		report.Processed++
		selection, err := app.evaluateEntry(ctx, rec, opts.FetchOriginals)
		if err != nil {
			log.WithError(err).WithField("filename", rec.Filename).Error("Entry evaluation failed")
			report.Failed++
		} else if selection.Answer == "" {
			log.WithField("filename", rec.Filename).Info("No answer found, entry left for manual review")
			report.Unresolved++
		} else {
			if err := app.applyAnswer(rec.Filename, selection.Answer, answerSourceAuto); err != nil {
				log.WithError(err).WithField("filename", rec.Filename).Error("Failed to apply answer")
				report.Failed++
			} else {
				log.WithFields(logrus.Fields{
					"filename": rec.Filename,
					"answer":   selection.Answer,
					"rule":     selection.Rule,
				}).Info("Answer extracted")
				report.Updated++
			}
		}

		if jobID != "" {
			jobStore.updateEntriesDone(jobID, report.Processed)
		}
	}

	if report.Updated > 0 {
		if err := app.Store.Save(); err != nil {
			return report, fmt.Errorf("error saving answer file: %w", err)
		}
	}

	printBatchReport(report)
	return report, nil
}

// evaluateEntry shields the run from a panicking recognizer binding. Native
// OCR bindings have crashed on malformed crops before; a lost entry is
// acceptable, a lost run is not.
func (app *App) evaluateEntry(ctx context.Context, rec AnswerRecord, fetchOriginals bool) (selection engine.Selection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while evaluating %s: %v", rec.Filename, r)
		}
	}()
	return app.EvaluateImage(ctx, rec, fetchOriginals)
}

func printBatchReport(report BatchReport) {
	color.Green("Updated:    %d", report.Updated)
	color.Yellow("Unresolved: %d", report.Unresolved)
	if report.Failed > 0 {
		color.Red("Failed:     %d", report.Failed)
	}
	fmt.Printf("Processed: %d, skipped: %d\n", report.Processed, report.Skipped)
}

// processPendingAnswers evaluates a small slice of unresolved entries.
// Returns the number of entries processed so the background loop can idle
// when the dataset is fully resolved.
func (app *App) processPendingAnswers(ctx context.Context) (int, error) {
	report, err := app.ProcessDataset(ctx, BatchOptions{
		Limit:          autoBatchSize,
		FetchOriginals: app.fetchOriginals,
	}, "")
	if err != nil {
		return report.Processed, err
	}
	return report.Processed, nil
}

// autoBatchSize bounds one background iteration so manual API requests
// interleave with the crawl instead of waiting behind the full dataset.
const autoBatchSize = 5

// StartBackgroundTasks polls for unresolved entries and processes them in
// small batches, backing off exponentially on repeated errors.
func StartBackgroundTasks(ctx context.Context, app *App) {
	go func() {
		minBackoffDuration := 10 * time.Second
		maxBackoffDuration := time.Hour
		pollingInterval := 30 * time.Second

		backoffDuration := minBackoffDuration
		for {
			if ctx.Err() != nil {
				return
			}

			processedCount, err := app.processPendingAnswers(ctx)
			if err != nil {
				log.Errorf("Error in processPendingAnswers: %v", err)
				time.Sleep(backoffDuration)
				backoffDuration *= 2 // Exponential backoff
				if backoffDuration > maxBackoffDuration {
					log.Warnf("Repeated errors in processPendingAnswers detected. Setting backoff to %v", maxBackoffDuration)
					backoffDuration = maxBackoffDuration
				}
			} else {
				backoffDuration = minBackoffDuration
			}

			if processedCount == 0 {
				time.Sleep(pollingInterval)
			}
		}
	}()
}
