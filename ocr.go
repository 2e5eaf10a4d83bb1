package main

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"cvanswers/engine"
)

// EvaluateImage runs one answer entry through the recognition pipeline and
// returns the selection. With fetchOriginals set, the unmasked source image
// is downloaded first; a failed download falls back to the local masked
// copy instead of failing the entry.
func (app *App) EvaluateImage(ctx context.Context, rec AnswerRecord, fetchOriginals bool) (engine.Selection, error) {
	entryLogger := log.WithField("filename", rec.Filename)

	imagePath := app.datasetPath(rec.Filename)
	if fetchOriginals {
		originalPath, err := app.Fetcher.Fetch(ctx, rec.OriginalURL, rec.Filename)
		if err != nil {
			entryLogger.WithError(err).Warn("Failed to fetch original image, falling back to local copy")
		} else {
			imagePath = originalPath
		}
	}

	img, err := imaging.Open(imagePath)
	if err != nil {
		return engine.Selection{}, fmt.Errorf("error opening image %s: %w", imagePath, err)
	}

	entryLogger.Debug("Starting answer extraction")
	selection, err := app.Processor().Process(ctx, img, rec.Filename)
	if err != nil {
		return engine.Selection{}, fmt.Errorf("error evaluating %s: %w", rec.Filename, err)
	}
	return selection, nil
}

// applyAnswer writes a new answer into the store and records the change in
// the modification history.
func (app *App) applyAnswer(filename, answer, source string) error {
	previous, err := app.Store.UpdateAnswer(filename, answer)
	if err != nil {
		return err
	}

	record := ModificationHistory{
		Filename:      filename,
		PreviousValue: previous,
		NewValue:      answer,
		Source:        source,
	}
	if err := InsertModification(app.Database, record); err != nil {
		return fmt.Errorf("error recording modification for %s: %w", filename, err)
	}
	return nil
}
