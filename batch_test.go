package main

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cvanswers/engine"
)

type stubProcessor struct {
	selections map[string]engine.Selection
	err        error
	calls      int
}

func (s *stubProcessor) Process(_ context.Context, _ image.Image, filename string) (engine.Selection, error) {
	s.calls++
	if s.err != nil {
		return engine.Selection{}, s.err
	}
	return s.selections[filename], nil
}

// newTestApp builds an App over a temp dataset directory containing one
// small PNG per record, a fresh answer file and an isolated history db.
func newTestApp(t *testing.T, records []AnswerRecord, processor ImageProcessor) *App {
	t.Helper()
	dir := t.TempDir()

	for _, rec := range records {
		img := imaging.New(20, 20, color.White)
		require.NoError(t, imaging.Save(img, filepath.Join(dir, rec.Filename)))
	}

	answersPath := filepath.Join(dir, "answers.json")
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(answersPath, data, 0644))

	store, err := OpenAnswerStore(answersPath)
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "history.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ModificationHistory{}))

	app := &App{
		Store:      store,
		Database:   db,
		DatasetDir: dir,
	}
	app.SetProcessor(processor)
	return app
}

func TestProcessDataset(t *testing.T) {
	records := testRecords()
	processor := &stubProcessor{selections: map[string]engine.Selection{
		"002.jpg": {Answer: "骆驼", Rule: 1},
		"003.jpg": {}, // unresolved
	}}
	app := newTestApp(t, records, processor)

	report, err := app.ProcessDataset(context.Background(), BatchOptions{}, "")
	require.NoError(t, err)

	assert.Equal(t, BatchReport{Processed: 2, Updated: 1, Unresolved: 1, Skipped: 1}, report)
	assert.Equal(t, 2, processor.calls, "resolved entries are not re-evaluated")

	rec, ok := app.Store.Get("002.jpg")
	require.True(t, ok)
	assert.Equal(t, "骆驼", rec.Answer)

	// The run persisted the store and recorded the change.
	reloaded, err := OpenAnswerStore(filepath.Join(app.DatasetDir, "answers.json"))
	require.NoError(t, err)
	saved, _ := reloaded.Get("002.jpg")
	assert.Equal(t, "骆驼", saved.Answer)

	mods, err := GetAllModifications(app.Database)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "002.jpg", mods[0].Filename)
	assert.Equal(t, answerSourceAuto, mods[0].Source)
}

func TestProcessDatasetForce(t *testing.T) {
	records := testRecords()
	processor := &stubProcessor{selections: map[string]engine.Selection{
		"001.jpg": {Answer: "熊猫", Rule: 2},
		"002.jpg": {Answer: "骆驼", Rule: 1},
		"003.jpg": {Answer: "33", Rule: 2},
	}}
	app := newTestApp(t, records, processor)

	report, err := app.ProcessDataset(context.Background(), BatchOptions{Force: true}, "")
	require.NoError(t, err)
	assert.Equal(t, BatchReport{Processed: 3, Updated: 3}, report)

	rec, _ := app.Store.Get("001.jpg")
	assert.Equal(t, "熊猫", rec.Answer)
}

func TestProcessDatasetLimit(t *testing.T) {
	records := testRecords()
	processor := &stubProcessor{selections: map[string]engine.Selection{
		"002.jpg": {Answer: "骆驼", Rule: 1},
	}}
	app := newTestApp(t, records, processor)

	report, err := app.ProcessDataset(context.Background(), BatchOptions{Limit: 1}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, processor.calls)
}

func TestProcessDatasetFailingEntryDoesNotAbort(t *testing.T) {
	records := testRecords()
	processor := &stubProcessor{err: errors.New("recognizer offline")}
	app := newTestApp(t, records, processor)

	report, err := app.ProcessDataset(context.Background(), BatchOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 2, report.Processed)
}

func TestProcessDatasetMissingImageCounted(t *testing.T) {
	records := testRecords()
	processor := &stubProcessor{}
	app := newTestApp(t, records, processor)
	require.NoError(t, os.Remove(filepath.Join(app.DatasetDir, "002.jpg")))

	report, err := app.ProcessDataset(context.Background(), BatchOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Unresolved)
}

func TestProcessDatasetCancelled(t *testing.T) {
	records := testRecords()
	app := newTestApp(t, records, &stubProcessor{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := app.ProcessDataset(ctx, BatchOptions{}, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateEntryRecoversPanic(t *testing.T) {
	records := []AnswerRecord{{Filename: "001.jpg"}}
	app := newTestApp(t, records, panickyProcessor{})

	_, err := app.evaluateEntry(context.Background(), records[0], false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

type panickyProcessor struct{}

func (panickyProcessor) Process(context.Context, image.Image, string) (engine.Selection, error) {
	panic("native binding crashed")
}
