package main

import (
	"context"
	"image"

	"cvanswers/engine"
)

// AnswerRecord is one entry of the answers file. Field order and JSON names
// mirror what the scraper emitted so the file round-trips unchanged.
type AnswerRecord struct {
	Filename    string `json:"filename"`
	OriginalURL string `json:"original_url,omitempty"`
	Answer      string `json:"answer"`
}

// UpdateAnswerRequest is the payload for manual answer corrections.
type UpdateAnswerRequest struct {
	Answer string `json:"answer"`
}

// DatasetStats summarizes the resolution state of the answer set.
type DatasetStats struct {
	Total        int `json:"total"`
	Resolved     int `json:"resolved"`
	Placeholders int `json:"placeholders"`
	Empty        int `json:"empty"`
}

// BatchOptions control a dataset run.
type BatchOptions struct {
	// Force re-evaluates entries that already hold a real answer.
	Force bool `json:"force"`

	// FetchOriginals downloads the unmasked source image for each entry
	// before recognition instead of using the local masked copy.
	FetchOriginals bool `json:"fetch_originals"`

	// Limit stops the run after this many entries were processed. Zero
	// means no limit.
	Limit int `json:"limit"`
}

// BatchReport is the outcome of a dataset run.
type BatchReport struct {
	Processed  int `json:"processed"`
	Updated    int `json:"updated"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// ImageProcessor is the per-image evaluation dependency of the batch layer,
// satisfied by engine.Pipeline.
type ImageProcessor interface {
	Process(ctx context.Context, img image.Image, filename string) (engine.Selection, error)
}
