package engine

import "context"

// Point is one corner of a recognized text polygon, in pixels relative to
// the recognized sub-image.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RawResult is one text fragment returned by a recognizer invocation.
type RawResult struct {
	Text       string
	Confidence float64
	Polygon    [4]Point
}

// Observation ties a raw recognizer result to the region it came from.
// Observations live only for the duration of one image's evaluation.
type Observation struct {
	Text       string
	Confidence float64
	Region     Region
	Polygon    [4]Point
}

// Configuration is one recognizer setup to try per region. The same answer
// frequently surfaces only under one particular language/segmentation
// combination, so the pipeline runs all of them and lets the candidate
// table sort it out.
type Configuration struct {
	// Language is a recognizer language hint, e.g. "chi_sim" or "eng".
	Language string

	// SegMode is a recognizer-specific page segmentation mode. Zero means
	// the recognizer's default.
	SegMode int
}

// DefaultConfigurations covers mixed-script answers: block, line and word
// segmentation in both Simplified Chinese and English.
func DefaultConfigurations() []Configuration {
	return []Configuration{
		{Language: "chi_sim", SegMode: 6},
		{Language: "chi_sim", SegMode: 7},
		{Language: "chi_sim", SegMode: 8},
		{Language: "eng", SegMode: 6},
		{Language: "eng", SegMode: 7},
		{Language: "eng", SegMode: 8},
	}
}

// Recognizer is the external text-recognition capability. The image is
// passed as encoded bytes (PNG or JPEG). Implementations must not mutate
// their input, may return an empty result set, and are expected to be safe
// for concurrent use, serializing internally if the backing model is not
// reentrant.
type Recognizer interface {
	Recognize(ctx context.Context, imageContent []byte, cfg Configuration) ([]RawResult, error)
}
