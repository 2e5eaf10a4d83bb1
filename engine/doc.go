// Package engine turns noisy multi-region OCR output into a single
// best-guess answer string for a color-vision-test image.
//
// The pipeline crops a fixed set of candidate regions from the image,
// runs a pluggable text recognizer over every region/configuration
// combination, accumulates weighted answer candidates from the raw
// observations, separates candidates that are likely the image's own
// printed sequence number, and applies a priority cascade to pick the
// final answer. An empty result means "unresolved", not an error.
package engine
