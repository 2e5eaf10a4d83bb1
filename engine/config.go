package engine

// Weights are the per-category multipliers applied to an observation's
// confidence when it contributes to a candidate's score. The values were
// chosen empirically against the scraped corpus; treat them as tunables
// to be recalibrated once a labeled validation set exists.
type Weights struct {
	// ContentSplit weighs answers extracted from "<digits><separator><rest>"
	// patterns. Splitting the printed index off the trailing text is the most
	// reliable signal available, hence the highest weight.
	ContentSplit float64 `json:"content_split"`

	// Dictionary weighs substring hits against the known-answer vocabulary.
	Dictionary float64 `json:"dictionary"`

	// CJKWord weighs runs of 1-4 ideographs.
	CJKWord float64 `json:"cjk_word"`

	// Numeric weighs 1-4 digit runs.
	Numeric float64 `json:"numeric"`

	// LetterRun weighs 2-6 character uppercase runs.
	LetterRun float64 `json:"letter_run"`

	// SingleLetter weighs isolated single letters.
	SingleLetter float64 `json:"single_letter"`

	// Symbol weighs runs from the marker glyph set (triangle, circle,
	// square, dash, slash).
	Symbol float64 `json:"symbol"`
}

// Thresholds are the confidence and length cutoffs used by the selector
// and the sequence-number classifier. Like Weights, these are empirical.
type Thresholds struct {
	// MinObservation drops recognizer results below this confidence before
	// they reach the extractor.
	MinObservation float64 `json:"min_observation"`

	// DictionaryConfidence is the mean confidence a dictionary-known
	// candidate needs to win outright (selection rule 1).
	DictionaryConfidence float64 `json:"dictionary_confidence"`

	// ContentConfidence is the mean confidence any content candidate needs
	// to be selected by aggregate rank (selection rule 2).
	ContentConfidence float64 `json:"content_confidence"`

	// SequenceConfidence is the mean confidence a sequence candidate needs
	// to be accepted when no content candidate exists (selection rule 4).
	SequenceConfidence float64 `json:"sequence_confidence"`

	// SequenceMinDigits is the minimum digit count for rule 4.
	SequenceMinDigits int `json:"sequence_min_digits"`

	// SequenceDistance is the window around the filename ordinal inside
	// which a two-digit candidate is still treated as the image's own index.
	SequenceDistance int `json:"sequence_distance"`

	// NumericMinDigits is the minimum length for a digit run to become a
	// candidate on its own.
	NumericMinDigits int `json:"numeric_min_digits"`
}

// Config bundles the tunables for one pipeline instance.
type Config struct {
	Weights    Weights    `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`

	// UpscaleFactor enlarges cropped regions before recognition. Small
	// printed answers recognize noticeably better at 3-4x.
	UpscaleFactor float64 `json:"upscale_factor"`

	// MaxParallel bounds the number of in-flight recognizer calls per image.
	MaxParallel int `json:"max_parallel"`
}

// DefaultConfig returns the tuning used for the scraped corpus.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			ContentSplit: 4.0,
			Dictionary:   3.0,
			CJKWord:      2.0,
			Numeric:      1.5,
			LetterRun:    1.5,
			SingleLetter: 1.2,
			Symbol:       1.5,
		},
		Thresholds: Thresholds{
			MinObservation:       0.05,
			DictionaryConfidence: 0.4,
			ContentConfidence:    0.3,
			SequenceConfidence:   0.7,
			SequenceMinDigits:    3,
			SequenceDistance:     20,
			NumericMinDigits:     2,
		},
		UpscaleFactor: 3.0,
		MaxParallel:   8,
	}
}
