package engine

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrNoOrdinal is returned when a filename carries no embedded base-10
// integer. Without the ordinal the classifier cannot compare candidates
// against the image's own index and runs in a degraded mode where no
// numeric candidate is classified as a sequence number.
var ErrNoOrdinal = errors.New("filename has no embedded ordinal")

var ordinalRe = regexp.MustCompile(`\d+`)

// FilenameOrdinal extracts the first base-10 integer embedded in the
// filename, e.g. 33 from "033.jpg".
func FilenameOrdinal(filename string) (int, error) {
	m := ordinalRe.FindString(filename)
	if m == "" {
		return 0, ErrNoOrdinal
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, ErrNoOrdinal
	}
	return n, nil
}

// SequenceClassifier flags numeric candidates that are likely the image's
// own printed sequence number rather than its answer. OCR picks the index
// up constantly; proximity to the filename ordinal is the discriminating
// signal.
type SequenceClassifier struct {
	ordinal    int
	hasOrdinal bool
	distance   int
}

// NewSequenceClassifier derives a classifier from the filename. When the
// filename has no embedded ordinal the classifier is degraded: IsSequence
// always reports false, and Degraded lets the caller surface that instead
// of silently guessing.
func NewSequenceClassifier(filename string, distance int) *SequenceClassifier {
	c := &SequenceClassifier{distance: distance}
	if n, err := FilenameOrdinal(filename); err == nil {
		c.ordinal = n
		c.hasOrdinal = true
	}
	return c
}

// Degraded reports whether the filename lacked an ordinal.
func (c *SequenceClassifier) Degraded() bool {
	return !c.hasOrdinal
}

// Ordinal returns the embedded filename index, valid only when not degraded.
func (c *SequenceClassifier) Ordinal() int {
	return c.ordinal
}

// IsSequence reports whether the candidate text is likely the image's own
// sequence number. Non-digit candidates are never sequence numbers.
func (c *SequenceClassifier) IsSequence(candidate string) bool {
	if !isAllDigits(candidate) {
		return false
	}
	if !c.hasOrdinal {
		return false
	}

	n, err := strconv.Atoi(candidate)
	if err != nil {
		return false
	}

	if n == c.ordinal {
		return true
	}
	if len(candidate) == 1 && n >= 1 && n <= 9 {
		return true
	}
	if len(candidate) == 2 {
		// Far from the index it is a genuine numeric answer that happens
		// to look like one.
		diff := n - c.ordinal
		if diff < 0 {
			diff = -diff
		}
		if diff > c.distance {
			return false
		}
		if n >= 1 && n <= 100 {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
