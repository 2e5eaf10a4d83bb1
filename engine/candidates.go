package engine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category classifies how a candidate string was extracted. The category is
// fixed when the candidate is first created; later observations of the same
// text accumulate into the entry without retagging it.
type Category string

const (
	CategoryContentSplit Category = "content-extracted"
	CategoryDictionary   Category = "dictionary-known"
	CategoryNumeric      Category = "numeric"
	CategoryLetters      Category = "letters"
	CategoryCJKWord      Category = "cjk-word"
	CategorySymbol       Category = "symbol"
)

// Candidate is a normalized answer string accumulated from one or more
// observations.
type Candidate struct {
	Text     string
	Category Category

	// Score is the sum of confidence x category weight across observations.
	// It only ever grows.
	Score float64

	// Count is the number of contributing observations.
	Count int

	// Sources records where each contribution came from, for debugging.
	Sources []string

	bestPriority int
}

// MeanConfidence is the candidate's score averaged over its observation
// count, the confidence measure used by the selection thresholds.
func (c *Candidate) MeanConfidence() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.Score / float64(c.Count)
}

// Rank is the aggregate rank (score x count) used to order candidates.
func (c *Candidate) Rank() float64 {
	return c.Score * float64(c.Count)
}

// CandidateTable accumulates candidates for a single image. It is rebuilt
// from scratch per image; nothing survives across images.
type CandidateTable struct {
	byText map[string]*Candidate
	order  []*Candidate
}

// NewCandidateTable returns an empty table.
func NewCandidateTable() *CandidateTable {
	return &CandidateTable{byText: make(map[string]*Candidate)}
}

func (t *CandidateTable) add(text string, category Category, obs Observation, weight float64) {
	c, ok := t.byText[text]
	if !ok {
		c = &Candidate{
			Text:         text,
			Category:     category,
			bestPriority: obs.Region.Priority,
		}
		t.byText[text] = c
		t.order = append(t.order, c)
	}
	c.Score += obs.Confidence * weight
	c.Count++
	c.Sources = append(c.Sources, fmt.Sprintf("%s(%.2f)", obs.Region.Name, obs.Confidence))
	if obs.Region.Priority < c.bestPriority {
		c.bestPriority = obs.Region.Priority
	}
}

// Candidates returns the entries in insertion order.
func (t *CandidateTable) Candidates() []*Candidate {
	out := make([]*Candidate, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of distinct candidate strings.
func (t *CandidateTable) Len() int {
	return len(t.order)
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Enumeration idioms the datasets print in front of answers.
	enumPrefixRes = []*regexp.Regexp{
		regexp.MustCompile(`^\d+[\.、\s]`),
		regexp.MustCompile(`^[①②③④⑤⑥⑦⑧⑨⑩]`),
		regexp.MustCompile(`^第\d+题`),
		regexp.MustCompile(`^题目\d+`),
		regexp.MustCompile(`^\d+\s*[:：]`),
		regexp.MustCompile(`^[A-Z]\.`),
	}

	// "<digits><separator><rest>" forms; the trailing text is the answer.
	contentSplitRes = []*regexp.Regexp{
		regexp.MustCompile(`^\d+[\.、\s:：]\s*(.+)`),
		regexp.MustCompile(`^\d+\s+(.+)`),
		regexp.MustCompile(`^第?\d+题?\s*(.+)`),
	}

	numericRe      = regexp.MustCompile(`\b\d{1,4}\b`)
	letterRunRe    = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
	cjkWordRe      = regexp.MustCompile(`[\x{4e00}-\x{9fff}]{1,4}`)
	symbolRe       = regexp.MustCompile(`[△○□/\-]{1,5}`)
	singleLetterRe = regexp.MustCompile(`\b[A-Za-z]\b`)
)

// CleanText collapses whitespace runs and strips leading enumeration idioms.
// It is used to decide whether an observation carries anything beyond
// numbering noise; extraction itself works on the raw text so that the
// content-split patterns still see the printed index.
func CleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	for _, re := range enumPrefixRes {
		text = strings.TrimSpace(re.ReplaceAllString(text, ""))
	}
	return text
}

// Extractor turns raw observations into weighted candidate entries. The
// extraction steps are not mutually exclusive: a single observation may
// contribute candidates in several categories.
type Extractor struct {
	cfg  Config
	dict *Dictionary
}

// NewExtractor builds an extractor over the given tunables and vocabulary.
func NewExtractor(cfg Config, dict *Dictionary) *Extractor {
	return &Extractor{cfg: cfg, dict: dict}
}

// Extract updates the table with every candidate found in the observation.
func (e *Extractor) Extract(table *CandidateTable, obs Observation) {
	text := strings.TrimSpace(obs.Text)
	if text == "" || CleanText(text) == "" {
		return
	}

	w := e.cfg.Weights

	// Trailing text after a printed index is the strongest signal.
	for _, re := range contentSplitRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		content := strings.TrimSpace(m[1])
		if utf8.RuneCountInString(content) > 1 {
			table.add(content, CategoryContentSplit, obs, w.ContentSplit)
		}
	}

	for _, hit := range e.dict.Matches(text) {
		table.add(hit, CategoryDictionary, obs, w.Dictionary)
	}

	for _, num := range numericRe.FindAllString(text, -1) {
		if len(num) >= e.cfg.Thresholds.NumericMinDigits {
			table.add(num, CategoryNumeric, obs, w.Numeric)
		}
	}

	for _, run := range letterRunRe.FindAllString(text, -1) {
		table.add(run, CategoryLetters, obs, w.LetterRun)
	}

	for _, word := range cjkWordRe.FindAllString(text, -1) {
		table.add(word, CategoryCJKWord, obs, w.CJKWord)
	}

	for _, sym := range symbolRe.FindAllString(text, -1) {
		table.add(sym, CategorySymbol, obs, w.Symbol)
	}

	for _, letter := range singleLetterRe.FindAllString(text, -1) {
		table.add(letter, CategoryLetters, obs, w.SingleLetter)
	}
}
