package engine

import "sort"

// Selection describes the outcome of answer selection for one image.
type Selection struct {
	// Answer is the chosen answer string, empty when unresolved.
	Answer string

	// Candidate is the winning entry, nil when unresolved.
	Candidate *Candidate

	// Rule is the selection rule that fired (1-4), 0 when unresolved.
	Rule int
}

// SelectAnswer partitions the candidate table into content and sequence
// sets and applies the priority cascade, first matching rule wins:
//
//  1. dictionary-known content candidate above the dictionary confidence
//  2. highest-ranked content candidate above the content confidence
//  3. highest-ranked content candidate, unconditionally
//  4. sequence candidate with at least SequenceMinDigits digits above the
//     strict sequence confidence (it risks being the image index)
//  5. nothing — unresolved
//
// The function is pure: deterministic for identical tables and classifier
// state, no retries, no external lookups.
func SelectAnswer(table *CandidateTable, seq *SequenceClassifier, dict *Dictionary, th Thresholds) Selection {
	candidates := table.Candidates()
	if len(candidates) == 0 {
		return Selection{}
	}

	// Aggregate rank first; region priority then insertion order break ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Rank(), candidates[j].Rank()
		if ri != rj {
			return ri > rj
		}
		return candidates[i].bestPriority < candidates[j].bestPriority
	})

	var content, sequence []*Candidate
	for _, c := range candidates {
		if seq.IsSequence(c.Text) {
			sequence = append(sequence, c)
		} else {
			content = append(content, c)
		}
	}

	if len(content) > 0 {
		for _, c := range content {
			if dict.Known(c.Text) && c.MeanConfidence() > th.DictionaryConfidence {
				return Selection{Answer: c.Text, Candidate: c, Rule: 1}
			}
		}
		for _, c := range content {
			if c.MeanConfidence() > th.ContentConfidence && len(c.Text) >= 1 {
				return Selection{Answer: c.Text, Candidate: c, Rule: 2}
			}
		}
		return Selection{Answer: content[0].Text, Candidate: content[0], Rule: 3}
	}

	for _, c := range sequence {
		if c.MeanConfidence() > th.SequenceConfidence && len(c.Text) >= th.SequenceMinDigits {
			return Selection{Answer: c.Text, Candidate: c, Rule: 4}
		}
	}

	return Selection{}
}
