package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cvanswers/internal/constants"
)

// AnswerStore holds the answer set in memory and persists it back to the
// JSON file the scraper produced. Records keep their file order so diffs
// against the scraped original stay reviewable.
type AnswerStore struct {
	mu      sync.RWMutex
	path    string
	records []AnswerRecord
	index   map[string]int // filename -> position in records
}

// OpenAnswerStore reads the answer file at path.
func OpenAnswerStore(path string) (*AnswerStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading answer file %s: %w", path, err)
	}

	var records []AnswerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error parsing answer file %s: %w", path, err)
	}

	index := make(map[string]int, len(records))
	for i, rec := range records {
		if rec.Filename == "" {
			return nil, fmt.Errorf("answer file %s: entry %d has no filename", path, i)
		}
		if _, exists := index[rec.Filename]; exists {
			log.WithField("filename", rec.Filename).Warn("Duplicate filename in answer file, keeping first entry")
			continue
		}
		index[rec.Filename] = i
	}

	return &AnswerStore{path: path, records: records, index: index}, nil
}

// Len returns the number of records.
func (s *AnswerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a copy of all records in file order.
func (s *AnswerStore) Records() []AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AnswerRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record for filename.
func (s *AnswerStore) Get(filename string) (AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[filename]
	if !ok {
		return AnswerRecord{}, false
	}
	return s.records[i], true
}

// UpdateAnswer replaces the answer of one record and returns the previous
// value. Only the answer field changes; filename and original URL are kept.
func (s *AnswerStore) UpdateAnswer(filename, answer string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[filename]
	if !ok {
		return "", fmt.Errorf("no record for %s", filename)
	}
	previous := s.records[i].Answer
	s.records[i].Answer = answer
	return previous, nil
}

// Save writes the records back to the answer file. The first save of a
// process preserves the untouched on-disk state as a .backup sibling; the
// write itself goes through a temp file and rename so a crash never leaves
// a half-written answer set.
func (s *AnswerStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.backupOnce(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return fmt.Errorf("error encoding answer file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing answer file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("error replacing answer file: %w", err)
	}
	return nil
}

func (s *AnswerStore) backupOnce() error {
	backupPath := s.path + ".backup"
	if _, err := os.Stat(backupPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking backup file: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading answer file for backup: %w", err)
	}
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("error writing backup file: %w", err)
	}
	log.WithField("backup", filepath.Base(backupPath)).Info("Created one-time backup of answer file")
	return nil
}

// Stats summarizes the resolution state of the answer set.
func (s *AnswerStore) Stats() DatasetStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := DatasetStats{Total: len(s.records)}
	for _, rec := range s.records {
		switch {
		case rec.Answer == "":
			stats.Empty++
		case rec.Answer == constants.PlaceholderAnswer:
			stats.Placeholders++
		default:
			stats.Resolved++
		}
	}
	return stats
}

// IsResolved reports whether a record already carries a real answer rather
// than the scraper's placeholder or an empty string.
func IsResolved(rec AnswerRecord) bool {
	return rec.Answer != "" && rec.Answer != constants.PlaceholderAnswer
}
