package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// LoadSubmission reads one raw submission file.
func LoadSubmission(path string) (model.Submission, error) {
	var sub model.Submission
	data, err := os.ReadFile(path)
	if err != nil {
		return sub, fmt.Errorf("read submission: %w", err)
	}
	if err := json.Unmarshal(data, &sub); err != nil {
		return sub, fmt.Errorf("parse submission %s: %w", filepath.Base(path), err)
	}
	return sub, nil
}

// ListSubmissions returns the submission files in a directory, sorted by
// name so runs are deterministic.
func ListSubmissions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read submissions dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// RejectRecord is one rejects-log line: a quarantined or refused input with
// enough provenance to review it by hand.
type RejectRecord struct {
	Submission string    `json:"submission"`
	Raw        string    `json:"raw,omitempty"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

// RejectsLog appends reject records as JSON lines.
type RejectsLog struct {
	path string
}

// NewRejectsLog creates a log writing to the given path.
func NewRejectsLog(path string) *RejectsLog {
	return &RejectsLog{path: path}
}

// Append writes records to the log, creating it on first use.
func (l *RejectsLog) Append(records []RejectRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create rejects dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open rejects log: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write rejects log: %w", err)
		}
	}
	return nil
}
