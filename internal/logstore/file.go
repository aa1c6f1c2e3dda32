package logstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	yearLayout  = "2006"
	monthLayout = "01-2006"
	dayLayout   = "01-02-2006"
)

// FileStore appends JSON lines to daily-rotated files laid out as
// <root>/<year>/<mm-yyyy>/<mm-dd-yyyy>.log. Each record is marshalled to one
// buffer and written with a single append, so a crash mid-write never
// corrupts records already on disk.
type FileStore struct {
	root    string
	mu      sync.Mutex
	current *os.File
	curDate string
}

// NewFileStore constructs a file store rooted at root, creating it if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("file store: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Append implements Store.
func (s *FileStore) Append(_ context.Context, entry Record) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("file store: marshal record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateLocked(entry); err != nil {
		return err
	}
	if _, err := s.current.Write(line); err != nil {
		return fmt.Errorf("file store: append: %w", err)
	}
	return nil
}

// Close releases the current log file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	s.curDate = ""
	return err
}

func (s *FileStore) rotateLocked(entry Record) error {
	date := entry.Time.Format(dayLayout)
	if s.current != nil && s.curDate == date {
		return nil
	}
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}

	dir := filepath.Join(s.root, entry.Time.Format(yearLayout), entry.Time.Format(monthLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file store: create log dir: %w", err)
	}
	path := filepath.Join(dir, date+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("file store: open %s: %w", path, err)
	}
	s.current = f
	s.curDate = date
	return nil
}
