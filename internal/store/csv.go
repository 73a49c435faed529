package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/law-makers/immocrawl/pkg/models"
)

// CSVSink appends records to a CSV file. The header is written only when the
// file is new or empty, so successive runs keep appending rows.
type CSVSink struct {
	path       string
	f          *os.File
	buf        *bufio.Writer
	w          *csv.Writer
	flushEvery int
	pending    int
	rows       int
}

// OpenCSV opens path for appending. Rows are flushed and synced to disk every
// flushEvery records and on Close.
func OpenCSV(path string, flushEvery int) (*CSVSink, error) {
	if flushEvery <= 0 {
		flushEvery = 1
	}

	needHeader := true
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		needHeader = false
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	buf := bufio.NewWriter(f)
	s := &CSVSink{
		path:       path,
		f:          f,
		buf:        buf,
		w:          csv.NewWriter(buf),
		flushEvery: flushEvery,
	}

	if needHeader {
		if err := s.w.Write(models.RecordColumns); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := s.flush(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *CSVSink) Write(_ context.Context, rec models.PropertyRecord) error {
	if err := s.w.Write(rec.Row()); err != nil {
		return fmt.Errorf("write record %s: %w", rec.URL, err)
	}
	s.rows++
	s.pending++
	if s.pending >= s.flushEvery {
		return s.flush()
	}
	return nil
}

// Rows returns the number of records written through this sink
func (s *CSVSink) Rows() int {
	return s.rows
}

func (s *CSVSink) Path() string {
	return s.path
}

// flush pushes buffered rows to the file and syncs it
func (s *CSVSink) flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	s.pending = 0
	return nil
}

func (s *CSVSink) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.flush()
	if cerr := s.f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", s.path, cerr)
	}
	s.f = nil
	return err
}
