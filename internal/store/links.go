package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LinkHeader is the single column of the link snapshot
const LinkHeader = "URL"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LinkFile is a link snapshot at a fixed path
type LinkFile struct {
	Path string
}

// WriteLinks replaces the snapshot with links
func (l LinkFile) WriteLinks(links []string) error {
	return WriteLinks(l.Path, links)
}

// ReadLinks returns the links of the snapshot
func (l LinkFile) ReadLinks() ([]string, error) {
	return ReadLinks(l.Path)
}

// WriteLinks overwrites path with the sorted links under a URL header. The
// file is written to a temporary sibling and renamed, so readers never see a
// partial snapshot.
func WriteLinks(path string, links []string) error {
	sorted := append([]string(nil), links...)
	sort.Strings(sorted)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{LinkHeader}); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	for _, link := range sorted {
		if err := w.Write([]string{link}); err != nil {
			tmp.Close()
			return fmt.Errorf("write snapshot: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// ReadLinks reads a link snapshot in file order. A leading BOM, the header
// row and blank rows are skipped. A missing file yields an error matching
// fs.ErrNotExist.
func ReadLinks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var links []string
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse links %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if first {
			first = false
			if strings.EqualFold(cell, LinkHeader) {
				continue
			}
		}
		if cell == "" {
			continue
		}
		links = append(links, cell)
	}
	return links, nil
}
