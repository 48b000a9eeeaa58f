// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package readinglist loads a reading-list export (Goodreads library CSV)
// into BookEntry records and writes the augmented result table back out.
package readinglist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/find-my-books/pkg/types"
)

// ErrFileNotFound is returned when the export file does not exist.
var ErrFileNotFound = errors.New("reading list file not found")

// ErrMissingColumn is matched by every MissingColumnError.
var ErrMissingColumn = errors.New("missing required column")

// MissingColumnError names a required column absent from the header row.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s %q", ErrMissingColumn, e.Column)
}

// Is lets errors.Is(err, ErrMissingColumn) match.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Load opens the export at path and returns the unread entries in file order.
func Load(path string, cfg types.LoaderConfig) ([]types.BookEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("opening reading list: %w", err)
	}
	defer f.Close()

	books, err := Parse(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return books, nil
}

// Parse reads a delimited export with a header row and keeps the rows whose
// shelf column equals cfg.UnreadShelf. Any error aborts the whole parse; no
// partial list is returned.
func Parse(r io.Reader, cfg types.LoaderConfig) ([]types.BookEntry, error) {
	cfg = cfg.WithDefaults()

	// Goodreads writes ISBN cells as ="0441172717".
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &MissingColumnError{Column: cfg.TitleColumn}
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols, err := columnIndex(header, cfg.TitleColumn, cfg.AuthorColumn, cfg.ShelfColumn)
	if err != nil {
		return nil, err
	}
	titleIdx, authorIdx, shelfIdx := cols[0], cols[1], cols[2]

	var books []types.BookEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if field(record, shelfIdx) != cfg.UnreadShelf {
			continue
		}
		books = append(books, types.NewBookEntry(field(record, titleIdx), field(record, authorIdx)))
	}
	return books, nil
}

// columnIndex returns the header positions of names, in order.
func columnIndex(header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	idx := make([]int, len(names))
	for i, n := range names {
		p, ok := pos[n]
		if !ok {
			return nil, &MissingColumnError{Column: n}
		}
		idx[i] = p
	}
	return idx, nil
}

// field returns record[i], or "" for short rows.
func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
