// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package readinglist

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/find-my-books/pkg/types"
)

// DefaultOutputPath derives the output path from the input path by
// replacing its .csv extension with "_output" plus the format extension.
func DefaultOutputPath(inputPath string, format types.OutputFormat) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + "_output" + format.Extension()
}

// WriteCSV writes the result table: Title, Author, then one column per
// library in catalog order.
func WriteCSV(w io.Writer, books []types.BookEntry, libs []types.LibraryDefinition) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Title", "Author"}, types.LibraryNames(libs)...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(header))
	for _, b := range books {
		row[0], row[1] = b.Title, b.Author
		for i, l := range libs {
			row[2+i] = b.Results[l.Name]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %q: %w", b.Title, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the books as indented JSON.
func WriteJSON(w io.Writer, books []types.BookEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(nonNil(books))
}

// WriteYAML writes the books as a YAML list.
func WriteYAML(w io.Writer, books []types.BookEntry) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(nonNil(books)); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// WriteFile writes the table to path in one of the file formats. The file is
// written to a temporary name and renamed on success so a failed run never
// leaves a truncated output behind.
func WriteFile(path string, format types.OutputFormat, books []types.BookEntry, libs []types.LibraryDefinition) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".find-my-books-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("setting output file mode: %w", err)
	}

	var writeErr error
	switch format {
	case types.OutputCSV, "":
		writeErr = WriteCSV(tmp, books, libs)
	case types.OutputJSON:
		writeErr = WriteJSON(tmp, books)
	case types.OutputYAML:
		writeErr = WriteYAML(tmp, books)
	default:
		writeErr = fmt.Errorf("unsupported file format %q", format)
	}
	closeErr := tmp.Close()

	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func nonNil(books []types.BookEntry) []types.BookEntry {
	if books == nil {
		return []types.BookEntry{}
	}
	return books
}
