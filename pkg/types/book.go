// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for find-my-books: reading-list
// entries, library definitions with their availability rules, and the
// configuration consumed by each stage.
package types

// BookEntry is one unread entry from the reading-list export together with
// the per-library availability results.
type BookEntry struct {
	// Title is the book title exactly as it appears in the export.
	Title string `json:"title" yaml:"title"`

	// Author is the primary author as it appears in the export.
	Author string `json:"author" yaml:"author"`

	// Results maps a library name to the search URL when the book was found
	// there, or to the empty string when it was not.
	Results map[string]string `json:"results" yaml:"results"`
}

// NewBookEntry returns an entry with an empty result mapping.
func NewBookEntry(title, author string) BookEntry {
	return BookEntry{
		Title:   title,
		Author:  author,
		Results: make(map[string]string),
	}
}

// Result returns the stored value for library and whether a value exists.
func (b BookEntry) Result(library string) (string, bool) {
	v, ok := b.Results[library]
	return v, ok
}

// Available reports whether the book was found in library.
func (b BookEntry) Available(library string) bool {
	return b.Results[library] != ""
}
