// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog loads the library definitions searched by the availability
// check. A catalog file is a YAML (or JSON) document:
//
//	libraries:
//	  - name: LibX
//	    url: https://libx.example/search?t={TITLE}&a={AUTHOR}
//	    response_length_threshold: 500
//	  - name: LibY
//	    url: https://liby.example/?q={TITLE}
//	    not_found_marker: "No results"
//
// Each entry carries exactly one detection rule.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/find-my-books/pkg/types"
)

// ErrInvalidCatalog wraps every catalog validation failure.
var ErrInvalidCatalog = errors.New("invalid library catalog")

// reservedNames are the fixed output columns preceding the library columns.
var reservedNames = map[string]bool{"Title": true, "Author": true}

// document is the on-disk layout of a catalog file.
type document struct {
	Libraries []entry `yaml:"libraries"`
}

type entry struct {
	Name      string  `yaml:"name"`
	URL       string  `yaml:"url"`
	Threshold *int    `yaml:"response_length_threshold,omitempty"`
	Direction string  `yaml:"threshold_direction,omitempty"`
	Marker    *string `yaml:"not_found_marker,omitempty"`
}

// Load reads and validates the catalog file at path.
func Load(path string) ([]types.LibraryDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library catalog: %w", err)
	}
	libs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return libs, nil
}

// Parse decodes and validates a catalog document. Unknown fields are
// rejected. The first malformed entry fails the whole catalog.
func Parse(data []byte) ([]types.LibraryDefinition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(doc.Libraries) == 0 {
		return nil, fmt.Errorf("%w: no libraries defined", ErrInvalidCatalog)
	}

	seen := make(map[string]bool, len(doc.Libraries))
	libs := make([]types.LibraryDefinition, 0, len(doc.Libraries))
	for i, e := range doc.Libraries {
		lib, err := e.definition()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i+1, err)
		}
		if seen[lib.Name] {
			return nil, fmt.Errorf("%w: entry %d: duplicate library name %q", ErrInvalidCatalog, i+1, lib.Name)
		}
		seen[lib.Name] = true
		libs = append(libs, lib)
	}
	return libs, nil
}

func (e entry) definition() (types.LibraryDefinition, error) {
	if e.Name == "" {
		return types.LibraryDefinition{}, errors.New("name is required")
	}
	if reservedNames[e.Name] {
		return types.LibraryDefinition{}, fmt.Errorf("library %q: name collides with an output column", e.Name)
	}
	if e.URL == "" {
		return types.LibraryDefinition{}, fmt.Errorf("library %q: url is required", e.Name)
	}

	lib := types.LibraryDefinition{Name: e.Name, URLTemplate: e.URL}
	switch {
	case e.Threshold != nil && e.Marker != nil:
		return lib, fmt.Errorf("library %q: set either response_length_threshold or not_found_marker, not both", e.Name)
	case e.Threshold != nil:
		if *e.Threshold < 0 {
			return lib, fmt.Errorf("library %q: negative response_length_threshold %d", e.Name, *e.Threshold)
		}
		dir := types.ThresholdDirection(e.Direction)
		switch dir {
		case "":
			dir = types.ThresholdAbove
		case types.ThresholdAbove, types.ThresholdBelow:
		default:
			return lib, fmt.Errorf("library %q: unknown threshold_direction %q (use above or below)", e.Name, e.Direction)
		}
		lib.Rule = types.SizeThreshold(*e.Threshold, dir)
	case e.Marker != nil:
		if *e.Marker == "" {
			return lib, fmt.Errorf("library %q: not_found_marker is empty", e.Name)
		}
		if e.Direction != "" {
			return lib, fmt.Errorf("library %q: threshold_direction only applies to response_length_threshold", e.Name)
		}
		lib.Rule = types.MarkerRule(*e.Marker)
	default:
		return lib, fmt.Errorf("library %q: a detection rule is required (response_length_threshold or not_found_marker)", e.Name)
	}
	return lib, nil
}

// Default returns the built-in catalog used when no catalog file is given.
func Default() []types.LibraryDefinition {
	return []types.LibraryDefinition{
		{
			Name:        "banq.overdrive.com",
			URLTemplate: "https://banq.overdrive.com/search/title?query={TITLE}&creator={AUTHOR}&mediaType=ebook&sortBy=newlyadded",
			Rule:        types.MarkerRule("Results-noResultsHeading"),
		},
		{
			Name: "quebec.pretnumerique.ca",
			URLTemplate: "https://quebec.pretnumerique.ca/resources?utf8=%E2%9C%93&keywords={TITLE}&author={AUTHOR}" +
				"&narrator=&publisher=&collection_title=&issued_on_range=&language=&audience=" +
				"&category_standard=thema&category=&nature=ebook&medium=",
			Rule: types.MarkerRule("Aucune entrée trouvée"),
		},
		{
			Name: "Kobo Plus",
			URLTemplate: "https://www.kobo.com/ca/en/search?query=query&fcmedia=Book~BookSubscription&nd=true&ac=1" +
				"&ac.author={AUTHOR}&ac.title={TITLE}&sort=PublicationDateDesc&sortchange=1",
			Rule: types.MarkerRule("search-zero-results"),
		},
	}
}

// Marshal renders libs in the catalog file layout so Default can be
// written out and edited.
func Marshal(libs []types.LibraryDefinition) ([]byte, error) {
	doc := document{Libraries: make([]entry, len(libs))}
	for i, l := range libs {
		e := entry{Name: l.Name, URL: l.URLTemplate}
		switch l.Rule.Kind {
		case types.RuleSizeThreshold:
			n := l.Rule.Threshold
			e.Threshold = &n
			if l.Rule.Direction == types.ThresholdBelow {
				e.Direction = string(types.ThresholdBelow)
			}
		case types.RuleMarker:
			m := l.Rule.Marker
			e.Marker = &m
		}
		doc.Libraries[i] = e
	}
	return yaml.Marshal(&doc)
}
