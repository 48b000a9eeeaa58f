// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// RuleKind selects how a library's search page is classified.
type RuleKind string

const (
	// RuleSizeThreshold compares the response body length against a fixed
	// number of bytes.
	RuleSizeThreshold RuleKind = "size_threshold"

	// RuleMarker looks for a literal substring that only appears on
	// "no results" pages.
	RuleMarker RuleKind = "marker"
)

// ThresholdDirection tells which side of a size threshold means "available".
type ThresholdDirection string

const (
	// ThresholdAbove marks a book available when the body is strictly larger
	// than the threshold. This is the default.
	ThresholdAbove ThresholdDirection = "above"

	// ThresholdBelow marks a book available when the body is strictly
	// smaller than the threshold.
	ThresholdBelow ThresholdDirection = "below"
)

// DetectionRule is a tagged variant: exactly one of the size-threshold or the
// marker fields is meaningful, as selected by Kind.
type DetectionRule struct {
	Kind RuleKind `json:"kind" yaml:"kind"`

	// Threshold is the body size in bytes for RuleSizeThreshold.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// Direction applies to RuleSizeThreshold.
	Direction ThresholdDirection `json:"direction,omitempty" yaml:"direction,omitempty"`

	// Marker is the "not found" substring for RuleMarker.
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"`
}

// SizeThreshold builds a size-threshold rule.
func SizeThreshold(bytes int, dir ThresholdDirection) DetectionRule {
	if dir == "" {
		dir = ThresholdAbove
	}
	return DetectionRule{Kind: RuleSizeThreshold, Threshold: bytes, Direction: dir}
}

// MarkerRule builds a marker rule.
func MarkerRule(marker string) DetectionRule {
	return DetectionRule{Kind: RuleMarker, Marker: marker}
}

// String renders the rule for logs and the libraries listing.
func (r DetectionRule) String() string {
	switch r.Kind {
	case RuleSizeThreshold:
		dir := r.Direction
		if dir == "" {
			dir = ThresholdAbove
		}
		return fmt.Sprintf("size %s %d bytes", dir, r.Threshold)
	case RuleMarker:
		return fmt.Sprintf("marker %q", r.Marker)
	default:
		return "unknown rule"
	}
}

// LibraryDefinition describes one searchable library.
type LibraryDefinition struct {
	// Name is the unique display name; it doubles as the output column name.
	Name string `json:"name" yaml:"name"`

	// URLTemplate is the search URL with {TITLE} and {AUTHOR} placeholders.
	URLTemplate string `json:"url" yaml:"url"`

	// Rule decides availability from the search response.
	Rule DetectionRule `json:"rule" yaml:"rule"`
}

// LibraryNames returns the names of libs in catalog order.
func LibraryNames(libs []LibraryDefinition) []string {
	names := make([]string, len(libs))
	for i, l := range libs {
		names[i] = l.Name
	}
	return names
}
