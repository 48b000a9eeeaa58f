// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package availability

import (
	"bytes"

	"github.com/pdiddy/find-my-books/pkg/types"
)

// Classify reports whether body, the search page returned by a library,
// indicates that the book is available under rule.
//
// Size threshold: a results page is larger (or, for ThresholdBelow, smaller)
// than the "no results" page; equality is never available. Marker: the
// marker text only appears on "no results" pages, so its presence anywhere
// means unavailable regardless of size.
func Classify(rule types.DetectionRule, body []byte) bool {
	switch rule.Kind {
	case types.RuleSizeThreshold:
		if rule.Direction == types.ThresholdBelow {
			return len(body) < rule.Threshold
		}
		return len(body) > rule.Threshold
	case types.RuleMarker:
		return !bytes.Contains(body, []byte(rule.Marker))
	default:
		return false
	}
}
