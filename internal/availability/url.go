// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package availability

import (
	"regexp"
	"strings"
)

var (
	// parenOrDashPattern matches a parenthesized clause (series info, edition)
	// or a " - " qualifier and everything after it.
	parenOrDashPattern = regexp.MustCompile(`\(.*\)|\s-\s.*`)

	// subtitlePattern matches a colon-introduced subtitle.
	subtitlePattern = regexp.MustCompile(`:.+`)
)

// Placeholders substituted in a library URL template.
const (
	TitlePlaceholder  = "{TITLE}"
	AuthorPlaceholder = "{AUTHOR}"
)

// NormalizeTitle strips the parts of a title that tend to defeat library
// search: parenthesized clauses, " - " qualifiers, and colon subtitles.
//
//	"Dune (Dune Chronicles #1)"           -> "Dune"
//	"Sapiens: A Brief History"            -> "Sapiens"
//	"The Martian - Classroom Edition"     -> "The Martian"
func NormalizeTitle(title string) string {
	title = parenOrDashPattern.ReplaceAllString(title, "")
	title = subtitlePattern.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// BuildURL substitutes the normalized title and the author into template,
// with spaces replaced by '+'. Both placeholders are replaced in one pass so
// a value containing a placeholder is never expanded again.
func BuildURL(template, title, author string) string {
	r := strings.NewReplacer(
		TitlePlaceholder, plus(NormalizeTitle(title)),
		AuthorPlaceholder, plus(strings.TrimSpace(author)),
	)
	return r.Replace(template)
}

func plus(s string) string {
	return strings.ReplaceAll(s, " ", "+")
}
