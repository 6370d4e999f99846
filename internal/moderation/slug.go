// Package moderation holds the rules of the story moderation model that do
// not touch storage: slug derivation, tag normalization, payload validation,
// the reading/management visibility filter and the dashboard counts.
//
// Everything here is a pure function so the JSON API, the HTML form action
// and the tests all run exactly the same checks.
package moderation

import "strings"

// Slugify lowercases title, collapses every run of characters outside
// [a-z0-9] into a single hyphen and strips leading and trailing hyphens.
//
//	Slugify("Summer Wedding!!") == "summer-wedding"
//
// The result may be empty; callers decide whether that is acceptable.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}
