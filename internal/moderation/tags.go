package moderation

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxTags      = 10
	MaxTagLength = 30
)

// NormalizeSubmissionTags cleans the tags sent with a new story: each tag is
// trimmed, empty tags and tags longer than MaxTagLength are dropped,
// duplicates keep their first position, and only the first MaxTags survive.
func NormalizeSubmissionTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), MaxTags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		if len(out) == MaxTags {
			break
		}
		tag = strings.TrimSpace(tag)
		if tag == "" || utf8.RuneCountInString(tag) > MaxTagLength {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// NormalizeTags cleans a replacement tag list set by a moderator: tags are
// trimmed, empty ones dropped, and anything past the tenth is silently
// discarded. Order is preserved.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), MaxTags))

	for _, tag := range tags {
		if len(out) == MaxTags {
			break
		}
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}

	return out
}
