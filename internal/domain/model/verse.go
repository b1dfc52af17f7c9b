package model

import "strings"

// Bounds applied to untrusted input before it is stored or forwarded.
const (
	MaxTopicLen     = 200
	MaxQueryLen     = 200
	MaxReferenceLen = 100
	MaxVerseTextLen = 1000
	MaxVerses       = 10
)

// Verse is a single scripture citation. Both fields are required.
type Verse struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
}

// SanitizeText trims and truncates s to maxLen runes. It performs no
// escaping; encoding is the rendering layer's job. Idempotent.
func SanitizeText(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen >= 0 {
		if r := []rune(s); len(r) > maxLen {
			s = strings.TrimSpace(string(r[:maxLen]))
		}
	}
	return s
}

// ValidateVerses drops entries missing either field, sanitizes the rest,
// and truncates the list to maxCount, preserving order. It is used
// identically on client-submitted verses and on verses parsed out of a
// model response. A nil input yields an empty list, never an error.
func ValidateVerses(in []Verse, maxCount int) []Verse {
	out := make([]Verse, 0, len(in))
	for _, v := range in {
		ref := SanitizeText(v.Reference, MaxReferenceLen)
		text := SanitizeText(v.Text, MaxVerseTextLen)
		if ref == "" || text == "" {
			continue
		}
		out = append(out, Verse{Reference: ref, Text: text})
		if maxCount >= 0 && len(out) == maxCount {
			break
		}
	}
	return out
}
