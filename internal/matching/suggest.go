// Package matching holds content type to documentation assignments and the
// name based suggestion of defaults.
package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContentType is a local content type that can receive documentation.
type ContentType struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Candidate is a documentation entry that can be assigned.
type Candidate struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Suggestions is the set of content type ids whose match was proposed by
// name rather than chosen. It is a presentation hint and is never persisted.
type Suggestions map[string]struct{}

// Has reports whether contentTypeID was auto-suggested.
func (s Suggestions) Has(contentTypeID string) bool {
	_, ok := s[contentTypeID]
	return ok
}

// Merge adds the ids of other to s.
func (s Suggestions) Merge(other Suggestions) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Eligible drops the documentation content type itself from contentTypes.
func Eligible(contentTypes []ContentType, documentationTypeID string) []ContentType {
	out := make([]ContentType, 0, len(contentTypes))
	for _, ct := range contentTypes {
		if ct.ID == documentationTypeID {
			continue
		}
		out = append(out, ct)
	}
	return out
}

// FindByName returns the first candidate whose display name starts or ends
// with name. When none does, a second pass accepts the first candidate whose
// non-empty display name is a whole-word prefix or suffix of name, so
// "Hero Banner" still documents "Hero Banner Section" while "Card" does not
// document "Cards Section". The comparison is case-sensitive.
func FindByName(candidates []Candidate, name string) (Candidate, bool) {
	for _, c := range candidates {
		if affixOf(c.DisplayName, name) {
			return c, true
		}
	}
	for _, c := range candidates {
		if c.DisplayName != "" && wordAffixOf(name, c.DisplayName) {
			return c, true
		}
	}
	return Candidate{}, false
}

func affixOf(s, part string) bool {
	return strings.HasPrefix(s, part) || strings.HasSuffix(s, part)
}

// wordAffixOf is affixOf where part must end (as a prefix) or start (as a
// suffix) at a non alphanumeric rune of s, or span all of s.
func wordAffixOf(s, part string) bool {
	if s == part {
		return true
	}
	if strings.HasPrefix(s, part) {
		if r, _ := utf8.DecodeRuneInString(s[len(part):]); !isWordRune(r) {
			return true
		}
	}
	if strings.HasSuffix(s, part) {
		if r, _ := utf8.DecodeLastRuneInString(s[:len(s)-len(part)]); !isWordRune(r) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Suggest assigns a name matched candidate to every content type that has
// no value in store yet. candidates must be the complete list in display
// name order. Content types with an explicit opt-out are left alone. The
// returned set is empty when nothing changed.
func Suggest(contentTypes []ContentType, candidates []Candidate, store *Store) Suggestions {
	suggested := Suggestions{}
	if store == nil || len(candidates) == 0 {
		return suggested
	}
	for _, ct := range contentTypes {
		if store.Has(ct.ID) {
			continue
		}
		match, ok := FindByName(candidates, ct.DisplayName)
		if !ok {
			continue
		}
		store.Set(ct.ID, match.ID)
		suggested[ct.ID] = struct{}{}
	}
	return suggested
}
