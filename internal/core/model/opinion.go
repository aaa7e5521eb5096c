package model

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrorMarker prefixes the opinion text of a text producer that failed.
const ErrorMarker = "Error: "

// OpinionKind classifies the raw text of an opinion against the label grammar.
type OpinionKind int

const (
	KindMalformed OpinionKind = iota
	KindLabel
	KindError
)

func (k OpinionKind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindError:
		return "error"
	default:
		return "malformed"
	}
}

// Opinion is one producer's candidate label, kept verbatim.
//
// Grammar of a well-formed label:
//
//	label   = "Crop:" ws name "," ws "Disease:" ws name
//	name    = 1*(any char except ",")
type Opinion struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

var labelPattern = regexp.MustCompile(`^Crop:\s*([^,]+?)\s*,\s*Disease:\s*([^,]+?)\s*\.?$`)

// ParseLabel extracts crop and disease from a single-line label. It only
// recognises the exact grammar; use the normalizer for tolerant parsing.
func ParseLabel(text string) (crop, disease string, ok bool) {
	m := labelPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ErrorOpinion builds the marker opinion that stands in for a failed producer.
func ErrorOpinion(source string, err error) Opinion {
	return Opinion{Source: source, Text: ErrorMarker + err.Error()}
}

func (o Opinion) Kind() OpinionKind {
	if strings.HasPrefix(o.Text, ErrorMarker) {
		return KindError
	}
	if _, _, ok := ParseLabel(o.Text); ok {
		return KindLabel
	}
	return KindMalformed
}

// Same compares raw text. Case and whitespace differences count as disagreement.
func (o Opinion) Same(other Opinion) bool {
	return o.Text == other.Text
}

// Len is the length of the raw text in characters.
func (o Opinion) Len() int {
	return utf8.RuneCountInString(o.Text)
}

// ConflictSet is the ordered list of opinions handed to the arbiter.
type ConflictSet []Opinion

// Unanimous reports whether no second opinion made it into the set.
func (s ConflictSet) Unanimous() bool {
	return len(s) <= 1
}

func (s ConflictSet) Texts() []string {
	out := make([]string, len(s))
	for i, o := range s {
		out[i] = o.Text
	}
	return out
}
