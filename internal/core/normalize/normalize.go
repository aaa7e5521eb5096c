// Package normalize turns a model's final answer into a model.Record.
//
// The pipeline runs StripFences, CollapseLines, then either SplitLabels
// (plain "Crop: x, Disease: y" answers) or ExtractBraces followed by
// ParseRecord (JSON answers). Each stage fails with a *model.ParseError.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/agenthands/leafcheck/internal/core/model"
)

const (
	StageFences = "fences"
	StageLabels = "labels"
	StageBraces = "braces"
	StageRecord = "record"

	cropLabel    = "Crop:"
	diseaseLabel = "Disease:"
)

// Normalize runs the full pipeline.
func Normalize(raw string) (model.Record, error) {
	text := CollapseLines(StripFences(raw))
	if text == "" {
		return model.Record{}, &model.ParseError{Stage: StageFences, Input: raw, Reason: "empty answer"}
	}

	if !IsStructured(text) {
		return SplitLabels(text)
	}

	obj, err := ExtractBraces(text)
	if err != nil {
		return model.Record{}, err
	}
	return ParseRecord(obj)
}

// StripFences removes a leading ``` or ```lang marker and a trailing ```.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the language tag, if any, up to the first line break.
		if i := strings.IndexAny(s, "\r\n"); i >= 0 {
			if tag := strings.TrimSpace(s[:i]); !strings.ContainsAny(tag, "{:") {
				s = s[i:]
			}
		} else if tag, rest, ok := strings.Cut(s, " "); ok && isLangTag(tag) {
			s = rest
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isLangTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// CollapseLines joins a multi-line answer into a single line.
func CollapseLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}

// IsStructured reports whether the answer looks like a JSON object.
func IsStructured(s string) bool {
	return strings.Contains(s, "{")
}

// SplitLabels parses the "Crop: <name>, Disease: <name>" shape. Fields past
// the second comma are ignored.
func SplitLabels(s string) (model.Record, error) {
	if !strings.Contains(s, cropLabel) && !strings.Contains(s, diseaseLabel) {
		return model.Record{}, &model.ParseError{Stage: StageLabels, Input: s, Reason: "no Crop:/Disease: labels"}
	}

	stripped := strings.NewReplacer(cropLabel, "", diseaseLabel, "").Replace(s)
	fields := strings.Split(stripped, ",")
	if len(fields) < 2 {
		return model.Record{}, &model.ParseError{Stage: StageLabels, Input: s, Reason: "expected two comma separated fields"}
	}

	crop := cleanField(fields[0])
	disease := cleanField(fields[1])
	if crop == "" || disease == "" {
		return model.Record{}, &model.ParseError{Stage: StageLabels, Input: s, Reason: "empty crop or disease"}
	}
	return model.Record{Crop: crop, Disease: disease}, nil
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// ExtractBraces returns the substring from the first '{' to the last '}'.
func ExtractBraces(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 {
		return "", &model.ParseError{Stage: StageBraces, Input: s, Reason: "missing '{'"}
	}
	if end == -1 || end < start {
		return "", &model.ParseError{Stage: StageBraces, Input: s, Reason: "missing closing '}'"}
	}
	return s[start : end+1], nil
}

// ParseRecord decodes a JSON object into a record; crop and disease are required.
func ParseRecord(obj string) (model.Record, error) {
	var r model.Record
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		return model.Record{}, &model.ParseError{Stage: StageRecord, Input: obj, Reason: err.Error()}
	}

	r.Crop = strings.TrimSpace(r.Crop)
	r.Disease = strings.TrimSpace(r.Disease)
	if r.Crop == "" || r.Disease == "" {
		return model.Record{}, &model.ParseError{Stage: StageRecord, Input: obj, Reason: "crop and disease are required"}
	}

	r.Causes = compact(r.Causes)
	r.Recommendations = compact(r.Recommendations)
	return r, nil
}

// compact trims entries, drops blanks and maps an empty list to nil so that
// absent and empty fields compare equal.
func compact(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
