package model

import "encoding/json"

// Record is the canonical answer for one request. Causes and Recommendations
// are only set by the enriched variant.
type Record struct {
	Crop            string   `json:"crop"`
	Disease         string   `json:"disease"`
	Causes          []string `json:"causes,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Enriched reports whether the record carries advice.
func (r Record) Enriched() bool {
	return len(r.Causes) > 0 || len(r.Recommendations) > 0
}

// String renders the canonical text form; the normalizer parses it back to an
// equal record.
func (r Record) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Diagnosis is the full trace of one request.
type Diagnosis struct {
	Record      Record      `json:"record"`
	Description string      `json:"description"`
	Opinions    []Opinion   `json:"opinions"`
	Conflicts   ConflictSet `json:"conflicts"`
	Arbitrated  bool        `json:"arbitrated"`
	Final       string      `json:"final"`
}
