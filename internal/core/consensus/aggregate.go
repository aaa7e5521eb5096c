// Package consensus decides whether the producers agree and, when they do
// not, asks the arbiter for the final label.
package consensus

import "github.com/agenthands/leafcheck/internal/core/model"

// DefaultMaxHintLength is the longest text-producer opinion still trusted as
// an arbitration hint. Longer replies are usually prose or error messages.
const DefaultMaxHintLength = 50

type Policy struct {
	MaxHintLength   int
	RejectMalformed bool
}

func DefaultPolicy() Policy {
	return Policy{MaxHintLength: DefaultMaxHintLength}
}

// Aggregate builds the conflict set: the primary opinion first, the
// secondary if it differs, then every other opinion that differs from the
// primary and fits the hint length. Duplicates among the others are kept.
func Aggregate(primary, secondary model.Opinion, others []model.Opinion, policy Policy) model.ConflictSet {
	set := model.ConflictSet{primary}

	if !secondary.Same(primary) {
		set = append(set, secondary)
	}

	for _, op := range others {
		if op.Same(primary) || op.Len() > policy.MaxHintLength {
			continue
		}
		if policy.RejectMalformed && op.Kind() != model.KindLabel {
			continue
		}
		set = append(set, op)
	}

	return set
}
