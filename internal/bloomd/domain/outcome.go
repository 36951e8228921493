package domain

// Outcome is the result of one command. FilterMatch and ExactMatch are only
// meaningful for Check.
//
// Pure value type; created per execution and never mutated.
type Outcome struct {
	Status      Status
	FilterMatch bool // bit vector says "maybe present"
	ExactMatch  bool // exact store says "definitely present"
}

// NewOutcome returns an outcome without match flags.
func NewOutcome(s Status) Outcome { return Outcome{Status: s} }

// CheckOutcome builds the outcome of a Check from the two lookups.
// A negative filter answer is authoritative and yields NotFound.
func CheckOutcome(filterMatch, exactMatch bool) Outcome {
	if !filterMatch {
		return Outcome{Status: StatusNotFound}
	}
	return Outcome{Status: StatusOK, FilterMatch: true, ExactMatch: exactMatch}
}

// IsFalsePositive reports a filter hit the exact store does not confirm.
func (o Outcome) IsFalsePositive() bool {
	return o.Status == StatusOK && o.FilterMatch && !o.ExactMatch
}
