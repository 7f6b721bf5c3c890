package gradebook

import (
	"errors"
	"fmt"
)

// ErrMissingUnitReference indicates a summary grouping names a unit the caller did not supply.
var ErrMissingUnitReference = errors.New("gradebook: answers reference unknown unit")

// MissingUnitReferenceError carries the offending unit id.
type MissingUnitReferenceError struct {
	UnitID uint
}

func (e *MissingUnitReferenceError) Error() string {
	return fmt.Sprintf("%s %d", ErrMissingUnitReference.Error(), e.UnitID)
}

// Unwrap allows errors.Is(err, ErrMissingUnitReference).
func (e *MissingUnitReferenceError) Unwrap() error {
	return ErrMissingUnitReference
}

// Summary is a student's weighted course score.
type Summary struct {
	Score   float64
	IsStale bool
}

// AggregateSummary combines the resolved marks of a student into one weighted score.
//
// The divisor is the weight of every unit in unitsByID, including units the student never
// answered, so missing work pulls the score down. A unit without answers resolves like an
// empty answer list: it adds nothing to the score and marks the summary stale.
func AggregateSummary(perUnit *UnitAnswers, unitsByID map[uint]Unit) (Summary, error) {
	if perUnit.Len() == 0 {
		return Summary{IsStale: true}, nil
	}

	var totalWeight float64
	for _, unit := range unitsByID {
		totalWeight += unit.EffectiveWeight()
	}

	var summary Summary
	for _, unitID := range perUnit.UnitIDs() {
		unit, ok := unitsByID[unitID]
		if !ok {
			return Summary{}, &MissingUnitReferenceError{UnitID: unitID}
		}

		res := ResolveLatestMark(perUnit.Answers(unitID))
		if res.Mark != nil && totalWeight != 0 {
			summary.Score += *res.Mark * unit.EffectiveWeight() / totalWeight
		}
		summary.IsStale = summary.IsStale || res.IsStale
	}

	if !summary.IsStale {
		for unitID := range unitsByID {
			if len(perUnit.Answers(unitID)) == 0 {
				summary.IsStale = true
				break
			}
		}
	}

	return summary, nil
}
