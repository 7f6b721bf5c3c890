package gradebook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func weight(v float64) *float64 {
	return &v
}

func unitsByID(units ...Unit) map[uint]Unit {
	out := make(map[uint]Unit, len(units))
	for _, u := range units {
		out[u.ID] = u
	}
	return out
}

func TestAggregateSummaryWeightedWithMissingAnswers(t *testing.T) {
	u1 := Unit{ID: 1, Title: "U1", Weight: weight(1), Answerable: true}
	u2 := Unit{ID: 2, Title: "U2", Weight: weight(3), Answerable: true}

	perUnit := NewUnitAnswers()
	perUnit.Add(1, Answer{ID: 1, UnitID: 1, StudentID: 7, UpdatedAt: at(10), Marks: []Mark{mark(8, 20)}})

	summary, err := AggregateSummary(perUnit, unitsByID(u1, u2))
	require.NoError(t, err)
	require.InDelta(t, 2.0, summary.Score, 1e-9)
	require.True(t, summary.IsStale, "an unanswered unit resolves stale")
}

func TestAggregateSummaryStaleWhenAnyUnitStale(t *testing.T) {
	u1 := Unit{ID: 1, Answerable: true}
	u2 := Unit{ID: 2, Answerable: true}

	perUnit := NewUnitAnswers()
	perUnit.Add(1, Answer{ID: 1, UnitID: 1, UpdatedAt: at(10), Marks: []Mark{mark(6, 20)}})
	perUnit.Add(2, Answer{ID: 2, UnitID: 2, UpdatedAt: at(10)})

	summary, err := AggregateSummary(perUnit, unitsByID(u1, u2))
	require.NoError(t, err)
	require.InDelta(t, 3.0, summary.Score, 1e-9)
	require.True(t, summary.IsStale)
}

func TestAggregateSummaryDefaultsAbsentWeightToOne(t *testing.T) {
	u1 := Unit{ID: 1, Answerable: true}
	u2 := Unit{ID: 2, Weight: weight(1), Answerable: true}

	perUnit := NewUnitAnswers()
	perUnit.Add(1, Answer{ID: 1, UnitID: 1, UpdatedAt: at(1), Marks: []Mark{mark(10, 2)}})
	perUnit.Add(2, Answer{ID: 2, UnitID: 2, UpdatedAt: at(1), Marks: []Mark{mark(4, 2)}})

	summary, err := AggregateSummary(perUnit, unitsByID(u1, u2))
	require.NoError(t, err)
	require.InDelta(t, 7.0, summary.Score, 1e-9)
}

func TestAggregateSummaryEmpty(t *testing.T) {
	summary, err := AggregateSummary(nil, unitsByID(Unit{ID: 1}))
	require.NoError(t, err)
	require.Zero(t, summary.Score)
	require.True(t, summary.IsStale)

	summary, err = AggregateSummary(NewUnitAnswers(), unitsByID(Unit{ID: 1}))
	require.NoError(t, err)
	require.Zero(t, summary.Score)
	require.True(t, summary.IsStale)
}

func TestAggregateSummaryMissingUnitReference(t *testing.T) {
	perUnit := NewUnitAnswers()
	perUnit.Add(99, Answer{ID: 1, UnitID: 99, UpdatedAt: at(1), Marks: []Mark{mark(10, 2)}})

	_, err := AggregateSummary(perUnit, unitsByID(Unit{ID: 1}))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingUnitReference))

	var missing *MissingUnitReferenceError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, uint(99), missing.UnitID)
}

func TestAggregateSummaryZeroWeightUnit(t *testing.T) {
	zero := Unit{ID: 1, Weight: weight(0), Answerable: true}
	one := Unit{ID: 2, Weight: weight(1), Answerable: true}

	perUnit := NewUnitAnswers()
	perUnit.Add(1, Answer{ID: 1, UnitID: 1, UpdatedAt: at(1), Marks: []Mark{mark(100, 2)}})
	perUnit.Add(2, Answer{ID: 2, UnitID: 2, UpdatedAt: at(1), Marks: []Mark{mark(6, 2)}})

	summary, err := AggregateSummary(perUnit, unitsByID(zero, one))
	require.NoError(t, err)
	require.InDelta(t, 6.0, summary.Score, 1e-9, "a zero-weight unit contributes nothing")
	require.False(t, summary.IsStale)
}

func TestAggregateSummaryAllZeroWeightsScoresZero(t *testing.T) {
	zero := Unit{ID: 1, Weight: weight(0), Answerable: true}

	perUnit := NewUnitAnswers()
	perUnit.Add(1, Answer{ID: 1, UnitID: 1, UpdatedAt: at(1), Marks: []Mark{mark(100, 2)}})

	summary, err := AggregateSummary(perUnit, unitsByID(zero))
	require.NoError(t, err)
	require.Zero(t, summary.Score)
	require.False(t, summary.IsStale)
}
