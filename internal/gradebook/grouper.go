package gradebook

// CellKey addresses the answers of one student on one unit.
type CellKey struct {
	UnitID    uint
	StudentID uint
}

// UnitAnswers maps unit ids to answers, remembering the order units were first seen.
type UnitAnswers struct {
	order  []uint
	byUnit map[uint][]Answer
}

// NewUnitAnswers returns an empty mapping.
func NewUnitAnswers() *UnitAnswers {
	return &UnitAnswers{byUnit: make(map[uint][]Answer)}
}

// Add appends an answer to the bucket of unitID.
func (u *UnitAnswers) Add(unitID uint, answer Answer) {
	if u.byUnit == nil {
		u.byUnit = make(map[uint][]Answer)
	}
	if _, ok := u.byUnit[unitID]; !ok {
		u.order = append(u.order, unitID)
	}
	u.byUnit[unitID] = append(u.byUnit[unitID], answer)
}

// UnitIDs lists unit ids in insertion order.
func (u *UnitAnswers) UnitIDs() []uint {
	if u == nil {
		return nil
	}
	return u.order
}

// Answers returns the answers recorded for unitID.
func (u *UnitAnswers) Answers(unitID uint) []Answer {
	if u == nil {
		return nil
	}
	return u.byUnit[unitID]
}

// Len reports how many units hold at least one answer.
func (u *UnitAnswers) Len() int {
	if u == nil {
		return 0
	}
	return len(u.order)
}

// Groups holds the two cell shapes the matrix reads from.
type Groups struct {
	PerCell    map[CellKey][]Answer
	PerSummary map[uint]*UnitAnswers
}

// Group buckets every answer of the given units by cell and by student summary. Buckets keep
// the order answers were discovered in.
func Group(units []Unit, answersOf func(Unit) []Answer) Groups {
	if answersOf == nil {
		answersOf = func(u Unit) []Answer { return u.Answers }
	}

	groups := Groups{
		PerCell:    make(map[CellKey][]Answer),
		PerSummary: make(map[uint]*UnitAnswers),
	}

	for _, unit := range units {
		for _, answer := range answersOf(unit) {
			key := CellKey{UnitID: unit.ID, StudentID: answer.StudentID}
			groups.PerCell[key] = append(groups.PerCell[key], answer)

			summary, ok := groups.PerSummary[answer.StudentID]
			if !ok {
				summary = NewUnitAnswers()
				groups.PerSummary[answer.StudentID] = summary
			}
			summary.Add(unit.ID, answer)
		}
	}

	return groups
}
