package gradebook

import (
	"math"
	"slices"

	"golang.org/x/text/language"
)

// SummaryTitle is the header of the synthetic summary column.
const SummaryTitle = "Summary"

// ColumnKey addresses a gradebook column: either a unit or the summary.
type ColumnKey struct {
	UnitID  uint
	Summary bool
}

// SummaryColumn is the key of the summary column.
var SummaryColumn = ColumnKey{Summary: true}

// UnitColumn returns the key of the column for unitID.
func UnitColumn(unitID uint) ColumnKey {
	return ColumnKey{UnitID: unitID}
}

// Column is a header entry of the matrix.
type Column struct {
	Key    ColumnKey
	Title  string
	Weight float64
}

// CellDescriptor is what a renderer needs to draw one cell. Mark is the score truncated
// toward zero, so -2.5 displays as -2.
type CellDescriptor struct {
	Mark      *int64
	Score     *float64
	HasAnswer bool
	IsStale   bool
}

// Row is one student's line of cells, ordered like Matrix.Columns.
type Row struct {
	Student Student
	Cells   []CellDescriptor
}

// Table is the fully evaluated matrix.
type Table struct {
	CourseID uint
	Title    string
	Columns  []Column
	Rows     []Row
}

// Option customises matrix construction.
type Option func(*options)

type options struct {
	comparator Comparator
	grouper    func(units []Unit) Groups
}

// WithComparator overrides the ordering of student names and unit titles.
func WithComparator(c Comparator) Option {
	return func(o *options) {
		if c != nil {
			o.comparator = c
		}
	}
}

// WithGrouper replaces how the visible units' answers are bucketed into cells. The default
// groups the answers nested in each unit.
func WithGrouper(grouper func(units []Unit) Groups) Option {
	return func(o *options) {
		if grouper != nil {
			o.grouper = grouper
		}
	}
}

// WithLocale orders names and titles using collation rules for tag.
func WithLocale(tag language.Tag) Option {
	return func(o *options) {
		o.comparator = NewLocaleComparator(tag)
	}
}

// Matrix is the gradebook of one course snapshot.
type Matrix struct {
	course    Course
	students  []Student
	units     []Unit
	unitsByID map[uint]Unit
	groups    Groups
}

// NewMatrix filters and sorts the snapshot and groups its answers into cells.
func NewMatrix(course Course, opts ...Option) *Matrix {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.comparator == nil {
		cfg.comparator = NewLocaleComparator(language.English)
	}
	if cfg.grouper == nil {
		cfg.grouper = func(units []Unit) Groups { return Group(units, nil) }
	}

	students := make([]Student, 0, len(course.Members))
	for _, member := range course.Members {
		if member.Role == RoleStudent {
			students = append(students, member)
		}
	}
	slices.SortStableFunc(students, func(a, b Student) int {
		return cfg.comparator.Compare(a.DisplayName, b.DisplayName)
	})

	units := make([]Unit, 0, len(course.Units))
	unitsByID := make(map[uint]Unit, len(course.Units))
	for _, unit := range course.Units {
		if !unit.Answerable {
			continue
		}
		units = append(units, unit)
		unitsByID[unit.ID] = unit
	}
	slices.SortStableFunc(units, func(a, b Unit) int {
		return cfg.comparator.Compare(a.Title, b.Title)
	})

	return &Matrix{
		course:    course,
		students:  students,
		units:     units,
		unitsByID: unitsByID,
		groups:    cfg.grouper(units),
	}
}

// Students returns the row headers.
func (m *Matrix) Students() []Student {
	return slices.Clone(m.students)
}

// Columns returns the column headers; the summary column is always last.
func (m *Matrix) Columns() []Column {
	columns := make([]Column, 0, len(m.units)+1)
	for _, unit := range m.units {
		columns = append(columns, Column{Key: UnitColumn(unit.ID), Title: unit.Title, Weight: unit.EffectiveWeight()})
	}
	return append(columns, Column{Key: SummaryColumn, Title: SummaryTitle})
}

// CellAt evaluates the cell of studentID in column. Unknown units yield an empty cell.
func (m *Matrix) CellAt(column ColumnKey, studentID uint) (CellDescriptor, error) {
	if column.Summary {
		perUnit := m.groups.PerSummary[studentID]
		summary, err := AggregateSummary(perUnit, m.unitsByID)
		if err != nil {
			return CellDescriptor{}, err
		}
		return newCell(&summary.Score, perUnit.Len() > 0, summary.IsStale), nil
	}

	res := ResolveLatestMark(m.groups.PerCell[CellKey{UnitID: column.UnitID, StudentID: studentID}])
	return newCell(res.Mark, res.HasAnswer, res.IsStale), nil
}

// Table evaluates every cell in header order.
func (m *Matrix) Table() (Table, error) {
	columns := m.Columns()
	table := Table{
		CourseID: m.course.ID,
		Title:    m.course.Title,
		Columns:  columns,
		Rows:     make([]Row, 0, len(m.students)),
	}

	for _, student := range m.students {
		row := Row{Student: student, Cells: make([]CellDescriptor, 0, len(columns))}
		for _, column := range columns {
			cell, err := m.CellAt(column.Key, student.ID)
			if err != nil {
				return Table{}, err
			}
			row.Cells = append(row.Cells, cell)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func newCell(score *float64, hasAnswer, isStale bool) CellDescriptor {
	cell := CellDescriptor{HasAnswer: hasAnswer, IsStale: isStale}
	if score != nil {
		value := *score
		mark := int64(math.Trunc(value))
		cell.Score = &value
		cell.Mark = &mark
	}
	return cell
}
