package dto

import "github.com/noah-isme/gema-gradebook/internal/gradebook"

// GradebookResponse is the rendered gradebook of one course.
type GradebookResponse struct {
	CourseID uint               `json:"course_id"`
	Title    string             `json:"title"`
	Students []GradebookStudent `json:"students"`
	Columns  []GradebookColumn  `json:"columns"`
	Rows     []GradebookRow     `json:"rows"`
}

// GradebookStudent is a row header.
type GradebookStudent struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

// GradebookColumn is a column header. UnitID is nil for the summary column.
type GradebookColumn struct {
	ID      string  `json:"id"`
	UnitID  *uint   `json:"unit_id"`
	Title   string  `json:"title"`
	Weight  float64 `json:"weight,omitempty"`
	Summary bool    `json:"summary"`
}

// GradebookRow holds the cells of one student in column order.
type GradebookRow struct {
	StudentID uint            `json:"student_id"`
	Cells     []GradebookCell `json:"cells"`
}

// GradebookCell describes one rendered cell.
type GradebookCell struct {
	ColumnID  string   `json:"column_id"`
	Mark      *int64   `json:"mark"`
	Score     *float64 `json:"score"`
	HasAnswer bool     `json:"has_answer"`
	IsStale   bool     `json:"is_stale"`
}

// SummaryColumnID identifies the summary column in responses.
const SummaryColumnID = "summary"

// ColumnID renders a column key as a stable string.
func ColumnID(key gradebook.ColumnKey) string {
	if key.Summary {
		return SummaryColumnID
	}
	return "unit:" + uitoa(key.UnitID)
}

// NewGradebookResponse converts an evaluated gradebook table.
func NewGradebookResponse(table gradebook.Table) GradebookResponse {
	response := GradebookResponse{
		CourseID: table.CourseID,
		Title:    table.Title,
		Students: make([]GradebookStudent, 0, len(table.Rows)),
		Columns:  make([]GradebookColumn, 0, len(table.Columns)),
		Rows:     make([]GradebookRow, 0, len(table.Rows)),
	}

	columnIDs := make([]string, 0, len(table.Columns))
	for _, column := range table.Columns {
		id := ColumnID(column.Key)
		columnIDs = append(columnIDs, id)

		item := GradebookColumn{ID: id, Title: column.Title, Weight: column.Weight, Summary: column.Key.Summary}
		if !column.Key.Summary {
			unitID := column.Key.UnitID
			item.UnitID = &unitID
		}
		response.Columns = append(response.Columns, item)
	}

	for _, row := range table.Rows {
		response.Students = append(response.Students, GradebookStudent{
			ID:          row.Student.ID,
			DisplayName: row.Student.DisplayName,
		})

		cells := make([]GradebookCell, 0, len(row.Cells))
		for idx, cell := range row.Cells {
			cells = append(cells, GradebookCell{
				ColumnID:  columnIDs[idx],
				Mark:      cell.Mark,
				Score:     cell.Score,
				HasAnswer: cell.HasAnswer,
				IsStale:   cell.IsStale,
			})
		}
		response.Rows = append(response.Rows, GradebookRow{StudentID: row.Student.ID, Cells: cells})
	}

	return response
}
