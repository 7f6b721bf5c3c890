package service

import (
	"github.com/noah-isme/gema-gradebook/internal/gradebook"
	"github.com/noah-isme/gema-gradebook/internal/models"
)

func toGradebookCourse(course models.Course) gradebook.Course {
	out := gradebook.Course{
		ID:      course.ID,
		Title:   course.Title,
		Units:   make([]gradebook.Unit, 0, len(course.Units)),
		Members: make([]gradebook.Student, 0, len(course.Members)),
	}

	for _, member := range course.Members {
		out.Members = append(out.Members, gradebook.Student{
			ID:          member.UserID,
			DisplayName: member.User.DisplayName,
			Role:        gradebook.Role(member.Role),
		})
	}

	for _, unit := range course.Units {
		out.Units = append(out.Units, gradebook.Unit{
			ID:         unit.ID,
			Title:      unit.Title,
			Weight:     unit.Weight,
			Answerable: unit.Answerable,
			Answers:    toGradebookAnswers(unit.Answers),
		})
	}

	return out
}

func toGradebookAnswers(answers []models.Answer) []gradebook.Answer {
	out := make([]gradebook.Answer, 0, len(answers))
	for _, answer := range answers {
		out = append(out, toGradebookAnswer(answer))
	}
	return out
}

func toGradebookAnswer(answer models.Answer) gradebook.Answer {
	marks := make([]gradebook.Mark, 0, len(answer.Marks))
	for _, mark := range answer.Marks {
		marks = append(marks, gradebook.Mark{
			ID:        mark.ID,
			Score:     mark.Score,
			CreatedAt: mark.CreatedAt,
		})
	}

	return gradebook.Answer{
		ID:        answer.ID,
		UnitID:    answer.UnitID,
		StudentID: answer.UserID,
		UpdatedAt: answer.UpdatedAt,
		Marks:     marks,
	}
}
