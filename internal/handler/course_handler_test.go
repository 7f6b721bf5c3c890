package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/models"
)

func TestCourseLifecycleThroughRouter(t *testing.T) {
	g := setupGradebookApp(t)

	resp := g.do(t, http.MethodPost, "/api/v1/courses", g.teacher, "teacher", map[string]interface{}{"title": "  Databases  "})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created struct {
		Data dto.CourseResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	require.Equal(t, "Databases", created.Data.Title)
	coursePath := fmt.Sprintf("/api/v1/courses/%d", created.Data.ID)

	resp = g.do(t, http.MethodGet, "/api/v1/courses", g.teacher, "teacher", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed struct {
		Data []dto.CourseResponse `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	decodeResponse(t, resp, &listed)
	require.Equal(t, 2, listed.Meta.Count, "the creator teaches the new course")

	kim := models.User{DisplayName: "Kim", Email: "kim@example.com"}
	require.NoError(t, g.db.Create(&kim).Error)

	resp = g.do(t, http.MethodPost, coursePath+"/members", g.teacher, "teacher", map[string]interface{}{"user_id": kim.ID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var member struct {
		Data dto.MemberResponse `json:"data"`
	}
	decodeResponse(t, resp, &member)
	require.Equal(t, models.CourseRoleStudent, member.Data.Role)
	require.Equal(t, "Kim", member.Data.DisplayName)

	resp = g.do(t, http.MethodPost, coursePath+"/members", g.teacher, "teacher", map[string]interface{}{"user_id": kim.ID})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = g.do(t, http.MethodPost, coursePath+"/members", g.teacher, "teacher", map[string]interface{}{"user_id": kim.ID + 100})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = g.do(t, http.MethodPost, coursePath+"/members", g.teacher, "teacher", map[string]interface{}{"user_id": kim.ID, "role": "owner"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = g.do(t, http.MethodPost, coursePath+"/units", g.teacher, "teacher", map[string]interface{}{"title": "Joins", "weight": 2, "answerable": true})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var unit struct {
		Data dto.UnitResponse `json:"data"`
	}
	decodeResponse(t, resp, &unit)
	require.True(t, unit.Data.Answerable)

	resp = g.do(t, http.MethodPut, fmt.Sprintf("/api/v1/units/%d/answer", unit.Data.ID), kim, "student", map[string]interface{}{"content": "INNER JOIN"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "enrolled students can answer new units")

	resp = g.do(t, http.MethodGet, coursePath+"/gradebook", g.teacher, "teacher", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var book gradebookEnvelope
	decodeResponse(t, resp, &book)
	require.Len(t, book.Data.Students, 1)
	require.Equal(t, "Kim", book.Data.Students[0].DisplayName)
	require.Len(t, book.Data.Columns, 2)
	require.True(t, book.Data.Rows[0].Cells[0].HasAnswer)

	resp = g.do(t, http.MethodPatch, coursePath, g.teacher, "teacher", map[string]interface{}{"title": "Relational Databases"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeResponse(t, resp, &created)
	require.Equal(t, "Relational Databases", created.Data.Title)

	resp = g.do(t, http.MethodPatch, coursePath, g.student, "teacher", map[string]interface{}{"title": "Hijacked"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = g.do(t, http.MethodDelete, coursePath, g.teacher, "teacher", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = g.do(t, http.MethodGet, coursePath, g.teacher, "admin", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCourseRoutesRequireGraderRole(t *testing.T) {
	g := setupGradebookApp(t)

	resp := g.do(t, http.MethodPost, "/api/v1/courses", g.student, "student", map[string]interface{}{"title": "Mine"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = g.do(t, http.MethodPost, "/api/v1/courses", g.teacher, "teacher", map[string]interface{}{"title": ""})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListMarksThroughRouter(t *testing.T) {
	g := setupGradebookApp(t)

	resp := g.do(t, http.MethodPut, fmt.Sprintf("/api/v1/units/%d/answer", g.graphs.ID), g.student, "student", map[string]interface{}{"content": "DFS"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var answer struct {
		Data dto.AnswerResponse `json:"data"`
	}
	decodeResponse(t, resp, &answer)
	marksPath := fmt.Sprintf("/api/v1/answers/%d/marks", answer.Data.ID)

	for _, score := range []float64{40, 55} {
		resp = g.do(t, http.MethodPost, marksPath, g.teacher, "teacher", map[string]interface{}{"score": score})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp = g.do(t, http.MethodGet, marksPath, g.teacher, "teacher", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var marks struct {
		Data []dto.MarkResponse `json:"data"`
	}
	decodeResponse(t, resp, &marks)
	require.Len(t, marks.Data, 2)
	require.InDelta(t, 40.0, marks.Data[0].Score, 1e-9)
	require.InDelta(t, 55.0, marks.Data[1].Score, 1e-9)

	resp = g.do(t, http.MethodGet, "/api/v1/answers/9999/marks", g.teacher, "teacher", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
