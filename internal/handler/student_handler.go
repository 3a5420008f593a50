package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unilibrary/bagdesk-api/internal/models"
	"github.com/unilibrary/bagdesk-api/internal/service"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
	"github.com/unilibrary/bagdesk-api/pkg/response"
)

type studentService interface {
	Lookup(ctx context.Context, studentID string) (*models.Student, error)
	Register(ctx context.Context, req service.RegisterStudentRequest) (*models.Student, error)
}

// StudentHandler exposes the desk-side student directory.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Lookup godoc
// @Summary Look up a student by campus id
// @Tags Students
// @Produce json
// @Param studentId path string true "Campus student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId} [get]
func (h *StudentHandler) Lookup(c *gin.Context) {
	student, err := h.students.Lookup(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Register godoc
// @Summary Register a student at the desk
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.RegisterStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req service.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
