package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilibrary/bagdesk-api/internal/models"
	"github.com/unilibrary/bagdesk-api/internal/service"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
)

type studentServiceMock struct {
	lookupResp   *models.Student
	lookupErr    error
	registerResp *models.Student
	registerErr  error
	lastLookup   string
}

func (m *studentServiceMock) Lookup(ctx context.Context, studentID string) (*models.Student, error) {
	m.lastLookup = studentID
	return m.lookupResp, m.lookupErr
}

func (m *studentServiceMock) Register(ctx context.Context, req service.RegisterStudentRequest) (*models.Student, error) {
	return m.registerResp, m.registerErr
}

func TestStudentHandlerLookup(t *testing.T) {
	mockSvc := &studentServiceMock{lookupResp: &models.Student{ID: "internal-1", StudentID: "S12345", FullName: "Ada Lovelace"}}
	handler := NewStudentHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/students/S12345", "")
	c.Params = gin.Params{{Key: "studentId", Value: "S12345"}}
	handler.Lookup(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S12345", mockSvc.lastLookup)
	assert.Contains(t, w.Body.String(), "Ada Lovelace")
}

func TestStudentHandlerLookupNotFound(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{lookupErr: appErrors.ErrStudentNotFound})

	c, w := testContext(t, http.MethodGet, "/students/missing", "")
	c.Params = gin.Params{{Key: "studentId", Value: "missing"}}
	handler.Lookup(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "STUDENT_NOT_FOUND")
}

func TestStudentHandlerRegister(t *testing.T) {
	mockSvc := &studentServiceMock{registerResp: &models.Student{ID: "internal-1", StudentID: "S12345", FullName: "Ada Lovelace"}}
	handler := NewStudentHandler(mockSvc)

	c, w := testContext(t, http.MethodPost, "/students", `{"student_id":"S12345","full_name":"Ada Lovelace"}`)
	handler.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestStudentHandlerRegisterInvalidBody(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{})

	c, w := testContext(t, http.MethodPost, "/students", `{"student_id":`)
	handler.Register(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
