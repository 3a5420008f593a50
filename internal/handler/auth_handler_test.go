package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilibrary/bagdesk-api/internal/models"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
)

type authServiceMock struct {
	resp *models.LoginResponse
	err  error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	return m.resp, m.err
}

func TestAuthHandlerLogin(t *testing.T) {
	mockSvc := &authServiceMock{resp: &models.LoginResponse{
		AccessToken: "token",
		Librarian:   models.LibrarianInfo{ID: "lib-1", Email: "desk@unilibrary.app"},
	}}
	handler := NewAuthHandler(mockSvc)

	c, w := testContext(t, http.MethodPost, "/auth/login", `{"email":"desk@unilibrary.app","password":"secret"}`)
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"token"`)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{})

	c, w := testContext(t, http.MethodPost, "/auth/login", `{"email":`)
	handler.Login(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{err: appErrors.ErrInvalidCredentials})

	c, w := testContext(t, http.MethodPost, "/auth/login", `{"email":"desk@unilibrary.app","password":"wrong"}`)
	handler.Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}
