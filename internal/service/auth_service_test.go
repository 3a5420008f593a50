package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unilibrary/bagdesk-api/internal/models"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
)

type mockLibrarianRepo struct {
	librarians map[string]models.Librarian // keyed by email
	lastLogins []string
}

func (m *mockLibrarianRepo) FindByEmail(ctx context.Context, email string) (*models.Librarian, error) {
	if l, ok := m.librarians[email]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLibrarianRepo) FindByID(ctx context.Context, id string) (*models.Librarian, error) {
	for _, l := range m.librarians {
		if l.ID == id {
			librarian := l
			return &librarian, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockLibrarianRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogins = append(m.lastLogins, id)
	return nil
}

func newLibrarianRepo(t *testing.T, email, password string, active bool) *mockLibrarianRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockLibrarianRepo{librarians: map[string]models.Librarian{
		email: {ID: "lib-1", Email: email, PasswordHash: string(hash), FullName: "Desk Librarian", Active: active},
	}}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newLibrarianRepo(t, "desk@unilibrary.app", "secret", true)
	svc := NewAuthService(repo, nil, nil, AuthConfig{TokenSecret: "test-secret", Issuer: "bagdesk-api"})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "desk@unilibrary.app", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "lib-1", resp.Librarian.ID)
	assert.Equal(t, []string{"lib-1"}, repo.lastLogins)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "lib-1", claims.LibrarianID)
	assert.Equal(t, "desk@unilibrary.app", claims.Email)
	assert.Equal(t, "bagdesk-api", claims.Issuer)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newLibrarianRepo(t, "desk@unilibrary.app", "secret", true)
	svc := NewAuthService(repo, nil, nil, AuthConfig{TokenSecret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "desk@unilibrary.app", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&mockLibrarianRepo{}, nil, nil, AuthConfig{TokenSecret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@unilibrary.app", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	repo := newLibrarianRepo(t, "desk@unilibrary.app", "secret", false)
	svc := NewAuthService(repo, nil, nil, AuthConfig{TokenSecret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "desk@unilibrary.app", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenBadSecret(t *testing.T) {
	repo := newLibrarianRepo(t, "desk@unilibrary.app", "secret", true)
	issuer := NewAuthService(repo, nil, nil, AuthConfig{TokenSecret: "one"})
	verifier := NewAuthService(repo, nil, nil, AuthConfig{TokenSecret: "two"})

	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "desk@unilibrary.app", Password: "secret"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
