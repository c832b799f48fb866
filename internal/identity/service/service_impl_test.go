package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brightstack/coursekart/internal/config"
	"github.com/brightstack/coursekart/internal/identity/domain"
	"github.com/brightstack/coursekart/internal/identity/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT,
			role TEXT NOT NULL DEFAULT 'CUSTOMER',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_users_email ON users(email)`,
		`CREATE TABLE sessions (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			token TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			revoked_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_sessions_token ON sessions(token)`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	return conn
}

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn := setupTestDB(t)
	node, err := snowflake.NewNode(10)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Cfg:   config.Config{SessionTTLHours: 1},
	})
	return svc, conn
}

func TestSignUp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	principal, err := svc.SignUp(ctx, domain.SignUpRequest{
		Email:    "Buyer@Example.com",
		Name:     "Buyer",
		Password: "supersecret",
	})
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", principal.Email)
	assert.Equal(t, domain.RoleCustomer, principal.Role)
	assert.True(t, principal.Authenticated())
	assert.False(t, principal.IsAdmin())
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "not-an-email", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.SignUp(ctx, domain.SignUpRequest{Email: "buyer@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := domain.SignUpRequest{Email: "buyer@example.com", Name: "Buyer", Password: "supersecret"}
	_, err := svc.SignUp(ctx, req)
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "buyer@example.com", Name: "Buyer", Password: "supersecret"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "buyer@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	principal, err := svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Principal.UserID, principal.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "buyer@example.com", Name: "Buyer", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "buyer@example.com", Password: "wrongsecret"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "ghost@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "buyer@example.com", Name: "Buyer", Password: "supersecret"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "buyer@example.com", Password: "supersecret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))

	_, err = svc.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "buyer@example.com", Name: "Buyer", Password: "supersecret"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "buyer@example.com", Password: "supersecret"})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(
		`UPDATE sessions SET expires_at = ? WHERE token = ?`,
		time.Now().UTC().Add(-time.Minute), result.Token,
	).Error)

	_, err = svc.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
