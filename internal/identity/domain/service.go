package domain

import (
	"context"
	"time"
)

type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*Principal, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Principal Principal
	Token     string
	ExpiresAt time.Time
}
