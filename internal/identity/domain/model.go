package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// User represents a storefront account. PasswordHash is nil for accounts that
// cannot authenticate with a password.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	Name         string       `gorm:"type:text;not null"`
	PasswordHash *string      `gorm:"type:text"`
	Role         string       `gorm:"type:text;not null;default:'CUSTOMER'"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// Session is a persisted login session keyed by an opaque token.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	Token     string       `gorm:"type:text;not null;uniqueIndex:ux_sessions_token"`
	ExpiresAt time.Time    `gorm:"column:expires_at;not null"`
	RevokedAt *time.Time   `gorm:"column:revoked_at"`
	CreatedAt time.Time    `gorm:"column:created_at;not null"`
}

func (Session) TableName() string { return "sessions" }

// Principal is the authenticated caller passed explicitly into every core
// operation. A zero Principal means unauthenticated.
type Principal struct {
	UserID snowflake.ID
	Email  string
	Name   string
	Role   string
}

func (p Principal) Authenticated() bool { return p.UserID != 0 }

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
