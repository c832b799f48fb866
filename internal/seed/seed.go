package seed

import (
	"os"
	"time"

	"github.com/brightstack/coursekart/internal/identity/domain"
	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@coursekart.local"
	defaultAdminPassword = "changeme-admin"
)

// EnsureAdminUser makes sure at least one ADMIN account exists so a
// fresh environment can manage the catalog. Credentials come from
// SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD, falling back to local
// defaults outside production.
func EnsureAdminUser(conn *gorm.DB) error {
	var count int64
	if err := conn.Raw(`SELECT COUNT(1) FROM users WHERE role = ?`, domain.RoleAdmin).Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = defaultAdminEmail
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return conn.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		node.Generate(),
		email,
		"Administrator",
		string(hash),
		domain.RoleAdmin,
		now,
		now,
	).Error
}
