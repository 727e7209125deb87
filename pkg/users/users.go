// Package users manages the account records created during setup.
package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumencms/setup/pkg/errors"
	"github.com/lumencms/setup/pkg/logging"
)

// RoleAdministrator is the elevated role assigned to the bootstrap
// account. CreateAdmin always forces this role.
const RoleAdministrator = "administrator"

// StatusActive is the account status forced onto the bootstrap
// account.
const StatusActive = "active"

// AdminData carries the caller-supplied fields for the bootstrap
// administrator account. Role and Status are accepted but always
// overridden; the caller cannot create a non-administrator or an
// inactive account through this path.
type AdminData struct {
	Username string
	Email    string
	Password string
	Role     string
	Status   string
}

// Manager creates and inspects account records.
type Manager struct {
	logger *logging.ColoredLogger
}

// NewManager creates a user manager.
func NewManager(logger *logging.ColoredLogger) *Manager {
	return &Manager{logger: logger}
}

// CreateAdmin inserts the bootstrap administrator account. The role
// is forced to "administrator" and the status to "active" regardless
// of what the caller supplied; this is a deliberate control, not a
// convenience default.
func (m *Manager) CreateAdmin(ctx context.Context, db *sql.DB, data AdminData) error {
	if data.Username == "" {
		return errors.NewValidationError("username", "must not be empty", data.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	id := uuid.New().String()
	_, err = db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, role, status)
VALUES (?, ?, ?, ?, ?, ?)`,
		id, data.Username, data.Email, string(hash), RoleAdministrator, StatusActive)
	if err != nil {
		return errors.Wrapf(err, "failed to create administrator account %q", data.Username)
	}

	m.logger.ComponentInfo(logging.ComponentDatabase, "administrator account created",
		zap.String("username", data.Username),
		zap.String("id", id))
	return nil
}

// CountByRole returns the number of user records holding a role.
func (m *Manager) CountByRole(ctx context.Context, db *sql.DB, role string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users with role %q: %w", role, err)
	}
	return count, nil
}

// CountRoles returns the number of defined roles.
func (m *Manager) CountRoles(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count roles: %w", err)
	}
	return count, nil
}
