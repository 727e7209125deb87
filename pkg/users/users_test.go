package users

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumencms/setup/pkg/logging"
	"github.com/lumencms/setup/pkg/migrate"
)

func newTestManager(t *testing.T) (*Manager, *sql.DB) {
	t.Helper()
	logger, err := logging.NewColoredLogger(logging.ComponentDatabase, false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrate.Apply(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewManager(logger), db
}

func TestCreateAdminForcesRoleAndStatus(t *testing.T) {
	m, db := newTestManager(t)
	ctx := context.Background()

	// The caller tries to smuggle in a different role and status.
	err := m.CreateAdmin(ctx, db, AdminData{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "secret",
		Role:     "member",
		Status:   "disabled",
	})
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}

	var role, status string
	err = db.QueryRowContext(ctx, `SELECT role, status FROM users WHERE username = ?`, "admin").
		Scan(&role, &status)
	if err != nil {
		t.Fatal(err)
	}
	if role != RoleAdministrator {
		t.Errorf("role = %q, want %q (forced override)", role, RoleAdministrator)
	}
	if status != StatusActive {
		t.Errorf("status = %q, want %q (forced override)", status, StatusActive)
	}
}

func TestCreateAdminHashesPassword(t *testing.T) {
	m, db := newTestManager(t)
	ctx := context.Background()

	if err := m.CreateAdmin(ctx, db, AdminData{Username: "admin", Password: "hunter2"}); err != nil {
		t.Fatal(err)
	}

	var hash string
	if err := db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username = ?`, "admin").Scan(&hash); err != nil {
		t.Fatal(err)
	}
	if hash == "hunter2" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestCreateAdminRejectsEmptyUsername(t *testing.T) {
	m, db := newTestManager(t)

	if err := m.CreateAdmin(context.Background(), db, AdminData{Password: "x"}); err == nil {
		t.Fatal("expected error for empty username")
	}
}

func TestCounts(t *testing.T) {
	m, db := newTestManager(t)
	ctx := context.Background()

	roles, err := m.CountRoles(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if roles != 3 {
		t.Errorf("seeded role count = %d, want 3", roles)
	}

	admins, err := m.CountByRole(ctx, db, RoleAdministrator)
	if err != nil {
		t.Fatal(err)
	}
	if admins != 0 {
		t.Errorf("admin count before create = %d, want 0", admins)
	}

	if err := m.CreateAdmin(ctx, db, AdminData{Username: "admin", Password: "x"}); err != nil {
		t.Fatal(err)
	}

	admins, err = m.CountByRole(ctx, db, RoleAdministrator)
	if err != nil {
		t.Fatal(err)
	}
	if admins != 1 {
		t.Errorf("admin count after create = %d, want 1", admins)
	}
}
