// Package installer orchestrates installed-state detection, schema
// installation, post-install validation and repair.
package installer

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/dbconfig"
	"github.com/lumencms/setup/pkg/errors"
	"github.com/lumencms/setup/pkg/logging"
	"github.com/lumencms/setup/pkg/migrate"
	"github.com/lumencms/setup/pkg/users"
)

// InstallationState is the derived, never-stored installed check.
type InstallationState struct {
	DBFileExists      bool
	DBNonEmpty        bool
	MigrationsCurrent bool
}

// Installed reports whether all three conditions hold.
func (s InstallationState) Installed() bool {
	return s.DBFileExists && s.DBNonEmpty && s.MigrationsCurrent
}

// Service drives installation against the configured CMS database.
type Service struct {
	paths   *config.Paths
	userMgr *users.Manager
	logger  *logging.ColoredLogger
}

// NewService creates an installer service.
func NewService(paths *config.Paths, userMgr *users.Manager, logger *logging.ColoredLogger) *Service {
	return &Service{
		paths:   paths,
		userMgr: userMgr,
		logger:  logger,
	}
}

// DatabasePath returns the configured CMS database path. It is a
// config error when the autoload artifact is missing or carries no
// cms profile.
func (s *Service) DatabasePath() (string, error) {
	artifact := s.paths.DatabaseConfigFile()
	cfg, err := dbconfig.Load(artifact)
	if err != nil {
		return "", errors.NewConfigError(artifact, "cms database path is not configured", err)
	}
	if cfg.CMS == nil || cfg.CMS.Database == "" {
		return "", errors.NewConfigError(artifact, "cms database path is not configured", nil)
	}
	return cfg.CMS.Database, nil
}

// DatabaseFileExists reports whether the CMS database file exists
// and is non-empty. Configuration errors collapse to false.
func (s *Service) DatabaseFileExists() bool {
	path, err := s.DatabasePath()
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// State computes the installed check explicitly, letting callers
// distinguish "not installed" from "the check itself failed".
func (s *Service) State(ctx context.Context) (InstallationState, error) {
	var state InstallationState

	path, err := s.DatabasePath()
	if err != nil {
		return state, err
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return state, nil
	}
	state.DBFileExists = true
	state.DBNonEmpty = info.Size() > 0
	if !state.DBNonEmpty {
		return state, nil
	}

	db, err := s.openDB(path)
	if err != nil {
		return state, errors.Wrap(err, "failed to open cms database")
	}
	defer db.Close()

	current, err := migrate.IsCurrent(ctx, db)
	if err != nil {
		return state, errors.Wrap(err, "failed to check migration status")
	}
	state.MigrationsCurrent = current
	return state, nil
}

// IsInstalled collapses State to a boolean. Any error during the
// check is treated as "not installed".
func (s *Service) IsInstalled(ctx context.Context) bool {
	state, err := s.State(ctx)
	if err != nil {
		return false
	}
	return state.Installed()
}

// Install ensures the database directory, applies all migrations
// and optionally creates the administrator account. It returns the
// post-condition IsInstalled; any failure along the way is wrapped
// as an installation error carrying the original message.
func (s *Service) Install(ctx context.Context, admin *users.AdminData) (bool, error) {
	path, err := s.DatabasePath()
	if err != nil {
		return false, errors.NewInstallError(err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			return false, errors.NewInstallError(fmt.Errorf("failed to create database directory %s: %w", dir, err))
		}
	}
	if !isWritableDir(dir) {
		return false, errors.NewInstallError(errors.Newf("database directory %s is not writable", dir))
	}

	db, err := s.openDB(path)
	if err != nil {
		return false, errors.NewInstallError(err)
	}
	defer db.Close()

	if err := migrate.Apply(ctx, db, s.logger.Logger); err != nil {
		return false, errors.NewInstallError(err)
	}

	if admin != nil {
		if err := s.userMgr.CreateAdmin(ctx, db, *admin); err != nil {
			return false, errors.NewInstallError(err)
		}
	}

	installed := s.IsInstalled(ctx)
	s.logger.ComponentInfo(logging.ComponentInstaller, "installation finished",
		zap.String("database", path),
		zap.Bool("installed", installed))
	return installed, nil
}

// CreateAdminUser creates the bootstrap administrator against the
// configured database. The role and status overrides in the user
// manager apply here too.
func (s *Service) CreateAdminUser(ctx context.Context, data users.AdminData) error {
	path, err := s.DatabasePath()
	if err != nil {
		return err
	}
	db, err := s.openDB(path)
	if err != nil {
		return errors.Wrap(err, "failed to open cms database")
	}
	defer db.Close()

	return s.userMgr.CreateAdmin(ctx, db, data)
}

// Validate runs the post-install structural checks and returns the
// accumulated problem list; empty means valid. Each check failure is
// its own message and never aborts the remaining checks.
func (s *Service) Validate(ctx context.Context) []string {
	if !s.IsInstalled(ctx) {
		return []string{"system is not installed"}
	}

	path, err := s.DatabasePath()
	if err != nil {
		return []string{err.Error()}
	}
	db, err := s.openDB(path)
	if err != nil {
		return []string{fmt.Sprintf("cannot open cms database: %v", err)}
	}
	defer db.Close()

	var problems []string

	admins, err := s.userMgr.CountByRole(ctx, db, users.RoleAdministrator)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("administrator count check failed: %v", err))
	case admins < 1:
		problems = append(problems, "no administrator account exists")
	}

	roles, err := s.userMgr.CountRoles(ctx, db)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("role count check failed: %v", err))
	case roles < 3:
		problems = append(problems, fmt.Sprintf("only %d roles defined, expected at least 3", roles))
	}

	return problems
}

// Repair backs up a corrupt database file, removes it and performs
// a fresh no-admin install. Failures are wrapped as repair errors.
func (s *Service) Repair(ctx context.Context) (bool, error) {
	if s.DatabaseFileExists() {
		path, err := s.DatabasePath()
		if err != nil {
			return false, errors.NewRepairError(err)
		}
		backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		if err := copyFile(path, backup); err != nil {
			return false, errors.NewRepairError(fmt.Errorf("backup copy failed: %w", err))
		}
		if err := os.Remove(path); err != nil {
			return false, errors.NewRepairError(fmt.Errorf("failed to remove corrupt database: %w", err))
		}
		s.logger.ComponentWarn(logging.ComponentInstaller, "database backed up and removed for repair",
			zap.String("backup", backup))
	}

	ok, err := s.Install(ctx, nil)
	if err != nil {
		return false, errors.NewRepairError(err)
	}
	return ok, nil
}

// openDB opens the sqlite database in WAL mode.
func (s *Service) openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	return db, nil
}

// copyFile is a plain synchronous copy; no atomic-rename guarantee.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func isWritableDir(dir string) bool {
	f, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
