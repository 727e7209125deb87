package wizard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/dbconfig"
)

// probeConnections runs a minimal query against each configured
// database profile. The cms profile is mandatory; the site profile
// is probed only when present.
func probeConnections(ctx context.Context, paths *config.Paths) error {
	cfg, err := dbconfig.Load(paths.DatabaseConfigFile())
	if err != nil {
		return err
	}
	if cfg.CMS == nil || cfg.CMS.Database == "" {
		return fmt.Errorf("cms database is not configured")
	}

	if err := probeSQLite(ctx, cfg.CMS.Database); err != nil {
		return fmt.Errorf("cms database: %w", err)
	}
	if cfg.Site != nil {
		if err := probeMySQL(ctx, cfg.Site); err != nil {
			return fmt.Errorf("site database: %w", err)
		}
	}
	return nil
}

func probeSQLite(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return err
	}
	return nil
}

func probeMySQL(ctx context.Context, site *dbconfig.SiteProfile) error {
	port := site.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = site.Username
	mc.Passwd = site.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", site.Hostname, port)
	mc.DBName = site.Database
	mc.Timeout = 5 * time.Second

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return db.PingContext(ctx)
}
