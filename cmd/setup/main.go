package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/lumencms/setup/pkg/cache"
	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/dbconfig"
	"github.com/lumencms/setup/pkg/diagnostics"
	"github.com/lumencms/setup/pkg/installer"
	"github.com/lumencms/setup/pkg/logging"
	"github.com/lumencms/setup/pkg/tui"
	"github.com/lumencms/setup/pkg/users"
	"github.com/lumencms/setup/pkg/wizard"
)

func setupLogger(cfg config.LoggingConfig) *logging.ColoredLogger {
	if cfg.OutputFile != "" {
		logger, err := logging.NewFileLogger(logging.ComponentSetup, cfg.OutputFile, false)
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := logging.NewDefaultLogger(logging.ComponentSetup)
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a setup.yaml config file")
		rootDir    = flag.String("root", "", "CMS installation root (overrides config)")
		listenAddr = flag.String("listen", "", "wizard listen address (overrides config)")
		useTUI     = flag.Bool("tui", false, "run the terminal wizard instead of the HTTP server")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	if *rootDir != "" {
		cfg.Root = *rootDir
	}
	if *listenAddr != "" {
		cfg.HTTP.ListenAddr = *listenAddr
	}

	logger := setupLogger(cfg.Logging)

	paths := config.NewPaths(cfg.Root)
	engine := diagnostics.NewEngine(paths, cfg.Diagnostics, logger)
	clearer := cache.NewClearer(paths, logger)
	writer := dbconfig.NewWriter(paths, logger)
	service := installer.NewService(paths, users.NewManager(logger), logger)

	if *useTUI {
		err := tui.Run(tui.Services{
			Engine:  engine,
			Clearer: clearer,
			Writer:  writer,
			Service: service,
			AutoFix: cfg.Diagnostics.AutoFix,
		})
		if err != nil {
			logger.ComponentError(logging.ComponentSetup, "terminal wizard failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	handler := wizard.NewHandler(paths, engine, clearer, writer, service, logger, cfg.Diagnostics.AutoFix)

	server := &http.Server{
		Addr:    cfg.HTTP.ListenAddr,
		Handler: handler.Router(cfg.HTTP.RequestTimeout),
	}

	go func() {
		logger.ComponentInfo(logging.ComponentSetup, "setup wizard starting",
			zap.String("addr", cfg.HTTP.ListenAddr),
			zap.String("root", cfg.Root),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ComponentError(logging.ComponentSetup, "HTTP server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.ComponentInfo(logging.ComponentSetup, "shutting down setup wizard...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.ComponentError(logging.ComponentSetup, "HTTP server shutdown error", zap.Error(err))
	}
	logger.ComponentInfo(logging.ComponentSetup, "setup wizard shutdown complete")
}
