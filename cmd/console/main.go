package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/application"
	"github.com/agentops/console/internal/infrastructure/config"
	"github.com/agentops/console/internal/infrastructure/logger"
	"github.com/agentops/console/internal/infrastructure/monitoring"
	"github.com/agentops/console/internal/interfaces/cli"
	httpserver "github.com/agentops/console/internal/interfaces/http"
	"github.com/agentops/console/internal/interfaces/tui"
	apperrors "github.com/agentops/console/pkg/errors"
)

const (
	version = "0.3.0"
	appName = "agentops"
)

// backendOverride is the --backend flag.
var backendOverride string

func main() {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "AgentOps console for agents and workflows",
		Long:          "AgentOps console: manage agents, build workflows and run them against an agent backend.\nWithout a subcommand the terminal console starts.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}
	rootCmd.PersistentFlags().StringVar(&backendOverride, "backend", "", "backend base URL (overrides config)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser console",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "", "listen host (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", appName, version)
		},
	})

	rootCmd.AddCommand(cli.Commands(openConsole)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !cli.IsReported(err) && !errors.Is(err, cli.ErrNotConfirmed) {
			fmt.Fprintln(os.Stderr, "Error:", apperrors.Detail(err, err.Error()))
		}
		os.Exit(1)
	}
}

// loadConfig bootstraps the home directory and reads the layered config.
func loadConfig() (*config.Config, error) {
	if err := config.Bootstrap(zap.NewNop()); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	cfg, err := loadWithOverrides()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadWithOverrides is also the hot-reload source, so flag overrides
// survive a config file change.
func loadWithOverrides() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backendOverride != "" {
		cfg.Backend.BaseURL = backendOverride
	}
	return cfg, nil
}

// fileLogger logs to the configured file, or ~/.agentops/logs/console.log,
// so terminal output stays clean.
func fileLogger(cfg *config.Config) (*zap.Logger, error) {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(config.LogDir(), "console.log")
	}
	return newLogger(cfg, path)
}

func newLogger(cfg *config.Config, path string) (*zap.Logger, error) {
	log, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: path,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return log, nil
}

func storeLabel(cfg *config.Config) string {
	if cfg.Database.Type == "postgres" {
		return "postgres"
	}
	return "sqlite " + cfg.Database.DSN
}

// ─── one-shot commands ───

func openConsole(ctx context.Context) (*cli.Services, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := fileLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	app, err := application.NewApp(cfg, log, application.WithReloader(loadWithOverrides))
	if err != nil {
		log.Sync()
		return nil, nil, err
	}

	svc := &cli.Services{
		Agents:    app.Agents(),
		Workflows: app.Workflows(),
		Settings:  app.Settings(),
		Health:    app.Backend().Health,
		Info: cli.BannerInfo{
			Version:    version,
			Backend:    app.Backend().BaseURL(),
			ConfigFile: cfg.File,
			Database:   storeLabel(cfg),
		},
	}
	closeFn := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(shutdownCtx); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
		log.Sync()
	}
	return svc, closeFn, nil
}

// ─── terminal console (default) ───

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	app, err := application.NewApp(cfg, log, application.WithReloader(loadWithOverrides))
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Stop(shutdownCtx)
	}()

	opts := []tui.Option{tui.WithVersion(version)}
	if prefs, err := app.Settings().Load(ctx); err == nil {
		opts = append(opts, tui.WithTheme(prefs.Theme))
	} else {
		log.Warn("Failed to load preferences, using defaults", zap.Error(err))
	}

	m := tui.New(tui.Services{
		Agents:    app.Agents(),
		Workflows: app.Workflows(),
		Settings:  app.Settings(),
		Dashboard: app.Dashboard(),
		NoticeTTL: app.NoticeTTL,
	}, log, opts...)
	return tui.Run(ctx, m)
}

// ─── browser console ───

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	output := cfg.Log.File
	if output == "" {
		output = "stdout"
	}
	log, err := newLogger(cfg, output)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting AgentOps console", zap.String("version", version))

	ctx := cmd.Context()
	app, err := application.NewApp(cfg, log, application.WithReloader(loadWithOverrides))
	if err != nil {
		log.Error("Failed to initialize application", zap.Error(err))
		return err
	}
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		return err
	}

	monitor := monitoring.NewMonitor(log)
	detachMonitor := monitor.Attach(app.Bus())
	defer detachMonitor()

	server, err := httpserver.NewServer(httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
		Mode: cfg.Server.Mode,
	}, httpserver.Deps{
		Agents:    app.Agents(),
		Workflows: app.Workflows(),
		Settings:  app.Settings(),
		Dashboard: app.Dashboard(),
		Health:    app.Backend(),
		Bus:       app.Bus(),
		Monitor:   monitor,
		NoticeTTL: app.NoticeTTL,
	}, log)
	if err != nil {
		log.Error("Failed to build HTTP server", zap.Error(err))
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "AgentOps console listening on http://%s\n", server.Addr())

	<-ctx.Done()
	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		return err
	}

	log.Info("Application stopped successfully")
	return nil
}
