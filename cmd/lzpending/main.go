package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lzpending/internal/config"
	"lzpending/internal/constants"
	"lzpending/internal/database"
	"lzpending/internal/models"
	"lzpending/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "lzpending",
		Short: "LayerZero pending message poller",
		Long: `lzpending lists LayerZero messages sent by an owner address that are still
waiting for executor delivery, using the public LayerZero Scan API.

Run "lzpending serve" for the HTTP service or "lzpending scan" for a one-off listing.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.json", "Path to configuration file")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging (full hex values)")

	root.AddCommand(newServeCmd(opts), newScanCmd(opts), newMigrateCmd(opts), newVersionCmd())
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the pending messages once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts, owner, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner address (overrides the configured one)")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the sighting store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), opts, dbPath, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the database file (defaults to database.path)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lzpending %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions, logOut io.Writer) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel, opts.verbose, logOut)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting lzpending")

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.watcher != nil {
		if err := a.watcher.Start(service.WithVerbose(ctx, opts.verbose)); err != nil {
			return fmt.Errorf("failed to start sighting watcher: %w", err)
		}
	}

	server := NewServer(a.pending, a.sightingReader(), cfg.OwnerAddress, cfg.Server, opts.verbose, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

// runScan prints the same document GET /pending would return.
func runScan(ctx context.Context, opts *rootOptions, owner string, out, logOut io.Writer) error {
	cfg, err := config.LoadConfig(opts.configPath, config.WithOwner(owner))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel, opts.verbose, logOut)

	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx = service.WithTrigger(service.WithVerbose(ctx, opts.verbose), service.TriggerCLI)

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	results, err := a.pending.GetPendingMessages(ctx, cfg.OwnerAddress)
	if err != nil {
		_ = encoder.Encode(models.ErrorResponse{OK: false, Error: err.Error()})
		return err
	}

	return encoder.Encode(models.PendingResponse{
		OK:      true,
		Owner:   cfg.OwnerAddress,
		Count:   len(results),
		Results: results,
	})
}

// runMigrate applies the schema without starting the watcher. The owner is
// not needed, so a missing one does not stop it.
func runMigrate(ctx context.Context, opts *rootOptions, dbPath string, out, logOut io.Writer) error {
	cfg, err := config.LoadConfigWithoutOwner(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	path := dbPath
	level := cfg.LogLevel
	if path == "" {
		path = cfg.Database.Path
	}
	if path == "" {
		path = constants.DefaultDatabasePath
	}

	logger := newLogger(level, opts.verbose, logOut)

	db, err := database.NewWithLogger(path, logger)
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	count, err := db.CountSightings(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Schema applied to %s (%d sightings stored)\n", path, count)
	return nil
}
