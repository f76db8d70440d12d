package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kapu/duty-rotation-bot/internal/app"
	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/service/rotationlog"
	"github.com/kapu/duty-rotation-bot/internal/util"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sourceDir string
	target    string
	dryRun    bool
	verbose   bool
)

// migrated is one group's log read from the file store.
type migrated struct {
	GroupID string
	Log     *domain.RotationLog
}

func main() {
	cmd := &cobra.Command{
		Use:   "migrate_logs",
		Short: "Copy file-based rotation logs into another store backend",
		Long: `Reads every round-robin-*.json log from a directory and writes it to
the target backend (redis or postgres), using the same REDIS_* / POSTGRES_*
environment as the bot.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&sourceDir, "dir", ".", "Directory holding the file store logs")
	cmd.Flags().StringVar(&target, "target", config.BackendPostgres, "Target backend (redis, postgres)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read and validate without writing to the target")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose output")

	if err := cmd.Execute(); err != nil {
		os.Exit(errors.ExitCode(err))
	}
}

func migrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	logger, err := util.NewLogger(level, "", util.LogRotation{})
	if err != nil {
		return err
	}
	defer logger.Sync()

	if target == config.BackendFile {
		return errors.NewValidationError("target must differ from the file store", "target", target)
	}
	if dryRun {
		logger.Info("[DRY RUN MODE] No target changes will be made")
	}

	// Step 1: Load all logs
	source, err := rotationlog.NewFileStore(sourceDir, logger)
	if err != nil {
		return err
	}
	logs, err := loadLogs(ctx, source)
	if err != nil {
		return err
	}
	logger.Info("Loaded rotation logs", zap.Int("groups", len(logs)), zap.String("dir", sourceDir))

	if dryRun {
		printSummary(logger, logs)
		return nil
	}

	// Step 2: Connect to target
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := app.OpenBackend(connectCtx, target, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer store.Close()

	// Step 3: Write logs
	if err := writeLogs(ctx, store, logs, logger); err != nil {
		return err
	}
	logger.Info("Migration completed successfully", zap.String("target", target))
	return nil
}

func loadLogs(ctx context.Context, source *rotationlog.FileStore) ([]migrated, error) {
	groups, err := source.Groups()
	if err != nil {
		return nil, err
	}
	out := make([]migrated, 0, len(groups))
	for _, groupID := range groups {
		log, err := source.Load(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", groupID, err)
		}
		out = append(out, migrated{GroupID: groupID, Log: log})
	}
	return out, nil
}

func writeLogs(ctx context.Context, store rotationlog.LogStore, logs []migrated, logger *zap.Logger) error {
	for _, m := range logs {
		if err := store.Save(ctx, m.GroupID, m.Log); err != nil {
			return fmt.Errorf("group %q: %w", m.GroupID, err)
		}
		logger.Debug("Migrated log",
			zap.String("group_id", m.GroupID),
			zap.Int("served", m.Log.Served.Len()),
			zap.Int("ignored", m.Log.Ignored.Len()),
		)
	}
	logger.Info("Wrote rotation logs", zap.Int("groups", len(logs)))
	return nil
}

func printSummary(logger *zap.Logger, logs []migrated) {
	served, ignored := 0, 0
	for _, m := range logs {
		served += m.Log.Served.Len()
		ignored += m.Log.Ignored.Len()
	}
	logger.Info("Migration summary",
		zap.Int("groups", len(logs)),
		zap.Int("served_entries", served),
		zap.Int("ignored_entries", ignored),
	)
}
