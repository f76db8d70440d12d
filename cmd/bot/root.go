package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kapu/duty-rotation-bot/internal/app"
	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/util"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlags struct {
	groupID      string
	message      string
	stay         string
	ignoreBefore string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "duty-rotation-bot",
		Short: "Pick the next member on duty and listen for corrections",
		Long: `Pick the next group member on duty, mention them in the group and
optionally stay around for a number of receive cycles to apply correction
commands ("heute nicht", "neu ziehen", "ignorieren und neu ziehen",
"heute X, nicht Y").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, flags, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&flags.groupID, "group-id", "g", "", "Specify the recipient group ID.")
	cmd.Flags().StringVarP(&flags.message, "message", "m", "", "Message text; must contain the literal string '"+constants.MentionPlaceholder+"'.")
	cmd.Flags().StringVarP(&flags.stay, "stay", "s", "0", "Number of receive cycles to stay for commands after the announcement.")
	cmd.Flags().StringVarP(&flags.ignoreBefore, "ignore-before", "i", strconv.Itoa(constants.RotationTiming.IgnoreBeforeHour),
		"Ignore commands delivered before hour N of the current day.")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewUserError(err.Error(), nil).WithCause(err)
	})

	return cmd
}

// applyFlags overrides env configuration with explicitly set flags.
func applyFlags(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("group-id") {
		cfg.Rotation.GroupID = flags.groupID
	}
	if changed("message") {
		cfg.Rotation.Message = flags.message
	}
	if changed("stay") {
		cycles, err := strconv.Atoi(strings.TrimSpace(flags.stay))
		if err != nil {
			return errors.NewValidationError("Number of receive cycles must be an integer", "stay", flags.stay)
		}
		cfg.Rotation.Cycles = cycles
	}
	if changed("ignore-before") {
		hour, err := strconv.Atoi(strings.TrimSpace(flags.ignoreBefore))
		if err != nil {
			hour = constants.RotationTiming.IgnoreBeforeHour
			fmt.Fprintf(os.Stderr, "ignore-before option must be a valid integer, defaulting to %d\n", hour)
		}
		cfg.Rotation.IgnoreBeforeHour = hour
	}
	return nil
}

func run(parent context.Context, cfg *config.Config) error {
	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File, util.LogRotation{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return errors.NewUnexpectedError("Failed to initialize logger", err)
	}
	defer logger.Sync()

	logger.Info("Duty rotation bot starting",
		zap.String("group_id", cfg.Rotation.GroupID),
		zap.Int("cycles", cfg.Rotation.Cycles),
		zap.String("store", cfg.Store.Backend),
		zap.String("log_level", cfg.Logging.Level),
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	buildCtx, buildCancel := context.WithTimeout(ctx, 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("Failed to release resources", zap.Error(err))
		}
	}()

	rotationBot, err := container.NewBot()
	if err != nil {
		logger.Error("Failed to initialize bot", zap.Error(err))
		return err
	}

	if err := rotationBot.Run(ctx); err != nil {
		if errors.IsUserError(err) {
			logger.Warn("Rotation aborted", zap.Error(err))
		} else {
			logger.Error("Rotation failed", zap.Error(err))
		}
		return err
	}

	logger.Info("Rotation finished")
	return nil
}
