package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hupe1980/nearest"
)

// app carries state resolved once per invocation in PersistentPreRunE.
type app struct {
	envFile   string
	logLevel  string
	logFormat string

	cfg    Config
	runID  string
	logger *nearest.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "nearest",
		Short:        "Nearest-target assignment for 3D point sets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading NEAREST_* variables")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides NEAREST_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides NEAREST_LOG_FORMAT)")

	cmd.AddCommand(newAssignCmd(a), newGenerateCmd(a), newVersionCmd())
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if err := ValidateConfig(&cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	level, _ := parseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}

	a.runID = uuid.NewString()
	a.logger = nearest.NewLogger(handler).WithRunID(a.runID)
	return nil
}
