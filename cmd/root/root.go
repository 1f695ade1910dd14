// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"os"

	"fjacquet/expense-manager/internal/config"
	"fjacquet/expense-manager/internal/container"
	"fjacquet/expense-manager/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Flags holds the persistent flags shared by every command.
type Flags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	AIEnabled  bool
}

var (
	// Log is the bootstrap logger used before the container exists.
	Log = logrus.New()

	// SharedFlags are bound to the root command's persistent flags.
	SharedFlags = Flags{}

	appContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "expense-manager",
		Short: "Normalize bank CSV exports and categorize their transactions.",
		Long: `expense-manager reads CSV exports from different banks, normalizes them into
one transaction format and assigns each transaction a category, first from the
reference store by fuzzy matching and then by asking an AI model.`,
		SilenceUsage:      true,
		PersistentPreRunE: persistentPreRun,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				appContainer.GetLogger().WithError(err).Warn("Failed to close container")
			}
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	pf := Cmd.PersistentFlags()
	pf.StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default searches ./config.yaml, .expense-manager/, $HOME/.expense-manager/)")
	pf.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text or json)")
	pf.BoolVar(&SharedFlags.AIEnabled, "ai-enabled", false, "Enable AI categorization for unmatched descriptions")
}

func persistentPreRun(cmd *cobra.Command, args []string) error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	appContainer = c
	return nil
}

// applyFlagOverrides lets explicitly set flags win over file and environment.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if flags.Changed("ai-enabled") {
		cfg.AI.Enabled = SharedFlags.AIEnabled
	}
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// SetContainer installs c, for tests that drive commands directly.
func SetContainer(c *container.Container) {
	appContainer = c
}

// GetLogger returns the container's logger, or the bootstrap logger before
// the container exists.
func GetLogger() logging.Logger {
	if appContainer != nil {
		return appContainer.GetLogger()
	}
	return logging.NewLogrusAdapterFromLogger(Log)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
