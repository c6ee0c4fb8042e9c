package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/piwi3910/barcut/internal/config"
	"github.com/piwi3910/barcut/internal/logger"
	"github.com/piwi3910/barcut/internal/model"
	"github.com/piwi3910/barcut/internal/project"
)

// cli carries state shared by all commands.
type cli struct {
	dataDir string
	verbose bool

	env config.Environment
	log *zap.SugaredLogger
	out io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "barcut",
		Short: "BarCut - 1D cutting stock optimizer",
		Long: `BarCut finds the cheapest way to cut required lengths from stock bars.

Run "barcut serve" for the HTTP API with background optimization jobs, or use
the other commands to optimize request files locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.SyncLogger()
		},
	}
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "directory holding config.json and inventory.json (default $BARCUT_DATA_DIR or ~/.barcut)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.serveCmd(),
		c.optimizeCmd(),
		c.planCmd(),
		c.compareCmd(),
		c.estimateCmd(),
		c.importCmd(),
		c.inventoryCmd(),
		c.backupCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	env, err := config.Load()
	if err != nil {
		return err
	}
	c.env = env
	if c.dataDir == "" {
		c.dataDir = env.DataDir
	}
	if c.dataDir == "" {
		c.dataDir = project.DefaultConfigDir()
	}
	c.out = cmd.OutOrStdout()

	// Local commands print their own results; only the server logs at the
	// configured level by default.
	level := zapcore.WarnLevel
	if cmd.Name() == "serve" {
		level = logger.ParseLevel(env.LogLevel)
	}
	if c.verbose {
		level = zapcore.DebugLevel
	}
	log, err := logger.InitLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.log = log
	return nil
}

func (c *cli) appConfigPath() string {
	return filepath.Join(c.dataDir, "config.json")
}

func (c *cli) inventoryPath() string {
	return filepath.Join(c.dataDir, "inventory.json")
}

func (c *cli) appConfig() (model.AppConfig, error) {
	cfg, err := project.LoadAppConfig(c.appConfigPath())
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to load app config: %w", err)
	}
	return cfg, nil
}

func (c *cli) inventory() (model.Inventory, error) {
	inv, err := project.LoadInventory(c.inventoryPath())
	if err != nil {
		return model.Inventory{}, fmt.Errorf("failed to load inventory: %w", err)
	}
	return inv, nil
}
