package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shopping-agent/internal/di"
	"shopping-agent/internal/infrastructure/config"

	"github.com/spf13/cobra"
)

var (
	configFile string
	envDir     string
)

var rootCMD = &cobra.Command{
	Use:           config.AppName,
	Short:         "Shopping assistant on top of remote browser tasks",
	Long:          `Searches products, compares store prices, places and tracks orders by delegating browsing to browser-use cloud tasks.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, runDemo)
	},
}

func init() {
	rootCMD.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default ./config.yaml)")
	rootCMD.PersistentFlags().StringVar(&envDir, "env-dir", ".", "directory holding .env files")
}

// withContainer loads the configuration, builds the container and runs fn
// with a context canceled on SIGINT or SIGTERM.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *di.Container) error) error {
	cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvDir: envDir})
	if err != nil {
		return err
	}

	c, err := di.NewContainer(cfg, di.Options{Out: cmd.OutOrStdout()})
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Logger.Info("Command started", "command", cmd.Name(), "env", cfg.AppEnv, "envFiles", cfg.EnvFiles)
	return fn(ctx, c)
}
