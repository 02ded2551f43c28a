package main

import (
	"fmt"
	"os"

	"mess-management-api/config"
	"mess-management-api/handlers"
	"mess-management-api/logger"

	"github.com/spf13/cobra"
)

const appName = "mess-api"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Mess management API",
		Long:          "Weekly menu, reviews, attendance and dish suggestions for a student mess.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (environment variables override it)")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		cleanupCmd(&configPath),
		createAdminCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, handlers.Version)
			},
		},
	)
	return cmd
}

// bootstrap loads configuration and builds the root logger
func bootstrap(configPath string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(appName, cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
