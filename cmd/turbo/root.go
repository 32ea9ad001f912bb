package main

import (
	"fmt"
	"os"

	"github.com/edisonylee/turbocommerce-sub001/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "turbo",
	Short: "Turbo streams storefront pages section by section",
	Long: `Turbo renders page workloads shell-first: the document shell is flushed
immediately and every section streams in as its dependencies resolve.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to turbo.yaml (default ./turbo.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Override the configured log format (text, json)")
}

// loadApp builds the application from the global flags or exits.
func loadApp(cmd *cobra.Command) *cli.App {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	app, err := cli.NewApp(cli.LoadOptions{ConfigPath: path, LogLevel: level, LogFormat: format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	return app
}
