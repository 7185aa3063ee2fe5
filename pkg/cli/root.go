package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/thepwagner/cydiarepo/pkg/server"
)

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cydiarepo",
		Short: "Serve a Cydia/Sileo package repository from a relational store",
		Long: `cydiarepo answers Release, Packages and sileo-featured.json requests
from package metadata stored in PostgreSQL (or SQLite for local use).

Configuration is read from an optional YAML file and the environment:
  DATABASE_URL  connection string for the package store (required)
  URL           base URL used in Filename and depiction fields (required)`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(server.NewLogger(os.Stderr, level))
		},
		RunE: runServe,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", server.DefaultConfigPath, "Path to the YAML config file")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewRenderCmd())

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return server.LoadConfig(path)
}
