package cli

import (
	"github.com/spf13/cobra"
	"github.com/thepwagner/cydiarepo/pkg/server"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return server.Run(cmd.Context(), cfg)
}
