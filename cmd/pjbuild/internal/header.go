package internal

import (
	"github.com/spf13/cobra"
)

var headerCmd = &cobra.Command{
	Use:   "header",
	Short: "Write pjproject's config_site.h for the target byte order",
	Args:  cobra.NoArgs,
	RunE:  runHeader,
}

func init() {
	rootCmd.AddCommand(headerCmd)
}

func runHeader(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	vars, err := ws.env()
	if err != nil {
		return err
	}
	b, err := ws.builder(cmd.OutOrStdout(), nil)
	if err != nil {
		return err
	}
	return b.WriteHeader(vars)
}
