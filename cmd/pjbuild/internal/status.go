package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the recorded target and which components are built",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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
	st, err := b.Status(vars)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	stored := st.Stored
	if stored == "" {
		stored = "(none)"
	}
	fmt.Fprintf(w, "recorded target: %s\n", stored)
	fmt.Fprintf(w, "current target:  %s\n", st.Current)
	for _, c := range st.Components {
		if c.Complete {
			fmt.Fprintf(w, "%-10s built\n", c.Name)
		} else {
			fmt.Fprintf(w, "%-10s missing %s\n", c.Name, c.Missing)
		}
	}
	return nil
}
