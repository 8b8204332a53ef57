package internal

import (
	"github.com/spf13/cobra"
)

var planLink linkFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the link directives for the current target",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planLink.register(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	vars, err := ws.env()
	if err != nil {
		return err
	}
	b, err := ws.builder(cmd.OutOrStdout(), &planLink)
	if err != nil {
		return err
	}
	p, err := b.Platform(vars)
	if err != nil {
		return err
	}
	_, err = b.Plan(p.Target)
	return err
}
