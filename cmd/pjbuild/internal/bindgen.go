package internal

import (
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var bindgenCmd = &cobra.Command{
	Use:   "bindgen",
	Short: "Generate bindings into $OUT_DIR unless they exist",
	Args:  cobra.NoArgs,
	RunE:  runBindgen,
}

func init() {
	rootCmd.AddCommand(bindgenCmd)
}

func runBindgen(cmd *cobra.Command, args []string) error {
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
	generated, err := b.Bindings(cmd.Context(), vars)
	if err != nil {
		return err
	}
	if !generated {
		log.Infof("bindings already present in %s", vars.OutDir)
	}
	return nil
}
