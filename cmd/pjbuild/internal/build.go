package internal

import (
	"strings"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var buildLink linkFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the native libraries and print link directives",
	Long: `Build rebuilds OpenSSL when the target changed or its libraries are
missing, writes pjproject's config_site.h, rebuilds pjproject when its
libraries are missing, records the target, prints the link directives on
stdout and generates bindings unless they already exist.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildLink.register(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	vars, err := ws.env()
	if err != nil {
		return err
	}
	b, err := ws.builder(cmd.OutOrStdout(), &buildLink)
	if err != nil {
		return err
	}
	res, err := b.Run(cmd.Context(), vars)
	if err != nil {
		return err
	}
	if len(res.Rebuilt) == 0 {
		log.Infof("%s: up to date", res.Triple)
	} else {
		log.Infof("%s: rebuilt %s", res.Triple, strings.Join(res.Rebuilt, ", "))
	}
	return nil
}
