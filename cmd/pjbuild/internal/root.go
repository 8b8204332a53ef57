package internal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	workspaceDir string
	configFile   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "pjbuild",
	Short: "pjbuild builds OpenSSL and pjproject for a binding crate",
	Long: `pjbuild is the native half of a pjproject binding: it builds OpenSSL and
pjproject for the target described by the build environment, prints the
link directives of the resulting static libraries and generates bindings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&workspaceDir, "workspace", "C", "", "Workspace root (default: $CARGO_MANIFEST_DIR or the current directory)")
	flags.StringVar(&configFile, "config", "", "Config file (default: <workspace>/pjbuild.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log every command and stream native build output to stderr")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
