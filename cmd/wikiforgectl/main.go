// wikiforgectl is the operator CLI: job lifecycle management against the
// store directly (no HTTP round trip), a "serve" alias for the daemon, and
// an "index" command to dry-run chunking+embedding against a repo.
//
// Grounded on sallandpioneers-ultra-engineer/cmd/ultra-engineer's cobra
// layout: a root command with persistent flags, one file per subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configDir string
	dataRoot  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wikiforgectl",
		Short: "Operate the wikiforge wiki-generation pipeline",
		Long: `wikiforgectl manages wiki-generation jobs directly against the
pipeline's store and can run the pipeline daemon itself.

It handles:
- job create/list/get/pause/resume/cancel/retry: direct job management
- serve: run the worker dispatcher, cleanup service, and API server
- index: dry-run chunking and embedding against a repo for inspection`,
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", envOr("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "data-root", envOr("WIKIFORGE_DATA_ROOT", "./data"), "Path to the data root directory")

	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(indexCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
