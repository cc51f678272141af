// Package cmd implements the steeze-bearer CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	manifest string
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:     "steeze-bearer",
		Short:   "HTTP server guarded by bearer-token authentication",
		Version: version,
		// No Run function: prints help by default.
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.manifest, "manifest", "", "manifest path (overrides STEEZE_MANIFEST)")

	root.AddCommand(newServeCmd(opts), newCheckCmd(opts))
	return root
}
