package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
	"github.com/joeydtaylor/steeze-bearer/pkg/core"
	"github.com/joeydtaylor/steeze-bearer/pkg/manifest"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bearer/pkg/serverfx"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the manifest and build the bearer engine without serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.manifest
			if path == "" {
				env, err := serverfx.LoadEnv()
				if err != nil {
					return err
				}
				path = env.Manifest
			}
			cfg, err := core.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return check(cmd, cfg)
		},
	}
}

func check(cmd *cobra.Command, cfg manifest.Config) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p, closer, err := auth.Build(ctx, cfg.Bearer, bearer.Host{})
	if err != nil {
		return err
	}
	defer closer()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "placement: %s\n", p.Placement())
	fmt.Fprintf(out, "jwt: %t\n", cfg.Bearer.JWT != nil)

	for _, id := range p.Engine().Config().KeyIDs() {
		fmt.Fprintf(out, "key: %s\n", id)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tHANDLER\tGUARD")
	for _, rt := range cfg.Routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rt.Method, rt.Path, handlerLabel(rt.Handler), guardLabel(rt.Guard))
	}
	return tw.Flush()
}

func handlerLabel(h manifest.HSpec) string {
	if h.Type == manifest.HandlerInproc {
		return string(h.Type) + ":" + h.Name
	}
	return string(h.Type)
}

func guardLabel(g manifest.Guard) string {
	var parts []string
	if g.Public {
		parts = append(parts, "public")
	}
	if g.RequireAuth {
		parts = append(parts, "require_auth")
	}
	if g.AllowAnonymous != nil {
		parts = append(parts, fmt.Sprintf("allow_anonymous=%t", *g.AllowAnonymous))
	}
	if len(g.KeyIDs) > 0 {
		parts = append(parts, "key_ids="+strings.Join(g.KeyIDs, ","))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
