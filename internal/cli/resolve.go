package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wallyup/pkg/resolve"
	"github.com/matzehuels/wallyup/pkg/version"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <reference> [major|minor|patch]",
		Short: "Resolve one dependency reference against the index",
		Long: `Resolve a dependency reference of the form domain/package@major.minor.patch
to the best published version within the focus (default patch), and print
the resulting reference. References without a version or pinned to a
pre-release are printed unchanged.`,
		Example: `  wallyup resolve roblox/roact@1.4.0
  wallyup resolve evaera/promise@3.0.0 major`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return focusNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			focus, err := focusArg(args[1:])
			if err != nil {
				return err
			}
			return c.runResolve(cmd.Context(), args[0], focus)
		},
	}
}

func (c *CLI) runResolve(ctx context.Context, ref string, focus version.Focus) error {
	parsed, err := resolve.ParseReference(ref)
	if err != nil {
		return err
	}
	out := printer{w: c.out}
	if !parsed.Resolvable() {
		out.line(ref)
		return nil
	}

	idx, _, err := c.loadIndex(ctx)
	if err != nil {
		return err
	}
	resolved, err := resolve.Resolve(ref, focus, idx)
	if err != nil {
		return err
	}
	out.line(resolved)
	return nil
}
