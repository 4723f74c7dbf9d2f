package cli

import (
	"context"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/registry"
	"github.com/matzehuels/wallyup/pkg/resolve"
	"github.com/matzehuels/wallyup/pkg/version"
)

type versionsOptions struct {
	focus string
	all   bool
}

// versionsCommand creates the versions command.
func (c *CLI) versionsCommand() *cobra.Command {
	var opts versionsOptions

	cmd := &cobra.Command{
		Use:   "versions <domain/package[@version]>",
		Short: "List the published versions of a package",
		Long: `List the versions of a package published in the index, newest first.

With a pinned reference (domain/package@version) the versions reachable
under --focus are marked, and only those are listed unless --all is set.`,
		Example: `  wallyup versions roblox/roact
  wallyup versions roblox/roact@1.4.0 --focus minor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersions(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.focus, "focus", string(version.DefaultFocus), "focus used to mark reachable versions (major, minor, patch)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "list every version, including unreachable ones")

	return cmd
}

func (c *CLI) runVersions(ctx context.Context, arg string, opts versionsOptions) error {
	focus, err := version.ParseFocus(opts.focus)
	if err != nil {
		return err
	}
	addr, _, _ := strings.Cut(arg, "@")
	target, err := resolve.ParseReference(addr + "@")
	if err != nil {
		return err
	}
	for _, name := range []string{target.Domain, target.Package} {
		if err := errors.ValidateWallyName(name); err != nil {
			return err
		}
	}
	ref, err := resolve.ParseReference(arg)
	if err != nil {
		return err
	}

	idx, info, err := c.loadIndex(ctx)
	if err != nil {
		return err
	}
	records, err := idx.Lookup(target.Domain, target.Package)
	if err != nil {
		return err
	}

	var eligible []version.Version
	if ref.Resolvable() {
		if eligible, err = resolve.Candidates(ref, focus, idx); err != nil {
			return err
		}
	}

	rows := versionRows(records, eligible, ref.Resolvable())
	if ref.Resolvable() && !opts.all {
		rows = slices.DeleteFunc(rows, func(r versionRow) bool { return !r.Eligible })
	}

	out := printer{w: c.out}
	out.line(StyleTitle.Render(target.Address()))
	out.indexStats(info.Packages, info.Records, info.Commit, info.CacheHit)
	if ref.Resolvable() {
		out.newline()
		out.keyValue("Pinned", ref.Version)
		out.keyValue("Focus", focus.String())
	}
	out.newline()
	if len(rows) == 0 {
		out.info("No versions reachable from %s under %s focus", ref.Version, focus)
		return nil
	}
	out.line(versionsTable(rows))
	return nil
}

// versionRows builds the listing newest first. Records with unparsable
// versions sort last in source order. Without a pinned base every release
// counts as eligible.
func versionRows(records []registry.Record, eligible []version.Version, pinned bool) []versionRow {
	rows := make([]versionRow, 0, len(records))
	parsed := make([]*version.Version, 0, len(records))
	for _, rec := range records {
		row := versionRow{
			Version:    rec.Version,
			Realm:      rec.Realm,
			License:    rec.License,
			Prerelease: rec.IsPrerelease(),
		}
		var pv *version.Version
		if v, err := rec.ParsedVersion(); err == nil {
			pv = &v
			if !row.Prerelease {
				row.Eligible = !pinned || slices.ContainsFunc(eligible, func(e version.Version) bool { return e.Compare(v) == 0 })
			}
		}
		rows = append(rows, row)
		parsed = append(parsed, pv)
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		va, vb := parsed[a], parsed[b]
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			return 1
		case vb == nil:
			return -1
		}
		if c := vb.Compare(*va); c != 0 {
			return c
		}
		// Releases before their pre-releases.
		switch {
		case !va.IsPrerelease() && vb.IsPrerelease():
			return -1
		case va.IsPrerelease() && !vb.IsPrerelease():
			return 1
		}
		return 0
	})

	sorted := make([]versionRow, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	return sorted
}
