package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/install"
	"github.com/matzehuels/wallyup/pkg/manifest"
	"github.com/matzehuels/wallyup/pkg/pipeline"
	"github.com/matzehuels/wallyup/pkg/registry"
	"github.com/matzehuels/wallyup/pkg/upgrade"
	"github.com/matzehuels/wallyup/pkg/version"
)

// upgradeCommand creates the root upgrade command.
func (c *CLI) upgradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallyup [major|minor|patch]",
		Short: "Upgrade wally.toml dependencies to the newest published versions",
		Long: `Upgrade the dependencies of a wally.toml manifest to the best versions
published in the Wally package index.

The focus bounds how far each dependency may move:
  patch  same major and minor version (default)
  minor  same major version
  major  any newer release

Pre-release versions are never selected, and references pinned to a
pre-release are left untouched. When anything changed, the manifest is
rewritten and the install command (default "wally install") is run.`,
		Example: `  # Pull in patch releases
  wallyup

  # Allow new minor versions, including server and dev dependencies
  wallyup minor --sections dependencies,server-dependencies,dev-dependencies

  # Preview a major upgrade without writing anything
  wallyup major --dry-run

  # Pick changes interactively, against a local index checkout
  wallyup major -i --index-dir ../wally-index`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: focusNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			focus, err := focusArg(args)
			if err != nil {
				return err
			}
			return c.runUpgrade(cmd.Context(), focus)
		},
	}

	f := cmd.Flags()
	f.StringP("manifest", "m", manifest.DefaultFilename, "path to wally.toml")
	f.StringSlice("sections", upgrade.DefaultSections, "manifest sections to upgrade")
	f.Bool("strict", false, "fail when a dependency is missing from the index")
	f.BoolP("dry-run", "n", false, "show planned changes without writing the manifest")
	f.BoolP("interactive", "i", false, "choose which changes to apply")
	f.Bool("no-install", false, "do not run the install command after upgrading")
	f.String("install-cmd", install.DefaultCommand, "command run after the manifest changes")

	return cmd
}

// focusNames lists the focus arguments for completion.
func focusNames() []string {
	names := make([]string, len(version.Foci))
	for i, f := range version.Foci {
		names[i] = f.String()
	}
	return names
}

func focusArg(args []string) (version.Focus, error) {
	if len(args) == 0 {
		return version.DefaultFocus, nil
	}
	return version.ParseFocus(args[0])
}

// runUpgrade plans, reviews, writes and installs.
func (c *CLI) runUpgrade(ctx context.Context, focus version.Focus) error {
	logger := loggerFromContext(ctx)
	out := printer{w: c.out}
	cfg := c.Config

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err
	}

	idx, _, err := c.loadIndex(ctx)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	u := &upgrade.Upgrader{
		Index:    idx,
		Focus:    focus,
		Sections: cfg.Sections,
		Strict:   cfg.Strict,
		Logger:   logger,
	}
	report, err := u.Plan(m)
	if err != nil {
		return err
	}
	prog.done("planned upgrade", "changes", len(report.Changes), "skipped", len(report.Skipped))

	for _, s := range report.Skipped {
		out.warning("%s: %s not in index, left at %s", s.Alias, addressOf(s.Reference), versionOf(s.Reference))
	}

	if !report.Changed() {
		out.success("All dependencies are up to date (%s)", focus)
		return nil
	}

	changes := report.Changes
	if cfg.Interactive {
		changes, err = c.review(changes)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			out.info("No changes selected")
			return nil
		}
	} else {
		out.line(changeTable(changes))
	}

	if cfg.DryRun {
		out.info("Dry run: %d %s planned, %s not written", len(changes), plural(len(changes), "change", "changes"), cfg.Manifest)
		out.nextStep("Apply with", "wallyup "+string(focus))
		return nil
	}

	upgrade.Apply(m, changes)
	if err := m.Save(cfg.Manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	out.success("Upgraded %s", StyleHighlight.Render(fmt.Sprintf("%d %s", len(changes), plural(len(changes), "dependency", "dependencies"))))
	out.file(cfg.Manifest)

	if !cfg.Install.Enabled {
		return nil
	}
	return c.runInstall(ctx, cfg.Install.Command, filepath.Dir(cfg.Manifest))
}

// runInstall runs the install hook next to the manifest. The manifest is
// already written when this fails.
func (c *CLI) runInstall(ctx context.Context, command, dir string) error {
	out := printer{w: c.out}
	out.info("Running %s", styleCommand.Render(command))
	if err := install.Run(ctx, command, dir, c.out, c.errOut); err != nil {
		if errors.Is(err, errors.ErrCodeInstallFailed) {
			out.error("Install failed; the manifest has been updated")
		}
		return err
	}
	out.success("Installed")
	return nil
}

// loadIndex acquires the index with a spinner on the log writer.
func (c *CLI) loadIndex(ctx context.Context) (*registry.Index, pipeline.Info, error) {
	runner, err := c.newRunner()
	if err != nil {
		return nil, pipeline.Info{}, err
	}
	defer runner.Cache.Close()

	opts := c.pipelineOptions()
	msg := "Fetching package index..."
	if opts.Dir != "" {
		msg = "Reading package index..."
	}

	if !c.Config.Verbose && isTerminal(c.errOut) {
		spinner := newSpinner(ctx, c.errOut, msg)
		spinner.Start()
		defer spinner.Stop()
	}

	idx, info, err := runner.LoadIndex(ctx, opts)
	if err != nil {
		return nil, pipeline.Info{}, err
	}
	loggerFromContext(ctx).Debug("index ready",
		"packages", info.Packages,
		"records", info.Records,
		"commit", shortCommit(info.Commit),
		"cached", info.CacheHit,
		"took", info.Duration)
	return idx, info, nil
}

// review runs the interactive selection. Aborting selects nothing.
func (c *CLI) review(changes []upgrade.Change) ([]upgrade.Change, error) {
	if c.reviewer != nil {
		return c.reviewer(changes)
	}
	final, err := tea.NewProgram(NewReviewModel(changes), tea.WithOutput(c.errOut)).Run()
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}
	return final.(ReviewModel).Selected(), nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func addressOf(ref string) string {
	addr, _, _ := strings.Cut(ref, "@")
	return addr
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
