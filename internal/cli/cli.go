// Package cli implements the wallyup command-line interface.
//
// The root command upgrades the dependencies of a wally.toml manifest to the
// best versions published in the package index, within an upgrade focus
// (major, minor or patch). Supporting commands resolve single references,
// list published versions and manage the index cache.
//
// # Commands
//
//   - wallyup [major|minor|patch]: upgrade the manifest
//   - resolve: resolve one dependency reference
//   - versions: list the published versions of a package
//   - cache: manage the parsed-index cache
//   - completion: generate shell completion scripts
//
// # Configuration
//
// Flags override WALLYUP_* environment variables, which override a
// .wallyup.toml config file, which overrides built-in defaults. See
// [config.Load].
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so library calls log under the command.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/wallyup/internal/config"
	"github.com/matzehuels/wallyup/pkg/buildinfo"
	"github.com/matzehuels/wallyup/pkg/cache"
	"github.com/matzehuels/wallyup/pkg/pipeline"
	"github.com/matzehuels/wallyup/pkg/snapshot"
	"github.com/matzehuels/wallyup/pkg/upgrade"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "wallyup"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"manifest":     "manifest",
	"sections":     "sections",
	"strict":       "strict",
	"dry-run":      "dry_run",
	"interactive":  "interactive",
	"concurrency":  "concurrency",
	"verbose":      "verbose",
	"index-url":    "index.url",
	"index-branch": "index.branch",
	"index-dir":    "index.dir",
	"install-cmd":  "install.command",
	"cache-url":    "cache.url",
	"refresh":      "cache.refresh",
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	out        io.Writer
	errOut     io.Writer
	configFile string
	fetcher    pipeline.Fetcher
	reviewer   func([]upgrade.Change) ([]upgrade.Change, error)
}

// New creates a new CLI instance with a default logger. Command output goes
// to stdout; logs and progress go to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		errOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.upgradeCommand()
	root.Version = buildinfo.Version
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRunE = c.setup

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default: ./.wallyup.toml)")
	pf.BoolP("verbose", "v", false, "enable verbose logging")
	pf.String("index-url", snapshot.DefaultURL, "package index git URL")
	pf.String("index-branch", snapshot.DefaultBranch, "package index branch")
	pf.String("index-dir", "", "use a local index snapshot instead of cloning")
	pf.Int("concurrency", 0, "domains parsed in parallel (default 8)")
	pf.Bool("no-cache", false, "disable the parsed-index cache")
	pf.Bool("refresh", false, "ignore cached indexes and fetch again")
	pf.String("cache-url", "", "cache backend: empty for the local cache dir, redis://..., or none")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup resolves configuration for the command about to run and attaches
// the logger to its context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	v := config.New(c.configFile)
	bindFlags(v, cmd.Flags())

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if changed(cmd.Flags(), "no-cache") {
		cfg.Cache.Enabled = false
	}
	if changed(cmd.Flags(), "no-install") {
		cfg.Install.Enabled = false
	}
	c.Config = cfg

	if cfg.Verbose {
		c.SetLogLevel(LogDebug)
	}
	c.Logger.Debug("starting", "build", buildinfo.String())
	if used := config.Used(v); used != "" {
		c.Logger.Debug("loaded config", "file", used)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func changed(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed && f.Value.String() == "true"
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates an index pipeline runner for CLI use.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	store, err := newCache(c.Config.Cache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Config.Cache.Prefix)
	fetcher := c.fetcher
	if fetcher == nil {
		fetcher = &snapshot.Client{Logger: c.Logger}
	}
	return pipeline.NewRunner(store, keyer, fetcher, c.Logger), nil
}

// pipelineOptions translates the resolved configuration.
func (c *CLI) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Source: snapshot.Source{
			URL:    c.Config.Index.URL,
			Branch: c.Config.Index.Branch,
		},
		Dir:         c.Config.Index.Dir,
		Refresh:     c.Config.Cache.Refresh,
		Concurrency: c.Config.Concurrency,
	}
}

func newCache(cfg config.CacheConfig) (cache.Cache, error) {
	if !cfg.Enabled {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		dir = ""
	}
	return cache.Open(cfg.URL, dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/wallyup/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
