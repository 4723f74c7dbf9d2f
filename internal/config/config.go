// Package config resolves wallyup's runtime configuration.
//
// Values are layered, lowest precedence first: built-in defaults, a
// .wallyup.toml file (working directory, then $XDG_CONFIG_HOME/wallyup),
// WALLYUP_* environment variables and command-line flags. Nested keys map to
// environment variables by upper-casing and replacing dots and dashes with
// underscores, so index.url is read from WALLYUP_INDEX_URL.
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/install"
	"github.com/matzehuels/wallyup/pkg/manifest"
	"github.com/matzehuels/wallyup/pkg/registry"
	"github.com/matzehuels/wallyup/pkg/snapshot"
)

// EnvPrefix prefixes every environment variable read by wallyup.
const EnvPrefix = "WALLYUP"

// FileName is the config file looked up without an explicit --config.
const FileName = ".wallyup"

// IndexConfig locates the package index.
type IndexConfig struct {
	URL    string `mapstructure:"url"`
	Branch string `mapstructure:"branch"`
	Dir    string `mapstructure:"dir"`
}

// InstallConfig controls the post-upgrade hook.
type InstallConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Command string `mapstructure:"command"`
}

// CacheConfig controls index caching.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Prefix  string `mapstructure:"prefix"`
	Refresh bool   `mapstructure:"refresh"`
}

// Config holds all runtime configuration for an upgrade run.
type Config struct {
	Manifest    string        `mapstructure:"manifest"`
	Sections    []string      `mapstructure:"sections"`
	Strict      bool          `mapstructure:"strict"`
	DryRun      bool          `mapstructure:"dry_run"`
	Interactive bool          `mapstructure:"interactive"`
	Concurrency int           `mapstructure:"concurrency"`
	Verbose     bool          `mapstructure:"verbose"`
	Index       IndexConfig   `mapstructure:"index"`
	Install     InstallConfig `mapstructure:"install"`
	Cache       CacheConfig   `mapstructure:"cache"`
}

// New returns a viper instance with defaults, file lookup and environment
// binding configured. An empty file means the default search paths.
func New(file string) *viper.Viper {
	v := viper.New()

	v.SetDefault("manifest", manifest.DefaultFilename)
	v.SetDefault("sections", []string{manifest.SectionShared})
	v.SetDefault("strict", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("interactive", false)
	v.SetDefault("concurrency", registry.DefaultConcurrency)
	v.SetDefault("verbose", false)
	v.SetDefault("index.url", snapshot.DefaultURL)
	v.SetDefault("index.branch", snapshot.DefaultBranch)
	v.SetDefault("index.dir", "")
	v.SetDefault("install.enabled", true)
	v.SetDefault("install.command", install.DefaultCommand)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.url", "")
	v.SetDefault("cache.prefix", "wallyup:")
	v.SetDefault("cache.refresh", false)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and resolves v into a Config. A
// missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	cfg.Sections = splitSections(cfg.Sections)
	return cfg, nil
}

// Used returns the config file that was read, or "".
func Used(v *viper.Viper) string {
	return v.ConfigFileUsed()
}

// splitSections flattens comma-joined entries, which arrive from a single
// environment variable or flag value.
func splitSections(in []string) []string {
	var out []string
	for _, s := range in {
		for part := range strings.SplitSeq(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// configDir returns $XDG_CONFIG_HOME/wallyup, falling back to ~/.config.
func configDir() string {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, "wallyup")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wallyup")
}
