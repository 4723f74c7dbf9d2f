package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/manifest"
	"github.com/matzehuels/wallyup/pkg/upgrade"
)

const testManifest = `[package]
name = "acme/game"
version = "0.1.0"
registry = "https://github.com/UpliftGames/wally-index"
realm = "shared"

[dependencies]
Roact = "roblox/roact@1.4.0"
Beta = "acme/beta@0.1.0-beta.1"

[dev-dependencies]
TestEZ = "roblox/testez@0.4.0"
`

func entry(name, v string) string {
	return `{"package":{"name":"` + name + `","version":"` + v + `","registry":"https://github.com/UpliftGames/wally-index","realm":"shared","license":"Apache-2.0"},"dependencies":{}}`
}

// writeIndex lays out a minimal index snapshot.
func writeIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"config.json":   `{"api":"https://api.wally.run/"}`,
		"roblox/roact":  entry("roblox/roact", "1.3.0") + entry("roblox/roact", "1.4.0") + entry("roblox/roact", "1.4.4") + entry("roblox/roact", "2.0.0") + entry("roblox/roact", "2.1.0-rc.1"),
		"roblox/testez": entry("roblox/testez", "0.4.0") + entry("roblox/testez", "0.4.1"),
	}
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), manifest.DefaultFilename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, key := range []string{"WALLYUP_MANIFEST", "WALLYUP_SECTIONS", "WALLYUP_INDEX_DIR", "WALLYUP_CACHE_URL"} {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SetOutput(&out)
	return c, &out
}

func execute(c *CLI, args ...string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func dependency(t *testing.T, path, section, alias string) string {
	t.Helper()
	m, err := manifest.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return m.Dependencies(section)[alias]
}

func TestUpgradeCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantRoact  string
		wantTestEZ string
	}{
		{"default patch", nil, "roblox/roact@1.4.4", "roblox/testez@0.4.0"},
		{"minor", []string{"minor"}, "roblox/roact@1.4.4", "roblox/testez@0.4.0"},
		{"major", []string{"major"}, "roblox/roact@2.0.0", "roblox/testez@0.4.0"},
		{"dev section", []string{"patch", "--sections", "dependencies,dev-dependencies"}, "roblox/roact@1.4.4", "roblox/testez@0.4.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestCLI(t)
			path := writeManifest(t, testManifest)
			args := append([]string{"--index-dir", writeIndex(t), "--manifest", path, "--no-install"}, tt.args...)

			if err := execute(c, args...); err != nil {
				t.Fatalf("upgrade: %v", err)
			}
			if got := dependency(t, path, manifest.SectionShared, "Roact"); got != tt.wantRoact {
				t.Errorf("Roact = %q, want %q", got, tt.wantRoact)
			}
			if got := dependency(t, path, manifest.SectionDev, "TestEZ"); got != tt.wantTestEZ {
				t.Errorf("TestEZ = %q, want %q", got, tt.wantTestEZ)
			}
			if got := dependency(t, path, manifest.SectionShared, "Beta"); got != "acme/beta@0.1.0-beta.1" {
				t.Errorf("pre-release reference changed to %q", got)
			}
			if !strings.Contains(out.String(), "Upgraded") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestUpgradeCommandUpToDate(t *testing.T) {
	c, out := newTestCLI(t)
	path := writeManifest(t, strings.Replace(testManifest, "roact@1.4.0", "roact@1.4.4", 1))
	before, _ := os.ReadFile(path)

	if err := execute(c, "--index-dir", writeIndex(t), "--manifest", path, "--install-cmd", "exit 1"); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if !strings.Contains(out.String(), "up to date") {
		t.Errorf("output = %q", out.String())
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("manifest rewritten although nothing changed")
	}
}

func TestUpgradeCommandDryRun(t *testing.T) {
	c, out := newTestCLI(t)
	path := writeManifest(t, testManifest)

	if err := execute(c, "major", "--dry-run", "--index-dir", writeIndex(t), "--manifest", path); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if got := dependency(t, path, manifest.SectionShared, "Roact"); got != "roblox/roact@1.4.0" {
		t.Errorf("dry run wrote Roact = %q", got)
	}
	for _, want := range []string{"Roact", "2.0.0", "Dry run"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestUpgradeCommandInstall(t *testing.T) {
	c, out := newTestCLI(t)
	path := writeManifest(t, testManifest)

	if err := execute(c, "--index-dir", writeIndex(t), "--manifest", path, "--install-cmd", "echo installed in $PWD"); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if !strings.Contains(out.String(), "installed in "+filepath.Dir(path)) {
		t.Errorf("install output missing:\n%s", out.String())
	}
}

func TestUpgradeCommandInstallFails(t *testing.T) {
	c, _ := newTestCLI(t)
	path := writeManifest(t, testManifest)

	err := execute(c, "--index-dir", writeIndex(t), "--manifest", path, "--install-cmd", "exit 2")
	if !errors.Is(err, errors.ErrCodeInstallFailed) {
		t.Fatalf("error = %v, want %v", err, errors.ErrCodeInstallFailed)
	}
	if got := dependency(t, path, manifest.SectionShared, "Roact"); got != "roblox/roact@1.4.4" {
		t.Errorf("manifest not written before install: Roact = %q", got)
	}
}

func TestUpgradeCommandUnknownPackage(t *testing.T) {
	content := testManifest + "\n[server-dependencies]\nGhost = \"nobody/ghost@1.0.0\"\n"
	sections := "dependencies,server-dependencies"

	t.Run("lenient", func(t *testing.T) {
		c, out := newTestCLI(t)
		path := writeManifest(t, content)
		if err := execute(c, "--index-dir", writeIndex(t), "--manifest", path, "--no-install", "--sections", sections); err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		if !strings.Contains(out.String(), "nobody/ghost not in index") {
			t.Errorf("missing warning:\n%s", out.String())
		}
		if got := dependency(t, path, manifest.SectionShared, "Roact"); got != "roblox/roact@1.4.4" {
			t.Errorf("Roact = %q", got)
		}
	})

	t.Run("strict", func(t *testing.T) {
		c, _ := newTestCLI(t)
		path := writeManifest(t, content)
		err := execute(c, "--index-dir", writeIndex(t), "--manifest", path, "--no-install", "--sections", sections, "--strict")
		if !errors.Is(err, errors.ErrCodeUnknownPackage) {
			t.Fatalf("error = %v, want %v", err, errors.ErrCodeUnknownPackage)
		}
		if got := dependency(t, path, manifest.SectionShared, "Roact"); got != "roblox/roact@1.4.0" {
			t.Errorf("strict failure wrote Roact = %q", got)
		}
	})
}

func TestUpgradeCommandInteractive(t *testing.T) {
	c, out := newTestCLI(t)
	path := writeManifest(t, testManifest)

	var offered []upgrade.Change
	c.reviewer = func(changes []upgrade.Change) ([]upgrade.Change, error) {
		offered = changes
		return nil, nil
	}
	if err := execute(c, "-i", "--index-dir", writeIndex(t), "--manifest", path); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if len(offered) != 1 || offered[0].Alias != "Roact" {
		t.Errorf("offered changes = %+v", offered)
	}
	if !strings.Contains(out.String(), "No changes selected") {
		t.Errorf("output = %q", out.String())
	}
	if got := dependency(t, path, manifest.SectionShared, "Roact"); got != "roblox/roact@1.4.0" {
		t.Errorf("deselected change written: Roact = %q", got)
	}
}

func TestUpgradeCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		code errors.Code
	}{
		{
			name: "bad focus",
			args: func(t *testing.T) []string {
				return []string{"huge", "--index-dir", writeIndex(t), "--manifest", writeManifest(t, testManifest)}
			},
			code: errors.ErrCodeInvalidFocus,
		},
		{
			name: "missing manifest",
			args: func(t *testing.T) []string {
				return []string{"--index-dir", writeIndex(t), "--manifest", filepath.Join(t.TempDir(), "wally.toml")}
			},
			code: errors.ErrCodeFileNotFound,
		},
		{
			name: "missing index dir",
			args: func(t *testing.T) []string {
				return []string{"--index-dir", filepath.Join(t.TempDir(), "nope"), "--manifest", writeManifest(t, testManifest)}
			},
			code: errors.ErrCodeFileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCLI(t)
			if err := execute(c, tt.args(t)...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"roblox/roact@1.4.0"}, "roblox/roact@1.4.4"},
		{[]string{"roblox/roact@1.3.0", "major"}, "roblox/roact@2.0.0"},
		{[]string{"roblox/roact@2.0.0"}, "roblox/roact@2.0.0"},
		{[]string{"acme/beta@0.1.0-beta.1"}, "acme/beta@0.1.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			c, out := newTestCLI(t)
			args := append([]string{"resolve", "--index-dir", writeIndex(t)}, tt.args...)
			if err := execute(c, args...); err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionsCommand(t *testing.T) {
	t.Run("eligible only", func(t *testing.T) {
		c, out := newTestCLI(t)
		if err := execute(c, "versions", "roblox/roact@1.4.0", "--index-dir", writeIndex(t)); err != nil {
			t.Fatalf("versions: %v", err)
		}
		s := out.String()
		if !strings.Contains(s, "1.4.4") || strings.Contains(s, "2.0.0") || strings.Contains(s, "1.3.0") {
			t.Errorf("unexpected listing:\n%s", s)
		}
	})

	t.Run("all", func(t *testing.T) {
		c, out := newTestCLI(t)
		if err := execute(c, "versions", "roblox/roact", "--index-dir", writeIndex(t)); err != nil {
			t.Fatalf("versions: %v", err)
		}
		s := out.String()
		for _, want := range []string{"1.3.0", "2.0.0", "2.1.0-rc.1", "pre-release", "Apache-2.0"} {
			if !strings.Contains(s, want) {
				t.Errorf("listing missing %q:\n%s", want, s)
			}
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		c, _ := newTestCLI(t)
		err := execute(c, "versions", "roblox/ro act", "--index-dir", writeIndex(t))
		if !errors.Is(err, errors.ErrCodeInvalidReference) {
			t.Errorf("error = %v, want %v", err, errors.ErrCodeInvalidReference)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		c, _ := newTestCLI(t)
		err := execute(c, "versions", "nobody/ghost", "--index-dir", writeIndex(t))
		if !errors.Is(err, errors.ErrCodeUnknownPackage) {
			t.Errorf("error = %v, want %v", err, errors.ErrCodeUnknownPackage)
		}
	})
}

func TestConfigFileDefaults(t *testing.T) {
	c, _ := newTestCLI(t)
	path := writeManifest(t, testManifest)
	cfgFile := filepath.Join(t.TempDir(), "wallyup.toml")
	cfg := "manifest = \"" + filepath.ToSlash(path) + "\"\n\n[install]\nenabled = false\n\n[index]\ndir = \"" + filepath.ToSlash(writeIndex(t)) + "\"\n"
	if err := os.WriteFile(cfgFile, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	if err := execute(c, "minor", "--config", cfgFile); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if got := dependency(t, path, manifest.SectionShared, "Roact"); got != "roblox/roact@1.4.4" {
		t.Errorf("Roact = %q", got)
	}
}
