// Package manifest reads and writes wally.toml project manifests.
//
// Only the dependency sections are interpreted. Everything else in the file
// ([package] fields, [place], unknown tables) is carried through a rewrite
// unchanged, so upgrading a manifest never drops configuration.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wallyup/pkg/errors"
)

// DefaultFilename is the manifest name looked up in the working directory.
const DefaultFilename = "wally.toml"

// Dependency sections of a manifest.
const (
	SectionShared = "dependencies"
	SectionServer = "server-dependencies"
	SectionDev    = "dev-dependencies"
)

// Sections lists the dependency sections in manifest order.
var Sections = []string{SectionShared, SectionServer, SectionDev}

// Package is the [package] table.
type Package struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Registry string `toml:"registry"`
	Realm    string `toml:"realm"`
}

// Manifest is a parsed wally.toml.
type Manifest struct {
	Package Package

	raw   map[string]any
	order []string // top-level keys in file order
}

type manifestFile struct {
	Package Package `toml:"package"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
	}
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", path)
	}
	return m, nil
}

// Parse parses manifest contents. Dependency sections, when present, must be
// tables of strings.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode toml")
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	var file manifestFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode [package]")
	}

	m := &Manifest{Package: file.Package, raw: raw}
	for _, key := range md.Keys() {
		if len(key) == 1 && !slices.Contains(m.order, key[0]) {
			m.order = append(m.order, key[0])
		}
	}

	for _, section := range Sections {
		v, ok := raw[section]
		if !ok {
			continue
		}
		table, ok := v.(map[string]any)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "[%s] must be a table", section)
		}
		for alias, ref := range table {
			if _, ok := ref.(string); !ok {
				return nil, errors.New(errors.ErrCodeInvalidManifest,
					"[%s] %s: expected a string reference, got %T", section, alias, ref)
			}
		}
	}
	return m, nil
}

// Dependencies returns a copy of a dependency section (alias -> reference).
// A missing section yields an empty map.
func (m *Manifest) Dependencies(section string) map[string]string {
	out := make(map[string]string)
	table, _ := m.raw[section].(map[string]any)
	for alias, ref := range table {
		if s, ok := ref.(string); ok {
			out[alias] = s
		}
	}
	return out
}

// Aliases returns the aliases of a dependency section in sorted order.
func (m *Manifest) Aliases(section string) []string {
	return slices.Sorted(maps.Keys(m.Dependencies(section)))
}

// Set pins alias in section to ref. The section is created if missing.
func (m *Manifest) Set(section, alias, ref string) {
	table, ok := m.raw[section].(map[string]any)
	if !ok {
		table = make(map[string]any)
		m.raw[section] = table
		m.order = append(m.order, section)
	}
	table[alias] = ref
}

// Encode writes the manifest as TOML. Top-level tables keep their original
// order; keys inside a table are sorted.
func (m *Manifest) Encode(w io.Writer) error {
	order := slices.Clone(m.order)
	for _, key := range slices.Sorted(maps.Keys(m.raw)) {
		if !slices.Contains(order, key) {
			order = append(order, key)
		}
	}

	// Plain values must precede every table header.
	var scalars, tables []string
	for _, key := range order {
		if isTable(m.raw[key]) {
			tables = append(tables, key)
		} else {
			scalars = append(scalars, key)
		}
	}

	var buf bytes.Buffer
	if len(scalars) > 0 {
		head := make(map[string]any, len(scalars))
		for _, key := range scalars {
			head[key] = m.raw[key]
		}
		if err := encode(&buf, head); err != nil {
			return err
		}
	}
	for _, key := range tables {
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		if err := encode(&buf, map[string]any{key: m.raw[key]}); err != nil {
			return err
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// isTable reports whether v encodes under a header: a table or an array
// of tables.
func isTable(v any) bool {
	switch v.(type) {
	case map[string]any, []map[string]any:
		return true
	}
	return false
}

func encode(w io.Writer, v any) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// Save writes the manifest to path. The file is written next to its
// destination and renamed into place, so a failed write leaves the old
// manifest intact.
func (m *Manifest) Save(path string) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
