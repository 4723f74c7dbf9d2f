package registry

import (
	"reflect"
	"testing"

	"github.com/matzehuels/wallyup/pkg/errors"
)

const roactFile = `{"package":{"name":"roblox/roact","version":"1.4.0","registry":"https://github.com/UpliftGames/wally-index","realm":"shared","description":"A declarative UI library","license":"Apache-2.0","authors":["Roblox"],"include":[],"exclude":[],"private":false},"place":{"shared-packages":null,"server-packages":null},"dependencies":{},"server-dependencies":{},"dev-dependencies":{}}
{"package":{"name":"roblox/roact","version":"1.4.2","registry":"https://github.com/UpliftGames/wally-index","realm":"shared","description":"A declarative UI library","license":"Apache-2.0","authors":["Roblox"],"include":[],"exclude":[],"private":false},"place":{"shared-packages":null,"server-packages":null},"dependencies":{"Promise":"evaera/promise@4.0.0"},"server-dependencies":{},"dev-dependencies":{}}
{"package":{"name":"roblox/roact","version":"1.4.1","registry":"https://github.com/UpliftGames/wally-index","realm":"shared","description":"A declarative UI library","license":"Apache-2.0","authors":["Roblox"],"include":[],"exclude":[],"private":false},"place":{"shared-packages":null,"server-packages":null},"dependencies":{},"server-dependencies":{},"dev-dependencies":{}}
`

func TestParseEntries(t *testing.T) {
	records, err := ParseEntries("roblox/roact", []byte(roactFile))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// Source order, not version order.
	var versions []string
	for _, r := range records {
		versions = append(versions, r.Version)
	}
	if want := []string{"1.4.0", "1.4.2", "1.4.1"}; !reflect.DeepEqual(versions, want) {
		t.Errorf("versions = %v, want %v", versions, want)
	}

	r := records[1]
	if r.Name != "roblox/roact" {
		t.Errorf("Name = %q", r.Name)
	}
	if r.Realm != "shared" {
		t.Errorf("Realm = %q", r.Realm)
	}
	if r.Registry != "https://github.com/UpliftGames/wally-index" {
		t.Errorf("Registry = %q", r.Registry)
	}
	if r.License != "Apache-2.0" {
		t.Errorf("License = %q", r.License)
	}
	if got := r.String("dependencies/Promise"); got != "evaera/promise@4.0.0" {
		t.Errorf("dependencies/Promise = %q", got)
	}
}

func TestParseEntriesFieldPaths(t *testing.T) {
	records, err := ParseEntries("roblox/roact", []byte(roactFile))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	r := records[0]

	var paths []string
	for _, f := range r.Fields {
		paths = append(paths, f.Path)
	}
	want := []string{
		"package/name",
		"package/version",
		"package/registry",
		"package/realm",
		"package/description",
		"package/license",
		"package/authors",
		"package/include",
		"package/exclude",
		"package/private",
		"place/sharedpackages",
		"place/serverpackages",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths =\n%v\nwant\n%v", paths, want)
	}

	authors, _ := r.Get("package/authors")
	if !reflect.DeepEqual(authors, []any{"Roblox"}) {
		t.Errorf("authors = %#v", authors)
	}
	private, _ := r.Get("package/private")
	if private != false {
		t.Errorf("private = %#v", private)
	}
	if v, ok := r.Get("place/sharedpackages"); !ok || v != nil {
		t.Errorf("place/sharedpackages = %#v, %v", v, ok)
	}
}

func TestParseEntriesStripsQuotesAndKeys(t *testing.T) {
	data := `{"package":{"name":"a/b","version":"1.0.0","description":"say \"hi\"","some.key name":"x"},"tags":["\"quoted\"", 3]}`
	records, err := ParseEntries("a/b", []byte(data))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	r := records[0]
	if r.Description != "say hi" {
		t.Errorf("Description = %q, want %q", r.Description, "say hi")
	}
	if got := r.String("package/somekeyname"); got != "x" {
		t.Errorf("normalized key value = %q", got)
	}
	tags, _ := r.Get("tags")
	if !reflect.DeepEqual(tags, []any{"quoted", float64(3)}) {
		t.Errorf("tags = %#v", tags)
	}
}

func TestParseEntriesEmpty(t *testing.T) {
	for _, input := range []string{"", "\n", "  \n\t"} {
		records, err := ParseEntries("empty", []byte(input))
		if err != nil {
			t.Errorf("ParseEntries(%q) error: %v", input, err)
		}
		if len(records) != 0 {
			t.Errorf("ParseEntries(%q) = %d records, want 0", input, len(records))
		}
	}
}

func TestParseEntriesNoSeparator(t *testing.T) {
	data := `{"package":{"name":"a/b","version":"1.0.0"}}{"package":{"name":"a/b","version":"1.1.0"}}`
	records, err := ParseEntries("a/b", []byte(data))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(records) != 2 || records[1].Version != "1.1.0" {
		t.Errorf("records = %+v", records)
	}
}

func TestParseEntriesMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated", `{"package":{"name":"a/b","version":"1.0.0"}`},
		{"garbage before first entry", `xx{"package":{"name":"a/b","version":"1.0.0"}}`},
		{"bad value", `{"package":{"name":a/b}}`},
		{"trailing junk", `{"package":{"name":"a/b","version":"1.0.0"}} junk`},
		{"good then bad", `{"package":{"version":"1.0.0"}}` + "\n" + `{"package":{"version":}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntries("scope/pkg", []byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeMalformedRegistryEntry) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeMalformedRegistryEntry)
			}
			if msg := errors.UserMessage(err); len(msg) < len("scope/pkg") || msg[:len("scope/pkg")] != "scope/pkg" {
				t.Errorf("message %q does not name the file", msg)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"server-dependencies": "serverdependencies",
		"shared.packages":     "sharedpackages",
		"a b-c.d":             "abcd",
		"plain":               "plain",
	}
	for in, want := range tests {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
