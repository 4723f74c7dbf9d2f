package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wallyup/pkg/errors"
)

// DefaultConcurrency is the number of domains parsed in parallel by Load.
const DefaultConcurrency = 8

// metadataExts are extensions of registry-level metadata files (for
// example the index's config.json). They never hold package versions.
var metadataExts = map[string]bool{
	".json": true,
	".toml": true,
	".yaml": true,
	".yml":  true,
}

// Index is a point-in-time, read-only view of a registry snapshot:
// domain -> package -> records in source order.
type Index struct {
	domains map[string]map[string][]Record
}

// NewIndex wraps an already built domain tree. The caller must not modify
// domains afterwards.
func NewIndex(domains map[string]map[string][]Record) *Index {
	if domains == nil {
		domains = make(map[string]map[string][]Record)
	}
	return &Index{domains: domains}
}

// LoadOptions configures Load.
type LoadOptions struct {
	Concurrency int         // domains parsed in parallel (default: 8)
	Logger      *log.Logger // progress output (optional)
}

// WithDefaults returns a copy of LoadOptions with zero values replaced by defaults.
func (o LoadOptions) WithDefaults() LoadOptions {
	opts := o
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// Load builds an Index from a snapshot directory. Top-level directories are
// domains; every regular file inside a domain is one package's version
// history. Metadata files and hidden entries are skipped at both levels.
// A missing or empty directory yields an empty index.
func Load(ctx context.Context, dir string, opts LoadOptions) (*Index, error) {
	opts = opts.WithDefaults()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		opts.Logger.Debug("snapshot directory missing", "dir", dir)
		return NewIndex(nil), nil
	}
	if err != nil {
		return nil, err
	}

	var domains []string
	for _, e := range entries {
		switch {
		case skipEntry(e.Name()):
		case !e.IsDir():
			opts.Logger.Debug("skipping top-level file", "name", e.Name())
		default:
			domains = append(domains, e.Name())
		}
	}

	// Each task owns one slot, so the merge below needs no locking.
	slots := make([]map[string][]Record, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, domain := range domains {
		g.Go(func() error {
			pkgs, err := loadDomain(gctx, filepath.Join(dir, domain), domain)
			if err != nil {
				return err
			}
			slots[i] = pkgs
			opts.Logger.Debug("parsed domain", "domain", domain, "packages", len(pkgs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree := make(map[string]map[string][]Record, len(domains))
	for i, domain := range domains {
		tree[domain] = slots[i]
	}
	return NewIndex(tree), nil
}

func loadDomain(ctx context.Context, dir, domain string) (map[string][]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	pkgs := make(map[string][]Record)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if skipEntry(e.Name()) || e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		records, err := ParseEntries(domain+"/"+e.Name(), data)
		if err != nil {
			return nil, err
		}
		pkgs[e.Name()] = records
	}
	return pkgs, nil
}

func skipEntry(name string) bool {
	return strings.HasPrefix(name, ".") || metadataExts[strings.ToLower(filepath.Ext(name))]
}

// Lookup returns the records of domain/pkg in source order. Names are
// matched exactly first, then case-insensitively. A missing domain or
// package is UNKNOWN_PACKAGE.
func (x *Index) Lookup(domain, pkg string) ([]Record, error) {
	pkgs, ok := lookupFold(x.domains, domain)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownPackage, "%s/%s: unknown domain %q", domain, pkg, domain)
	}
	records, ok := lookupFold(pkgs, pkg)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownPackage, "%s/%s: package not in index", domain, pkg)
	}
	return records, nil
}

// lookupFold prefers an exact match. Among names equal under case
// folding, the lexically smallest wins.
func lookupFold[V any](m map[string]V, key string) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if strings.EqualFold(k, key) {
			return m[k], true
		}
	}
	var zero V
	return zero, false
}

// Domains returns the domain names in sorted order.
func (x *Index) Domains() []string {
	return slices.Sorted(maps.Keys(x.domains))
}

// Packages returns the package names of a domain in sorted order.
func (x *Index) Packages(domain string) []string {
	pkgs, ok := lookupFold(x.domains, domain)
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(pkgs))
}

// Len returns the total number of records in the index.
func (x *Index) Len() int {
	n := 0
	for _, pkgs := range x.domains {
		for _, records := range pkgs {
			n += len(records)
		}
	}
	return n
}

// MarshalJSON encodes the index for caching.
func (x *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.domains)
}

// UnmarshalJSON decodes an index produced by MarshalJSON.
func (x *Index) UnmarshalJSON(data []byte) error {
	var domains map[string]map[string][]Record
	if err := json.Unmarshal(data, &domains); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	if domains == nil {
		domains = make(map[string]map[string][]Record)
	}
	x.domains = domains
	return nil
}
