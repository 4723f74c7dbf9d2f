package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wallyup/pkg/cache"
	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/observability"
	"github.com/matzehuels/wallyup/pkg/registry"
	"github.com/matzehuels/wallyup/pkg/snapshot"
)

// Fetcher acquires snapshots. *snapshot.Client implements it.
type Fetcher interface {
	Head(ctx context.Context, src snapshot.Source) (string, error)
	Clone(ctx context.Context, src snapshot.Source, dir string) (string, error)
}

// Runner loads indexes with caching.
//
// The Runner holds no per-run state; one Runner may serve concurrent loads
// with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Fetcher Fetcher
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil fetcher uses snapshot.DefaultClient.
func NewRunner(c cache.Cache, keyer cache.Keyer, fetcher Fetcher, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if fetcher == nil {
		fetcher = snapshot.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Fetcher: fetcher,
		Logger:  logger,
	}
}

// LoadIndex returns the index described by opts.
func (r *Runner) LoadIndex(ctx context.Context, opts Options) (*registry.Index, Info, error) {
	start := time.Now()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, Info{}, fmt.Errorf("invalid options: %w", err)
	}

	var (
		idx  *registry.Index
		info Info
		err  error
	)
	if opts.Dir != "" {
		idx, info, err = r.loadLocal(ctx, opts)
	} else {
		idx, info, err = r.loadRemote(ctx, opts)
	}
	if err != nil {
		return nil, Info{}, err
	}

	for _, d := range idx.Domains() {
		info.Packages += len(idx.Packages(d))
	}
	info.Records = idx.Len()
	info.Duration = time.Since(start)
	return idx, info, nil
}

func (r *Runner) loadLocal(ctx context.Context, opts Options) (*registry.Index, Info, error) {
	dir, err := snapshot.Local(opts.Dir)
	if err != nil {
		return nil, Info{}, err
	}
	r.Logger.Debug("using local snapshot", "dir", dir)

	idx, err := r.parse(ctx, dir, opts)
	if err != nil {
		return nil, Info{}, err
	}
	return idx, Info{Dir: dir}, nil
}

func (r *Runner) loadRemote(ctx context.Context, opts Options) (*registry.Index, Info, error) {
	info := Info{Source: opts.Source}

	commit, err := r.Fetcher.Head(ctx, opts.Source)
	if err != nil {
		return nil, Info{}, fmt.Errorf("probe: %w", err)
	}
	info.Commit = commit
	r.Logger.Debug("probed index", "source", opts.Source, "commit", commit)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		key := r.Keyer.IndexKey(opts.Source.URL, opts.Source.Branch, commit)
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			idx := registry.NewIndex(nil)
			if err := json.Unmarshal(data, idx); err == nil {
				observability.Cache().OnCacheHit(ctx, "index")
				info.CacheHit = true
				return idx, info, nil
			}
			r.Logger.Debug("discarding unreadable cache entry", "key", key)
		} else if err != nil {
			r.Logger.Debug("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "index")
	}

	tmp, err := os.MkdirTemp("", "wallyup-index-*")
	if err != nil {
		return nil, Info{}, fmt.Errorf("snapshot: %w", err)
	}
	defer os.RemoveAll(tmp)

	dir := filepath.Join(tmp, "index")
	fetchStart := time.Now()
	observability.Pipeline().OnFetchStart(ctx, opts.Source.String())
	cloned, err := r.Fetcher.Clone(ctx, opts.Source, dir)
	observability.Pipeline().OnFetchComplete(ctx, opts.Source.String(), cloned, time.Since(fetchStart), err)
	if err != nil {
		return nil, Info{}, fmt.Errorf("snapshot: %w", err)
	}
	if cloned != commit {
		// The branch moved between probe and clone; key on what was parsed.
		r.Logger.Debug("index advanced during fetch", "probed", commit, "cloned", cloned)
		info.Commit = cloned
	}

	idx, err := r.parse(ctx, dir, opts)
	if err != nil {
		return nil, Info{}, err
	}

	if data, err := json.Marshal(idx); err == nil {
		key := r.Keyer.IndexKey(opts.Source.URL, opts.Source.Branch, info.Commit)
		if err := r.Cache.Set(ctx, key, data, TTLIndex); err != nil {
			r.Logger.Debug("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "index", len(data))
		}
	}
	return idx, info, nil
}

func (r *Runner) parse(ctx context.Context, dir string, opts Options) (*registry.Index, error) {
	start := time.Now()
	idx, err := registry.Load(ctx, dir, r.loadOptions(opts))
	if err != nil {
		observability.Pipeline().OnParseComplete(ctx, 0, 0, time.Since(start), err)
		return nil, fmt.Errorf("parse: %w", err)
	}
	packages := 0
	for _, d := range idx.Domains() {
		packages += len(idx.Packages(d))
	}
	observability.Pipeline().OnParseComplete(ctx, packages, idx.Len(), time.Since(start), nil)
	return idx, nil
}

func (r *Runner) loadOptions(opts Options) registry.LoadOptions {
	return registry.LoadOptions{
		Concurrency: opts.Concurrency,
		Logger:      r.Logger,
	}
}

func validateSource(src snapshot.Source) error {
	if err := errors.ValidateURL(src.URL); err != nil {
		return err
	}
	if src.Branch == "" {
		return errors.New(errors.ErrCodeInvalidInput, "index branch cannot be empty")
	}
	return nil
}
