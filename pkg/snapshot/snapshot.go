// Package snapshot acquires a local copy of the package index.
//
// The index is a git repository whose tree holds one directory per domain
// and one concatenated-JSON file per package. A snapshot is a depth-1 clone
// of its branch with the .git directory removed, leaving only the file tree
// that [registry.Load] reads. [Client.Head] resolves the branch commit without
// cloning, so callers can key caches on it and skip the clone entirely when
// nothing changed upstream.
package snapshot

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/matzehuels/wallyup/pkg/errors"
)

// Defaults for the public Wally index.
const (
	DefaultURL    = "https://github.com/UpliftGames/wally-index.git"
	DefaultBranch = "main"
)

// Source identifies an index repository and branch.
type Source struct {
	URL    string
	Branch string
}

// WithDefaults fills empty fields with the public index coordinates.
func (s Source) WithDefaults() Source {
	if s.URL == "" {
		s.URL = DefaultURL
	}
	if s.Branch == "" {
		s.Branch = DefaultBranch
	}
	return s
}

func (s Source) String() string {
	s = s.WithDefaults()
	return s.URL + "#" + s.Branch
}

// Client talks to index remotes. The zero value is usable.
type Client struct {
	// Attempts bounds tries per operation; zero means 3.
	Attempts int
	// Delay is the first backoff interval; zero means one second.
	Delay time.Duration
	// Auth overrides credentials discovered from the environment.
	Auth transport.AuthMethod
	// Logger receives retry notices. Nil discards.
	Logger *log.Logger
}

// DefaultClient is used when no client is configured.
var DefaultClient = &Client{}

// Head lists the remote's references through in-memory storage and returns
// the hash of refs/heads/<branch>.
func (c *Client) Head(ctx context.Context, src Source) (string, error) {
	src = src.WithDefaults()
	if err := errors.ValidateURL(src.URL); err != nil {
		return "", err
	}
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{src.URL},
	})

	var refs []*plumbing.Reference
	err := c.retry(ctx, "list "+src.URL, func() error {
		var err error
		refs, err = remote.ListContext(ctx, &git.ListOptions{Auth: c.auth()})
		return classify(err)
	})
	if err != nil {
		return "", networkError(err, "list %s", src.URL)
	}

	want := plumbing.NewBranchReferenceName(src.Branch)
	for _, ref := range refs {
		if ref.Name() == want {
			return ref.Hash().String(), nil
		}
	}
	return "", errors.New(errors.ErrCodeNetwork, "branch %q not found in %s", src.Branch, src.URL)
}

// Clone performs a depth-1 single-branch clone of src into dir, removes the
// repository metadata and returns the cloned commit. dir must not exist or
// be empty.
func (c *Client) Clone(ctx context.Context, src Source, dir string) (string, error) {
	src = src.WithDefaults()
	if err := errors.ValidateURL(src.URL); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}

	var commit string
	err := c.retry(ctx, "clone "+src.URL, func() error {
		repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           src.URL,
			Auth:          c.auth(),
			ReferenceName: plumbing.NewBranchReferenceName(src.Branch),
			SingleBranch:  true,
			Depth:         1,
			Tags:          git.NoTags,
		})
		if err != nil {
			_ = os.RemoveAll(dir)
			return classify(err)
		}
		head, err := repo.Head()
		if err != nil {
			return fmt.Errorf("read HEAD: %w", err)
		}
		commit = head.Hash().String()
		return nil
	})
	if err != nil {
		return "", networkError(err, "clone %s", src)
	}

	if err := os.RemoveAll(filepath.Join(dir, git.GitDirName)); err != nil {
		return "", fmt.Errorf("remove repository metadata: %w", err)
	}
	return commit, nil
}

// Local validates an existing snapshot directory and returns its absolute
// path. No network access is involved.
func Local(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "snapshot %s", dir)
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "snapshot %s", dir)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", errors.New(errors.ErrCodeInvalidPath, "snapshot %s is not a directory", dir)
	}
	return abs, nil
}

func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := c.Delay
	if delay <= 0 {
		delay = time.Second
	}
	tries := 0
	return retry(ctx, attempts, delay, func() error {
		tries++
		err := fn()
		if err != nil && isTransient(err) && tries < attempts && c.Logger != nil {
			c.Logger.Warn("retrying", "op", op, "attempt", tries, "err", err)
		}
		return err
	})
}

func (c *Client) auth() transport.AuthMethod {
	if c.Auth != nil {
		return c.Auth
	}
	return envAuth()
}

// envAuth builds HTTP basic auth from a token in the environment. Public
// indexes need none.
func envAuth() transport.AuthMethod {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "x-access-token", Password: token}
	}
	if token := os.Getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "git", Password: token}
	}
	return nil
}

// classify marks errors that another attempt could fix. Missing
// repositories, rejected credentials and cancellation are final.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, transport.ErrRepositoryNotFound),
		stderrors.Is(err, transport.ErrEmptyRemoteRepository),
		stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed),
		stderrors.Is(err, transport.ErrInvalidAuthMethod),
		stderrors.Is(err, plumbing.ErrReferenceNotFound):
		return err
	}
	return &transientError{err: err}
}

func networkError(err error, format string, args ...any) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var te *transientError
	if stderrors.As(err, &te) {
		err = te.err
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, format, args...)
}
