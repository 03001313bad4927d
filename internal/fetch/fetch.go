// Package fetch keeps a local checkout of the configured content repository.
// The checkout lives under the state directory and overlays the working tree
// as the source of posts and projects when content.repository is set.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/logfields"
)

// CheckoutDirName is the directory under the state dir holding the content clone.
const CheckoutDirName = "content"

// Client syncs the content repository into the state directory.
type Client struct {
	cfg      config.ContentConfig
	stateDir string
}

// NewClient creates a content sync client. The checkout is placed under
// stateDir/content.
func NewClient(cfg config.ContentConfig, stateDir string) *Client {
	return &Client{cfg: cfg, stateDir: stateDir}
}

// Configured reports whether a content repository is set.
func (c *Client) Configured() bool {
	return c.cfg.Repository != ""
}

// CheckoutDir returns the path of the local checkout.
func (c *Client) CheckoutDir() string {
	return filepath.Join(c.stateDir, CheckoutDirName)
}

// Sync clones the content repository on first use and pulls afterwards.
// It returns the checkout path and whether the checkout changed. Transient
// failures are retried per the configured backoff policy.
func (c *Client) Sync(ctx context.Context) (string, bool, error) {
	if !c.Configured() {
		return "", false, errors.New("no content repository configured")
	}

	dir := c.CheckoutDir()
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return c.withRetry(ctx, "pull", func() (string, bool, error) {
			return c.pull(ctx, dir)
		})
	}
	return c.withRetry(ctx, "clone", func() (string, bool, error) {
		return c.clone(ctx, dir)
	})
}

func (c *Client) clone(ctx context.Context, dir string) (string, bool, error) {
	slog.Debug("Cloning content repository", logfields.URL(c.cfg.Repository), logfields.Dir(dir))

	// A partial previous clone would make PlainClone fail, start fresh.
	if err := os.RemoveAll(dir); err != nil {
		return "", false, fmt.Errorf("failed to remove existing directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create state directory: %w", err)
	}

	opts := &git.CloneOptions{URL: c.cfg.Repository}
	if c.cfg.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + c.cfg.Branch)
		opts.SingleBranch = true
	}
	if auth := c.auth(); auth != nil {
		opts.Auth = auth
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return "", false, fmt.Errorf("failed to clone content repository %s: %w", c.cfg.Repository, err)
	}

	if ref, refErr := repo.Head(); refErr == nil {
		slog.Info("Content repository cloned",
			logfields.URL(c.cfg.Repository),
			slog.String("commit", shortHash(ref.Hash().String())),
			logfields.Dir(dir))
	} else {
		slog.Info("Content repository cloned", logfields.URL(c.cfg.Repository), logfields.Dir(dir))
	}
	return dir, true, nil
}

func (c *Client) pull(ctx context.Context, dir string) (string, bool, error) {
	slog.Debug("Updating content repository", logfields.Dir(dir))

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to open content checkout: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", false, fmt.Errorf("failed to get worktree: %w", err)
	}

	opts := &git.PullOptions{RemoteName: "origin"}
	if c.cfg.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + c.cfg.Branch)
		opts.SingleBranch = true
	}
	if auth := c.auth(); auth != nil {
		opts.Auth = auth
	}

	err = worktree.PullContext(ctx, opts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		slog.Info("Content repository already up to date", logfields.Dir(dir))
		return dir, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to pull content repository %s: %w", c.cfg.Repository, err)
	}

	if ref, refErr := repo.Head(); refErr == nil {
		slog.Info("Content repository updated", slog.String("commit", shortHash(ref.Hash().String())))
	}
	return dir, true, nil
}

// auth builds token authentication from the configured environment variable.
// Public repositories need none.
func (c *Client) auth() transport.AuthMethod {
	if c.cfg.TokenEnv == "" {
		return nil
	}
	token := os.Getenv(c.cfg.TokenEnv)
	if token == "" {
		slog.Warn("Content token environment variable is empty", slog.String("env", c.cfg.TokenEnv))
		return nil
	}
	return &http.BasicAuth{
		Username: "token", // forges accept any non-empty username with a token
		Password: token,
	}
}

// Head returns the current checkout commit hash, or empty when unavailable.
func (c *Client) Head() string {
	repo, err := git.PlainOpen(c.CheckoutDir())
	if err != nil {
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
