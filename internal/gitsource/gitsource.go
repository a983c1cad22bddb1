// Package gitsource pulls remote content repositories into a local cache so
// builds can run against them. A source is cloned on first use and hard-synced
// to its remote branch afterwards: the cache carries no local work, so the
// remote is always right.
package gitsource

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// Syncer clones and updates content repositories under a cache directory.
type Syncer struct {
	cacheDir string
}

// NewSyncer returns a syncer rooted at cacheDir. The directory is created on
// first sync.
func NewSyncer(cacheDir string) *Syncer {
	return &Syncer{cacheDir: cacheDir}
}

// Sync ensures the source is present and current, and returns the directory
// holding its content: the checkout joined with the source's Path.
func (s *Syncer) Sync(ctx context.Context, src config.GitSource) (string, error) {
	name := src.Name
	if name == "" {
		name = RepoName(src.URL)
	}
	if name == "" {
		return "", ferrors.ConfigError("cannot derive a name for content source").
			WithContext("url", src.URL).
			Build()
	}

	repoDir := filepath.Join(s.cacheDir, name)
	var err error
	if _, statErr := os.Stat(filepath.Join(repoDir, ".git")); statErr != nil {
		err = s.clone(ctx, repoDir, src)
	} else {
		err = s.update(ctx, repoDir, src)
	}
	if err != nil {
		return "", err
	}

	return contentDir(repoDir, src.Path)
}

// clone performs the initial clone into repoDir.
func (s *Syncer) clone(ctx context.Context, repoDir string, src config.GitSource) error {
	slog.Debug("Cloning content source",
		logfields.URL(src.URL),
		slog.String("branch", src.Branch),
		logfields.Path(repoDir))

	if err := os.RemoveAll(repoDir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clearing stale source directory").
			WithContext("path", repoDir).
			Build()
	}

	opts := &git.CloneOptions{URL: src.URL}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		opts.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, repoDir, false, opts)
	if err != nil {
		return classifyGitError(err, "cloning content source", src.URL)
	}

	if ref, herr := repo.Head(); herr == nil {
		slog.Info("Content source cloned",
			logfields.URL(src.URL),
			slog.String("commit", shortHash(ref.Hash())),
			logfields.Path(repoDir))
	}
	return nil
}

// update fetches the remote and hard-resets the working tree to the target
// branch. The cache never holds local edits, so divergence handling is a
// plain reset rather than a merge decision.
func (s *Syncer) update(ctx context.Context, repoDir string, src config.GitSource) error {
	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "opening cached source").
			WithContext("path", repoDir).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "opening worktree").Build()
	}

	fetchOpts := &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.NoTags,
		RefSpecs:   []gitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	}
	if err := repo.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return classifyGitError(err, "fetching content source", src.URL)
	}

	branch := resolveBranch(repo, src.Branch)
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "resolving remote branch").
			WithContext("branch", branch).
			WithContext("url", src.URL).
			Build()
	}

	localRef := plumbing.NewBranchReferenceName(branch)
	checkout := &git.CheckoutOptions{Branch: localRef, Force: true}
	if _, err := repo.Reference(localRef, true); err != nil {
		checkout.Create = true
	}
	if err := wt.Checkout(checkout); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "checking out branch").
			WithContext("branch", branch).
			Build()
	}

	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "syncing to remote").
			WithContext("branch", branch).
			Build()
	}

	slog.Info("Content source updated",
		logfields.URL(src.URL),
		slog.String("branch", branch),
		slog.String("commit", shortHash(remoteRef.Hash())))
	return nil
}

// resolveBranch picks the branch to sync: the configured one, else the
// current HEAD branch, else origin's default, else main.
func resolveBranch(repo *git.Repository, configured string) string {
	if configured != "" {
		return configured
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short()
	}
	if ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), true); err == nil {
		if target := ref.Target(); target != "" {
			return plumbing.ReferenceName(target).Short()
		}
	}
	return "main"
}

// contentDir validates the configured subdirectory and returns the absolute
// content path inside the checkout.
func contentDir(repoDir, sub string) (string, error) {
	if sub == "" {
		return repoDir, nil
	}
	clean := path.Clean(strings.ReplaceAll(sub, "\\", "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", ferrors.ConfigError("content path escapes the repository").
			WithContext("path", sub).
			Build()
	}

	dir := filepath.Join(repoDir, filepath.FromSlash(clean))
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return "", ferrors.ContentError("content path not found in repository").
			WithContext("path", sub).
			Build()
	}
	return dir, nil
}

// classifyGitError maps go-git transport sentinels to classified errors so
// callers can distinguish auth problems from transient network failures.
func classifyGitError(err error, msg, url string) error {
	b := ferrors.WrapError(err, ferrors.CategoryGit, msg).WithContext("url", url)
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		b = b.UserAction()
	case errors.Is(err, transport.ErrRepositoryNotFound):
		// Permanent; retrying cannot help.
	default:
		b = b.Retryable()
	}
	return b.Build()
}

// RepoName derives a cache directory name from a repository URL.
func RepoName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimSpace(trimmed)
}

func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
