// Package gitmeta derives last-modified metadata for documents from the git
// history of the content root. It is best effort: a content root outside any
// repository yields a disabled provider, never an error at lookup time.
package gitmeta

import (
	"errors"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// Meta is the git-derived metadata for one document.
type Meta struct {
	LastMod time.Time
	Commit  string
}

// Provider answers per-document metadata lookups against one repository.
// The zero value is a disabled provider.
type Provider struct {
	repo *git.Repository
	// prefix maps content-root-relative paths to repo-relative paths.
	prefix string
}

// Open locates the repository containing contentRoot. A content root that is
// not inside a repository returns a disabled provider and no error.
func Open(contentRoot string) (*Provider, error) {
	abs, err := filepath.Abs(contentRoot)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		slog.Debug("no git repository for content root", logfields.Path(contentRoot))
		return &Provider{}, nil
	}
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repository: history lookups still work against the root.
		return &Provider{repo: repo}, nil
	}

	prefix, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil || prefix == "." {
		prefix = ""
	}
	return &Provider{repo: repo, prefix: filepath.ToSlash(prefix)}, nil
}

// Enabled reports whether lookups can succeed.
func (p *Provider) Enabled() bool {
	return p != nil && p.repo != nil
}

// Lookup returns the newest commit touching the given content-root-relative
// path. Untracked or never-committed files return ok=false.
func (p *Provider) Lookup(sourcePath string) (Meta, bool) {
	if !p.Enabled() {
		return Meta{}, false
	}

	repoPath := sourcePath
	if p.prefix != "" {
		repoPath = path.Join(p.prefix, sourcePath)
	}

	iter, err := p.repo.Log(&git.LogOptions{
		FileName: &repoPath,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		slog.Debug("git log failed", logfields.Doc(sourcePath), logfields.Error(err))
		return Meta{}, false
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return Meta{}, false
	}
	return Meta{
		LastMod: commit.Committer.When.UTC(),
		Commit:  commit.Hash.String(),
	}, true
}

// HeadCommit returns the current HEAD commit SHA, "" when disabled or empty.
func (p *Provider) HeadCommit() string {
	if !p.Enabled() {
		return ""
	}
	ref, err := p.repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
