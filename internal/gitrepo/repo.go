// Package gitrepo implements the version-control operations the benchmark
// needs on top of go-git: history enumeration, per-file diffs, line-level
// blame, historical file reads and working-tree checkouts.
package gitrepo

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/vulnbench/vulnbench/internal/model"
)

var _ model.VersionControlProvider = (*Repository)(nil)

// Repository is a go-git backed VersionControlProvider. Checkout is guarded
// by a mutex: the working tree is shared state and concurrent revision
// switches would corrupt concurrent readers' view of file content.
type Repository struct {
	repo *git.Repository
	cfg  Config
	log  logze.Logger

	// parent..commit range key -> file path -> unified diff text
	patches *abstract.SafeMap[string, map[string]string]

	checkoutMu sync.Mutex
}

// Open opens a local repository or clones a remote one into a work directory.
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}
	log := logze.With("component", "gitrepo")

	r := &Repository{
		cfg:     cfg,
		log:     log,
		patches: abstract.NewSafeMap[string, map[string]string](),
	}

	if info, err := os.Stat(cfg.Locator); err == nil && info.IsDir() {
		repo, err := git.PlainOpen(cfg.Locator)
		if err != nil {
			return nil, errm.Wrap(err, "open local repository")
		}
		r.repo = repo
		log.Info("opened local repository", "path", cfg.Locator)
		return r, nil
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", defaultWorkDirPattern)
		if err != nil {
			return nil, errm.Wrap(err, "create work directory")
		}
		workDir = dir
	}

	opts := &git.CloneOptions{URL: cfg.Locator}
	if cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
		opts.SingleBranch = true
	}
	if cfg.Token != "" {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: cfg.Token}
	}

	repo, err := git.PlainCloneContext(ctx, workDir, false, opts)
	if err != nil {
		return nil, errm.Wrap(err, "clone repository")
	}
	r.repo = repo
	log.Info("cloned repository", "url", cfg.Locator, "path", workDir)

	return r, nil
}

// Log returns commits reachable from HEAD, newest first. Root commits are
// excluded because a fix needs a parent revision to diff against.
func (r *Repository) Log(ctx context.Context, limit int) ([]model.FixingCommit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, errm.Wrap(err, "resolve HEAD")
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errm.Wrap(err, "walk history")
	}
	defer iter.Close()

	var commits []model.FixingCommit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.NumParents() == 0 {
			return nil
		}
		commits = append(commits, model.FixingCommit{
			Hash:       c.Hash.String(),
			ParentHash: c.ParentHashes[0].String(),
			Message:    c.Message,
		})
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, errm.Wrap(err, "iterate commits")
	}

	return commits, nil
}

// Diff returns the unified diff of one file between parent and commit.
func (r *Repository) Diff(ctx context.Context, commitHash, parentHash, path string) (string, error) {
	files, err := r.patchByFile(ctx, commitHash, parentHash)
	if err != nil {
		return "", err
	}
	return files[path], nil
}

// ChangedFiles lists non-binary file paths touched by the commit.
func (r *Repository) ChangedFiles(ctx context.Context, commitHash, parentHash string) ([]string, error) {
	files, err := r.patchByFile(ctx, commitHash, parentHash)
	if err != nil {
		return nil, err
	}
	paths := model.NewOrderedSet[string]()
	for path := range files {
		paths.Add(path)
	}
	out := paths.Values()
	sort.Strings(out)
	return out, nil
}

// Blame attributes the given lines of path at revision to the commits that
// last modified them. Lines beyond the end of the file are skipped.
func (r *Repository) Blame(ctx context.Context, revision, path string, lines []int) ([]model.LineAttribution, error) {
	commit, err := r.commitObject(revision)
	if err != nil {
		return nil, err
	}

	blame, err := git.Blame(commit, path)
	if err != nil {
		return nil, errm.Wrap(err, "blame file")
	}

	attributions := make([]model.LineAttribution, 0, len(lines))
	for _, line := range lines {
		if line < 1 || line > len(blame.Lines) {
			continue
		}
		attributions = append(attributions, model.LineAttribution{
			Line:       line,
			CommitHash: blame.Lines[line-1].Hash.String(),
		})
	}

	return attributions, nil
}

// CommitMessage returns the full message of a commit.
func (r *Repository) CommitMessage(_ context.Context, hash string) (string, error) {
	commit, err := r.commitObject(hash)
	if err != nil {
		return "", err
	}
	return commit.Message, nil
}

// CommitTime returns the committer timestamp of a commit.
func (r *Repository) CommitTime(_ context.Context, hash string) (time.Time, error) {
	commit, err := r.commitObject(hash)
	if err != nil {
		return time.Time{}, err
	}
	return commit.Committer.When, nil
}

// FileContent reads a file as it existed at a revision, straight from the
// object store, without touching the working tree.
func (r *Repository) FileContent(_ context.Context, revision, path string) (string, error) {
	commit, err := r.commitObject(revision)
	if err != nil {
		return "", err
	}
	file, err := commit.File(path)
	if err != nil {
		return "", errm.Wrap(err, "open file at revision")
	}
	content, err := file.Contents()
	if err != nil {
		return "", errm.Wrap(err, "read file at revision")
	}
	return content, nil
}

// Checkout moves the working tree to a revision. Serialized: callers holding
// readers on the tree must not race a revision switch.
func (r *Repository) Checkout(_ context.Context, revision string) error {
	r.checkoutMu.Lock()
	defer r.checkoutMu.Unlock()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return errm.Wrap(err, "open worktree")
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(revision),
		Force: true,
	})
	if err != nil {
		return errm.Wrap(err, "checkout revision")
	}
	return nil
}

// WorkTreePath returns the path of the checked-out working tree, used by
// collaborators that scan files on disk.
func (r *Repository) WorkTreePath() (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", errm.Wrap(err, "open worktree")
	}
	return worktree.Filesystem.Root(), nil
}

func (r *Repository) commitObject(hash string) (*object.Commit, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, errm.Wrap(err, "resolve commit object")
	}
	return commit, nil
}

// patchByFile computes the parent..commit patch once and splits its unified
// text into per-file sections keyed by post-image path.
func (r *Repository) patchByFile(ctx context.Context, commitHash, parentHash string) (map[string]string, error) {
	key := parentHash + ".." + commitHash
	if files, ok := r.patches.Lookup(key); ok {
		return files, nil
	}

	commit, err := r.commitObject(commitHash)
	if err != nil {
		return nil, err
	}
	parent, err := r.commitObject(parentHash)
	if err != nil {
		return nil, err
	}

	patch, err := parent.PatchContext(ctx, commit)
	if err != nil {
		return nil, errm.Wrap(err, "compute patch")
	}

	binary := make(map[string]bool)
	for _, fp := range patch.FilePatches() {
		if !fp.IsBinary() {
			continue
		}
		from, to := fp.Files()
		if to != nil {
			binary[to.Path()] = true
		} else if from != nil {
			binary[from.Path()] = true
		}
	}

	files := splitPatchByFile(patch.String())
	for path := range binary {
		delete(files, path)
	}
	r.patches.Set(key, files)

	return files, nil
}

// splitPatchByFile splits a multi-file unified diff into sections keyed by
// the post-image file path (the pre-image path for deletions).
func splitPatchByFile(text string) map[string]string {
	files := make(map[string]string)
	for _, section := range strings.Split(text, "diff --git ") {
		if strings.TrimSpace(section) == "" {
			continue
		}
		section = "diff --git " + section
		path := patchSectionPath(section)
		if path == "" {
			continue
		}
		files[path] = section
	}
	return files
}

func patchSectionPath(section string) string {
	var oldPath string
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ ") {
			target := strings.TrimSpace(strings.TrimPrefix(line, "+++ "))
			if target != "/dev/null" {
				return strings.TrimPrefix(target, "b/")
			}
			return oldPath
		}
		if strings.HasPrefix(line, "--- ") {
			source := strings.TrimSpace(strings.TrimPrefix(line, "--- "))
			if source != "/dev/null" {
				oldPath = strings.TrimPrefix(source, "a/")
			}
		}
	}
	return ""
}
