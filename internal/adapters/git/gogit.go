// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.SnapshotProvider interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// rootTag is reported by describe when no matching tag is reachable from HEAD.
const rootTag = "root"

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitRepository implements domain.SnapshotProvider using go-git/v5.
type GoGitRepository struct {
	repo   *git.Repository
	path   string
	logger Logger
}

// NewGoGitRepository opens the repository containing path.
// Parent directories are searched for the .git directory.
// Returns domain.ErrRepositoryNotFound if path is not inside a Git repository.
func NewGoGitRepository(path string, log Logger) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	return &GoGitRepository{
		repo:   repo,
		path:   path,
		logger: log,
	}, nil
}

// Snapshot reads HEAD commit, branch, tags at HEAD and working tree status.
// The describe walk is returned as a deferred function and performed only when called.
// Returns domain.ErrNoHeadCommit for a repository without commits.
func (r *GoGitRepository) Snapshot(ctx context.Context) (*domain.RepositorySnapshot, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoHeadCommit, r.path)
		}
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for HEAD: %w", err)
	}

	tagsByCommit, err := r.tagsByCommit()
	if err != nil {
		return nil, err
	}

	clean, err := r.isClean()
	if err != nil {
		return nil, err
	}

	snapshot := &domain.RepositorySnapshot{
		Commit:          headCommit.Hash.String(),
		CommitTimestamp: headCommit.Committer.When.Unix(),
		Tags:            tagsByCommit[headCommit.Hash],
		Clean:           clean,
	}

	if head.Name().IsBranch() {
		snapshot.Branch = head.Name().Short()
	} else {
		r.logger.Debug(ctx, "HEAD is detached", map[string]interface{}{
			"head_sha": snapshot.Commit,
			"path":     r.path,
		})
	}

	snapshot.Describe = func(filter domain.TagFilter) (domain.Description, error) {
		return r.describe(ctx, headCommit, tagsByCommit, filter)
	}

	r.logger.Debug(ctx, "read repository snapshot", map[string]interface{}{
		"head_sha": snapshot.Commit,
		"branch":   snapshot.Branch,
		"tags":     snapshot.Tags,
		"clean":    snapshot.Clean,
	})

	return snapshot, nil
}

// tagsByCommit maps commit hashes to the sorted names of the tags pointing at them.
// Annotated tags are peeled to their target commit.
func (r *GoGitRepository) tagsByCommit() (map[plumbing.Hash][]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	tags := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tagObject, err := r.repo.TagObject(target); err == nil {
			commit, err := tagObject.Commit()
			if err != nil {
				// tags of trees or blobs never point at HEAD
				return nil
			}
			target = commit.Hash
		}
		tags[target] = append(tags[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	for hash := range tags {
		sort.Strings(tags[hash])
	}
	return tags, nil
}

// isClean reports whether the working tree has no changes. Bare repositories are clean.
func (r *GoGitRepository) isClean() (bool, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return true, nil
		}
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}
	return status.IsClean(), nil
}

// describe walks history from HEAD in commit-time order and stops at the first
// commit carrying a tag accepted by filter. When several accepted tags point at
// that commit, the greatest by domain.CompareTags wins. The distance is the number
// of commits reachable from HEAD but not from the tagged commit, as git describe
// counts it; without a tag every commit reachable from HEAD is counted.
func (r *GoGitRepository) describe(
	ctx context.Context,
	head *object.Commit,
	tagsByCommit map[plumbing.Hash][]string,
	filter domain.TagFilter,
) (domain.Description, error) {
	description := domain.Description{Commit: head.Hash.String(), Tag: rootTag}

	var tagged *object.Commit
	visited := 0
	iter := object.NewCommitIterCTime(head, nil, nil)
	err := iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		var candidates []string
		for _, tag := range tagsByCommit[c.Hash] {
			if filter == nil || filter(tag) {
				candidates = append(candidates, tag)
			}
		}
		if tag, ok := domain.MaxTag(candidates); ok {
			description.Tag = tag
			tagged = c
			return storer.ErrStop
		}
		visited++
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return domain.Description{}, fmt.Errorf("failed to walk commit history: %w", err)
	}

	description.Distance = visited
	if tagged != nil && tagged.Hash != head.Hash {
		distance, err := countExclusive(ctx, head, tagged)
		if err != nil {
			return domain.Description{}, err
		}
		description.Distance = distance
	}

	r.logger.Debug(ctx, "described HEAD", map[string]interface{}{
		"head_sha": description.Commit,
		"tag":      description.Tag,
		"distance": description.Distance,
	})

	return description, nil
}

// countExclusive counts the commits reachable from head that are not reachable from base.
func countExclusive(ctx context.Context, head, base *object.Commit) (int, error) {
	excluded := make(map[plumbing.Hash]bool)
	err := object.NewCommitPreorderIter(base, nil, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		excluded[c.Hash] = true
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk tag history: %w", err)
	}

	count := 0
	err = object.NewCommitPreorderIter(head, excluded, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk commit history: %w", err)
	}
	return count, nil
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}
