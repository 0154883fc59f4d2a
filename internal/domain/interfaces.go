// Package domain defines the core business entities and interfaces for git-versioning.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors for repository access, configuration and version resolution.
var (
	// ErrRepositoryNotFound indicates the specified path is not inside a Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrNoHeadCommit indicates HEAD does not point at a commit (empty repository).
	ErrNoHeadCommit = errors.New("repository has no HEAD commit")

	// ErrNoMatchingRule indicates no configured rule matched and no commit rule exists.
	ErrNoMatchingRule = errors.New("no versioning rule matches the current ref")

	// ErrInvalidPattern indicates a rule contains a malformed regular expression.
	ErrInvalidPattern = errors.New("invalid rule pattern")

	// ErrMissingPlaceholder indicates a template references an undefined placeholder.
	ErrMissingPlaceholder = errors.New("missing placeholder")

	// ErrNonNumericIncrementInput indicates an increment was attempted on a non-digit string.
	ErrNonNumericIncrementInput = errors.New("cannot increment non-numeric value")

	// ErrInvalidOverrideRef indicates an externally supplied ref override is malformed.
	ErrInvalidOverrideRef = errors.New("invalid ref override")

	// ErrVersioningDisabled indicates versioning was disabled by configuration or option.
	ErrVersioningDisabled = errors.New("versioning is disabled")

	// ErrSkipped indicates no rule matched and the configuration asks to skip quietly.
	ErrSkipped = errors.New("versioning skipped: no rule matches")
)

// MissingPlaceholderError names the unresolved placeholder and the template it appeared in.
type MissingPlaceholderError struct {
	Key      string
	Template string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("%s: ${%s} in template %q", ErrMissingPlaceholder, e.Key, e.Template)
}

// Unwrap lets errors.Is match ErrMissingPlaceholder.
func (e *MissingPlaceholderError) Unwrap() error {
	return ErrMissingPlaceholder
}

// SnapshotProvider reads the repository state at HEAD.
type SnapshotProvider interface {
	// Snapshot returns the current repository state. The describe walk is not
	// performed here; it is deferred to RepositorySnapshot.Describe.
	Snapshot(ctx context.Context) (*RepositorySnapshot, error)

	// Close releases any resources held by the provider.
	Close() error
}

// RefOverride is a branch or tag supplied from outside the repository,
// typically by a CI system that checks out a detached HEAD.
// A nil field means "not provided"; a non-nil empty Tag means "no tag".
type RefOverride struct {
	Branch *string
	Tag    *string
}

// IsEmpty reports whether the override carries no value.
func (o RefOverride) IsEmpty() bool {
	return o.Branch == nil && o.Tag == nil
}

// OverrideSource provides an optional ref override.
type OverrideSource interface {
	// Name identifies the source in logs.
	Name() string

	// Lookup returns the override, an empty override when the source does not apply,
	// or ErrInvalidOverrideRef when the source supplies a malformed ref.
	Lookup() (RefOverride, error)
}

// OutputWriter writes the resolution result to an output destination.
type OutputWriter interface {
	// Write renders the output in the writer's format.
	Write(out *ResolutionOutput) error
}

// Resolver runs one resolution pass.
type Resolver interface {
	Resolve(ctx context.Context, input ResolveInput) (*ResolutionOutput, error)
}

// WithOverride returns a copy of s with o applied. A tag override detaches HEAD
// and replaces the tags (an empty tag clears them); a branch override then sets the branch.
func (s *RepositorySnapshot) WithOverride(o RefOverride) *RepositorySnapshot {
	out := *s
	out.Tags = append([]string(nil), s.Tags...)
	if o.Tag != nil {
		out.Branch = ""
		out.Tags = nil
		if *o.Tag != "" {
			out.Tags = []string{*o.Tag}
		}
	}
	if o.Branch != nil {
		out.Branch = *o.Branch
	}
	return &out
}
