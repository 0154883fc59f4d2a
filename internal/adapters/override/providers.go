package override

import (
	"strings"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// CommandLine carries the --git-branch, --git-tag and --git-ref flags.
// A nil field means the flag was not given.
type CommandLine struct {
	Branch *string
	Tag    *string
	Ref    *string
}

// Name implements domain.OverrideSource.
func (CommandLine) Name() string { return "command line" }

// Lookup implements domain.OverrideSource.
func (c CommandLine) Lookup() (domain.RefOverride, error) {
	return explicit(c.Branch, c.Tag, c.Ref)
}

// Environment reads VERSIONING_GIT_BRANCH, VERSIONING_GIT_TAG and VERSIONING_GIT_REF.
type Environment struct {
	env LookupEnv
}

// Name implements domain.OverrideSource.
func (Environment) Name() string { return "environment" }

// Lookup implements domain.OverrideSource.
func (e Environment) Lookup() (domain.RefOverride, error) {
	return explicit(lookup(e.env, EnvGitBranch), lookup(e.env, EnvGitTag), lookup(e.env, EnvGitRef))
}

// explicit builds an override from user-supplied values. An empty branch or ref
// counts as not given; an empty tag still means "no tag".
func explicit(branch, tag, ref *string) (domain.RefOverride, error) {
	if ref != nil && *ref != "" {
		return ParseRef(*ref)
	}
	if branch != nil && *branch == "" {
		branch = nil
	}
	return domain.RefOverride{Branch: branch, Tag: tag}, nil
}

// GitHubActions reads GITHUB_HEAD_REF for pull requests and GITHUB_REF otherwise.
type GitHubActions struct {
	env LookupEnv
}

// Name implements domain.OverrideSource.
func (GitHubActions) Name() string { return "GitHub Actions" }

// Lookup implements domain.OverrideSource.
func (g GitHubActions) Lookup() (domain.RefOverride, error) {
	if value(g.env, "GITHUB_ACTIONS") != "true" {
		return domain.RefOverride{}, nil
	}
	if headRef := value(g.env, "GITHUB_HEAD_REF"); headRef != "" {
		return domain.RefOverride{Branch: ptr(headRef)}, nil
	}
	ref := value(g.env, "GITHUB_REF")
	if ref == "" {
		return domain.RefOverride{}, nil
	}
	return ParseRef(ref)
}

// GitLabCI reads CI_COMMIT_TAG, CI_COMMIT_BRANCH and CI_MERGE_REQUEST_SOURCE_BRANCH_NAME.
type GitLabCI struct {
	env LookupEnv
}

// Name implements domain.OverrideSource.
func (GitLabCI) Name() string { return "GitLab CI" }

// Lookup implements domain.OverrideSource.
func (g GitLabCI) Lookup() (domain.RefOverride, error) {
	if value(g.env, "GITLAB_CI") != "true" {
		return domain.RefOverride{}, nil
	}
	if tag := value(g.env, "CI_COMMIT_TAG"); tag != "" {
		return domain.RefOverride{Tag: ptr(tag)}, nil
	}
	if branch := value(g.env, "CI_COMMIT_BRANCH"); branch != "" {
		return domain.RefOverride{Branch: ptr(branch)}, nil
	}
	if branch := value(g.env, "CI_MERGE_REQUEST_SOURCE_BRANCH_NAME"); branch != "" {
		return domain.RefOverride{Branch: ptr(branch)}, nil
	}
	return domain.RefOverride{}, nil
}

// CircleCI reads CIRCLE_TAG and CIRCLE_BRANCH.
type CircleCI struct {
	env LookupEnv
}

// Name implements domain.OverrideSource.
func (CircleCI) Name() string { return "CircleCI" }

// Lookup implements domain.OverrideSource.
func (c CircleCI) Lookup() (domain.RefOverride, error) {
	if value(c.env, "CIRCLECI") != "true" {
		return domain.RefOverride{}, nil
	}
	if tag := value(c.env, "CIRCLE_TAG"); tag != "" {
		return domain.RefOverride{Tag: ptr(tag)}, nil
	}
	if branch := value(c.env, "CIRCLE_BRANCH"); branch != "" {
		return domain.RefOverride{Branch: ptr(branch)}, nil
	}
	return domain.RefOverride{}, nil
}

// Jenkins reads TAG_NAME, CHANGE_BRANCH, BRANCH_NAME and GIT_BRANCH.
type Jenkins struct {
	env LookupEnv
}

// Name implements domain.OverrideSource.
func (Jenkins) Name() string { return "Jenkins" }

// Lookup implements domain.OverrideSource.
func (j Jenkins) Lookup() (domain.RefOverride, error) {
	if value(j.env, "JENKINS_HOME") == "" && value(j.env, "JENKINS_URL") == "" {
		return domain.RefOverride{}, nil
	}
	if tag := value(j.env, "TAG_NAME"); tag != "" {
		return domain.RefOverride{Tag: ptr(tag)}, nil
	}
	if branch := value(j.env, "CHANGE_BRANCH"); branch != "" {
		return domain.RefOverride{Branch: ptr(branch)}, nil
	}
	if branch := value(j.env, "BRANCH_NAME"); branch != "" {
		return domain.RefOverride{Branch: ptr(branch)}, nil
	}
	if branch := value(j.env, "GIT_BRANCH"); branch != "" {
		// the git plugin reports remote tracking names such as origin/main
		return domain.RefOverride{Branch: ptr(strings.TrimPrefix(branch, "origin/"))}, nil
	}
	return domain.RefOverride{}, nil
}

func lookup(env LookupEnv, key string) *string {
	if v, ok := env(key); ok {
		return &v
	}
	return nil
}

func value(env LookupEnv, key string) string {
	v, _ := env(key)
	return v
}
