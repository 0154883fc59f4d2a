// Package domain defines the core business entities and interfaces for git-versioning.
package domain

import "strconv"

// RefType identifies which kind of git ref a rule applies to.
type RefType string

// Ref types in the order they appear in configuration.
const (
	RefTypeBranch RefType = "branch"
	RefTypeTag    RefType = "tag"
	RefTypeCommit RefType = "commit"
)

// Default version formats applied to rules that leave VersionFormat empty.
const (
	DefaultBranchVersionFormat = "${branch}-SNAPSHOT"
	DefaultTagVersionFormat    = "${tag}"
	DefaultCommitVersionFormat = "${commit}"
)

// DefaultDescribeTagPattern matches every tag during the describe walk.
const DefaultDescribeTagPattern = ".*"

// NoCommitDateTime is rendered for commit.timestamp.datetime when the commit time is unknown.
const NoCommitDateTime = "00000000.000000"

// NoCommitISODateTime is the ISO-8601 counterpart of NoCommitDateTime.
const NoCommitISODateTime = "0000-00-00T00:00:00Z"

// Description is the result of a describe walk: the nearest tag reachable from HEAD
// and the number of commits between that tag and HEAD.
type Description struct {
	// Commit is the HEAD commit the walk started from.
	Commit string

	// Tag is the nearest matching tag, or "root" when no tag is reachable.
	Tag string

	// Distance is the number of commits between Tag and HEAD.
	Distance int
}

// String renders the description in the long `git describe` form.
func (d Description) String() string {
	short := d.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return d.Tag + "-" + strconv.Itoa(d.Distance) + "-g" + short
}

// TagFilter reports whether a tag takes part in a describe walk.
type TagFilter func(tag string) bool

// DescribeFunc performs a describe walk considering only tags accepted by filter.
type DescribeFunc func(filter TagFilter) (Description, error)

// RepositorySnapshot is the state of the repository at HEAD for one resolution pass.
// It is immutable once handed to the resolver.
type RepositorySnapshot struct {
	// Commit is the full HEAD commit id.
	Commit string

	// CommitTimestamp is the HEAD commit time in epoch seconds; 0 means unknown.
	CommitTimestamp int64

	// Branch is the current branch name; empty when HEAD is detached.
	Branch string

	// Tags are the tag names pointing at HEAD.
	Tags []string

	// Clean reports whether the working tree has no uncommitted changes.
	Clean bool

	// Describe is evaluated lazily, only when a template references a describe placeholder.
	Describe DescribeFunc
}

// IsDetached reports whether HEAD is not on a branch.
func (s *RepositorySnapshot) IsDetached() bool {
	return s.Branch == ""
}

// PropertyRule binds a property name to a value format.
type PropertyRule struct {
	Name        string `mapstructure:"name" json:"name" yaml:"name"`
	ValueFormat string `mapstructure:"valueFormat" json:"valueFormat" yaml:"valueFormat"`
}

// Rule is one configured versioning rule.
type Rule struct {
	// Pattern is a regular expression matched against the whole ref name.
	// An empty pattern matches every ref.
	Pattern string `mapstructure:"pattern" json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// VersionFormat is the template rendered to produce the version.
	VersionFormat string `mapstructure:"versionFormat" json:"versionFormat,omitempty" yaml:"versionFormat,omitempty"`

	// Properties are rendered in order after the version.
	Properties []PropertyRule `mapstructure:"properties" json:"properties,omitempty" yaml:"properties,omitempty"`

	// DescribeTagPattern overrides Config.DescribeTagPattern for this rule.
	DescribeTagPattern *string `mapstructure:"describeTagPattern" json:"describeTagPattern,omitempty" yaml:"describeTagPattern,omitempty"`

	// UpdatePropertiesFile overrides Config.UpdatePropertiesFile for this rule.
	UpdatePropertiesFile *bool `mapstructure:"updatePropertiesFile" json:"updatePropertiesFile,omitempty" yaml:"updatePropertiesFile,omitempty"`
}

// Config is the complete versioning configuration.
type Config struct {
	// Disable turns versioning off entirely.
	Disable bool `mapstructure:"disable" json:"disable" yaml:"disable"`

	// PreferTags selects tag rules before branch rules when HEAD carries tags.
	PreferTags bool `mapstructure:"preferTags" json:"preferTags" yaml:"preferTags"`

	// SkipOnNoMatch makes a pass without a matching rule end quietly instead of failing.
	SkipOnNoMatch bool `mapstructure:"skipOnNoMatch" json:"skipOnNoMatch" yaml:"skipOnNoMatch"`

	// SlugLowercase lower-cases slug placeholders in addition to replacing slashes.
	SlugLowercase bool `mapstructure:"slugLowercase" json:"slugLowercase" yaml:"slugLowercase"`

	// UpdatePropertiesFile is the global default for the per-rule flag.
	UpdatePropertiesFile *bool `mapstructure:"updatePropertiesFile" json:"updatePropertiesFile,omitempty" yaml:"updatePropertiesFile,omitempty"`

	// DescribeTagPattern is the global default for the per-rule describe tag filter.
	DescribeTagPattern *string `mapstructure:"describeTagPattern" json:"describeTagPattern,omitempty" yaml:"describeTagPattern,omitempty"`

	Branches []Rule `mapstructure:"branches" json:"branches,omitempty" yaml:"branches,omitempty"`
	Tags     []Rule `mapstructure:"tags" json:"tags,omitempty" yaml:"tags,omitempty"`
	Commit   *Rule  `mapstructure:"commit" json:"commit,omitempty" yaml:"commit,omitempty"`
}

// MatchResult is the rule selected for the current repository state.
type MatchResult struct {
	Rule    Rule
	RefType RefType
	RefName string

	// RuleIndex is the position of Rule in its configured list.
	RuleIndex int

	// Groups holds the named capture groups of Rule.Pattern matched against RefName.
	Groups map[string]string
}

// ResolveInput contains the parameters for one resolution pass.
type ResolveInput struct {
	Snapshot *RepositorySnapshot
	Config   *Config

	// CurrentVersion is the project version before resolution; exposed as ${version}.
	CurrentVersion string

	// Parameters are externally supplied build parameters; scalar values are
	// exposed as ${property.<name>} and seed ${value} for property rules.
	Parameters map[string]any

	// Environ lists process environment entries in KEY=VALUE form.
	Environ []string

	// UpdatePropertiesFileOption is the command line/environment option; it wins over configuration.
	UpdatePropertiesFileOption *bool
}

// ResolutionOutput is the result of a successful resolution pass.
type ResolutionOutput struct {
	Version    string            `json:"version" yaml:"version"`
	RefType    RefType           `json:"refType" yaml:"refType"`
	RefName    string            `json:"refName" yaml:"refName"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`

	// GitProperties are the fixed metadata properties (git.commit, git.ref, ...).
	GitProperties map[string]string `json:"gitProperties" yaml:"gitProperties"`

	// UpdatePropertiesFile is the resolved file-rewrite flag for the build integration.
	UpdatePropertiesFile bool `json:"updatePropertiesFile" yaml:"updatePropertiesFile"`
}
