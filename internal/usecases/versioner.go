// Package usecases contains the application business logic.
// This package turns a repository snapshot and a rule configuration into a version.
package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// Logger defines the logging interface required by the versioner.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Versioner runs resolution passes. It holds no per-pass state, so one Versioner
// may serve any number of sequential passes.
type Versioner struct {
	logger Logger
}

// NewVersioner creates a new Versioner.
func NewVersioner(log Logger) *Versioner {
	return &Versioner{logger: log}
}

// Resolve runs one resolution pass: it selects the rule for the snapshot, builds
// the placeholder registry and renders the version and property templates.
//
// Returns domain.ErrVersioningDisabled when the configuration disables versioning,
// domain.ErrSkipped when nothing matches and SkipOnNoMatch is set, and
// domain.ErrNoMatchingRule when nothing matches otherwise.
func (v *Versioner) Resolve(ctx context.Context, input domain.ResolveInput) (*domain.ResolutionOutput, error) {
	if input.Config == nil {
		return nil, errors.New("versioning configuration is required")
	}
	if input.Snapshot == nil {
		return nil, errors.New("repository snapshot is required")
	}
	cfg := input.Config
	snapshot := input.Snapshot

	if cfg.Disable {
		v.logger.Info(ctx, "skip - versioning is disabled", nil)
		return nil, domain.ErrVersioningDisabled
	}

	rules, err := CompileRules(cfg)
	if err != nil {
		return nil, err
	}

	v.logger.Debug(ctx, "git situation", map[string]interface{}{
		"commit":           snapshot.Commit,
		"commit_timestamp": snapshot.CommitTimestamp,
		"branch":           snapshot.Branch,
		"tags":             snapshot.Tags,
		"clean":            snapshot.Clean,
		"prefer_tags":      cfg.PreferTags,
	})

	match, err := ResolveRef(snapshot, rules.Branches, rules.Tags, rules.Commit, cfg.PreferTags)
	if err != nil {
		if errors.Is(err, domain.ErrNoMatchingRule) && cfg.SkipOnNoMatch {
			v.logger.Warn(ctx, "skip - no versioning rule matches", map[string]interface{}{
				"branch": snapshot.Branch,
				"tags":   snapshot.Tags,
			})
			return nil, fmt.Errorf("%w: %w", domain.ErrSkipped, err)
		}
		return nil, err
	}

	rule, ok := rules.Lookup(match)
	if !ok {
		return nil, fmt.Errorf("%s rule #%d is not configured", match.RefType, match.RuleIndex)
	}

	v.logger.Info(ctx, "git ref matched", map[string]interface{}{
		"ref_type":   match.RefType,
		"ref_name":   match.RefName,
		"rule_index": match.RuleIndex,
		"pattern":    match.Rule.Pattern,
	})

	updateFile := ResolveUpdatePropertiesFile(input.UpdatePropertiesFileOption, cfg, match.Rule)

	reg := BuildRegistry(PlaceholderContext{
		Snapshot:           snapshot,
		Match:              match,
		DescribeTagPattern: rule.DescribeTagPattern(),
		SlugLowercase:      cfg.SlugLowercase,
		CurrentVersion:     input.CurrentVersion,
		Parameters:         input.Parameters,
		Environ:            input.Environ,
	})

	version, err := Render(match.Rule.VersionFormat, reg)
	if err != nil {
		return nil, fmt.Errorf("rendering version of %s %q with %s: %w", match.RefType, match.RefName, rule, err)
	}
	version = SanitizeVersion(version)

	properties := make(map[string]string, len(match.Rule.Properties))
	for _, property := range match.Rule.Properties {
		value, err := v.renderProperty(reg, property, input.Parameters)
		if err != nil {
			return nil, fmt.Errorf("rendering property %q of %s %q with %s: %w",
				property.Name, match.RefType, match.RefName, rule, err)
		}
		properties[property.Name] = value
		v.logger.Debug(ctx, "property resolved", map[string]interface{}{
			"name":  property.Name,
			"value": value,
		})
	}

	v.logger.Info(ctx, "version resolved", map[string]interface{}{
		"version":                version,
		"ref_type":               match.RefType,
		"ref_name":               match.RefName,
		"update_properties_file": updateFile,
	})

	return &domain.ResolutionOutput{
		Version:              version,
		RefType:              match.RefType,
		RefName:              match.RefName,
		Properties:           properties,
		GitProperties:        gitProperties(snapshot, match, cfg.SlugLowercase),
		UpdatePropertiesFile: updateFile,
	}, nil
}

// renderProperty renders one property rule with ${value} bound to the
// property's value before resolution.
func (v *Versioner) renderProperty(reg *Registry, property domain.PropertyRule, params map[string]any) (string, error) {
	original, _ := ScalarString(params[property.Name])
	scope := reg.Child()
	scope.RegisterValue("value", original)
	value, err := Render(property.ValueFormat, scope)
	if err != nil {
		return "", err
	}
	return SanitizeVersion(value), nil
}

// gitProperties builds the fixed metadata properties exported next to the version.
func gitProperties(snapshot *domain.RepositorySnapshot, match *domain.MatchResult, slugLowercase bool) map[string]string {
	refType := string(match.RefType)
	refSlug := Slugify(match.RefName, slugLowercase)
	short := snapshot.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return map[string]string{
		"git.commit":                    snapshot.Commit,
		"git.commit.short":              short,
		"git.commit.timestamp":          fmt.Sprintf("%d", snapshot.CommitTimestamp),
		"git.commit.timestamp.datetime": FormatCommitISODateTime(snapshot.CommitTimestamp),
		"git.ref":                       match.RefName,
		"git.ref.slug":                  refSlug,
		"git." + refType:                match.RefName,
		"git." + refType + ".slug":      refSlug,
		"git.dirty":                     fmt.Sprintf("%t", !snapshot.Clean),
	}
}
