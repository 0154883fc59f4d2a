package usecases

import (
	"fmt"
	"regexp"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// CompiledRule is a rule with its default version format applied and its patterns compiled.
type CompiledRule struct {
	Rule    domain.Rule
	RefType domain.RefType

	// Index is the rule's position in its configured list.
	Index int

	pattern     *regexp.Regexp
	describeTag *regexp.Regexp
}

// Pattern returns the anchored pattern, or nil for a match-all rule.
func (c *CompiledRule) Pattern() *regexp.Regexp {
	return c.pattern
}

// DescribeTagPattern returns the tag filter of the describe walk after the
// rule, global and built-in cascade.
func (c *CompiledRule) DescribeTagPattern() *regexp.Regexp {
	return c.describeTag
}

// String identifies the rule in messages, e.g. `branch rule #1 "release/.+"`.
func (c *CompiledRule) String() string {
	return fmt.Sprintf("%s rule #%d %q", c.RefType, c.Index, c.Rule.Pattern)
}

// RuleSet holds the compiled rule lists in configured order.
type RuleSet struct {
	Branches []CompiledRule
	Tags     []CompiledRule
	Commit   *CompiledRule
}

// Lookup returns the compiled rule a match was made with.
func (s *RuleSet) Lookup(match *domain.MatchResult) (*CompiledRule, bool) {
	var list []CompiledRule
	switch match.RefType {
	case domain.RefTypeBranch:
		list = s.Branches
	case domain.RefTypeTag:
		list = s.Tags
	case domain.RefTypeCommit:
		return s.Commit, s.Commit != nil
	}
	if match.RuleIndex < 0 || match.RuleIndex >= len(list) {
		return nil, false
	}
	return &list[match.RuleIndex], true
}

// CompileRules applies default version formats and compiles every rule pattern
// and describe tag pattern, including overrides of rules that may never match.
// It fails with domain.ErrInvalidPattern naming the offending rule.
func CompileRules(cfg *domain.Config) (*RuleSet, error) {
	if cfg.DescribeTagPattern != nil {
		if _, err := CompilePattern(*cfg.DescribeTagPattern); err != nil {
			return nil, fmt.Errorf("global describeTagPattern: %w", err)
		}
	}

	set := &RuleSet{}
	var err error
	if set.Branches, err = compileRuleList(cfg, cfg.Branches, domain.RefTypeBranch); err != nil {
		return nil, err
	}
	if set.Tags, err = compileRuleList(cfg, cfg.Tags, domain.RefTypeTag); err != nil {
		return nil, err
	}
	if cfg.Commit != nil {
		commit, err := compileRule(cfg, *cfg.Commit, domain.RefTypeCommit, 0)
		if err != nil {
			return nil, err
		}
		set.Commit = &commit
	}
	return set, nil
}

func compileRuleList(cfg *domain.Config, rules []domain.Rule, refType domain.RefType) ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(rules))
	for i, rule := range rules {
		c, err := compileRule(cfg, rule, refType, i)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

func compileRule(cfg *domain.Config, rule domain.Rule, refType domain.RefType, index int) (CompiledRule, error) {
	re, err := CompilePattern(rule.Pattern)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("%s rule #%d: %w", refType, index, err)
	}
	describeTag, err := ResolveDescribeTagPattern(cfg, rule)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("%s rule #%d describeTagPattern: %w", refType, index, err)
	}
	if rule.VersionFormat == "" {
		rule.VersionFormat = defaultVersionFormat(refType)
	}
	return CompiledRule{
		Rule:        rule,
		RefType:     refType,
		Index:       index,
		pattern:     re,
		describeTag: describeTag,
	}, nil
}

func defaultVersionFormat(refType domain.RefType) string {
	switch refType {
	case domain.RefTypeTag:
		return domain.DefaultTagVersionFormat
	case domain.RefTypeCommit:
		return domain.DefaultCommitVersionFormat
	default:
		return domain.DefaultBranchVersionFormat
	}
}

// ResolveDescribeTagPattern cascades the describe tag filter: rule, then global, then ".*".
func ResolveDescribeTagPattern(cfg *domain.Config, rule domain.Rule) (*regexp.Regexp, error) {
	pattern := domain.DefaultDescribeTagPattern
	switch {
	case rule.DescribeTagPattern != nil:
		pattern = *rule.DescribeTagPattern
	case cfg.DescribeTagPattern != nil:
		pattern = *cfg.DescribeTagPattern
	}
	if pattern == "" {
		pattern = domain.DefaultDescribeTagPattern
	}
	return CompilePattern(pattern)
}

// ResolveUpdatePropertiesFile cascades the file-rewrite flag: option, then rule, then global, then false.
func ResolveUpdatePropertiesFile(option *bool, cfg *domain.Config, rule domain.Rule) bool {
	switch {
	case option != nil:
		return *option
	case rule.UpdatePropertiesFile != nil:
		return *rule.UpdatePropertiesFile
	case cfg.UpdatePropertiesFile != nil:
		return *cfg.UpdatePropertiesFile
	}
	return false
}
