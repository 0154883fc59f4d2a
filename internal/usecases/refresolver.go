package usecases

import (
	"fmt"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// ResolveRef selects the rule for the current repository state.
//
// With a branch checked out, branch rules are tried in order. On a detached HEAD
// with tags, tag rules are tried in order, each picking the greatest tag its
// pattern accepts. preferTags tries tag rules first even when a branch is checked out.
// The commit rule is the fallback; without it ResolveRef fails with domain.ErrNoMatchingRule.
func ResolveRef(
	snapshot *domain.RepositorySnapshot,
	branches, tags []CompiledRule,
	commit *CompiledRule,
	preferTags bool,
) (*domain.MatchResult, error) {
	if preferTags && len(snapshot.Tags) > 0 {
		if match := matchTag(snapshot.Tags, tags); match != nil {
			return match, nil
		}
	}

	switch {
	case !snapshot.IsDetached():
		if match := matchBranch(snapshot.Branch, branches); match != nil {
			return match, nil
		}
	case len(snapshot.Tags) > 0:
		if match := matchTag(snapshot.Tags, tags); match != nil {
			return match, nil
		}
	}

	if commit == nil {
		ref := snapshot.Branch
		if ref == "" {
			ref = snapshot.Commit
		}
		return nil, fmt.Errorf("%w: ref %q (branch rules: %d, tag rules: %d, no commit rule)",
			domain.ErrNoMatchingRule, ref, len(branches), len(tags))
	}
	return newMatch(commit, snapshot.Commit), nil
}

func matchBranch(branch string, rules []CompiledRule) *domain.MatchResult {
	for i := range rules {
		if MatchesPattern(rules[i].pattern, branch) {
			return newMatch(&rules[i], branch)
		}
	}
	return nil
}

func matchTag(headTags []string, rules []CompiledRule) *domain.MatchResult {
	for i := range rules {
		var candidates []string
		for _, tag := range headTags {
			if MatchesPattern(rules[i].pattern, tag) {
				candidates = append(candidates, tag)
			}
		}
		if tag, ok := domain.MaxTag(candidates); ok {
			return newMatch(&rules[i], tag)
		}
	}
	return nil
}

func newMatch(rule *CompiledRule, refName string) *domain.MatchResult {
	groups := make(map[string]string)
	for _, name := range GroupNames(rule.pattern) {
		groups[name] = ""
	}
	for name, value := range ExtractGroups(rule.pattern, refName) {
		groups[name] = value
	}
	return &domain.MatchResult{
		Rule:      rule.Rule,
		RefType:   rule.RefType,
		RefName:   refName,
		RuleIndex: rule.Index,
		Groups:    groups,
	}
}
