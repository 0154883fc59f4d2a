package usecases

import (
	"fmt"
	"regexp"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// CompilePattern compiles a rule pattern so that it only matches whole strings.
// An empty pattern yields a nil regexp, which matches everything.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", domain.ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// MatchesPattern reports whether input fully matches re. A nil re matches everything.
func MatchesPattern(re *regexp.Regexp, input string) bool {
	return re == nil || re.MatchString(input)
}

// ExtractGroups returns the named capture groups of re matched against input.
// The whole-match group is never included. Groups that did not take part in the
// match map to "". If re does not match, the result is empty.
func ExtractGroups(re *regexp.Regexp, input string) map[string]string {
	groups := make(map[string]string)
	if re == nil {
		return groups
	}
	match := re.FindStringSubmatch(input)
	if match == nil {
		return groups
	}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		groups[name] = match[i]
	}
	return groups
}

// GroupNames lists the named capture groups of re in declaration order.
func GroupNames(re *regexp.Regexp) []string {
	if re == nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, name := range re.SubexpNames() {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
