package usecases

import (
	"fmt"
	"strings"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// Render replaces every ${name} token in template with its registry value.
// Substituted text is not scanned again. A "$" that does not open a complete
// token is kept literally.
func Render(template string, reg *Registry) (string, error) {
	var b strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		key := rest[start+2 : start+2+end]
		if !reg.Has(key) {
			return "", &domain.MissingPlaceholderError{Key: key, Template: template}
		}
		value, err := reg.Get(key)
		if err != nil {
			return "", fmt.Errorf("evaluating ${%s} in template %q: %w", key, template, err)
		}
		b.WriteString(rest[:start])
		b.WriteString(value)
		rest = rest[start+2+end+1:]
	}
	return b.String(), nil
}

// SanitizeVersion replaces path separators, which are not allowed in versions.
func SanitizeVersion(s string) string {
	return strings.ReplaceAll(s, "/", "-")
}

// Slugify replaces slashes with hyphens and optionally lower-cases the result.
func Slugify(s string, lowercase bool) string {
	s = strings.ReplaceAll(s, "/", "-")
	if lowercase {
		s = strings.ToLower(s)
	}
	return s
}
