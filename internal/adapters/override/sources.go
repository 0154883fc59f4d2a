// Package override detects branch and tag overrides supplied by the command line,
// the environment or a CI system.
package override

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// Full ref prefixes accepted by ParseRef.
const (
	BranchRefPrefix = "refs/heads/"
	TagRefPrefix    = "refs/tags/"
)

// Environment variable names read by the Environment source.
const (
	EnvGitBranch = "VERSIONING_GIT_BRANCH"
	EnvGitTag    = "VERSIONING_GIT_TAG"
	EnvGitRef    = "VERSIONING_GIT_REF"
)

// Logger defines the logging interface for override detection.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
}

// LookupEnv looks up an environment variable; os.LookupEnv in production.
type LookupEnv func(key string) (string, bool)

// ParseRef turns a full ref such as refs/heads/main or refs/tags/v1.0.0 into an override.
// Returns domain.ErrInvalidOverrideRef when ref has neither prefix.
func ParseRef(ref string) (domain.RefOverride, error) {
	switch {
	case strings.HasPrefix(ref, BranchRefPrefix):
		branch := strings.TrimPrefix(ref, BranchRefPrefix)
		return domain.RefOverride{Branch: &branch}, nil
	case strings.HasPrefix(ref, TagRefPrefix):
		tag := strings.TrimPrefix(ref, TagRefPrefix)
		return domain.RefOverride{Tag: &tag}, nil
	default:
		return domain.RefOverride{}, fmt.Errorf("%w: %q must start with %q or %q",
			domain.ErrInvalidOverrideRef, ref, BranchRefPrefix, TagRefPrefix)
	}
}

// Resolve asks each source in order and returns the first non-empty override
// together with the name of the source that supplied it.
func Resolve(ctx context.Context, sources []domain.OverrideSource, log Logger) (domain.RefOverride, string, error) {
	for _, source := range sources {
		o, err := source.Lookup()
		if err != nil {
			return domain.RefOverride{}, source.Name(), fmt.Errorf("%s: %w", source.Name(), err)
		}
		if o.IsEmpty() {
			log.Debug(ctx, "no ref override", map[string]interface{}{"source": source.Name()})
			continue
		}
		log.Info(ctx, "ref override detected", map[string]interface{}{
			"source": source.Name(),
			"branch": deref(o.Branch),
			"tag":    deref(o.Tag),
		})
		return o, source.Name(), nil
	}
	return domain.RefOverride{}, "", nil
}

// DefaultSources returns the production source order: command line, VERSIONING_*
// environment, GitHub Actions, GitLab CI, CircleCI, Jenkins.
func DefaultSources(cli CommandLine) []domain.OverrideSource {
	return SourcesWithEnv(cli, os.LookupEnv)
}

// SourcesWithEnv is DefaultSources with an injectable environment.
func SourcesWithEnv(cli CommandLine, env LookupEnv) []domain.OverrideSource {
	return []domain.OverrideSource{
		cli,
		Environment{env: env},
		GitHubActions{env: env},
		GitLabCI{env: env},
		CircleCI{env: env},
		Jenkins{env: env},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	return &s
}
