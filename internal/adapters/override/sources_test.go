package override

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (nopLogger) Info(_ context.Context, _ string, _ map[string]interface{})  {}

func envOf(values map[string]string) LookupEnv {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		name       string
		ref        string
		wantBranch *string
		wantTag    *string
		wantErr    bool
	}{
		{name: "branch", ref: "refs/heads/feature/x", wantBranch: ptr("feature/x")},
		{name: "tag", ref: "refs/tags/v1.0.0", wantTag: ptr("v1.0.0")},
		{name: "empty tag", ref: "refs/tags/", wantTag: ptr("")},
		{name: "pull request ref", ref: "refs/pull/1/merge", wantErr: true},
		{name: "short name", ref: "main", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.ref)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidOverrideRef)
				assert.Contains(t, err.Error(), tt.ref)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBranch, got.Branch)
			assert.Equal(t, tt.wantTag, got.Tag)
		})
	}
}

func TestResolve_FirstSourceWins(t *testing.T) {
	env := envOf(map[string]string{
		EnvGitBranch:     "from-env",
		"GITHUB_ACTIONS": "true",
		"GITHUB_REF":     "refs/heads/from-github",
	})

	t.Run("command line", func(t *testing.T) {
		sources := SourcesWithEnv(CommandLine{Branch: ptr("from-cli")}, env)

		o, source, err := Resolve(context.Background(), sources, nopLogger{})

		require.NoError(t, err)
		assert.Equal(t, "command line", source)
		assert.Equal(t, "from-cli", *o.Branch)
	})

	t.Run("environment", func(t *testing.T) {
		sources := SourcesWithEnv(CommandLine{}, env)

		o, source, err := Resolve(context.Background(), sources, nopLogger{})

		require.NoError(t, err)
		assert.Equal(t, "environment", source)
		assert.Equal(t, "from-env", *o.Branch)
	})

	t.Run("ci", func(t *testing.T) {
		sources := SourcesWithEnv(CommandLine{}, envOf(map[string]string{
			"GITHUB_ACTIONS": "true",
			"GITHUB_REF":     "refs/heads/from-github",
		}))

		o, source, err := Resolve(context.Background(), sources, nopLogger{})

		require.NoError(t, err)
		assert.Equal(t, "GitHub Actions", source)
		assert.Equal(t, "from-github", *o.Branch)
	})

	t.Run("none", func(t *testing.T) {
		sources := SourcesWithEnv(CommandLine{}, envOf(nil))

		o, source, err := Resolve(context.Background(), sources, nopLogger{})

		require.NoError(t, err)
		assert.Empty(t, source)
		assert.True(t, o.IsEmpty())
	})
}

func TestResolve_EmptyEnvironmentBranchFallsThrough(t *testing.T) {
	sources := SourcesWithEnv(CommandLine{}, envOf(map[string]string{
		EnvGitBranch:     "",
		"GITHUB_ACTIONS": "true",
		"GITHUB_REF":     "refs/heads/from-github",
	}))

	o, source, err := Resolve(context.Background(), sources, nopLogger{})

	require.NoError(t, err)
	assert.Equal(t, "GitHub Actions", source)
	require.NotNil(t, o.Branch)
	assert.Equal(t, "from-github", *o.Branch)
}

func TestResolve_InvalidRef(t *testing.T) {
	sources := SourcesWithEnv(CommandLine{Ref: ptr("main")}, envOf(nil))

	_, source, err := Resolve(context.Background(), sources, nopLogger{})

	require.Error(t, err)
	assert.Equal(t, "command line", source)
	assert.ErrorIs(t, err, domain.ErrInvalidOverrideRef)
}

func TestDefaultSources_Order(t *testing.T) {
	sources := DefaultSources(CommandLine{})

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"command line", "environment", "GitHub Actions", "GitLab CI", "CircleCI", "Jenkins"}, names)
}
