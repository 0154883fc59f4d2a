package usecases

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// countingDescribe returns a DescribeFunc that records how often it ran.
func countingDescribe(d domain.Description, calls *int) domain.DescribeFunc {
	return func(filter domain.TagFilter) (domain.Description, error) {
		*calls++
		return d, nil
	}
}

func testPlaceholderContext(snapshot *domain.RepositorySnapshot) PlaceholderContext {
	return PlaceholderContext{
		Snapshot: snapshot,
		Match: &domain.MatchResult{
			RefType: domain.RefTypeBranch,
			RefName: snapshot.Branch,
			Groups:  map[string]string{},
		},
	}
}

func mustGet(t *testing.T, reg *Registry, key string) string {
	t.Helper()
	value, err := reg.Get(key)
	require.NoError(t, err, key)
	return value
}

func TestBuildRegistry_Commit(t *testing.T) {
	reg := BuildRegistry(testPlaceholderContext(&domain.RepositorySnapshot{
		Commit:          testCommit,
		CommitTimestamp: 1700000000,
		Branch:          "main",
		Clean:           true,
	}))

	want := map[string]string{
		"commit":                       testCommit,
		"commit.short":                 "0123456",
		"commit.timestamp":             "1700000000",
		"commit.timestamp.year":        "2023",
		"commit.timestamp.year.2digit": "23",
		"commit.timestamp.month":       "11",
		"commit.timestamp.day":         "14",
		"commit.timestamp.hour":        "22",
		"commit.timestamp.minute":      "13",
		"commit.timestamp.second":      "20",
		"commit.timestamp.datetime":    "20231114.221320",
	}
	for key, value := range want {
		assert.Equal(t, value, mustGet(t, reg, key), key)
	}
}

func TestBuildRegistry_UnknownCommitTime(t *testing.T) {
	reg := BuildRegistry(testPlaceholderContext(&domain.RepositorySnapshot{
		Commit: testCommit,
		Branch: "main",
		Clean:  true,
	}))

	assert.Equal(t, "0", mustGet(t, reg, "commit.timestamp"))
	assert.Equal(t, domain.NoCommitDateTime, mustGet(t, reg, "commit.timestamp.datetime"))
	assert.Equal(t, domain.NoCommitISODateTime, FormatCommitISODateTime(0))
	assert.Equal(t, "2023-11-14T22:13:20Z", FormatCommitISODateTime(1700000000))
}

func TestBuildRegistry_Dirty(t *testing.T) {
	tests := []struct {
		name         string
		clean        bool
		wantDirty    string
		wantSnapshot string
	}{
		{name: "clean", clean: true, wantDirty: "", wantSnapshot: ""},
		{name: "dirty", clean: false, wantDirty: "-DIRTY", wantSnapshot: "-SNAPSHOT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := BuildRegistry(testPlaceholderContext(&domain.RepositorySnapshot{
				Commit: testCommit,
				Branch: "main",
				Clean:  tt.clean,
			}))

			assert.Equal(t, tt.wantDirty, mustGet(t, reg, "dirty"))
			assert.Equal(t, tt.wantSnapshot, mustGet(t, reg, "dirty.snapshot"))
		})
	}
}

func TestBuildRegistry_Ref(t *testing.T) {
	pc := testPlaceholderContext(&domain.RepositorySnapshot{Commit: testCommit, Branch: "Feature/ABC-1", Clean: true})
	pc.Match.Groups = map[string]string{"ticket": "ABC-1", "scope": "Team/Core"}

	reg := BuildRegistry(pc)

	assert.Equal(t, "Feature/ABC-1", mustGet(t, reg, "ref"))
	assert.Equal(t, "Feature-ABC-1", mustGet(t, reg, "ref.slug"))
	assert.Equal(t, "Feature/ABC-1", mustGet(t, reg, "branch"))
	assert.Equal(t, "Feature-ABC-1", mustGet(t, reg, "branch.slug"))
	assert.Equal(t, "ABC-1", mustGet(t, reg, "ref.ticket"))
	assert.Equal(t, "Team-Core", mustGet(t, reg, "ref.scope.slug"))
	assert.False(t, reg.Has("tag"))

	pc.SlugLowercase = true
	reg = BuildRegistry(pc)
	assert.Equal(t, "feature-abc-1", mustGet(t, reg, "ref.slug"))
}

func TestBuildRegistry_DescribeIsLazy(t *testing.T) {
	calls := 0
	snapshot := &domain.RepositorySnapshot{
		Commit:   testCommit,
		Branch:   "main",
		Clean:    true,
		Describe: countingDescribe(domain.Description{Commit: testCommit, Tag: "v1.2.3", Distance: 4}, &calls),
	}

	reg := BuildRegistry(testPlaceholderContext(snapshot))
	_, err := Render("${branch}-${commit.short}", reg)
	require.NoError(t, err)
	assert.Equal(t, 0, calls)

	assert.Equal(t, "v1.2.3-4-g0123456", mustGet(t, reg, "describe"))
	assert.Equal(t, "v1.2.3", mustGet(t, reg, "describe.tag"))
	assert.Equal(t, "4", mustGet(t, reg, "describe.distance"))
	assert.Equal(t, 1, calls)
}

func TestBuildRegistry_DescribeTagVersion(t *testing.T) {
	calls := 0
	pc := testPlaceholderContext(&domain.RepositorySnapshot{
		Commit:   testCommit,
		Branch:   "main",
		Clean:    true,
		Describe: countingDescribe(domain.Description{Commit: testCommit, Tag: "v1.9.099-rc.1", Distance: 3}, &calls),
	})

	reg := BuildRegistry(pc)

	want := map[string]string{
		"describe.tag.version":                                   "v1.9.099-rc.1",
		"describe.tag.version.core":                              "1.9.099",
		"describe.tag.version.major":                             "1",
		"describe.tag.version.minor":                             "9",
		"describe.tag.version.patch":                             "099",
		"describe.tag.version.label":                             "rc.1",
		"describe.tag.version.major.next":                        "2",
		"describe.tag.version.minor.next":                        "10",
		"describe.tag.version.patch.next":                        "100",
		"describe.tag.version.patch.plus.describe.distance":      "102",
		"describe.tag.version.minor.next.plus.describe.distance": "13",
	}
	for key, value := range want {
		assert.Equal(t, value, mustGet(t, reg, key), key)
	}
	assert.Equal(t, 1, calls)
}

func TestBuildRegistry_DescribeTagVersionGroup(t *testing.T) {
	pattern, err := CompilePattern(`release-(?<version>.*)`)
	require.NoError(t, err)

	var seen []string
	pc := testPlaceholderContext(&domain.RepositorySnapshot{
		Commit: testCommit,
		Branch: "main",
		Clean:  true,
		Describe: func(filter domain.TagFilter) (domain.Description, error) {
			for _, tag := range []string{"v9.9.9", "release-2.0.0"} {
				if filter(tag) {
					seen = append(seen, tag)
				}
			}
			return domain.Description{Commit: testCommit, Tag: "release-2.0.0"}, nil
		},
	})
	pc.DescribeTagPattern = pattern

	reg := BuildRegistry(pc)

	assert.Equal(t, "2.0.0", mustGet(t, reg, "describe.tag.version"))
	assert.Equal(t, "2.0.0", mustGet(t, reg, "describe.tag.version.core"))
	assert.Equal(t, "1", mustGet(t, reg, "describe.tag.version.patch.next"))
	assert.Equal(t, []string{"release-2.0.0"}, seen)
}

func TestBuildRegistry_DescribeError(t *testing.T) {
	walkErr := errors.New("walk failed")
	pc := testPlaceholderContext(&domain.RepositorySnapshot{
		Commit: testCommit,
		Branch: "main",
		Describe: func(domain.TagFilter) (domain.Description, error) {
			return domain.Description{}, walkErr
		},
	})

	reg := BuildRegistry(pc)

	_, err := reg.Get("describe.tag.version.major")
	assert.ErrorIs(t, err, walkErr)
}

func TestBuildRegistry_CurrentVersion(t *testing.T) {
	pc := testPlaceholderContext(&domain.RepositorySnapshot{Commit: testCommit, Branch: "main", Clean: true})
	pc.CurrentVersion = "2.4.7-SNAPSHOT"

	reg := BuildRegistry(pc)

	assert.Equal(t, "2.4.7-SNAPSHOT", mustGet(t, reg, "version"))
	assert.Equal(t, "2.4.7", mustGet(t, reg, "version.core"))
	assert.Equal(t, "SNAPSHOT", mustGet(t, reg, "version.label"))
	assert.Equal(t, "8", mustGet(t, reg, "version.patch.next"))
	assert.Equal(t, "2.4.7", mustGet(t, reg, "version.release"))
	assert.False(t, reg.Has("version.patch.plus.describe.distance"))
}

func TestBuildRegistry_ParametersAndEnvironment(t *testing.T) {
	pc := testPlaceholderContext(&domain.RepositorySnapshot{Commit: testCommit, Branch: "main", Clean: true})
	pc.Parameters = map[string]any{
		"name":    "service",
		"release": true,
		"build":   42,
		"ratio":   1.5,
		"nested":  map[string]any{"a": 1},
		"list":    []string{"x"},
	}
	pc.Environ = []string{"CI=true", "EMPTY=", "WITH_EQUALS=a=b", "=invalid", "NOVALUE"}

	reg := BuildRegistry(pc)

	assert.Equal(t, "service", mustGet(t, reg, "property.name"))
	assert.Equal(t, "true", mustGet(t, reg, "property.release"))
	assert.Equal(t, "42", mustGet(t, reg, "property.build"))
	assert.Equal(t, "1.5", mustGet(t, reg, "property.ratio"))
	assert.False(t, reg.Has("property.nested"))
	assert.False(t, reg.Has("property.list"))

	assert.Equal(t, "true", mustGet(t, reg, "env.CI"))
	assert.Equal(t, "", mustGet(t, reg, "env.EMPTY"))
	assert.Equal(t, "a=b", mustGet(t, reg, "env.WITH_EQUALS"))
	assert.False(t, reg.Has("env."))
	assert.False(t, reg.Has("env.NOVALUE"))
}

func TestBuildRegistry_GroupNamedSlugKeepsRefSlug(t *testing.T) {
	pc := testPlaceholderContext(&domain.RepositorySnapshot{Commit: testCommit, Branch: "feature/Login", Clean: true})
	pc.Match.Groups = map[string]string{"slug": "feature"}

	reg := BuildRegistry(pc)

	assert.Equal(t, "feature-Login", mustGet(t, reg, "ref.slug"))
	assert.Equal(t, "feature-Login", mustGet(t, reg, "branch.slug"))
	assert.Equal(t, "feature", mustGet(t, reg, "ref.slug.slug"))
}
