package usecases

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// PlaceholderContext carries everything needed to build the registry for one pass.
type PlaceholderContext struct {
	Snapshot           *domain.RepositorySnapshot
	Match              *domain.MatchResult
	DescribeTagPattern *regexp.Regexp
	SlugLowercase      bool
	CurrentVersion     string
	Parameters         map[string]any
	Environ            []string
}

// BuildRegistry registers every placeholder for one resolution pass.
// Nothing is evaluated here; the describe walk in particular only runs when a
// template references one of the describe placeholders.
func BuildRegistry(pc PlaceholderContext) *Registry {
	reg := NewRegistry()
	slug := func(s string) string { return Slugify(s, pc.SlugLowercase) }

	registerCommit(reg, pc.Snapshot)
	registerRef(reg, pc.Match, slug)
	registerDirty(reg, pc.Snapshot.Clean)
	registerDescribe(reg, pc, slug)
	registerVersion(reg, pc.CurrentVersion)
	registerParameters(reg, pc.Parameters)
	registerEnvironment(reg, pc.Environ)
	return reg
}

func registerCommit(reg *Registry, snapshot *domain.RepositorySnapshot) {
	commit := snapshot.Commit
	ts := snapshot.CommitTimestamp
	reg.RegisterValue("commit", commit)
	reg.Register("commit.short", func() (string, error) {
		if len(commit) <= 7 {
			return commit, nil
		}
		return commit[:7], nil
	})

	at := newLazy(func() (time.Time, error) { return time.Unix(ts, 0).UTC(), nil })
	timePart := func(format func(time.Time) string) Producer {
		return func() (string, error) {
			t, err := at.get()
			if err != nil {
				return "", err
			}
			return format(t), nil
		}
	}
	reg.RegisterValue("commit.timestamp", strconv.FormatInt(ts, 10))
	reg.Register("commit.timestamp.year", timePart(func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }))
	reg.Register("commit.timestamp.year.2digit", timePart(func(t time.Time) string { return fmt.Sprintf("%02d", t.Year()%100) }))
	reg.Register("commit.timestamp.month", timePart(func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }))
	reg.Register("commit.timestamp.day", timePart(func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }))
	reg.Register("commit.timestamp.hour", timePart(func(t time.Time) string { return fmt.Sprintf("%02d", t.Hour()) }))
	reg.Register("commit.timestamp.minute", timePart(func(t time.Time) string { return fmt.Sprintf("%02d", t.Minute()) }))
	reg.Register("commit.timestamp.second", timePart(func(t time.Time) string { return fmt.Sprintf("%02d", t.Second()) }))
	reg.Register("commit.timestamp.datetime", func() (string, error) {
		return FormatCommitDateTime(ts), nil
	})
}

// FormatCommitDateTime renders ts as UTC yyyyMMdd.HHmmss, or the
// domain.NoCommitDateTime sentinel when ts is 0.
func FormatCommitDateTime(ts int64) string {
	if ts == 0 {
		return domain.NoCommitDateTime
	}
	return time.Unix(ts, 0).UTC().Format("20060102.150405")
}

// FormatCommitISODateTime renders ts as ISO-8601 UTC, or the
// domain.NoCommitISODateTime sentinel when ts is 0.
func FormatCommitISODateTime(ts int64) string {
	if ts == 0 {
		return domain.NoCommitISODateTime
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func registerRef(reg *Registry, match *domain.MatchResult, slug func(string) string) {
	refName := match.RefName
	refType := string(match.RefType)
	refSlug := func() (string, error) { return slug(refName), nil }

	// groups go first so a group named "slug" cannot shadow ref.slug
	for name, value := range match.Groups {
		reg.RegisterValue("ref."+name, value)
		reg.Register("ref."+name+".slug", func() (string, error) { return slug(value), nil })
	}

	reg.RegisterValue("ref", refName)
	reg.Register("ref.slug", refSlug)
	reg.RegisterValue(refType, refName)
	reg.Register(refType+".slug", refSlug)
}

func registerDirty(reg *Registry, clean bool) {
	if clean {
		reg.RegisterValue("dirty", "")
		reg.RegisterValue("dirty.snapshot", "")
		return
	}
	reg.RegisterValue("dirty", "-DIRTY")
	reg.RegisterValue("dirty.snapshot", "-SNAPSHOT")
}

func registerDescribe(reg *Registry, pc PlaceholderContext, slug func(string) string) {
	snapshot := pc.Snapshot
	pattern := pc.DescribeTagPattern

	description := newLazy(func() (domain.Description, error) {
		if snapshot.Describe == nil {
			return domain.Description{}, fmt.Errorf("describe is not available for commit %s", snapshot.Commit)
		}
		return snapshot.Describe(func(tag string) bool { return MatchesPattern(pattern, tag) })
	})
	reg.Register("describe", func() (string, error) {
		d, err := description.get()
		if err != nil {
			return "", err
		}
		return d.String(), nil
	})
	tag := func() (string, error) {
		d, err := description.get()
		return d.Tag, err
	}
	distance := func() (int, error) {
		d, err := description.get()
		return d.Distance, err
	}
	reg.Register("describe.tag", tag)
	reg.Register("describe.distance", func() (string, error) {
		n, err := distance()
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	})

	groups := newLazy(func() (map[string]string, error) {
		t, err := tag()
		if err != nil {
			return nil, err
		}
		return ExtractGroups(pattern, t), nil
	})
	group := func(name string) Producer {
		return func() (string, error) {
			g, err := groups.get()
			if err != nil {
				return "", err
			}
			return g[name], nil
		}
	}
	hasVersionGroup := false
	for _, name := range GroupNames(pattern) {
		if name == "version" {
			hasVersionGroup = true
		}
		value := group(name)
		reg.Register("describe.tag."+name, value)
		reg.Register("describe.tag."+name+".slug", func() (string, error) {
			v, err := value()
			return slug(v), err
		})
	}

	versionSource := tag
	if hasVersionGroup {
		versionSource = group("version")
	}
	registerVersionFamily(reg, "describe.tag.version", versionSource, distance)
}

// registerVersionFamily registers <prefix>, <prefix>.core, .major, .minor, .patch,
// .label and the increment variants of the numeric fields. When distance is not
// nil the .plus.describe.distance variants are registered as well.
func registerVersionFamily(reg *Registry, prefix string, source Producer, distance func() (int, error)) {
	parsed := newLazy(func() (Version, error) {
		s, err := source()
		if err != nil {
			return Version{}, err
		}
		return ParseVersion(s), nil
	})
	field := func(pick func(Version) string) Producer {
		return func() (string, error) {
			v, err := parsed.get()
			if err != nil {
				return "", err
			}
			return pick(v), nil
		}
	}

	reg.Register(prefix, source)
	reg.Register(prefix+".core", field(func(v Version) string { return v.Core }))
	reg.Register(prefix+".label", field(func(v Version) string { return v.Label }))

	numeric := map[string]Producer{
		"major": field(func(v Version) string { return v.Major }),
		"minor": field(func(v Version) string { return v.Minor }),
		"patch": field(func(v Version) string { return v.Patch }),
	}
	for name, value := range numeric {
		key := prefix + "." + name
		reg.Register(key, value)
		reg.Register(key+".next", incremented(value, func() (int, error) { return 1, nil }))
		if distance == nil {
			continue
		}
		reg.Register(key+".plus.describe.distance", incremented(value, distance))
		reg.Register(key+".next.plus.describe.distance", incremented(value, func() (int, error) {
			n, err := distance()
			return n + 1, err
		}))
	}
}

func incremented(value Producer, delta func() (int, error)) Producer {
	return func() (string, error) {
		v, err := value()
		if err != nil {
			return "", err
		}
		d, err := delta()
		if err != nil {
			return "", err
		}
		return Increment(v, d)
	}
}

func registerVersion(reg *Registry, current string) {
	registerVersionFamily(reg, "version", func() (string, error) { return current, nil }, nil)
	reg.Register("version.release", func() (string, error) {
		return strings.TrimSuffix(current, "-SNAPSHOT"), nil
	})
}

func registerParameters(reg *Registry, params map[string]any) {
	for name, raw := range params {
		if value, ok := ScalarString(raw); ok {
			reg.RegisterValue("property."+name, value)
		}
	}
}

// ScalarString renders strings, booleans and numbers. Any other value is not a
// scalar and reports false.
func ScalarString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func registerEnvironment(reg *Registry, environ []string) {
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		reg.RegisterValue("env."+key, value)
	}
}
