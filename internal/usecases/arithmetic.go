package usecases

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// Version holds the components of a dotted version string.
type Version struct {
	Core  string
	Major string
	Minor string
	Patch string
	Label string
}

var versionPattern = regexp.MustCompile(
	`^[vV]?(?P<core>(?P<major>\d+)(?:\.(?P<minor>\d+)(?:\.(?P<patch>\d+))?)?)?(?:-(?P<label>.*))?`,
)

var digitsPattern = regexp.MustCompile(`^\d*$`)

// ParseVersion splits s into core, major, minor, patch and label.
// Missing numeric components are "0", a missing core is "0.0.0" and a missing label is "".
func ParseVersion(s string) Version {
	v := Version{Core: "0.0.0", Major: "0", Minor: "0", Patch: "0"}
	groups := ExtractGroups(versionPattern, s)
	if groups["core"] != "" {
		v.Core = groups["core"]
	}
	if groups["major"] != "" {
		v.Major = groups["major"]
	}
	if groups["minor"] != "" {
		v.Minor = groups["minor"]
	}
	if groups["patch"] != "" {
		v.Patch = groups["patch"]
	}
	v.Label = groups["label"]
	return v
}

// Increment adds delta to the non-negative integer in numeric and keeps at least
// the original digit width: "007"+1 is "008", "999"+1 is "1000". An empty input counts as "0".
func Increment(numeric string, delta int) (string, error) {
	if numeric == "" {
		numeric = "0"
	}
	if !digitsPattern.MatchString(numeric) {
		return "", fmt.Errorf("%w: %q", domain.ErrNonNumericIncrementInput, numeric)
	}
	n, ok := new(big.Int).SetString(numeric, 10)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrNonNumericIncrementInput, numeric)
	}
	n.Add(n, big.NewInt(int64(delta)))
	out := n.String()
	if pad := len(numeric) - len(out); pad > 0 {
		out = strings.Repeat("0", pad) + out
	}
	return out, nil
}
