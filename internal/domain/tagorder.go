package domain

import (
	"math/big"
	"regexp"
	"strings"
)

// tagVersion is a tag split into a non-numeric prefix, dotted numeric
// components and whatever trails them.
type tagVersion struct {
	prefix  string
	numbers []*big.Int
	label   string
}

var tagVersionPattern = regexp.MustCompile(`^(\D*?)(\d+(?:\.\d+)*)(.*)$`)

func parseTagVersion(tag string) tagVersion {
	m := tagVersionPattern.FindStringSubmatch(tag)
	if m == nil {
		return tagVersion{prefix: tag}
	}
	tv := tagVersion{prefix: m[1], label: m[3]}
	for _, part := range strings.Split(m[2], ".") {
		n, _ := new(big.Int).SetString(part, 10)
		tv.numbers = append(tv.numbers, n)
	}
	return tv
}

// CompareTags orders tags version-aware: prefixes lexically, then dotted numeric
// components numerically with missing components counting as 0, then the trailing
// label, where no label ranks above any label and labels compare lexically.
// Tags that are still equal fall back to plain string order, so the order is total.
func CompareTags(a, b string) int {
	if a == b {
		return 0
	}
	va, vb := parseTagVersion(a), parseTagVersion(b)
	if c := strings.Compare(va.prefix, vb.prefix); c != 0 {
		return c
	}
	zero := big.NewInt(0)
	for i := 0; i < max(len(va.numbers), len(vb.numbers)); i++ {
		na, nb := zero, zero
		if i < len(va.numbers) {
			na = va.numbers[i]
		}
		if i < len(vb.numbers) {
			nb = vb.numbers[i]
		}
		if c := na.Cmp(nb); c != 0 {
			return c
		}
	}
	switch {
	case va.label == vb.label:
	case va.label == "":
		return 1
	case vb.label == "":
		return -1
	default:
		return strings.Compare(va.label, vb.label)
	}
	return strings.Compare(a, b)
}

// MaxTag returns the greatest tag under CompareTags, or false when tags is empty.
func MaxTag(tags []string) (string, bool) {
	if len(tags) == 0 {
		return "", false
	}
	best := tags[0]
	for _, tag := range tags[1:] {
		if CompareTags(tag, best) > 0 {
			best = tag
		}
	}
	return best, true
}
