// Package version orders the version identifiers found in library directories.
//
// The release part of an identifier sorts in natural order: digit runs
// compare numerically and rank above other runs, which compare as strings.
// Semver precedence only decides between pre-releases of the same release.
package version

import (
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// split separates the release part of v from its pre-release/build suffix.
// A leading "v" before a digit is dropped. The suffix starts at "+", or at
// "-" when v is valid semver or the "-" is followed by a non-digit, so
// dates such as 2013-05-01 stay whole.
func split(v string) (release, suffix string, hasSuffix bool) {
	r := v
	if len(r) > 1 && r[0] == 'v' && isDigit(r[1]) {
		r = r[1:]
	}
	isSemver := semver.IsValid("v" + r)
	for i := 0; i < len(r); i++ {
		switch {
		case r[i] == '+':
			return r[:i], r[i:], true
		case r[i] == '-' && (isSemver || i+1 == len(r) || !isDigit(r[i+1])):
			return r[:i], r[i:], true
		}
	}
	return r, "", false
}

// Compare returns -1, 0 or +1 as a sorts before, equal to or after b in
// ascending order. Release parts compare segment by segment first, so
// 2.0.0.1 > 1.9.0 and 2013.05 > 0.9. Equal releases fall back to semver
// precedence when both sides are valid semver, otherwise a release ranks
// above any pre-release of it. It is total: 0 only for equal strings.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	ra, xa, hasA := split(a)
	rb, xb, hasB := split(b)

	if c := natural(ra, rb); c != 0 {
		return c
	}
	if sa, sb := "v"+ra+xa, "v"+rb+xb; semver.IsValid(sa) && semver.IsValid(sb) {
		if c := semver.Compare(sa, sb); c != 0 {
			return c
		}
	} else {
		switch {
		case hasA && !hasB:
			return -1
		case !hasA && hasB:
			return 1
		}
		if c := natural(xa, xb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// SortDescending returns a sorted copy of versions, most recent first.
func SortDescending(versions []string) []string {
	out := slices.Clone(versions)
	slices.SortStableFunc(out, func(a, b string) int {
		return Compare(b, a)
	})
	return out
}

// natural compares two identifiers run by run.
func natural(a, b string) int {
	ta, tb := tokens(a), tokens(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if c := compareToken(ta[i], tb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ta) < len(tb):
		return -1
	case len(ta) > len(tb):
		return 1
	}
	return 0
}

// tokens splits s into maximal runs of digits and non-digits.
func tokens(s string) []string {
	var out []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[start]) {
			out = append(out, s[start:i])
			start = i
		}
	}
	return out
}

// compareToken orders numeric runs numerically and above non-numeric runs.
func compareToken(a, b string) int {
	da, db := isDigit(a[0]), isDigit(b[0])
	switch {
	case da && db:
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case da:
		return 1
	case db:
		return -1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
