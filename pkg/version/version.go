// Package version parses and compares the version strings written into LOOT
// metadata condition literals and read back out of PE VS_VERSIONINFO
// resources. The dialect is a relaxed SemVer: a 4-tuple comma form takes
// priority over everything else, and identifier comparison has a special
// rule for a numeric identifier measured against an alphanumeric one (see
// Compare).
package version

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a parsed version literal: an ordered list of release
// identifiers, an optional ordered list of pre-release identifiers, and the
// original text it was parsed from (kept for logging, not for comparison).
type Version struct {
	Release []string
	Pre     []string
	raw     string
}

// String returns the text the version was parsed from.
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the unparsed zero value.
func (v Version) IsZero() bool { return v.raw == "" && v.Release == nil }

var fourTuple = regexp.MustCompile(`^\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*$`)

// identifierRE matches one release or pre-release identifier: ASCII
// alphanumerics and hyphens, per §4.A.
var identifierRE = regexp.MustCompile(`^[0-9A-Za-z-]+$`)

// Parse converts a version literal into a Version.
//
// It tries, in order: the four-decimal-integer comma form ("1, 2, 3, 4"),
// then a SemVer-shaped release(.release)*(-pre(.pre)*)?(+build)? string.
// Build metadata is parsed (to keep the rest of the string unambiguous) and
// discarded. Anything matching neither form is accepted as a single release
// identifier so that every string LOOT or a PE resource could hand us
// produces a comparable Version rather than a parse error -- the interpreter
// never rejects a condition purely because an executable's version field is
// unconventional.
func Parse(s string) Version {
	trimmed := strings.TrimSpace(s)

	if m := fourTuple.FindStringSubmatch(trimmed); m != nil {
		return Version{Release: []string{m[1], m[2], m[3], m[4]}, raw: s}
	}

	withoutBuild := trimmed
	if i := strings.IndexByte(trimmed, '+'); i >= 0 {
		withoutBuild = trimmed[:i]
	}

	release := withoutBuild
	var pre []string
	if i := strings.IndexByte(withoutBuild, '-'); i >= 0 {
		release = withoutBuild[:i]
		preStr := withoutBuild[i+1:]
		if preStr != "" {
			pre = splitIdentifiers(preStr)
		}
	}

	releaseIDs := splitIdentifiers(release)
	if len(releaseIDs) == 0 || !allValidIdentifiers(releaseIDs) || (pre != nil && !allValidIdentifiers(pre)) {
		// Doesn't fit the SemVer-shaped grammar at all (e.g. contains
		// whitespace or punctuation outside '.', '-', '+'); fall back to
		// treating the whole trimmed string as one opaque identifier.
		if trimmed == "" {
			return Version{Release: []string{"0"}, raw: s}
		}
		return Version{Release: []string{trimmed}, raw: s}
	}

	return Version{Release: releaseIDs, Pre: pre, raw: s}
}

func splitIdentifiers(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func allValidIdentifiers(ids []string) bool {
	for _, id := range ids {
		if id == "" || !identifierRE.MatchString(id) {
			return false
		}
	}
	return true
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
//
// Release identifiers compare pairwise left-to-right, with missing trailing
// positions treated as zero, so "1.0" == "1.0.0". A version with no
// pre-release is greater than any otherwise-equal version that has one; two
// pre-releases compare pairwise left-to-right, and a pre-release that is a
// strict prefix of another is the lesser of the two.
func Compare(a, b Version) int {
	if fast, ok := tryFastCompare(a, b); ok {
		return fast
	}

	if c := compareIdentifierLists(a.Release, b.Release); c != 0 {
		return c
	}

	switch {
	case len(a.Pre) == 0 && len(b.Pre) == 0:
		return 0
	case len(a.Pre) == 0:
		return 1
	case len(b.Pre) == 0:
		return -1
	default:
		return comparePre(a.Pre, b.Pre)
	}
}

// tryFastCompare delegates to golang.org/x/mod/semver for the common case of
// two plain three-component numeric releases with no pre-release identifiers
// that contain letters. x/mod/semver implements the standard SemVer
// precedence rule for identifiers, which disagrees with §4.A's numeric-vs-
// alphanumeric rule whenever an identifier mixes digits and letters (e.g.
// "86" vs "78b" -- see DESIGN.md); this fast path is only taken when no such
// identifier exists on either side, so the two algorithms necessarily agree.
func tryFastCompare(a, b Version) (int, bool) {
	ca, ok := canonicalSemver(a)
	if !ok {
		return 0, false
	}
	cb, ok := canonicalSemver(b)
	if !ok {
		return 0, false
	}
	if !semver.IsValid(ca) || !semver.IsValid(cb) {
		return 0, false
	}
	return semver.Compare(ca, cb), true
}

func canonicalSemver(v Version) (string, bool) {
	if len(v.Release) != 3 {
		return "", false
	}
	for _, id := range v.Release {
		if !isNumeric(id) {
			return "", false
		}
	}
	for _, id := range v.Pre {
		if !isNumeric(id) {
			return "", false
		}
	}
	s := "v" + strings.Join(v.Release, ".")
	if len(v.Pre) > 0 {
		s += "-" + strings.Join(v.Pre, ".")
	}
	return s, true
}

func compareIdentifierLists(a, b []string) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai, bi := "0", "0"
		if i < len(a) {
			ai = a[i]
		}
		if i < len(b) {
			bi = b[i]
		}
		if c := compareIdentifier(ai, bi); c != 0 {
			return c
		}
	}
	return 0
}

// comparePre compares two pre-release identifier lists. A shorter list that
// is a prefix of a longer one is the lesser of the two.
func comparePre(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareIdentifier(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// leadingDigits returns the maximal leading run of decimal digits in s,
// which may be empty.
func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

// compareIdentifier implements §4.A's identifier comparison rule.
func compareIdentifier(a, b string) int {
	aNum, bNum := isNumeric(a), isNumeric(b)

	switch {
	case aNum && bNum:
		return compareDigitStrings(a, b)
	case !aNum && !bNum:
		return strings.Compare(a, b)
	case aNum:
		return compareNumericVsAlnum(a, b)
	default:
		return -compareNumericVsAlnum(b, a)
	}
}

// compareNumericVsAlnum compares a purely numeric identifier n against an
// alphanumeric identifier a, per the rule in §4.A: let P be a's maximal
// leading-digit prefix (0 if none). n<P -> numeric smaller; n>P -> numeric
// bigger; n==P -> numeric is smaller if a has any leading digits at all
// (a's digit prefix is tied but a carries a longer/extra suffix), otherwise
// (a has no leading digits) numeric is bigger.
func compareNumericVsAlnum(n, a string) int {
	digits := leadingDigits(a)
	p := digits
	if p == "" {
		p = "0"
	}
	switch cmp := compareDigitStrings(n, p); {
	case cmp < 0:
		return -1
	case cmp > 0:
		return 1
	default:
		if digits != "" {
			return -1
		}
		return 1
	}
}

// compareDigitStrings compares two non-negative decimal digit strings as
// integers, without risking overflow for arbitrarily long inputs.
func compareDigitStrings(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if a == "" {
		a = "0"
	}
	if b == "" {
		b = "0"
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
