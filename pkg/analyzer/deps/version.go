package deps

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// NormalizeVersion strips range operators from a version spec and returns
// the first concrete version it names. Wildcards, dist tags and specs that
// do not name a version (workspace:, git URLs, a bare name) normalize to "",
// meaning unpinned.
func NormalizeVersion(spec string) string {
	s := strings.TrimSpace(spec)
	if i := strings.Index(s, "||"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "^~>=<!v ")
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}

	if s == "" || s[0] < '0' || s[0] > '9' {
		return ""
	}
	return s
}

// canonical returns the semver form of a normalized version, padding
// missing minor and patch components. Returns "" when unparsable.
func canonical(version string) string {
	v := "v" + strings.TrimPrefix(version, "v")
	v = strings.NewReplacer(".x", ".0", ".*", ".0").Replace(v)
	return semver.Canonical(v)
}

// MajorVersion returns the major component of a version, or 0 when the
// version is unparsable.
func MajorVersion(version string) int {
	if c := canonical(version); c != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(semver.Major(c), "v"))
		if err == nil {
			return n
		}
	}

	digits := version
	for i, r := range version {
		if r < '0' || r > '9' {
			digits = version[:i]
			break
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// Less reports whether version a is strictly older than b. Unparsable
// versions never compare as older.
func Less(a, b string) bool {
	ca, cb := canonical(a), canonical(b)
	if ca == "" || cb == "" {
		return false
	}
	return semver.Compare(ca, cb) < 0
}
