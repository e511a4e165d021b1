package spyglass

import (
	"regexp"
	"strconv"
	"strings"
)

// ServerVersion captures the version and vendor of a database server, as
// determined from its @@version and @@version_comment variables.
type ServerVersion struct {
	Raw     string // unmodified @@version value
	Numeric int    // encoded as major*10000 + minor*100 + patch; 0 if unparseable
	MariaDB bool
	Percona bool
}

var reVersion = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// ParseVersion takes a version string (e.g. @@version variable from MySQL)
// and returns a 3-element array of major, minor, and patch numbers. Each
// component only considers its leading digits, so suffixes like
// "10.1.22-MariaDB-" parse cleanly. Missing components count as 0. If the
// string cannot be parsed at all, the returned value will be {0, 0, 0}.
func ParseVersion(version string) (result [3]int) {
	matches := reVersion.FindStringSubmatch(version)
	if matches != nil {
		var err error
		for n := range result {
			if matches[n+1] == "" {
				break
			}
			result[n], err = strconv.Atoi(matches[n+1])
			if err != nil {
				return [3]int{0, 0, 0}
			}
		}
	}
	return
}

// VersionToInt converts a version string into a single integer suitable for
// numeric comparison, encoded as major*10000 + minor*100 + patch. Malformed
// input yields 0. For example, "5.6.35" returns 50635 and "10.1.22-MariaDB-"
// returns 100122.
func VersionToInt(version string) int {
	parts := ParseVersion(version)
	return parts[0]*10000 + parts[1]*100 + parts[2]
}

// ParseServerVersion returns a ServerVersion based on values of the server
// variables @@version and @@version_comment. Vendor detection operates on
// the comment string only, via case-insensitive substring matching; servers
// matching neither fork are treated as vanilla MySQL. ParseServerVersion
// never fails: malformed input simply yields a zero Numeric value with both
// vendor flags false.
func ParseServerVersion(version, versionComment string) ServerVersion {
	versionComment = strings.ToLower(versionComment)
	return ServerVersion{
		Raw:     version,
		Numeric: VersionToInt(version),
		MariaDB: strings.Contains(versionComment, "mariadb"),
		Percona: strings.Contains(versionComment, "percona"),
	}
}

// Major returns just the major version number of v.
func (v ServerVersion) Major() int {
	return v.Numeric / 10000
}

// Minor returns just the minor version number of v.
func (v ServerVersion) Minor() int {
	return (v.Numeric / 100) % 100
}

// Patch returns just the patch version number of v.
func (v ServerVersion) Patch() int {
	return v.Numeric % 100
}

// Known returns true if the version was parsed successfully.
func (v ServerVersion) Known() bool {
	return v.Numeric > 0
}

// AtLeast returns true if v is at or above the supplied threshold, which
// must be encoded in the same manner as VersionToInt.
func (v ServerVersion) AtLeast(versionInt int) bool {
	return v.Numeric >= versionInt
}

// String returns the raw version string, or "unknown" if none was probed.
func (v ServerVersion) String() string {
	if v.Raw == "" {
		return "unknown"
	}
	return v.Raw
}
