package catalog

import (
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/mod/semver"
)

// MinVersion is the oldest catalog version the client supports.
const MinVersion = "2.5.1"

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// IsSupportedVersion reports whether version is at least MinVersion.
// Components compare numerically in major, minor, patch order, so 2.5.10 is
// newer than 2.5.9. A version without three dotted numbers is unsupported.
func IsSupportedVersion(version string) bool {
	return atLeast(version, MinVersion)
}

func atLeast(version, minimum string) bool {
	v, ok := canonicalVersion(version)
	if !ok {
		return false
	}
	m, ok := canonicalVersion(minimum)
	if !ok {
		return false
	}
	return semver.Compare(v, m) >= 0
}

// canonicalVersion extracts the first X.Y.Z from version as "vX.Y.Z" with
// leading zeros removed.
func canonicalVersion(version string) (string, bool) {
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return "", false
	}
	parts := make([]uint64, 3)
	for i := range parts {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return "", false
		}
		parts[i] = n
	}
	v := fmt.Sprintf("v%d.%d.%d", parts[0], parts[1], parts[2])
	return v, semver.IsValid(v)
}
