package compat

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalVersion converts a toolchain release ("1.9.0", "v1.21", "1.13")
// into the "vMAJOR.MINOR.PATCH" form understood by golang.org/x/mod/semver.
func canonicalVersion(version string) (string, error) {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid toolchain version %q", version)
	}
	return semver.Canonical(v), nil
}

// CompareVersions compares two toolchain releases numerically by
// (major, minor, patch). The result is -1, 0 or +1.
//
// "1.9.0" compares less than "1.16.0". A missing patch counts as zero, so
// "1.21" and "1.21.0" are equal.
func CompareVersions(a, b string) (int, error) {
	ca, err := canonicalVersion(a)
	if err != nil {
		return 0, err
	}
	cb, err := canonicalVersion(b)
	if err != nil {
		return 0, err
	}
	return semver.Compare(ca, cb), nil
}

// AtLeast reports whether version is at or above threshold. Unparsable
// versions are never at least anything.
func AtLeast(version, threshold string) bool {
	c, err := CompareVersions(version, threshold)
	return err == nil && c >= 0
}

// ValidateVersions checks that versions is a usable search space: non-empty,
// every entry parsable, strictly ascending with no duplicates.
func ValidateVersions(versions []string) error {
	if len(versions) == 0 {
		return fmt.Errorf("version list is empty")
	}
	for i, v := range versions {
		if _, err := canonicalVersion(v); err != nil {
			return fmt.Errorf("version list entry %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		c, _ := CompareVersions(versions[i-1], v)
		if c >= 0 {
			return fmt.Errorf("version list not strictly ascending at entry %d: %s then %s", i, versions[i-1], v)
		}
	}
	return nil
}
