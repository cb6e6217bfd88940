package compat

import (
	"bufio"
	"io"
	"strings"
)

const (
	lockBlockStart    = "[[package]]"
	lockNamePrefix    = "name = "
	lockVersionPrefix = "version = "
)

// ParseLockVersion scans a Cargo.lock for the package block named name and
// returns its version.
//
// The scan is a single forward pass. A block start resets the current
// package; a name line matching `"<name>"` exactly selects it; the first
// version line after that is returned. Later duplicate blocks are ignored.
// The boolean is false when no matching block with a version exists.
func ParseLockVersion(r io.Reader, name string) (string, bool, error) {
	quoted := `"` + name + `"`
	inPackage := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, lockBlockStart) {
			inPackage = false
		}

		if strings.HasPrefix(line, lockNamePrefix) &&
			strings.TrimSpace(strings.TrimPrefix(line, lockNamePrefix)) == quoted {
			inPackage = true
		}

		if inPackage && strings.HasPrefix(line, lockVersionPrefix) {
			version := strings.TrimSpace(strings.TrimPrefix(line, lockVersionPrefix))
			return strings.Trim(version, `"`), true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, err
	}
	return "", false, nil
}
