package compat

import (
	"context"
	"math/bits"
)

// Oracle answers whether the project builds with one toolchain release.
type Oracle func(ctx context.Context, version string) (bool, error)

// FindOldestCompatible binary-searches versions (oldest first) for the
// oldest release the oracle accepts.
//
// The oracle is assumed monotonic: if versions[i] builds, every later
// release builds too. A compiled answer records the midpoint and continues
// strictly below it; a failed answer continues strictly above it. The
// boolean is false when no probed release compiled.
//
// An oracle error or a cancelled context aborts the search.
func FindOldestCompatible(ctx context.Context, versions []string, oracle Oracle) (string, bool, error) {
	left, right := 0, len(versions)
	oldest, found := "", false

	for left < right {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		mid := left + (right-left)/2
		compiled, err := oracle(ctx, versions[mid])
		if err != nil {
			return "", false, err
		}

		if compiled {
			oldest, found = versions[mid], true
			right = mid
		} else {
			left = mid + 1
		}
	}

	return oldest, found, nil
}

// MaxProbes is the worst-case number of oracle calls FindOldestCompatible
// makes for n versions: floor(log2 n) + 1, which is ceil(log2 (n+1)).
func MaxProbes(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}
