package compat

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolChecker is an optional interface for ecosystems that depend on
// external executables.
//
// The driver's caller checks tools before a run so a missing cargo fails
// fast instead of being recorded as a resolution failure for every library:
//
//	if checker, ok := eco.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return fmt.Errorf("toolchain tools missing: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the executables this ecosystem runs.
	RequiredTools() []ToolRequirement

	// CheckTools returns nil if every required tool is available.
	CheckTools() error
}

// ToolRequirement describes an external executable.
type ToolRequirement struct {
	// Name is the executable name or path (e.g. "cargo", "/opt/rust/bin/rustup").
	Name string

	// Purpose is a human-readable reason, used in error messages.
	Purpose string
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// CheckToolAvailable returns an error if tool cannot be found in PATH.
func CheckToolAvailable(tool string) error {
	if _, err := lookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available and lists
// every missing one in a single error.
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missing []string

	for _, req := range requirements {
		if CheckToolAvailable(req.Name) == nil {
			continue
		}
		if req.Purpose != "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			missing = append(missing, req.Name)
		}
	}

	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s not found in PATH", missing[0])
	default:
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
}
