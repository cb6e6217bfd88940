package compat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies probing failures.
type ErrorKind int

const (
	// KindScaffoldIO means the build project could not be created or written.
	KindScaffoldIO ErrorKind = iota + 1
	// KindResolutionFailed means the build tool exited non-zero while resolving versions.
	KindResolutionFailed
	// KindVersionNotFound means the lock artifact had no entry for the library.
	KindVersionNotFound
	// KindToolchainInstallFailed means the toolchain manager could not install a release.
	// It is a valid "incompatible" answer, not a failure of the library.
	KindToolchainInstallFailed
	// KindBuildFailed means the project did not build with a release.
	// It is a valid "incompatible" answer, not a failure of the library.
	KindBuildFailed
)

// Sentinel errors, one per kind. ProbeError matches them with errors.Is.
var (
	ErrScaffoldIO             = errors.New("scaffold io error")
	ErrResolutionFailed       = errors.New("resolution failed")
	ErrVersionNotFound        = errors.New("version not found")
	ErrToolchainInstallFailed = errors.New("toolchain install failed")
	ErrBuildFailed            = errors.New("build failed")
)

func (k ErrorKind) String() string {
	switch k {
	case KindScaffoldIO:
		return "ScaffoldIoError"
	case KindResolutionFailed:
		return "ResolutionFailed"
	case KindVersionNotFound:
		return "VersionNotFound"
	case KindToolchainInstallFailed:
		return "ToolchainInstallFailed"
	case KindBuildFailed:
		return "BuildFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Fatal reports whether an error of this kind aborts a library's probe.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindScaffoldIO, KindResolutionFailed, KindVersionNotFound:
		return true
	default:
		return false
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindScaffoldIO:
		return ErrScaffoldIO
	case KindResolutionFailed:
		return ErrResolutionFailed
	case KindVersionNotFound:
		return ErrVersionNotFound
	case KindToolchainInstallFailed:
		return ErrToolchainInstallFailed
	case KindBuildFailed:
		return ErrBuildFailed
	default:
		return nil
	}
}

// maxOutputLines bounds the command output kept on a ProbeError.
const maxOutputLines = 40

// ProbeError is the error returned by ecosystems for a failed step.
//
// The error message includes the tail of the command output, formatted the
// same way for every ecosystem:
//
//	serde: ResolutionFailed: cargo check exited with status 101
//
//	Build output:
//	error: failed to select a version for the requirement `serde = "9"`
type ProbeError struct {
	Kind    ErrorKind
	Library string   // Empty for the control case
	Output  []string // Tail of the command output, if any
	Err     error
}

func newProbeError(kind ErrorKind, library string, output []string, err error) *ProbeError {
	return &ProbeError{
		Kind:    kind,
		Library: library,
		Output:  tailLines(output, maxOutputLines),
		Err:     err,
	}
}

func (e *ProbeError) Error() string {
	var b strings.Builder
	if e.Library != "" {
		b.WriteString(e.Library)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if out := strings.TrimSpace(strings.Join(e.Output, "\n")); out != "" {
		b.WriteString("\n\nBuild output:\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap exposes both the kind's sentinel and the underlying cause.
func (e *ProbeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of the first ProbeError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

func tailLines(lines []string, n int) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string(nil), lines...)
}
