package compat

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Session probes one library (or the control case) in its own project.
//
// A session follows the same three steps for every ecosystem:
//  1. Scaffold: create the project in a fresh temporary directory
//  2. Resolve: find the concrete library version (skipped for control)
//  3. Search: binary-search the version list with Probe as the oracle
//
// If a step fails, the remaining steps are skipped and the error is
// returned. The project directory is removed when the session ends.
type Session struct {
	eco      Ecosystem
	versions []string
	log      *zap.Logger
	out      io.Writer
}

// NewSession creates a session over versions, which must already be
// validated with ValidateVersions.
func NewSession(eco Ecosystem, versions []string, log *zap.Logger, out io.Writer) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Session{eco: eco, versions: versions, log: log, out: out}
}

// Run probes lib; nil lib is the control case.
func (s *Session) Run(ctx context.Context, lib *Library) (Result, error) {
	result := newResult(lib)
	log := s.log.With(zap.String("library", result.Name))

	project, err := s.eco.Scaffold(ctx, lib)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := project.Cleanup(); err != nil {
			log.Warn("failed to remove project directory", zap.String("project", project.Dir), zap.Error(err))
		}
	}()
	log.Debug("scaffolded project", zap.String("project", project.Dir))

	if lib != nil {
		resolved, err := s.eco.Resolve(ctx, project, *lib)
		if err != nil {
			return result, err
		}
		result.ResolvedVersion = stringPtr(resolved)
		fmt.Fprintf(s.out, "  Resolved %s %s\n", lib.Name, resolved)
	}

	oldest, found, err := FindOldestCompatible(ctx, s.versions, s.oracle(project, log))
	if err != nil {
		return result, err
	}
	if found {
		result.OldestCompatible = stringPtr(oldest)
	}
	// Never probed: the newest release is assumed to build whenever any does.
	result.LatestCompatible = stringPtr(s.versions[len(s.versions)-1])

	return result, nil
}

func (s *Session) oracle(project *Project, log *zap.Logger) Oracle {
	return func(ctx context.Context, version string) (bool, error) {
		fmt.Fprintf(s.out, "  Testing %s %s\n", s.eco.ToolchainLabel(), version)

		compiled, err := s.eco.Probe(ctx, project, version)
		switch {
		case err != nil:
			fmt.Fprintf(s.out, "    Error: %v\n", err)
		case compiled:
			fmt.Fprintln(s.out, "    OK")
		default:
			fmt.Fprintln(s.out, "    Failed")
		}
		log.Debug("probe finished",
			zap.String("toolchain", version),
			zap.Bool("compiled", compiled),
			zap.Error(err))
		return compiled, err
	}
}

func newResult(lib *Library) Result {
	if lib == nil {
		return Result{Name: ControlName, DependencySpec: ControlSpec}
	}
	return Result{Name: lib.Name, DependencySpec: lib.Constraint}
}

func stringPtr(s string) *string {
	return &s
}

func ptrString(s *string) string {
	if s == nil {
		return "N/A"
	}
	return *s
}
