package compat

import "context"

// Ecosystem is a build tool plus toolchain manager pair that can be probed.
//
// Each ecosystem is responsible for one language (Cargo + rustup, Go modules
// + golang.org/dl) and implements the three steps of a probing session.
//
// # Session Lifecycle
//
//  1. Scaffold() - create a fresh project that depends on the library
//  2. Resolve() - build once with the default toolchain, read the resolved version
//  3. Probe() - called by the search for individual toolchain releases
//
// # Example Implementation
//
//	type MyEcosystem struct{ runner CommandRunner }
//
//	func (e *MyEcosystem) Name() string { return "mine" }
//
//	func (e *MyEcosystem) Probe(ctx context.Context, p *Project, version string) (bool, error) {
//	    res, err := e.runner.Run(ctx, Command{Name: "mytool", Args: []string{"+" + version, "build"}, Dir: p.Dir})
//	    if err != nil {
//	        return false, err
//	    }
//	    return res.Success(), nil
//	}
//
// # Concurrency
//
// Implementations hold no per-session state; all of it lives in the
// Project. Sessions are nevertheless run one at a time, since toolchain
// managers share an install directory.
type Ecosystem interface {
	// Name returns the identifier used on the command line ("rust", "go").
	Name() string

	// ToolchainLabel is the human name used in progress lines ("Rust").
	ToolchainLabel() string

	// Versions returns the built-in ordered version list, oldest first.
	Versions() []string

	// DefaultCatalog returns the built-in list of libraries to probe.
	DefaultCatalog() []Library

	// DefaultConstraint is used for libraries missing from the catalog.
	DefaultConstraint() string

	// Scaffold creates a new project in a fresh temporary directory.
	//
	// lib is nil for the control case. Failures are ProbeErrors of kind
	// KindScaffoldIO.
	Scaffold(ctx context.Context, lib *Library) (*Project, error)

	// Resolve runs one build with the default toolchain and returns the
	// concrete version the resolver picked for lib.
	//
	// Failures are ProbeErrors of kind KindResolutionFailed or
	// KindVersionNotFound.
	Resolve(ctx context.Context, p *Project, lib Library) (string, error)

	// Probe reports whether p builds with the given toolchain release.
	//
	// A release that cannot be installed or does not build yields false
	// with a nil error. The error return is for unrelated failures, such
	// as a lock file that cannot be removed.
	Probe(ctx context.Context, p *Project, version string) (bool, error)
}
