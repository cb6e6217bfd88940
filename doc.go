// Package compat measures which compiler toolchain releases a library builds with.
//
// For every library in a catalog, plus a control project without any
// dependency, the package scaffolds a throwaway build project, lets the
// ecosystem's dependency resolver pick a concrete library version, and then
// binary-searches an ordered list of toolchain releases for the oldest one
// that still builds the project.
//
// # Supported Ecosystems
//
// The package includes ecosystems for:
//   - rust - Cargo projects, toolchains installed with rustup
//   - go - Go modules, toolchains installed through golang.org/dl wrappers
//
// # Basic Usage
//
// Create a registry, pick an ecosystem and run a batch:
//
//	registry := compat.NewRegistry(compat.NewExecRunner(cfg, logger), cfg, logger)
//	eco, err := registry.Lookup("rust")
//
//	driver, err := compat.NewDriver(eco, eco.DefaultCatalog(), eco.Versions(), logger, os.Stdout)
//	results, err := driver.RunBatch(ctx)
//	err = compat.WriteResults(compat.BatchFilename, results)
//
// # Architecture
//
//	Driver
//	└── Session (one per library, private temp dir)
//	    ├── Ecosystem.Scaffold   manifest + source stub
//	    ├── Ecosystem.Resolve    one default build, lock file parse
//	    └── FindOldestCompatible binary search
//	        └── Ecosystem.Probe  install toolchain, clear lock, build
//
// # Assumptions
//
// The search assumes compatibility is monotonic in version order: once a
// project builds with a release, it builds with every newer release. This is
// never verified. The newest compatible release is reported as the last entry
// of the version list and is not probed.
//
// Everything runs sequentially. The toolchain for each build is passed
// explicitly on the command line of the build tool; nothing relies on the
// process-wide default toolchain.
package compat
