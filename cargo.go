package compat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

const (
	cargoManifest = "Cargo.toml"
	cargoLock     = "Cargo.lock"

	// cargoCheckSince is the first release shipping `cargo check`. Older
	// toolchains are probed with a full `cargo build`.
	cargoCheckSince = "1.16.0"

	cargoEdition = "2018"
)

// CargoEcosystem probes Rust crates with cargo and rustup.
type CargoEcosystem struct {
	runner CommandRunner
	cfg    Config
	log    *zap.Logger
}

// NewCargoEcosystem creates the Rust ecosystem.
func NewCargoEcosystem(runner CommandRunner, cfg Config, log *zap.Logger) *CargoEcosystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &CargoEcosystem{runner: runner, cfg: cfg, log: log.With(zap.String("ecosystem", "rust"))}
}

// Name returns the ecosystem name
func (e *CargoEcosystem) Name() string {
	return "rust"
}

// ToolchainLabel returns the label for progress output
func (e *CargoEcosystem) ToolchainLabel() string {
	return "Rust"
}

// Versions returns all stable Rust releases, oldest first
func (e *CargoEcosystem) Versions() []string {
	return append([]string(nil), rustVersions...)
}

// DefaultCatalog returns the built-in crate list
func (e *CargoEcosystem) DefaultCatalog() []Library {
	return append([]Library(nil), rustCatalog...)
}

// DefaultConstraint returns the constraint for crates outside the catalog
func (e *CargoEcosystem) DefaultConstraint() string {
	return "1"
}

// RequiredTools returns the tools needed to probe crates
func (e *CargoEcosystem) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: e.cfg.cargo(), Purpose: "Rust package manager"},
		{Name: e.cfg.rustup(), Purpose: "Rust toolchain installer"},
	}
}

// CheckTools verifies cargo and rustup are available
func (e *CargoEcosystem) CheckTools() error {
	return CheckRequiredTools(e.RequiredTools())
}

// Scaffold writes Cargo.toml and src/lib.rs into a fresh directory
func (e *CargoEcosystem) Scaffold(_ context.Context, lib *Library) (*Project, error) {
	return scaffoldProject(e.Name(), lib, e.cfg, []projectFile{
		{Path: cargoManifest, Content: cargoManifestFor(lib)},
		{Path: "src/lib.rs", Content: cargoLibFor(lib)},
	})
}

func cargoManifestFor(lib *Library) string {
	if lib == nil {
		return fmt.Sprintf(`[package]
name = "control"
version = "0.1.0"
edition = "%s"

[dependencies]
`, cargoEdition)
	}
	return fmt.Sprintf(`[package]
name = "test-%s"
version = "0.1.0"
edition = "%s"

[dependencies]
%s = "%s"
`, lib.Name, cargoEdition, lib.Name, lib.Constraint)
}

func cargoLibFor(lib *Library) string {
	if lib == nil {
		return "// Control case with no dependencies\n"
	}
	return fmt.Sprintf(`// Test usage of %s
#[allow(unused_imports)]
use %s;
`, lib.Name, identifierName(lib.ImportPath()))
}

// Resolve runs cargo check once and reads the crate's version from Cargo.lock
func (e *CargoEcosystem) Resolve(ctx context.Context, p *Project, lib Library) (string, error) {
	cmd := e.cargoCommand(p, e.cfg.ResolveToolchain, "check")
	res, err := e.runner.Run(ctx, cmd)
	if err != nil {
		return "", newProbeError(KindResolutionFailed, lib.Name, res.Lines(), err)
	}
	if !res.Success() {
		return "", newProbeError(KindResolutionFailed, lib.Name, res.Lines(),
			fmt.Errorf("cargo check exited with status %d", res.ExitCode))
	}

	f, err := os.Open(p.Path(cargoLock))
	if err != nil {
		return "", newProbeError(KindVersionNotFound, lib.Name, nil, err)
	}
	defer f.Close()

	version, found, err := ParseLockVersion(f, lib.Name)
	if err != nil {
		return "", newProbeError(KindVersionNotFound, lib.Name, nil, fmt.Errorf("read %s: %w", cargoLock, err))
	}
	if !found {
		return "", newProbeError(KindVersionNotFound, lib.Name, nil,
			fmt.Errorf("no package %q in %s", lib.Name, cargoLock))
	}

	e.log.Debug("resolved crate version",
		zap.String("library", lib.Name),
		zap.String("version", version))
	return version, nil
}

// Probe installs the toolchain, clears Cargo.lock and checks the project
func (e *CargoEcosystem) Probe(ctx context.Context, p *Project, version string) (bool, error) {
	log := e.log.With(zap.String("toolchain", version), zap.String("project", p.Dir))

	install, err := e.runner.Run(ctx, Command{
		Name:  e.cfg.rustup(),
		Args:  []string{"toolchain", "install", version},
		Unset: []string{"RUSTUP_TOOLCHAIN"},
	})
	if err != nil {
		return false, err
	}
	if !install.Success() {
		log.Info("toolchain unavailable, treating as incompatible",
			zap.Error(newProbeError(KindToolchainInstallFailed, "", install.Lines(),
				fmt.Errorf("rustup exited with status %d", install.ExitCode))))
		return false, nil
	}

	// The resolver may pick different versions per toolchain.
	if err := os.Remove(p.Path(cargoLock)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("remove %s: %w", cargoLock, err)
	}

	res, err := e.runner.Run(ctx, e.cargoCommand(p, version, CargoSubcommand(version)))
	if err != nil {
		return false, err
	}
	if !res.Success() {
		log.Debug("project does not build",
			zap.Error(newProbeError(KindBuildFailed, "", res.Lines(),
				fmt.Errorf("cargo exited with status %d", res.ExitCode))))
		return false, nil
	}
	return true, nil
}

// CargoSubcommand returns "check" for toolchains that have it and "build"
// for older ones.
func CargoSubcommand(version string) string {
	if AtLeast(version, cargoCheckSince) {
		return "check"
	}
	return "build"
}

// cargoCommand builds a cargo invocation pinned to toolchain. An empty
// toolchain leaves the choice to rustup's own default.
func (e *CargoEcosystem) cargoCommand(p *Project, toolchain, subcommand string) Command {
	var args []string
	if toolchain != "" {
		args = append(args, "+"+toolchain)
	}
	args = append(args, subcommand)

	cmd := Command{
		Name: e.cfg.cargo(),
		Args: args,
		Dir:  p.Dir,
	}
	if toolchain != "" {
		cmd.Unset = []string{"RUSTUP_TOOLCHAIN"}
	}
	return cmd
}
