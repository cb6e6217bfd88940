package compat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"
)

const (
	goManifest = "go.mod"
	goSum      = "go.sum"

	// goScaffoldDirective is the go directive of a freshly scaffolded module.
	goScaffoldDirective = "1.18"
)

// GoEcosystem probes Go modules. Toolchains are golang.org/dl wrappers
// (go1.20, go1.21.0, ...) installed next to the default go binary.
type GoEcosystem struct {
	runner CommandRunner
	cfg    Config
	log    *zap.Logger
}

// NewGoEcosystem creates the Go ecosystem.
func NewGoEcosystem(runner CommandRunner, cfg Config, log *zap.Logger) *GoEcosystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &GoEcosystem{runner: runner, cfg: cfg, log: log.With(zap.String("ecosystem", "go"))}
}

// Name returns the ecosystem name
func (e *GoEcosystem) Name() string {
	return "go"
}

// ToolchainLabel returns the label for progress output
func (e *GoEcosystem) ToolchainLabel() string {
	return "Go"
}

// Versions returns the Go releases to search, oldest first
func (e *GoEcosystem) Versions() []string {
	return append([]string(nil), goVersions...)
}

// DefaultCatalog returns the built-in module list
func (e *GoEcosystem) DefaultCatalog() []Library {
	return append([]Library(nil), goCatalog...)
}

// DefaultConstraint returns the version query for modules outside the catalog
func (e *GoEcosystem) DefaultConstraint() string {
	return "v1"
}

// RequiredTools returns the tools needed to probe modules
func (e *GoEcosystem) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: e.cfg.goTool(), Purpose: "Go toolchain, used to install golang.org/dl wrappers"},
	}
}

// CheckTools verifies the default go binary is available
func (e *GoEcosystem) CheckTools() error {
	return CheckRequiredTools(e.RequiredTools())
}

// Scaffold writes go.mod and main.go into a fresh directory
func (e *GoEcosystem) Scaffold(_ context.Context, lib *Library) (*Project, error) {
	module := "control"
	if lib != nil {
		module = "test"
	}

	f := &modfile.File{}
	if err := f.AddModuleStmt(module); err != nil {
		return nil, newProbeError(KindScaffoldIO, libraryName(lib), nil, err)
	}
	if err := f.AddGoStmt(goScaffoldDirective); err != nil {
		return nil, newProbeError(KindScaffoldIO, libraryName(lib), nil, err)
	}
	manifest, err := f.Format()
	if err != nil {
		return nil, newProbeError(KindScaffoldIO, libraryName(lib), nil, err)
	}

	return scaffoldProject(e.Name(), lib, e.cfg, []projectFile{
		{Path: goManifest, Content: string(manifest)},
		{Path: "main.go", Content: goMainFor(lib)},
	})
}

func goMainFor(lib *Library) string {
	if lib == nil {
		return `package main

func main() {
	// Control case with no dependencies
}
`
	}
	return fmt.Sprintf(`package main

import (
	_ %q
)

func main() {
	// Import package to verify it compiles
}
`, lib.ImportPath())
}

// Resolve adds the dependency with go get and reads the selected version
// from go.mod
func (e *GoEcosystem) Resolve(ctx context.Context, p *Project, lib Library) (string, error) {
	bin := e.cfg.goTool()
	if pinned := e.cfg.ResolveToolchain; pinned != "" {
		ok, err := e.ensureToolchain(ctx, pinned, e.log.With(zap.String("toolchain", pinned)))
		if err != nil {
			return "", newProbeError(KindResolutionFailed, lib.Name, nil, err)
		}
		if !ok {
			return "", newProbeError(KindResolutionFailed, lib.Name, nil,
				fmt.Errorf("resolve toolchain go%s is not available", pinned))
		}
		bin = e.wrapperPath(pinned)
	}

	res, err := e.runner.Run(ctx, e.goCommand(p, bin, "get", lib.ImportPath()+"@"+lib.Constraint))
	if err != nil {
		return "", newProbeError(KindResolutionFailed, lib.Name, res.Lines(), err)
	}
	if !res.Success() {
		return "", newProbeError(KindResolutionFailed, lib.Name, res.Lines(),
			fmt.Errorf("go get exited with status %d", res.ExitCode))
	}

	data, err := os.ReadFile(p.Path(goManifest))
	if err != nil {
		return "", newProbeError(KindVersionNotFound, lib.Name, nil, err)
	}
	version, found, err := RequiredVersion(data, lib.Name)
	if err != nil {
		return "", newProbeError(KindVersionNotFound, lib.Name, nil, err)
	}
	if !found {
		return "", newProbeError(KindVersionNotFound, lib.Name, nil,
			fmt.Errorf("no requirement on %s in %s", lib.Name, goManifest))
	}

	e.log.Debug("resolved module version",
		zap.String("library", lib.Name),
		zap.String("version", version))
	return version, nil
}

// RequiredVersion returns the version go.mod requires for module path.
// Only exact path matches count.
func RequiredVersion(gomod []byte, path string) (string, bool, error) {
	f, err := modfile.ParseLax(goManifest, gomod, nil)
	if err != nil {
		return "", false, fmt.Errorf("parse %s: %w", goManifest, err)
	}
	for _, req := range f.Require {
		if req.Mod.Path == path {
			return req.Mod.Version, true, nil
		}
	}
	return "", false, nil
}

// Probe installs the wrapper for version, pins the go directive and builds
func (e *GoEcosystem) Probe(ctx context.Context, p *Project, version string) (bool, error) {
	log := e.log.With(zap.String("toolchain", version), zap.String("project", p.Dir))

	ok, err := e.ensureToolchain(ctx, version, log)
	if err != nil || !ok {
		return false, err
	}

	if err := os.Remove(p.Path(goSum)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("remove %s: %w", goSum, err)
	}
	if err := setGoDirective(p.Path(goManifest), version); err != nil {
		return false, err
	}

	bin := e.wrapperPath(version)
	for _, args := range [][]string{{"mod", "tidy"}, {"build", "."}} {
		res, err := e.runner.Run(ctx, e.goCommand(p, bin, args...))
		if err != nil {
			return false, err
		}
		if !res.Success() {
			log.Debug("project does not build",
				zap.Error(newProbeError(KindBuildFailed, "", res.Lines(),
					fmt.Errorf("go %s exited with status %d", args[0], res.ExitCode))))
			return false, nil
		}
	}
	return true, nil
}

// ensureToolchain installs the golang.org/dl wrapper if missing and
// downloads its SDK. Download is fast when the SDK is already present.
func (e *GoEcosystem) ensureToolchain(ctx context.Context, version string, log *zap.Logger) (bool, error) {
	bin := e.wrapperPath(version)

	if _, err := os.Stat(bin); err != nil {
		log.Info("installing toolchain wrapper", zap.String("wrapper", bin))
		cmd := Command{
			Name: e.cfg.goTool(),
			Args: []string{"install", "golang.org/dl/go" + version + "@latest"},
			Env:  map[string]string{"GOBIN": e.cfg.goBinDir()},
		}
		res, err := e.runner.Run(ctx, cmd)
		if err != nil {
			return false, err
		}
		if !res.Success() {
			log.Info("toolchain unavailable, treating as incompatible",
				zap.Error(newProbeError(KindToolchainInstallFailed, "", res.Lines(),
					fmt.Errorf("go install exited with status %d", res.ExitCode))))
			return false, nil
		}
	}

	res, err := e.runner.Run(ctx, Command{Name: bin, Args: []string{"download"}})
	if err != nil {
		return false, err
	}
	if !res.Success() {
		log.Info("toolchain download failed, treating as incompatible",
			zap.Error(newProbeError(KindToolchainInstallFailed, "", res.Lines(),
				fmt.Errorf("%s download exited with status %d", filepath.Base(bin), res.ExitCode))))
		return false, nil
	}
	return true, nil
}

func (e *GoEcosystem) wrapperPath(version string) string {
	return filepath.Join(e.cfg.goBinDir(), "go"+version)
}

// goCommand runs bin inside the project. GOTOOLCHAIN=local stops newer go
// binaries from switching to another toolchain behind our back.
func (e *GoEcosystem) goCommand(p *Project, bin string, args ...string) Command {
	return Command{
		Name: bin,
		Args: args,
		Dir:  p.Dir,
		Env: map[string]string{
			"GOTOOLCHAIN": "local",
			"GOFLAGS":     "-mod=mod",
		},
	}
}

// setGoDirective rewrites the go directive of the go.mod at path and drops
// any toolchain line, which older releases cannot parse.
func setGoDirective(path, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", goManifest, err)
	}
	f, err := modfile.Parse(goManifest, data, nil)
	if err != nil {
		return fmt.Errorf("parse %s: %w", goManifest, err)
	}
	if err := f.AddGoStmt(version); err != nil {
		return fmt.Errorf("set go directive %s: %w", version, err)
	}
	f.DropToolchainStmt()
	f.Cleanup()

	out, err := f.Format()
	if err != nil {
		return fmt.Errorf("format %s: %w", goManifest, err)
	}
	return os.WriteFile(path, out, 0o644)
}

func libraryName(lib *Library) string {
	if lib == nil {
		return ""
	}
	return lib.Name
}
