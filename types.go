package compat

import (
	"os"
	"path/filepath"
	"time"
)

// Control case identifiers used in results.
const (
	ControlName = "CONTROL"
	ControlSpec = "none"
)

// Library is a candidate dependency to probe.
//
// Name is the identifier the ecosystem's registry knows the library by
// (crate name, module path). Import is only used by ecosystems whose source
// files import something other than the registry name, such as a Go module
// whose root package is not importable.
type Library struct {
	Name       string `yaml:"name"`
	Constraint string `yaml:"constraint"`
	Import     string `yaml:"import,omitempty"`
}

// ImportPath returns the path a source stub should import.
func (l Library) ImportPath() string {
	if l.Import != "" {
		return l.Import
	}
	return l.Name
}

// Result is the outcome of probing one library.
//
// Optional fields are nil when absent and serialize as JSON null.
type Result struct {
	Name             string  `json:"name"`
	DependencySpec   string  `json:"dependency_spec"`
	ResolvedVersion  *string `json:"resolved_version"`
	OldestCompatible *string `json:"oldest_compatible"`
	LatestCompatible *string `json:"latest_compatible"`
	Error            *string `json:"error"`
}

// Config contains settings shared by every ecosystem and the driver.
//
// Tool paths:
//   - CargoPath, RustupPath, GoPath: executables to run (defaults: cargo, rustup, go)
//   - GoBinDir: where golang.org/dl wrappers are installed (default: $GOPATH/bin)
//
// Behavior:
//   - ResolveToolchain: toolchain used for version resolution, empty means the
//     tool's own default
//   - CommandTimeout: per subprocess limit, zero means none
//   - KeepProjects: leave scaffolded directories on disk
type Config struct {
	CargoPath  string
	RustupPath string
	GoPath     string
	GoBinDir   string

	ResolveToolchain string
	CommandTimeout   time.Duration
	KeepProjects     bool
	Env              map[string]string // Extra environment for every subprocess
}

func (c Config) cargo() string {
	if c.CargoPath != "" {
		return c.CargoPath
	}
	if p := os.Getenv("CARGO"); p != "" {
		return p
	}
	return "cargo"
}

func (c Config) rustup() string {
	if c.RustupPath != "" {
		return c.RustupPath
	}
	if p := os.Getenv("RUSTUP"); p != "" {
		return p
	}
	return "rustup"
}

func (c Config) goTool() string {
	if c.GoPath != "" {
		return c.GoPath
	}
	return "go"
}

func (c Config) goBinDir() string {
	if c.GoBinDir != "" {
		return c.GoBinDir
	}
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		return gobin
	}
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, _ := os.UserHomeDir()
		gopath = filepath.Join(home, "go")
	}
	return filepath.Join(gopath, "bin")
}

// Project is a scaffolded, disposable build project.
type Project struct {
	Dir     string
	Library *Library // nil for the control case

	keep bool
}

// Path joins name onto the project directory.
func (p *Project) Path(name string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(name))
}

// Cleanup removes the project directory unless it was created with
// Config.KeepProjects.
func (p *Project) Cleanup() error {
	if p == nil || p.keep || p.Dir == "" {
		return nil
	}
	return os.RemoveAll(p.Dir)
}
