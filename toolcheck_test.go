package compat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubLookPath makes only the named tools resolvable for the test.
func stubLookPath(t *testing.T, available ...string) {
	t.Helper()
	original := lookPath
	t.Cleanup(func() { lookPath = original })

	set := make(map[string]bool, len(available))
	for _, name := range available {
		set[name] = true
	}
	lookPath = func(file string) (string, error) {
		if set[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestCheckRequiredTools(t *testing.T) {
	testCases := []struct {
		name      string
		available []string
		reqs      []ToolRequirement
		errMsg    string
	}{
		{
			name:      "all present",
			available: []string{"cargo", "rustup"},
			reqs:      []ToolRequirement{{Name: "cargo"}, {Name: "rustup"}},
		},
		{
			name: "nothing required",
		},
		{
			name:      "one missing with purpose",
			available: []string{"cargo"},
			reqs:      []ToolRequirement{{Name: "cargo"}, {Name: "rustup", Purpose: "Rust toolchain installer"}},
			errMsg:    "rustup (Rust toolchain installer) not found in PATH",
		},
		{
			name:   "several missing",
			reqs:   []ToolRequirement{{Name: "cargo"}, {Name: "rustup"}},
			errMsg: "missing required tools: cargo, rustup",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stubLookPath(t, tc.available...)

			err := CheckRequiredTools(tc.reqs)
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.errMsg)
		})
	}
}

func TestEcosystemCheckTools(t *testing.T) {
	stubLookPath(t, "go")

	cfg := Config{CargoPath: "cargo", RustupPath: "rustup", GoPath: "go"}
	cargo := NewCargoEcosystem(nil, cfg, nil)
	gomod := NewGoEcosystem(nil, cfg, nil)

	assert.EqualError(t, cargo.CheckTools(), "missing required tools: cargo (Rust package manager), rustup (Rust toolchain installer)")
	assert.NoError(t, gomod.CheckTools())

	var _ ToolChecker = cargo
	var _ ToolChecker = gomod
}

func TestCheckToolAvailable(t *testing.T) {
	stubLookPath(t, "cargo")

	assert.NoError(t, CheckToolAvailable("cargo"))
	assert.EqualError(t, CheckToolAvailable("rustup"), "rustup not found in PATH")
}
