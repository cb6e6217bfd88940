//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

const binary = "bin/toolchain-compat"

// Build compiles the toolchain-compat binary into bin/.
func Build() error {
	return sh.RunV("go", "build", "-o", binary, "./cmd/toolchain-compat")
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Integration runs the tests that drive real cargo and rustup.
func Integration() error {
	return sh.RunWithV(map[string]string{"COMPAT_INTEGRATION": "1"}, "go", "test", "-run", "Integration", "-v", ".")
}

// Check runs vet and the unit tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes build output and result files.
func Clean() error {
	for _, path := range []string{"bin", "results.json"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}
