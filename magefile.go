//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified.
var Default = Test

// Build compiles the pjbuild command into bin/.
func Build() error {
	return sh.RunV("go", "build", "-o", "bin/pjbuild", "./cmd/pjbuild")
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs the unit tests with the race detector.
func Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet and checks formatting.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	out, err := sh.Output("gofmt", "-l", "cmd", "internal", "pkgs")
	if err != nil {
		return err
	}
	if out != "" {
		return mg.Fatalf(1, "unformatted files:\n%s", out)
	}
	return nil
}

// Check runs Lint and Test.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Clean removes build outputs.
func Clean() error {
	return sh.Rm("bin")
}
