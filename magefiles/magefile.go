//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/meshprep"

var Default = Build

// Build compiles the meshprep binary into bin/.
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/meshprep")
}

// Test runs the package tests.
func Test() error {
	args := []string{"test", "./..."}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	return sh.RunV("go", args...)
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}

type Sample mg.Namespace

// Simplify runs the mesh stage against the current directory's config.
func (Sample) Simplify() error {
	mg.Deps(Build)
	return sh.RunV(binary, "simplify")
}
