//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the anima-bind command into bin/.
func (Build) Cli() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima-bind", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs go mod tidy and go generate.
func (Build) Tidy() error {
	return goTidy()
}

// Runs the unit tests of every package.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
