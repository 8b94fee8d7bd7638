//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Prints the index map of the sample forward layout.
func (Run) Layout() error {
	fmt.Println("Describe forward layout...")
	if _, err := executeCmd("go", withArgs("run", ".", "-layout", "testdata/forward.layout.toml", "-config", "testdata/bind.config.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Describes the sample layout and keeps rebuilding it on every change.
func (Run) Watch() error {
	mg.Deps(Build.Cli)
	_, err := executeCmd("bin/anima-bind", withArgs("-layout", "testdata/forward.layout.toml", "-watch"), withStream())
	return err
}
