//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the viewer against the default marionette.toml.
func (Run) Viewer() error {
	fmt.Println("Run viewer...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "marionette.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
