//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"

	"github.com/spaghettifunk/astra/engine/assets/importers"
	"github.com/spaghettifunk/astra/engine/backend"
)

type Build mg.Namespace

// Builds the testbed binary.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "astra", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Packs the given asset directory into a packfile archive using the stock
// extension map.
func (Build) Pack(dir, out string) error {
	w := backend.NewPackfileWriter()
	if err := w.AddDir(dir, importers.DefaultExtensions()); err != nil {
		return err
	}
	if err := w.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("packed %d assets from %s into %s\n", w.Len(), dir, out)
	return nil
}
