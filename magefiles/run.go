//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Decodes the PNG named by $FBTEX_FILE and dumps its texels to ./out.
func (Run) Load() error {
	mg.Deps(Build.CLI)

	file := os.Getenv("FBTEX_FILE")
	if file == "" {
		return fmt.Errorf("set FBTEX_FILE to the PNG to load")
	}
	fmt.Println("Run fbtex...")
	if _, err := executeCmd("bin/fbtex", withArgs("-log", "debug", "-out", "out", file), withStream()); err != nil {
		return err
	}
	return nil
}
