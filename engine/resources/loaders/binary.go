package loaders

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
)

// BinaryLoader reads a file verbatim, e.g. a raw texel dump written by the CLI.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(name string, params interface{}) (*resources.Resource, error) {
	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrIO, name, err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrIO, name, err)
	}

	return &resources.Resource{
		Name:     filepath.Base(name),
		FullPath: name,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(resource *resources.Resource) error {
	if resource != nil {
		resource.Data = nil
		resource.DataSize = 0
	}
	return nil
}
