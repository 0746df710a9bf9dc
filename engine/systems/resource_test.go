package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
	"github.com/spaghettifunk/fbtex/engine/resources/loaders"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(0, 0, color.Gray{Y: 0x7f})

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestNewResourceSystem_NoSlots(t *testing.T) {
	_, err := NewResourceSystem(ResourceSystemConfig{})
	require.Error(t, err)
}

func TestResourceSystem_RegisterLoader(t *testing.T) {
	rs, err := NewResourceSystem(ResourceSystemConfig{MaxLoaderCount: 2})
	require.NoError(t, err)

	require.NoError(t, rs.RegisterLoader(loaders.ResourceLoader{
		ResourceType:            resources.ResourceTypeImage,
		ResourceLoaderInterface: &loaders.ImageLoader{},
	}))
	require.Error(t, rs.RegisterLoader(loaders.ResourceLoader{
		ResourceType:            resources.ResourceTypeImage,
		ResourceLoaderInterface: &loaders.ImageLoader{},
	}), "duplicate type")
	require.Error(t, rs.RegisterLoader(loaders.ResourceLoader{ResourceType: resources.ResourceTypeText}), "no implementation")

	require.NoError(t, rs.RegisterLoader(loaders.ResourceLoader{
		ResourceType:            resources.ResourceTypeCustom,
		CustomType:              "raw",
		ResourceLoaderInterface: &loaders.BinaryLoader{},
	}))
	require.Error(t, rs.RegisterLoader(loaders.ResourceLoader{
		ResourceType:            resources.ResourceTypeText,
		ResourceLoaderInterface: &loaders.BinaryLoader{},
	}), "slots exhausted")
}

func TestResourceSystem_LoadImage(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "gray.png", 4, 2)

	rs, err := NewTextureResourceSystem(dir)
	require.NoError(t, err)

	res, err := rs.Load("gray.png", resources.ResourceTypeImage, nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "gray.png"), res.FullPath)
	require.NotEqual(t, loaders.InvalidID, res.LoaderID)

	img := res.Data.(*resources.DecodedImage)
	require.Equal(t, resources.PixelFormatRGB, img.PixelFormat)
	require.Equal(t, []uint8{0x7f, 0x7f, 0x7f}, img.PixelAt(0, 1))

	require.NoError(t, rs.Unload(res))
	require.Nil(t, img.Pixels)
	require.Equal(t, loaders.InvalidID, res.LoaderID)
}

func TestResourceSystem_LoadErrors(t *testing.T) {
	rs, err := NewTextureResourceSystem(t.TempDir())
	require.NoError(t, err)

	_, err = rs.Load("missing.png", resources.ResourceTypeImage, nil)
	require.ErrorIs(t, err, core.ErrIO)

	_, err = rs.Load("x", resources.ResourceTypeText, nil)
	require.Error(t, err)

	_, err = rs.LoadCustom("x", "nothing", nil)
	require.Error(t, err)
}

func TestResourceSystem_LoadCustomAndBinary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dump.rgb"), []byte{1, 2, 3}, 0o644))

	rs, err := NewTextureResourceSystem(dir)
	require.NoError(t, err)
	require.NoError(t, rs.RegisterLoader(loaders.ResourceLoader{
		ResourceType:            resources.ResourceTypeCustom,
		CustomType:              "raw",
		ResourceLoaderInterface: &loaders.BinaryLoader{},
	}))

	res, err := rs.Load("dump.rgb", resources.ResourceTypeBinary, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, res.Data)

	res, err = rs.LoadCustom(filepath.Join(dir, "dump.rgb"), "raw", nil)
	require.NoError(t, err)
	require.Equal(t, uint64(3), res.DataSize)
	require.NoError(t, rs.Unload(res))
	require.Nil(t, res.Data)
}
