package main

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
	"github.com/spaghettifunk/fbtex/engine/systems"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestParseCLIOpts(t *testing.T) {
	opt, err := parseCLIOpts([]string{"-no-flip", "-out", "dumps", "-workers", "3", "a.png", "b.png"})
	require.NoError(t, err)
	require.True(t, opt.noFlip)
	require.Equal(t, "dumps", opt.outDir)
	require.Equal(t, 3, opt.workers)
	require.Equal(t, []string{"a.png", "b.png"}, opt.files)

	_, err = parseCLIOpts(nil)
	require.Error(t, err)

	opt, err = parseCLIOpts([]string{"-watch", "textures"})
	require.NoError(t, err)
	require.Equal(t, "textures", opt.watchDir)
}

func TestRawExtension(t *testing.T) {
	require.Equal(t, ".la", rawExtension(resources.PixelFormatGrayAlpha))
	require.Equal(t, ".rgb", rawExtension(resources.PixelFormatRGB))
	require.Equal(t, ".rgba", rawExtension(resources.PixelFormatRGBA))
	require.Equal(t, ".raw", rawExtension(resources.PixelFormatUnknown))
}

func TestRun_DumpsTexels(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "marker.png")
	out := filepath.Join(dir, "out")

	code := run([]string{"-config", filepath.Join(dir, "none.toml"), "-out", out, src})
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(out, "marker.rgba"))
	require.NoError(t, err)
	require.Len(t, data, 2*2*4)
	// top-left pixel ends up in the last row
	require.Equal(t, []byte{1, 2, 3, 4}, data[8:12])
}

func TestVerifyDump(t *testing.T) {
	dir := t.TempDir()
	img, err := loaders.LoadImage(writePNG(t, dir, "marker.png"))
	require.NoError(t, err)

	// a base path the dump does not live under
	rs, err := systems.NewTextureResourceSystem(t.TempDir())
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	path, err := dumpTexels(out, "marker.png", img)
	require.NoError(t, err)
	require.NoError(t, verifyDump(rs, path, img))

	require.NoError(t, os.WriteFile(path, img.Pixels[:5], 0o644))
	require.ErrorIs(t, verifyDump(rs, path, img), core.ErrIO)

	require.NoError(t, os.Remove(path))
	require.ErrorIs(t, verifyDump(rs, path, img), core.ErrIO)
}

func TestRun_RelativePathsIgnoreAssetBase(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "local.png")

	cfg := filepath.Join(dir, "fbtex.toml")
	base := filepath.ToSlash(t.TempDir())
	require.NoError(t, os.WriteFile(cfg, []byte("[assets]\nbase_path = \""+base+"\"\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.Equal(t, 0, run([]string{"-config", cfg, "local.png"}))
}

func TestAbsPaths(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	paths, err := absPaths([]string{"a.png", "/tmp/b.png"})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(wd, "a.png"), "/tmp/b.png"}, paths)
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "ok.png")
	cfg := filepath.Join(dir, "none.toml")

	require.Equal(t, 1, run([]string{"-config", cfg, good, filepath.Join(dir, "missing.png")}))
	require.Equal(t, 2, run([]string{"-config", cfg, "-log", "loud", good}))
	require.Equal(t, 2, run([]string{}))
}
