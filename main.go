/*
fbtex decodes PNG files into the bottom-up texel buffers the framebuffer
demos upload with glTexImage2D, and reports what each upload would look like.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/profile"
	"github.com/spaghettifunk/fbtex/engine/assets"
	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/renderer/metadata"
	"github.com/spaghettifunk/fbtex/engine/renderer/vulkan"
	"github.com/spaghettifunk/fbtex/engine/resources"
	"github.com/spaghettifunk/fbtex/engine/resources/loaders"
	"github.com/spaghettifunk/fbtex/engine/systems"
)

type CLIOpts struct {
	configPath string
	logLevel   string
	noFlip     bool
	outDir     string
	watchDir   string
	cpuProfile string
	workers    int
	files      []string
}

func parseCLIOpts(args []string) (CLIOpts, error) {
	var opt CLIOpts
	fs := flag.NewFlagSet("fbtex", flag.ContinueOnError)
	fs.StringVar(&opt.configPath, "config", "fbtex.toml", "Path to the TOML config file")
	fs.StringVar(&opt.logLevel, "log", "", "Log level (debug, info, warn, error); overrides the config")
	fs.BoolVar(&opt.noFlip, "no-flip", false, "Keep rows top-down instead of flipping for GL")
	fs.StringVar(&opt.outDir, "out", "", "Write raw texel dumps (<name>.la|.rgb|.rgba) to this directory")
	fs.StringVar(&opt.watchDir, "watch", "", "Reload PNG files under this directory when they change, until interrupted")
	fs.StringVar(&opt.cpuProfile, "cpuprofile", "", "Write a CPU profile to this directory")
	fs.IntVar(&opt.workers, "workers", 0, "Number of decode workers; overrides the config")
	if err := fs.Parse(args); err != nil {
		return opt, err
	}
	opt.files = fs.Args()

	if len(opt.files) == 0 && opt.watchDir == "" {
		fs.Usage()
		return opt, errors.New("nothing to do: pass PNG files or -watch DIR")
	}
	return opt, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opt, err := parseCLIOpts(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if opt.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opt.cpuProfile), profile.NoShutdownHook).Stop()
	}

	cfg, err := core.LoadConfig(opt.configPath)
	if err != nil {
		core.LogError("%s", err)
		return 1
	}
	level := cfg.Log.Level
	if opt.logLevel != "" {
		level = opt.logLevel
	}
	if err := core.SetLogLevel(level); err != nil {
		core.LogError("bad log level %q: %s", level, err)
		return 2
	}
	if opt.workers > 0 {
		cfg.Jobs.Workers = opt.workers
	}

	params := loaders.ImageParamsFromConfig(cfg.Loader)
	if opt.noFlip {
		params.FlipY = false
	}

	rs, err := systems.NewTextureResourceSystem(cfg.Assets.BasePath)
	if err != nil {
		core.LogError("%s", err)
		return 1
	}
	js, err := systems.NewJobSystem(cfg.Jobs.Workers, cfg.Jobs.QueueSize)
	if err != nil {
		core.LogError("%s", err)
		return 1
	}
	defer js.Shutdown()

	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// command line paths are relative to the working directory, not the asset base
	files, err := absPaths(opt.files)
	if err != nil {
		core.LogError("%s", err)
		return 1
	}

	failed := 0
	for _, r := range systems.LoadBatch(ctx, rs, js, files, &params) {
		if !report(rs, r, opt.outDir) {
			failed++
		}
	}

	if opt.watchDir != "" {
		if err := watch(ctx, rs, opt.watchDir, &params, opt.outDir); err != nil {
			core.LogError("%s", err)
			return 1
		}
	}

	if failed > 0 {
		core.LogError("%d of %d files failed to load", failed, len(opt.files))
		return 1
	}
	return 0
}

func watch(ctx context.Context, rs *systems.ResourceSystem, dir string, params *resources.ImageResourceParams, outDir string) error {
	w, err := assets.NewWatcher(func(path string) {
		clock := core.NewClock()
		clock.Start()
		res, err := rs.Load(path, resources.ResourceTypeImage, params)
		clock.Stop()
		report(rs, systems.BatchResult{Name: path, Resource: res, Elapsed: clock.ElapsedDuration(), Err: err}, outDir)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := w.Add(abs); err != nil {
		return err
	}
	core.LogInfo("watching %d PNG files under '%s'", len(w.Paths()), abs)

	<-ctx.Done()
	core.LogInfo("stopped watching '%s'", abs)
	return nil
}

// report logs one load and releases its pixels. It returns false for failures.
func report(rs *systems.ResourceSystem, r systems.BatchResult, outDir string) bool {
	if r.Err != nil {
		core.LogError("%s: %s", r.Name, r.Err)
		return false
	}
	defer func() {
		if err := rs.Unload(r.Resource); err != nil {
			core.LogWarn("%s: unload: %s", r.Name, err)
		}
	}()

	img := r.Image()
	upload, err := metadata.NewTextureUpload(img)
	if err != nil {
		core.LogError("%s: %s", r.Name, err)
		return false
	}
	vkFormat, err := vulkan.TextureFormat(img.PixelFormat)
	if err != nil {
		core.LogError("%s: %s", r.Name, err)
		return false
	}

	core.LogInfo("%s: %dx%d %s, %d bytes, gl=0x%04X vk=%d, decoded in %s",
		r.Name, img.Width, img.Height, img.PixelFormat, len(upload.Pixels), upload.Format, vkFormat, r.Elapsed)

	if outDir != "" {
		path, err := dumpTexels(outDir, r.Name, img)
		if err != nil {
			core.LogError("%s: %s", r.Name, err)
			return false
		}
		if err := verifyDump(rs, path, img); err != nil {
			core.LogError("%s: %s", r.Name, err)
			return false
		}
		core.LogDebug("%s: texels written to '%s'", r.Name, path)
	}
	return true
}

func absPaths(names []string) ([]string, error) {
	paths := make([]string, len(names))
	for i, name := range names {
		abs, err := filepath.Abs(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrIO, name, err)
		}
		paths[i] = abs
	}
	return paths, nil
}

// verifyDump reads a texel dump back through the binary loader and checks it
// holds exactly the decoded buffer.
func verifyDump(rs *systems.ResourceSystem, path string, img *resources.DecodedImage) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	res, err := rs.Load(abs, resources.ResourceTypeBinary, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := rs.Unload(res); err != nil {
			core.LogWarn("%s: unload: %s", abs, err)
		}
	}()

	if res.DataSize != uint64(len(img.Pixels)) {
		return fmt.Errorf("%w: dump '%s' is %d bytes, want %d", core.ErrIO, abs, res.DataSize, len(img.Pixels))
	}
	return nil
}

func rawExtension(f resources.PixelFormat) string {
	switch f {
	case resources.PixelFormatGrayAlpha:
		return ".la"
	case resources.PixelFormatRGB:
		return ".rgb"
	case resources.PixelFormatRGBA:
		return ".rgba"
	}
	return ".raw"
}

func dumpTexels(outDir, name string, img *resources.DecodedImage) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	path := filepath.Join(outDir, base+rawExtension(img.PixelFormat))
	if err := os.WriteFile(path, img.Pixels, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	return path, nil
}
