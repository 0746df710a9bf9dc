package loaders

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
)

// DefaultImageParams stores rows bottom-up with no size limit.
func DefaultImageParams() resources.ImageResourceParams {
	return resources.ImageResourceParams{FlipY: true}
}

// ImageParamsFromConfig maps the [loader] config section onto load parameters.
func ImageParamsFromConfig(cfg core.LoaderConfig) resources.ImageResourceParams {
	return resources.ImageResourceParams{
		FlipY:     cfg.FlipY,
		MaxPixels: cfg.MaxPixels,
	}
}

// LoadImage decodes the PNG at path into a bottom-up texel buffer.
func LoadImage(path string) (*resources.DecodedImage, error) {
	return LoadImageWithParams(path, DefaultImageParams())
}

func LoadImageWithParams(path string, params resources.ImageResourceParams) (*resources.DecodedImage, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrIO, path, err)
	}
	defer func() { _ = f.Close() }()

	img, err := DecodeImage(f, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	core.LogDebug("loaded '%s': %dx%d %s (depth=%d color=%d trns=%t)", path,
		img.Width, img.Height, img.PixelFormat, img.Source.BitDepth, img.Source.ColorType, img.Source.HasTransparency)
	return img, nil
}

// DecodeImage decodes a PNG stream. The signature is checked before the
// rest of the stream is buffered, so non-PNG input is rejected early.
func DecodeImage(r io.Reader, params resources.ImageResourceParams) (*resources.DecodedImage, error) {
	sig := make([]byte, len(pngSignature))
	n, err := io.ReadFull(r, sig)
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return nil, checkSignature(sig[:n])
	case err != nil:
		return nil, fmt.Errorf("%w: read: %w", core.ErrIO, err)
	}
	if err := checkSignature(sig); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.MultiReader(bytes.NewReader(sig), r))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", core.ErrIO, err)
	}
	return decodeBytes(data, params)
}

func decodeBytes(data []byte, params resources.ImageResourceParams) (*resources.DecodedImage, error) {
	if err := checkSignature(data); err != nil {
		return nil, err
	}
	h, err := initDecoder(data, probeHeader)
	if err != nil {
		return nil, err
	}

	format := h.pixelFormat()
	bpp := format.BytesPerPixel()
	size, err := texelBufferSize(h.width, h.height, bpp, params.MaxPixels)
	if err != nil {
		return nil, err
	}

	src, err := decodePNG(data)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() != int(h.width) || b.Dy() != int(h.height) {
		return nil, fmt.Errorf("%w: decoded %dx%d, header says %dx%d", core.ErrFormat, b.Dx(), b.Dy(), h.width, h.height)
	}

	pixels, err := allocTexels(size)
	if err != nil {
		return nil, err
	}
	if err := convertTexels(pixels, src, format, params.FlipY); err != nil {
		return nil, err
	}

	return &resources.DecodedImage{
		Width:         h.width,
		Height:        h.height,
		PixelFormat:   format,
		BytesPerPixel: uint8(bpp),
		Pixels:        pixels,
		FlippedY:      params.FlipY,
		Source:        h.sourceInfo(),
	}, nil
}

// texelBufferSize returns width*height*bpp, refusing sizes that overflow or
// exceed maxPixels before anything is decoded.
func texelBufferSize(width, height uint32, bpp int, maxPixels uint64) (uint64, error) {
	pixels := uint64(width) * uint64(height)
	if maxPixels > 0 && pixels > maxPixels {
		return 0, fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", core.ErrAllocation, width, height, maxPixels)
	}
	hi, size := bits.Mul64(pixels, uint64(bpp))
	if hi != 0 || size > math.MaxInt {
		return 0, fmt.Errorf("%w: %dx%dx%d does not fit in memory", core.ErrAllocation, width, height, bpp)
	}
	return size, nil
}

func allocTexels(size uint64) (buf []uint8, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %d bytes: %v", core.ErrAllocation, size, r)
		}
	}()
	return make([]uint8, size), nil
}

// decodePNG runs image/png and folds any decoder failure, panics included,
// into ErrFormat.
func decodePNG(data []byte) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: decoder aborted: %v", core.ErrFormat, r)
		}
	}()
	img, err = png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFormat, err)
	}
	return img, nil
}

type ImageLoader struct{}

// Load decodes the image at name. params may be nil or *resources.ImageResourceParams.
func (il *ImageLoader) Load(name string, params interface{}) (*resources.Resource, error) {
	p := DefaultImageParams()
	switch typed := params.(type) {
	case nil:
	case *resources.ImageResourceParams:
		if typed != nil {
			p = *typed
		}
	case resources.ImageResourceParams:
		p = typed
	default:
		return nil, fmt.Errorf("image loader: unexpected params type %T", params)
	}

	img, err := LoadImageWithParams(name, p)
	if err != nil {
		return nil, err
	}

	return &resources.Resource{
		Name:     filepath.Base(name),
		FullPath: name,
		DataSize: uint64(len(img.Pixels)),
		Data:     img,
	}, nil
}

func (il *ImageLoader) Unload(resource *resources.Resource) error {
	if resource == nil {
		return nil
	}
	if img, ok := resource.Data.(*resources.DecodedImage); ok {
		img.Release()
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
