package resources

import (
	"fmt"

	"github.com/spaghettifunk/fbtex/engine/core"
)

// PixelFormat is the channel layout of decoded texel data.
type PixelFormat uint8

const (
	PixelFormatUnknown PixelFormat = iota
	// PixelFormatGrayAlpha is luminance followed by alpha, 2 bytes per pixel.
	PixelFormatGrayAlpha
	// PixelFormatRGB is 3 bytes per pixel, no alpha.
	PixelFormatRGB
	// PixelFormatRGBA is 4 bytes per pixel, straight (non-premultiplied) alpha.
	PixelFormatRGBA
)

func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatGrayAlpha:
		return 2
	case PixelFormatRGB:
		return 3
	case PixelFormatRGBA:
		return 4
	}
	return 0
}

func (f PixelFormat) HasAlpha() bool {
	return f == PixelFormatGrayAlpha || f == PixelFormatRGBA
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatGrayAlpha:
		return "GRAY_ALPHA"
	case PixelFormatRGB:
		return "RGB"
	case PixelFormatRGBA:
		return "RGBA"
	}
	return "UNKNOWN"
}

// SourceInfo is what the file header said before any channel normalization.
type SourceInfo struct {
	BitDepth        uint8
	ColorType       uint8
	Interlaced      bool
	HasTransparency bool
}

/**
 * @brief A decoded image ready for a single texture upload.
 */
type DecodedImage struct {
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The channel layout of Pixels. */
	PixelFormat PixelFormat
	/** @brief Derived from PixelFormat. */
	BytesPerPixel uint8
	/** @brief Row-major texels. Row 0 is the bottom of the image when FlippedY is set. */
	Pixels []uint8
	/** @brief Whether rows are stored bottom-up. */
	FlippedY bool
	/** @brief The header as read from the file. */
	Source SourceInfo
}

// Stride is the number of bytes in one row of Pixels.
func (img *DecodedImage) Stride() int {
	return int(img.Width) * int(img.BytesPerPixel)
}

// Row returns buffer row i, where i counts rows as they are laid out in
// memory (row 0 is the visual bottom when FlippedY is set).
func (img *DecodedImage) Row(i int) []uint8 {
	stride := img.Stride()
	return img.Pixels[i*stride : (i+1)*stride]
}

func (img *DecodedImage) PixelAt(x, y int) []uint8 {
	bpp := int(img.BytesPerPixel)
	off := y*img.Stride() + x*bpp
	return img.Pixels[off : off+bpp]
}

// Validate checks the buffer against its declared geometry.
func (img *DecodedImage) Validate() error {
	if int(img.BytesPerPixel) != img.PixelFormat.BytesPerPixel() || img.BytesPerPixel == 0 {
		return fmt.Errorf("%w: %d bytes per pixel does not match format %s",
			core.ErrAllocation, img.BytesPerPixel, img.PixelFormat)
	}
	want := uint64(img.Width) * uint64(img.Height) * uint64(img.BytesPerPixel)
	if uint64(len(img.Pixels)) != want {
		return fmt.Errorf("%w: pixel buffer holds %d bytes, want %d (%dx%dx%d)",
			core.ErrAllocation, len(img.Pixels), want, img.Width, img.Height, img.BytesPerPixel)
	}
	return nil
}

// Release drops the pixel buffer once the texture upload no longer needs it.
func (img *DecodedImage) Release() {
	img.Pixels = nil
}
