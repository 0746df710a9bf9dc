package metadata

import (
	"fmt"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
)

// GL ES 2 enums used by glTexImage2D. Kept here so callers do not need a GL
// binding to build an upload descriptor.
const (
	GL_UNSIGNED_BYTE   uint32 = 0x1401
	GL_RGB             uint32 = 0x1907
	GL_RGBA            uint32 = 0x1908
	GL_LUMINANCE_ALPHA uint32 = 0x190A
)

/**
 * @brief Everything a glTexImage2D call needs for one decoded image.
 */
type TextureUpload struct {
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief Both the internal format and the format argument; ES 2 requires them to match. */
	Format uint32
	/** @brief The component type, always GL_UNSIGNED_BYTE. */
	Type uint32
	/** @brief Value for glPixelStorei(GL_UNPACK_ALIGNMENT, ...). Rows are tightly packed. */
	UnpackAlignment int32
	/** @brief Bottom-up texel rows. Shared with the source image, not copied. */
	Pixels []uint8
}

// GLFormat maps a pixel format onto its GL ES 2 format enum.
func GLFormat(f resources.PixelFormat) (uint32, error) {
	switch f {
	case resources.PixelFormatGrayAlpha:
		return GL_LUMINANCE_ALPHA, nil
	case resources.PixelFormatRGB:
		return GL_RGB, nil
	case resources.PixelFormatRGBA:
		return GL_RGBA, nil
	}
	return 0, fmt.Errorf("no GL format for pixel format %s", f)
}

func NewTextureUpload(img *resources.DecodedImage) (*TextureUpload, error) {
	if img == nil {
		return nil, fmt.Errorf("texture upload: nil image")
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("texture upload: %w", err)
	}
	format, err := GLFormat(img.PixelFormat)
	if err != nil {
		return nil, fmt.Errorf("texture upload: %w", err)
	}
	if !img.FlippedY {
		core.LogWarn("texture upload: image rows are top-down, texture will appear upside down")
	}

	return &TextureUpload{
		Width:           img.Width,
		Height:          img.Height,
		Format:          format,
		Type:            GL_UNSIGNED_BYTE,
		UnpackAlignment: 1,
		Pixels:          img.Pixels,
	}, nil
}
