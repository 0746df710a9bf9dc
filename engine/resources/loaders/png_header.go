package loaders

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// PNG color types as stored in IHDR.
const (
	colorTypeGray      uint8 = 0
	colorTypeRGB       uint8 = 2
	colorTypePalette   uint8 = 3
	colorTypeGrayAlpha uint8 = 4
	colorTypeRGBA      uint8 = 6
)

const ihdrLength = 13

type pngHeader struct {
	width     uint32
	height    uint32
	bitDepth  uint8
	colorType uint8
	interlace uint8
	// a tRNS chunk appeared before the first IDAT
	hasTRNS bool
}

func checkSignature(data []byte) error {
	if len(data) < len(pngSignature) {
		return fmt.Errorf("%w: file is %d bytes, too short for a PNG signature", core.ErrFormat, len(data))
	}
	if !bytes.Equal(data[:len(pngSignature)], []byte(pngSignature)) {
		return fmt.Errorf("%w: bad PNG signature % x", core.ErrFormat, data[:len(pngSignature)])
	}
	return nil
}

// initDecoder builds the decoder state for data by running probe. A panic
// while doing so is reported as ErrDecoderInit; a damaged header is an
// ErrFormat returned by probe itself.
func initDecoder(data []byte, probe func([]byte) (pngHeader, error)) (h pngHeader, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = pngHeader{}, fmt.Errorf("%w: %v", core.ErrDecoderInit, r)
		}
	}()
	return probe(data)
}

// probeHeader reads IHDR and walks chunk headers up to the first IDAT.
// data must start with a valid signature.
func probeHeader(data []byte) (pngHeader, error) {
	var h pngHeader

	p := data[len(pngSignature):]
	if len(p) < 8+ihdrLength+4 {
		return h, fmt.Errorf("%w: truncated IHDR", core.ErrFormat)
	}
	length := binary.BigEndian.Uint32(p[0:4])
	if string(p[4:8]) != "IHDR" || length != ihdrLength {
		return h, fmt.Errorf("%w: first chunk is %q (%d bytes), want IHDR", core.ErrFormat, p[4:8], length)
	}
	body := p[8 : 8+ihdrLength]
	crc := binary.BigEndian.Uint32(p[8+ihdrLength:])
	if crc32.ChecksumIEEE(p[4:8+ihdrLength]) != crc {
		return h, fmt.Errorf("%w: IHDR checksum mismatch", core.ErrFormat)
	}

	h.width = binary.BigEndian.Uint32(body[0:4])
	h.height = binary.BigEndian.Uint32(body[4:8])
	h.bitDepth = body[8]
	h.colorType = body[9]
	h.interlace = body[12]
	if err := h.validate(body[10], body[11]); err != nil {
		return h, err
	}

	// Chunk walk. Anything malformed past IHDR is left for the decoder to report.
	p = p[8+ihdrLength+4:]
	for len(p) >= 8 {
		length := binary.BigEndian.Uint32(p[0:4])
		typ := string(p[4:8])
		if typ == "IDAT" || typ == "IEND" {
			break
		}
		if typ == "tRNS" {
			h.hasTRNS = true
		}
		next := uint64(length) + 12
		if next > uint64(len(p)) {
			break
		}
		p = p[next:]
	}
	return h, nil
}

func (h *pngHeader) validate(compression, filter uint8) error {
	if h.width == 0 || h.height == 0 || h.width > 1<<31-1 || h.height > 1<<31-1 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", core.ErrFormat, h.width, h.height)
	}
	if compression != 0 || filter != 0 {
		return fmt.Errorf("%w: unknown compression %d or filter method %d", core.ErrFormat, compression, filter)
	}
	if h.interlace > 1 {
		return fmt.Errorf("%w: unknown interlace method %d", core.ErrFormat, h.interlace)
	}

	ok := false
	switch h.colorType {
	case colorTypeGray:
		ok = h.bitDepth == 1 || h.bitDepth == 2 || h.bitDepth == 4 || h.bitDepth == 8 || h.bitDepth == 16
	case colorTypePalette:
		ok = h.bitDepth == 1 || h.bitDepth == 2 || h.bitDepth == 4 || h.bitDepth == 8
	case colorTypeRGB, colorTypeGrayAlpha, colorTypeRGBA:
		ok = h.bitDepth == 8 || h.bitDepth == 16
	}
	if !ok {
		return fmt.Errorf("%w: unsupported color type %d at bit depth %d", core.ErrFormat, h.colorType, h.bitDepth)
	}
	return nil
}

// pixelFormat applies the channel normalization: palette and gray expand to
// RGB, a tRNS chunk adds alpha, gray+alpha stays two-channel.
func (h *pngHeader) pixelFormat() resources.PixelFormat {
	switch h.colorType {
	case colorTypeGrayAlpha:
		return resources.PixelFormatGrayAlpha
	case colorTypeRGBA:
		return resources.PixelFormatRGBA
	case colorTypeGray, colorTypeRGB, colorTypePalette:
		if h.hasTRNS {
			return resources.PixelFormatRGBA
		}
		return resources.PixelFormatRGB
	}
	return resources.PixelFormatUnknown
}

func (h *pngHeader) sourceInfo() resources.SourceInfo {
	return resources.SourceInfo{
		BitDepth:        h.bitDepth,
		ColorType:       h.colorType,
		Interlaced:      h.interlace == 1,
		HasTransparency: h.hasTRNS,
	}
}
