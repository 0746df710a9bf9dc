package loaders

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
)

// putTexel stores one straight-alpha 8-bit pixel in the target layout.
type putTexel func(dst []uint8, r, g, b, a uint8)

func texelPutter(format resources.PixelFormat) putTexel {
	switch format {
	case resources.PixelFormatGrayAlpha:
		// gray sources carry r == g == b
		return func(dst []uint8, r, _, _, a uint8) {
			dst[0], dst[1] = r, a
		}
	case resources.PixelFormatRGB:
		return func(dst []uint8, r, g, b, _ uint8) {
			dst[0], dst[1], dst[2] = r, g, b
		}
	case resources.PixelFormatRGBA:
		return func(dst []uint8, r, g, b, a uint8) {
			dst[0], dst[1], dst[2], dst[3] = r, g, b, a
		}
	}
	return nil
}

// convertTexels writes src into dst one source row at a time. Source row y
// (0 is the top) lands at buffer row height-1-y when flip is set.
func convertTexels(dst []uint8, src image.Image, format resources.PixelFormat, flip bool) error {
	put := texelPutter(format)
	if put == nil {
		return fmt.Errorf("%w: no texel layout for %s", core.ErrFormat, format)
	}

	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	bpp := format.BytesPerPixel()
	stride := width * bpp
	if len(dst) != stride*height {
		return fmt.Errorf("%w: buffer is %d bytes, want %d", core.ErrAllocation, len(dst), stride*height)
	}

	rowOffset := func(y int) int {
		if flip {
			return (height - 1 - y) * stride
		}
		return y * stride
	}

	switch s := src.(type) {
	case *image.Gray:
		for y := range height {
			row := dst[rowOffset(y):]
			pix := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range width {
				v := pix[x]
				put(row[x*bpp:], v, v, v, 0xff)
			}
		}

	case *image.Gray16:
		for y := range height {
			row := dst[rowOffset(y):]
			pix := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range width {
				// big-endian samples, keep the high byte
				v := pix[x*2]
				put(row[x*bpp:], v, v, v, 0xff)
			}
		}

	case *image.NRGBA:
		for y := range height {
			row := dst[rowOffset(y):]
			pix := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range width {
				p := pix[x*4 : x*4+4]
				put(row[x*bpp:], p[0], p[1], p[2], p[3])
			}
		}

	case *image.NRGBA64:
		for y := range height {
			row := dst[rowOffset(y):]
			pix := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range width {
				p := pix[x*8 : x*8+8]
				put(row[x*bpp:], p[0], p[2], p[4], p[6])
			}
		}

	case *image.RGBA:
		for y := range height {
			row := dst[rowOffset(y):]
			pix := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range width {
				p := pix[x*4 : x*4+4]
				if p[3] == 0xff {
					put(row[x*bpp:], p[0], p[1], p[2], 0xff)
					continue
				}
				c := color.NRGBAModel.Convert(color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}).(color.NRGBA)
				put(row[x*bpp:], c.R, c.G, c.B, c.A)
			}
		}

	case *image.RGBA64:
		for y := range height {
			row := dst[rowOffset(y):]
			for x := range width {
				c := color.NRGBA64Model.Convert(s.RGBA64At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				put(row[x*bpp:], uint8(c.R>>8), uint8(c.G>>8), uint8(c.B>>8), uint8(c.A>>8))
			}
		}

	case *image.Paletted:
		lut := paletteTexels(s.Palette)
		for y := range height {
			row := dst[rowOffset(y):]
			pix := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range width {
				c := lut[pix[x]]
				put(row[x*bpp:], c.R, c.G, c.B, c.A)
			}
		}

	default:
		for y := range height {
			row := dst[rowOffset(y):]
			for x := range width {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				put(row[x*bpp:], c.R, c.G, c.B, c.A)
			}
		}
	}
	return nil
}

// paletteTexels resolves every possible index up front. Indices past the end
// of the palette read as opaque black.
func paletteTexels(p color.Palette) [256]color.NRGBA {
	var lut [256]color.NRGBA
	for i := range lut {
		lut[i] = color.NRGBA{A: 0xff}
	}
	for i, c := range p {
		if i >= len(lut) {
			break
		}
		switch c := c.(type) {
		case color.NRGBA:
			lut[i] = c
		case color.RGBA:
			if c.A == 0xff {
				lut[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
				continue
			}
			lut[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
		default:
			lut[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
		}
	}
	return lut
}
