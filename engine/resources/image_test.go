package resources

import (
	"testing"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/stretchr/testify/require"
)

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		format PixelFormat
		bpp    int
		alpha  bool
		name   string
	}{
		{PixelFormatGrayAlpha, 2, true, "GRAY_ALPHA"},
		{PixelFormatRGB, 3, false, "RGB"},
		{PixelFormatRGBA, 4, true, "RGBA"},
		{PixelFormatUnknown, 0, false, "UNKNOWN"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.bpp, tt.format.BytesPerPixel(), tt.name)
		require.Equal(t, tt.alpha, tt.format.HasAlpha(), tt.name)
		require.Equal(t, tt.name, tt.format.String())
	}
}

func TestDecodedImage_Layout(t *testing.T) {
	img := &DecodedImage{
		Width:         2,
		Height:        3,
		PixelFormat:   PixelFormatGrayAlpha,
		BytesPerPixel: 2,
		Pixels:        []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}
	require.NoError(t, img.Validate())
	require.Equal(t, 4, img.Stride())
	require.Equal(t, []uint8{4, 5, 6, 7}, img.Row(1))
	require.Equal(t, []uint8{10, 11}, img.PixelAt(1, 2))

	img.Release()
	require.Nil(t, img.Pixels)
	require.ErrorIs(t, img.Validate(), core.ErrAllocation)
}

func TestDecodedImage_ValidateFormatMismatch(t *testing.T) {
	img := &DecodedImage{Width: 1, Height: 1, PixelFormat: PixelFormatRGB, BytesPerPixel: 4, Pixels: make([]uint8, 4)}
	require.ErrorIs(t, img.Validate(), core.ErrAllocation)
}
