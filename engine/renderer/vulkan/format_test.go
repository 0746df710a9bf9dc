package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fbtex/engine/resources"
	"github.com/stretchr/testify/require"
)

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		in   resources.PixelFormat
		want vk.Format
	}{
		{resources.PixelFormatGrayAlpha, vk.FormatR8g8Unorm},
		{resources.PixelFormatRGB, vk.FormatR8g8b8Unorm},
		{resources.PixelFormatRGBA, vk.FormatR8g8b8a8Unorm},
	}
	for _, tt := range tests {
		got, err := TextureFormat(tt.in)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	got, err := TextureFormat(resources.PixelFormatUnknown)
	require.Error(t, err)
	require.Equal(t, vk.FormatUndefined, got)
}
