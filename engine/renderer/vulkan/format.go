package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fbtex/engine/resources"
)

// TextureFormat picks the UNORM format matching the decoded channel layout.
// Three-channel formats are optional in Vulkan; callers should check
// vk.GetPhysicalDeviceFormatProperties before relying on R8G8B8.
func TextureFormat(f resources.PixelFormat) (vk.Format, error) {
	switch f {
	case resources.PixelFormatGrayAlpha:
		return vk.FormatR8g8Unorm, nil
	case resources.PixelFormatRGB:
		return vk.FormatR8g8b8Unorm, nil
	case resources.PixelFormatRGBA:
		return vk.FormatR8g8b8a8Unorm, nil
	}
	return vk.FormatUndefined, fmt.Errorf("no vulkan format for pixel format %s", f)
}
