// Package imageio provides loading and writing of pipeline images as OpenCV Mats.
package imageio

import (
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage loads and returns the image as a 3-channel BGR Mat
	LoadImage(path string) (gocv.Mat, error)
}

// LoadImage loads an image using the appropriate loader based on file type
func LoadImage(path string) (gocv.Mat, error) {
	registry := NewLoaderRegistry()

	if registry.CanLoadFile(path) {
		ext := strings.ToLower(filepath.Ext(path))
		return registry.GetLoader(ext).LoadImage(path)
	}

	// Fallback to standard loading method
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return img, newImageLoadError("failed to load image", path)
	}

	return img, nil
}

// IsImageFile checks if a file extension belongs to a supported image file
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
		return true
	case ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// IsTiffFormat checks if a file is in TIF format
func IsTiffFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".tif" || ext == ".tiff"
}

// GetFileFormat returns the lowercase file extension without the dot
func GetFileFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
