package imageio

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"recolorlab/logging"

	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"
)

// LoaderRegistry maintains a registry of image loaders keyed by extension
type LoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewLoaderRegistry creates a registry with loaders for the pipeline's formats
func NewLoaderRegistry() *LoaderRegistry {
	registry := &LoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standardLoader := NewStandardImageLoader()
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"} {
		registry.RegisterLoader(ext, standardLoader)
	}
	registry.defaultLoader = standardLoader

	tiffLoader := NewTiffImageLoader()
	registry.RegisterLoader(".tif", tiffLoader)
	registry.RegisterLoader(".tiff", tiffLoader)

	return registry
}

// RegisterLoader registers a loader for a file extension
func (r *LoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader registered for an extension, or the default loader
func (r *LoaderRegistry) GetLoader(ext string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if loader, ok := r.loaders[strings.ToLower(ext)]; ok {
		return loader
	}
	return r.defaultLoader
}

// CanLoadFile checks if any registered loader can handle the file
func (r *LoaderRegistry) CanLoadFile(path string) bool {
	loader := r.GetLoader(strings.ToLower(filepath.Ext(path)))
	return loader != nil && loader.CanLoad(path)
}

// StandardImageLoader handles formats OpenCV reads directly
type StandardImageLoader struct{}

// NewStandardImageLoader creates a loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{}
}

// CanLoad checks if this loader can handle the given file
func (l *StandardImageLoader) CanLoad(path string) bool {
	return fileExists(path)
}

// LoadImage loads an image in color mode
func (l *StandardImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return img, newImageLoadError("failed to load image", path)
	}
	return img, nil
}

// TiffImageLoader handles TIFF images, falling back to a pure Go decoder
// for variants OpenCV cannot read
type TiffImageLoader struct{}

// NewTiffImageLoader creates a new loader for TIFF files
func NewTiffImageLoader() *TiffImageLoader {
	return &TiffImageLoader{}
}

// CanLoad checks if this loader can handle the given file
func (l *TiffImageLoader) CanLoad(path string) bool {
	return IsTiffFormat(path) && fileExists(path)
}

// LoadImage loads a TIFF image
func (l *TiffImageLoader) LoadImage(path string) (gocv.Mat, error) {
	// First try direct loading with OpenCV; works for most TIFF files
	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}

	logging.LogWarning("Direct TIFF load failed, trying pure Go decoder: %s", path)

	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), newImageLoadError("failed to open TIFF", path)
	}
	defer f.Close()

	decoded, err := tiff.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode TIFF %s: %v", path, err)
	}

	return MatFromImage(decoded)
}

// MatFromImage converts a Go image.Image to a 3-channel BGR Mat
func MatFromImage(src image.Image) (gocv.Mat, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("cannot convert empty image")
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Convert from 16-bit to 8-bit and BGR order for OpenCV
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}

	return mat, nil
}

// fileExists checks whether path exists and is a regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Helper to create standardized image load errors
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
