package imageio

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("photo.jpg"))
	assert.True(t, IsImageFile("photo.JPEG"))
	assert.True(t, IsImageFile("scan.tif"))
	assert.True(t, IsImageFile("scan.tiff"))
	assert.True(t, IsImageFile("mask.png"))

	assert.False(t, IsImageFile("notes.txt"))
	assert.False(t, IsImageFile("archive.zip"))
	assert.False(t, IsImageFile("noextension"))
}

func TestIsTiffFormat(t *testing.T) {
	assert.True(t, IsTiffFormat("a.tif"))
	assert.True(t, IsTiffFormat("a.TIFF"))
	assert.False(t, IsTiffFormat("a.jpg"))
}

func TestGetFileFormat(t *testing.T) {
	assert.Equal(t, "jpg", GetFileFormat("dir/photo.JPG"))
	assert.Equal(t, "tiff", GetFileFormat("scan.tiff"))
	assert.Equal(t, "", GetFileFormat("noextension"))
}

func TestLoaderRegistry(t *testing.T) {
	registry := NewLoaderRegistry()

	// TIFF extensions route to the TIFF loader, everything else to the
	// standard loader
	_, isTiff := registry.GetLoader(".tif").(*TiffImageLoader)
	assert.True(t, isTiff)
	_, isStandard := registry.GetLoader(".jpg").(*StandardImageLoader)
	assert.True(t, isStandard)

	// Unknown extensions fall back to the default loader
	_, isDefault := registry.GetLoader(".xyz").(*StandardImageLoader)
	assert.True(t, isDefault)
}

func TestCanLoadFile(t *testing.T) {
	registry := NewLoaderRegistry()

	// Loaders require the file to exist on disk
	assert.False(t, registry.CanLoadFile("does-not-exist.png"))
	assert.False(t, registry.CanLoadFile("does-not-exist.tif"))

	path := filepath.Join(t.TempDir(), "present.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4E, 0x47}, 0644))
	assert.True(t, registry.CanLoadFile(path))
}

func TestMatFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(2, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	mat, err := MatFromImage(src)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 3, mat.Rows())
	assert.Equal(t, 4, mat.Cols())

	// BGR channel order
	assert.Equal(t, uint8(50), mat.GetUCharAt(1, 2*3+0))
	assert.Equal(t, uint8(100), mat.GetUCharAt(1, 2*3+1))
	assert.Equal(t, uint8(200), mat.GetUCharAt(1, 2*3+2))
}

func TestMatFromImageEmpty(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 0, 0))
	_, err := MatFromImage(src)
	assert.Error(t, err)
}
