package imageio

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// EnsureDir creates a directory (and parents) if it does not exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %v", dir, err)
	}
	return nil
}

// WritePNG writes a Mat to disk as PNG
func WritePNG(path string, img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("cannot write empty image to %s", path)
	}
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("failed to write image to %s", path)
	}
	return nil
}
