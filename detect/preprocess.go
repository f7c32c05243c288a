package detect

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// ImageNet normalization constants used by the exported checkpoints
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// Preprocess resizes an image to the model input size and returns
// normalized CHW float32 data in RGB channel order.
func Preprocess(img image.Image, width, height int) ([]float32, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid model input size %dx%d", width, height)
	}

	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	bounds := resized.Bounds()

	data := make([]float32, 3*width*height)
	plane := width * height

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*width + x
			data[idx] = (float32(r>>8)/255.0 - normMean[0]) / normStd[0]
			data[plane+idx] = (float32(g>>8)/255.0 - normMean[1]) / normStd[1]
			data[2*plane+idx] = (float32(b>>8)/255.0 - normMean[2]) / normStd[2]
		}
	}

	return data, nil
}
