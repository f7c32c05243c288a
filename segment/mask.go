package segment

import (
	"image"

	"gocv.io/x/gocv"
)

// CleanupMask applies fixed morphological open/close to a binary mask.
// Open removes speckle noise outside the subject; close fills pinholes
// inside it. The input mask is modified in place.
func CleanupMask(mask *gocv.Mat, params Params) {
	openKernel := gocv.GetStructuringElement(gocv.MorphEllipse,
		image.Point{X: params.OpenKernelSize, Y: params.OpenKernelSize})
	defer openKernel.Close()
	gocv.MorphologyEx(*mask, mask, gocv.MorphOpen, openKernel)

	closeKernel := gocv.GetStructuringElement(gocv.MorphEllipse,
		image.Point{X: params.CloseKernelSize, Y: params.CloseKernelSize})
	defer closeKernel.Close()
	gocv.MorphologyEx(*mask, mask, gocv.MorphClose, closeKernel)
}

// AreaRatio returns the fraction of image pixels covered by the mask
func AreaRatio(mask gocv.Mat) float64 {
	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

// BoxCoverage returns the fraction of the box interior covered by the mask
func BoxCoverage(mask gocv.Mat, box image.Rectangle) float64 {
	box = box.Intersect(image.Rect(0, 0, mask.Cols(), mask.Rows()))
	if box.Empty() {
		return 0
	}

	roi := mask.Region(box)
	defer roi.Close()

	return float64(gocv.CountNonZero(roi)) / float64(box.Dx()*box.Dy())
}
