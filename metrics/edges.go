package metrics

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Canny thresholds and the pixel tolerance for matching a mask boundary
// pixel to an image edge
const (
	cannyLow      = 50
	cannyHigh     = 150
	edgeTolerance = 2
)

// EdgeAlignment returns the fraction of mask boundary pixels that lie
// within edgeTolerance pixels of an image gradient edge.
func EdgeAlignment(img, mask gocv.Mat) (float64, error) {
	if img.Rows() != mask.Rows() || img.Cols() != mask.Cols() {
		return 0, fmt.Errorf("edge alignment size mismatch: mask %dx%d vs image %dx%d",
			mask.Cols(), mask.Rows(), img.Cols(), img.Rows())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, cannyLow, cannyHigh)

	// Widen edges by the tolerance so boundary hits are a simple lookup
	k := 2*edgeTolerance + 1
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: k, Y: k})
	defer kernel.Close()
	gocv.Dilate(edges, &edges, kernel)

	boundary := maskBoundary(mask)
	defer boundary.Close()

	rows, cols := mask.Rows(), mask.Cols()
	var hits, total int
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if boundary.GetUCharAt(y, x) == 0 {
				continue
			}
			total++
			if edges.GetUCharAt(y, x) != 0 {
				hits++
			}
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("mask has no boundary pixels")
	}
	return float64(hits) / float64(total), nil
}

// EdgeAlignmentDelta computes the difference in edge alignment between
// the refined and raw mask variants. Positive values mean the refined
// mask boundary follows image edges better.
func EdgeAlignmentDelta(img, rawMask, gcMask gocv.Mat) (float64, error) {
	alignRaw, err := EdgeAlignment(img, rawMask)
	if err != nil {
		return 0, fmt.Errorf("raw mask: %v", err)
	}
	alignGC, err := EdgeAlignment(img, gcMask)
	if err != nil {
		return 0, fmt.Errorf("refined mask: %v", err)
	}
	return alignGC - alignRaw, nil
}

// maskBoundary extracts the one-pixel inner boundary of a binary mask
func maskBoundary(mask gocv.Mat) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: 3, Y: 3})
	defer kernel.Close()

	eroded := gocv.NewMat()
	defer eroded.Close()
	gocv.Erode(mask, &eroded, kernel)

	boundary := gocv.NewMat()
	gocv.Subtract(mask, eroded, &boundary)
	return boundary
}
