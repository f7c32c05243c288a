package segment

import (
	"image"
	"runtime"
	"sync"

	"recolorlab/logging"

	"gocv.io/x/gocv"
)

// GrabCut mask values (OpenCV convention)
const (
	gcBackground         = 0
	gcForeground         = 1
	gcProbableBackground = 2
	gcProbableForeground = 3
)

// GrabCut seeds its GMMs via kmeans++ from OpenCV's thread-local RNG, so
// an unpinned goroutine would make refinement depend on scheduling. All
// calls are serialized on one locked OS thread with a fixed RNG seed.
var grabCutMu sync.Mutex

const grabCutRNGSeed = 12345

// ShouldRefine is the refinement guard: GrabCut runs only when the raw
// mask area and its coverage of the detection box fall inside configured
// bounds. Tiny or frame-filling masks make GrabCut collapse to degenerate
// foreground models, so those keep the raw mask unchanged.
func ShouldRefine(mask gocv.Mat, box image.Rectangle, params Params) bool {
	areaRatio := AreaRatio(mask)
	if areaRatio < params.MinAreaRatio || areaRatio > params.MaxAreaRatio {
		logging.DebugLog("GrabCut guard: area ratio %.4f outside [%.4f, %.4f]",
			areaRatio, params.MinAreaRatio, params.MaxAreaRatio)
		return false
	}

	coverage := BoxCoverage(mask, box)
	if coverage < params.MinBoxCoverage {
		logging.DebugLog("GrabCut guard: box coverage %.4f below %.4f",
			coverage, params.MinBoxCoverage)
		return false
	}

	return true
}

// RefineWithGrabCut refines a binary mask against the source image using
// mask-initialized GrabCut. The raw mask seeds the trimap: eroded pixels
// become sure foreground, the remaining mask becomes probable foreground,
// a dilated ring becomes probable background, and everything else sure
// background. Returns a new 0/255 mask of the same size.
func RefineWithGrabCut(img, mask gocv.Mat, params Params) gocv.Mat {
	rows, cols := mask.Rows(), mask.Cols()

	// Sure foreground: the mask eroded inward
	sureFG := gocv.NewMat()
	defer sureFG.Close()
	erodeKernel := gocv.GetStructuringElement(gocv.MorphEllipse,
		image.Point{X: params.SureForegroundErosion, Y: params.SureForegroundErosion})
	defer erodeKernel.Close()
	gocv.Erode(mask, &sureFG, erodeKernel)

	// Probable region boundary: the mask dilated outward
	dilated := gocv.NewMat()
	defer dilated.Close()
	dilateKernel := gocv.GetStructuringElement(gocv.MorphEllipse,
		image.Point{X: params.ProbableRegionDilation, Y: params.ProbableRegionDilation})
	defer dilateKernel.Close()
	gocv.Dilate(mask, &dilated, dilateKernel)

	// Build the GrabCut trimap
	trimap := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	defer trimap.Close()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			switch {
			case sureFG.GetUCharAt(y, x) > 0:
				trimap.SetUCharAt(y, x, gcForeground)
			case mask.GetUCharAt(y, x) > 0:
				trimap.SetUCharAt(y, x, gcProbableForeground)
			case dilated.GetUCharAt(y, x) > 0:
				trimap.SetUCharAt(y, x, gcProbableBackground)
			default:
				trimap.SetUCharAt(y, x, gcBackground)
			}
		}
	}

	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	grabCutMu.Lock()
	runtime.LockOSThread()
	gocv.SetRNGSeed(grabCutRNGSeed)
	gocv.GrabCut(img, &trimap, image.Rect(0, 0, cols, rows),
		&bgdModel, &fgdModel, params.GrabCutIterations, gocv.GCInitWithMask)
	runtime.UnlockOSThread()
	grabCutMu.Unlock()

	// Collapse the trimap back to a binary mask
	refined := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := trimap.GetUCharAt(y, x)
			if v == gcForeground || v == gcProbableForeground {
				refined.SetUCharAt(y, x, 255)
			}
		}
	}

	return refined
}
