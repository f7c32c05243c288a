// Package metrics computes the image-quality scores comparing the two
// recolored outputs against the original image and the target color.
// All computations are read-only.
package metrics

import (
	"fmt"
	"image"
	"math"

	"recolorlab/recolor"

	"gocv.io/x/gocv"
)

// PSNRCap is reported when the mean squared error is zero
const PSNRCap = 100.0

func toGrayFloat(src gocv.Mat) gocv.Mat {
	var gray gocv.Mat
	if src.Channels() == 3 {
		gray = gocv.NewMat()
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	} else {
		gray = src.Clone()
	}
	out := gocv.NewMat()
	gray.ConvertTo(&out, gocv.MatTypeCV32F)
	gray.Close()
	return out
}

// SSIM computes the mean structural similarity between two images using
// an 11x11 gaussian window (sigma 1.5) on the grayscale channel.
func SSIM(a, b gocv.Mat) (float64, error) {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return 0, fmt.Errorf("SSIM size mismatch: %dx%d vs %dx%d",
			a.Cols(), a.Rows(), b.Cols(), b.Rows())
	}

	grayA := toGrayFloat(a)
	defer grayA.Close()
	grayB := toGrayFloat(b)
	defer grayB.Close()

	const c1 = 6.5025  // (0.01 * 255)^2
	const c2 = 58.5225 // (0.03 * 255)^2
	window := image.Point{X: 11, Y: 11}
	const sigma = 1.5

	muA := gocv.NewMat()
	defer muA.Close()
	muB := gocv.NewMat()
	defer muB.Close()
	gocv.GaussianBlur(grayA, &muA, window, sigma, sigma, gocv.BorderDefault)
	gocv.GaussianBlur(grayB, &muB, window, sigma, sigma, gocv.BorderDefault)

	aa := gocv.NewMat()
	defer aa.Close()
	bb := gocv.NewMat()
	defer bb.Close()
	ab := gocv.NewMat()
	defer ab.Close()
	gocv.Multiply(grayA, grayA, &aa)
	gocv.Multiply(grayB, grayB, &bb)
	gocv.Multiply(grayA, grayB, &ab)

	sigmaA := gocv.NewMat()
	defer sigmaA.Close()
	sigmaB := gocv.NewMat()
	defer sigmaB.Close()
	sigmaAB := gocv.NewMat()
	defer sigmaAB.Close()
	gocv.GaussianBlur(aa, &sigmaA, window, sigma, sigma, gocv.BorderDefault)
	gocv.GaussianBlur(bb, &sigmaB, window, sigma, sigma, gocv.BorderDefault)
	gocv.GaussianBlur(ab, &sigmaAB, window, sigma, sigma, gocv.BorderDefault)

	rows, cols := grayA.Rows(), grayA.Cols()
	var sum float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			ma := float64(muA.GetFloatAt(y, x))
			mb := float64(muB.GetFloatAt(y, x))
			va := float64(sigmaA.GetFloatAt(y, x)) - ma*ma
			vb := float64(sigmaB.GetFloatAt(y, x)) - mb*mb
			cov := float64(sigmaAB.GetFloatAt(y, x)) - ma*mb

			num := (2*ma*mb + c1) * (2*cov + c2)
			den := (ma*ma + mb*mb + c1) * (va + vb + c2)
			sum += num / den
		}
	}

	return sum / float64(rows*cols), nil
}

// PSNROutside computes PSNR between orig and out restricted to pixels
// outside the exclusion mask. Measures unintended change; reported at
// PSNRCap when the regions are identical.
func PSNROutside(orig, out, exclude gocv.Mat) (float64, error) {
	if orig.Rows() != out.Rows() || orig.Cols() != out.Cols() {
		return 0, fmt.Errorf("PSNR size mismatch: %dx%d vs %dx%d",
			orig.Cols(), orig.Rows(), out.Cols(), out.Rows())
	}

	rows, cols := orig.Rows(), orig.Cols()
	var sqErr float64
	var count int

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if exclude.GetUCharAt(y, x) != 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				d := float64(orig.GetUCharAt(y, x*3+c)) - float64(out.GetUCharAt(y, x*3+c))
				sqErr += d * d
			}
			count++
		}
	}

	if count == 0 {
		return PSNRCap, nil
	}

	mse := sqErr / float64(count*3)
	if mse == 0 {
		return PSNRCap, nil
	}

	psnr := 10 * math.Log10(255.0*255.0/mse)
	if psnr > PSNRCap {
		psnr = PSNRCap
	}
	return psnr, nil
}

// UnionMask returns the pixel union of two masks
func UnionMask(a, b gocv.Mat) gocv.Mat {
	union := gocv.NewMat()
	gocv.BitwiseOr(a, b, &union)
	return union
}

// DeltaEVariant selects the color-difference formula
type DeltaEVariant int

const (
	CIE76 DeltaEVariant = iota
	CIE94
)

// MeanDeltaEToTarget computes the mean Lab color difference between
// masked pixels and the target color. Measures recolor fidelity.
func MeanDeltaEToTarget(img, mask gocv.Mat, target recolor.Target, variant DeltaEVariant) (float64, error) {
	if img.Rows() != mask.Rows() || img.Cols() != mask.Cols() {
		return 0, fmt.Errorf("delta-E size mismatch: mask %dx%d vs image %dx%d",
			mask.Cols(), mask.Rows(), img.Cols(), img.Rows())
	}

	rows, cols := img.Rows(), img.Cols()
	var sum float64
	var count int

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			b := float64(img.GetUCharAt(y, x*3+0))
			g := float64(img.GetUCharAt(y, x*3+1))
			r := float64(img.GetUCharAt(y, x*3+2))

			l, a, bb := recolor.RGBToLab(r, g, b)
			switch variant {
			case CIE94:
				sum += recolor.DeltaE94(target.L, target.A, target.Bb, l, a, bb)
			default:
				sum += recolor.DeltaE76(target.L, target.A, target.Bb, l, a, bb)
			}
			count++
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("empty mask: no pixels for delta-E")
	}
	return sum / float64(count), nil
}

// BoundaryLeakage measures color bleed just outside the mask edge: the
// mean per-pixel color distance between original and output in a ring of
// the given width dilated outward from the mask. Zero when the recolor
// stayed strictly inside the mask.
func BoundaryLeakage(orig, out, mask gocv.Mat, ringWidth int) (float64, error) {
	if ringWidth < 1 {
		ringWidth = 1
	}

	k := 2*ringWidth + 1
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: k, Y: k})
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(mask, &dilated, kernel)

	ring := gocv.NewMat()
	defer ring.Close()
	gocv.Subtract(dilated, mask, &ring)

	rows, cols := orig.Rows(), orig.Cols()
	var sum float64
	var count int

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if ring.GetUCharAt(y, x) == 0 {
				continue
			}
			var sq float64
			for c := 0; c < 3; c++ {
				d := float64(orig.GetUCharAt(y, x*3+c)) - float64(out.GetUCharAt(y, x*3+c))
				sq += d * d
			}
			sum += math.Sqrt(sq)
			count++
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}
