package recolor

import (
	"fmt"
	"image"

	"recolorlab/utils"

	"gocv.io/x/gocv"
)

// Target is a parsed target color with its HSV and Lab representations
// precomputed once and reused for both recolor passes.
type Target struct {
	Hex     string
	R, G, B uint8

	// OpenCV-range HSV (H 0-180, S/V 0-255)
	H, S, V float64

	// CIE Lab
	L, A, Bb float64
}

// ParseTarget parses a #RRGGBB string into a Target
func ParseTarget(hex string) (Target, error) {
	r, g, b, err := utils.ParseHexColor(hex)
	if err != nil {
		return Target{}, err
	}

	t := Target{Hex: hex, R: r, G: g, B: b}
	t.H, t.S, t.V = RGBToHSV(float64(r), float64(g), float64(b))
	t.L, t.A, t.Bb = RGBToLab(float64(r), float64(g), float64(b))
	return t, nil
}

// Params controls the strength of the recolor transform
type Params struct {
	// SaturationBlend moves masked-pixel saturation toward the target (0..1)
	SaturationBlend float64
	// ChromaBlend moves masked-pixel a/b channels toward the target (0..1)
	ChromaBlend float64
	// LightnessBlend moves masked-pixel L toward the target; kept low so
	// local luminance texture survives
	LightnessBlend float64
	// BlendRadius is the gaussian falloff width at the mask edge, in pixels.
	// The falloff only attenuates interior pixels near the boundary; pixels
	// outside the mask are never written.
	BlendRadius int
}

// DefaultParams returns the recolor strengths used by the experiment
func DefaultParams() Params {
	return Params{
		SaturationBlend: 0.85,
		ChromaBlend:     0.90,
		LightnessBlend:  0.15,
		BlendRadius:     7,
	}
}

// Apply recolors masked pixels of img toward the target and returns a new
// image. Unmasked pixels are copied bit-identically from the input; the
// transform is an exact no-op outside the mask.
func Apply(img, mask gocv.Mat, target Target, params Params) (gocv.Mat, error) {
	if img.Empty() || mask.Empty() {
		return gocv.NewMat(), fmt.Errorf("cannot recolor empty image or mask")
	}
	if img.Rows() != mask.Rows() || img.Cols() != mask.Cols() {
		return gocv.NewMat(), fmt.Errorf("mask size %dx%d does not match image %dx%d",
			mask.Cols(), mask.Rows(), img.Cols(), img.Rows())
	}

	rows, cols := img.Rows(), img.Cols()

	// Edge falloff: blurred mask, consulted only for interior pixels
	alpha := edgeFalloff(mask, params.BlendRadius)
	defer alpha.Close()

	// Pass 1: hue/saturation alignment in HSV
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			a := float64(alpha.GetUCharAt(y, x)) / 255.0

			s := float64(hsv.GetUCharAt(y, x*3+1))
			hsv.SetUCharAt(y, x*3+0, uint8(target.H+0.5))
			hsv.SetUCharAt(y, x*3+1, clampU8(s+(target.S-s)*params.SaturationBlend*a))
			// V untouched: luminance texture carries through
		}
	}

	shifted := gocv.NewMat()
	defer shifted.Close()
	gocv.CvtColor(hsv, &shifted, gocv.ColorHSVToBGR)

	// Pass 2: chroma/lightness alignment in Lab
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(shifted, &lab, gocv.ColorBGRToLab)

	targetL, targetA, targetB := LabToOpenCV8U(target.L, target.A, target.Bb)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			a := float64(alpha.GetUCharAt(y, x)) / 255.0

			l := float64(lab.GetUCharAt(y, x*3+0))
			aa := float64(lab.GetUCharAt(y, x*3+1))
			bb := float64(lab.GetUCharAt(y, x*3+2))

			lab.SetUCharAt(y, x*3+0, clampU8(l+(float64(targetL)-l)*params.LightnessBlend*a))
			lab.SetUCharAt(y, x*3+1, clampU8(aa+(float64(targetA)-aa)*params.ChromaBlend*a))
			lab.SetUCharAt(y, x*3+2, clampU8(bb+(float64(targetB)-bb)*params.ChromaBlend*a))
		}
	}

	recolored := gocv.NewMat()
	defer recolored.Close()
	gocv.CvtColor(lab, &recolored, gocv.ColorLabToBGR)

	// Compose: recolored pixels inside the mask, exact input bytes outside
	out := img.Clone()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			out.SetUCharAt(y, x*3+0, recolored.GetUCharAt(y, x*3+0))
			out.SetUCharAt(y, x*3+1, recolored.GetUCharAt(y, x*3+1))
			out.SetUCharAt(y, x*3+2, recolored.GetUCharAt(y, x*3+2))
		}
	}

	return out, nil
}

// edgeFalloff blurs the mask to produce a per-pixel blend weight that
// tapers near the mask boundary.
func edgeFalloff(mask gocv.Mat, radius int) gocv.Mat {
	alpha := gocv.NewMat()
	if radius <= 0 {
		mask.CopyTo(&alpha)
		return alpha
	}

	k := 2*radius + 1
	gocv.GaussianBlur(mask, &alpha, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)
	return alpha
}

// RecolorBoth applies the identical transform with both mask variants.
// The symmetry is the experiment's controlled variable: only the mask
// differs between the two outputs.
func RecolorBoth(img, rawMask, gcMask gocv.Mat, target Target, params Params) (rawOut, gcOut gocv.Mat, err error) {
	rawOut, err = Apply(img, rawMask, target, params)
	if err != nil {
		return gocv.NewMat(), gocv.NewMat(), fmt.Errorf("recolor with raw mask: %v", err)
	}

	gcOut, err = Apply(img, gcMask, target, params)
	if err != nil {
		rawOut.Close()
		return gocv.NewMat(), gocv.NewMat(), fmt.Errorf("recolor with refined mask: %v", err)
	}

	return rawOut, gcOut, nil
}
