// Package recolor shifts masked pixels of an image toward a target color
// in HSV and Lab space while preserving luminance texture, leaving pixels
// outside the mask untouched.
package recolor

import "math"

// D65 reference white
const (
	refX = 0.95047
	refY = 1.00000
	refZ = 1.08883
)

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0 // V in 0-255

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0 // S in 0-255
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	h = h / 2 // Convert to OpenCV's 0-180 range

	return h, s, v
}

// RGBToLab converts RGB (0-255) to CIE Lab (L 0-100, a/b roughly ±128).
func RGBToLab(r, g, b float64) (l, a, bb float64) {
	x, y, z := rgbToXYZ(r, g, b)

	fx := labF(x / refX)
	fy := labF(y / refY)
	fz := labF(z / refZ)

	l = 116*fy - 16
	a = 500 * (fx - fy)
	bb = 200 * (fy - fz)
	return l, a, bb
}

// rgbToXYZ converts sRGB (0-255) to XYZ (D65, Y normalized to 1)
func rgbToXYZ(r, g, b float64) (x, y, z float64) {
	rl := srgbToLinear(r / 255.0)
	gl := srgbToLinear(g / 255.0)
	bl := srgbToLinear(b / 255.0)

	x = 0.4124564*rl + 0.3575761*gl + 0.1804375*bl
	y = 0.2126729*rl + 0.7151522*gl + 0.0721750*bl
	z = 0.0193339*rl + 0.1191920*gl + 0.9503041*bl
	return x, y, z
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func labF(t float64) float64 {
	const epsilon = 216.0 / 24389.0
	const kappa = 24389.0 / 27.0
	if t > epsilon {
		return math.Cbrt(t)
	}
	return (kappa*t + 16) / 116
}

// DeltaE76 computes the CIE76 color difference between two Lab colors
func DeltaE76(l1, a1, b1, l2, a2, b2 float64) float64 {
	dl := l1 - l2
	da := a1 - a2
	db := b1 - b2
	return math.Sqrt(dl*dl + da*da + db*db)
}

// DeltaE94 computes the CIE94 color difference between two Lab colors
// (graphic arts weights: kL=1, K1=0.045, K2=0.015).
func DeltaE94(l1, a1, b1, l2, a2, b2 float64) float64 {
	dl := l1 - l2
	da := a1 - a2
	db := b1 - b2

	c1 := math.Sqrt(a1*a1 + b1*b1)
	c2 := math.Sqrt(a2*a2 + b2*b2)
	dc := c1 - c2

	dh2 := da*da + db*db - dc*dc
	if dh2 < 0 {
		dh2 = 0
	}

	sc := 1 + 0.045*c1
	sh := 1 + 0.015*c1

	termC := dc / sc
	termH := math.Sqrt(dh2) / sh
	return math.Sqrt(dl*dl + termC*termC + termH*termH)
}

// LabToOpenCV8U maps CIE Lab values to OpenCV's 8-bit Lab encoding
// (L scaled to 0-255, a and b offset by 128).
func LabToOpenCV8U(l, a, b float64) (uint8, uint8, uint8) {
	return clampU8(l * 255.0 / 100.0), clampU8(a + 128), clampU8(b + 128)
}

// OpenCV8UToLab maps OpenCV 8-bit Lab values back to CIE Lab
func OpenCV8UToLab(l, a, b uint8) (float64, float64, float64) {
	return float64(l) * 100.0 / 255.0, float64(a) - 128, float64(b) - 128
}

func clampU8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
