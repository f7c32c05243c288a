package recolor

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocv.io/x/gocv"
)

// testImage builds a blue-ish image with a filled white rectangle mask
func testImage(t *testing.T) (gocv.Mat, gocv.Mat) {
	t.Helper()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(180, 90, 40, 0), 64, 64, gocv.MatTypeCV8UC3)

	mask := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC1)
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			mask.SetUCharAt(y, x, 255)
		}
	}

	return img, mask
}

func TestApplyOutsideMaskUntouched(t *testing.T) {
	img, mask := testImage(t)
	defer img.Close()
	defer mask.Close()

	target, err := ParseTarget("#D32F2F")
	require.NoError(t, err)

	out, err := Apply(img, mask, target, DefaultParams())
	require.NoError(t, err)
	defer out.Close()

	// Every pixel outside the mask must be bit-identical to the input
	for y := 0; y < img.Rows(); y++ {
		for x := 0; x < img.Cols(); x++ {
			if mask.GetUCharAt(y, x) != 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				assert.Equal(t, img.GetUCharAt(y, x*3+c), out.GetUCharAt(y, x*3+c),
					"pixel (%d,%d) channel %d changed outside mask", x, y, c)
			}
		}
	}
}

func TestApplyChangesMaskedPixels(t *testing.T) {
	img, mask := testImage(t)
	defer img.Close()
	defer mask.Close()

	target, err := ParseTarget("#D32F2F")
	require.NoError(t, err)

	out, err := Apply(img, mask, target, DefaultParams())
	require.NoError(t, err)
	defer out.Close()

	// The mask center is far from the boundary falloff; a blue pixel
	// pushed toward red must change substantially
	changed := 0
	for c := 0; c < 3; c++ {
		before := int(img.GetUCharAt(32, 32*3+c))
		after := int(out.GetUCharAt(32, 32*3+c))
		if before != after {
			changed++
		}
	}
	assert.Greater(t, changed, 0, "masked center pixel not recolored")
}

func TestApplyDeterministic(t *testing.T) {
	img, mask := testImage(t)
	defer img.Close()
	defer mask.Close()

	target, err := ParseTarget("#00FF7F")
	require.NoError(t, err)

	out1, err := Apply(img, mask, target, DefaultParams())
	require.NoError(t, err)
	defer out1.Close()

	out2, err := Apply(img, mask, target, DefaultParams())
	require.NoError(t, err)
	defer out2.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(out1, out2, &diff)

	channels := gocv.Split(diff)
	for _, ch := range channels {
		assert.Equal(t, 0, gocv.CountNonZero(ch), "recolor output not deterministic")
		ch.Close()
	}
}

func TestApplySizeMismatch(t *testing.T) {
	img := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	defer img.Close()
	mask := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC1)
	defer mask.Close()

	target, err := ParseTarget("#FFFFFF")
	require.NoError(t, err)

	_, err = Apply(img, mask, target, DefaultParams())
	assert.Error(t, err)
}

func TestEdgeFalloffFullInterior(t *testing.T) {
	mask := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC1)
	defer mask.Close()
	for y := 8; y < 56; y++ {
		for x := 8; x < 56; x++ {
			mask.SetUCharAt(y, x, 255)
		}
	}

	alpha := edgeFalloff(mask, 5)
	defer alpha.Close()

	// Deep interior keeps full weight; just inside the edge it tapers
	assert.Equal(t, uint8(255), alpha.GetUCharAt(32, 32))
	assert.Less(t, alpha.GetUCharAt(8, 32), uint8(255))

	// Region check: falloff stays inside the mat bounds
	assert.Equal(t, image.Point{X: 64, Y: 64}, image.Point{X: alpha.Cols(), Y: alpha.Rows()})
}
