package segment

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"gocv.io/x/gocv"
)

func maskWithRect(x0, y0, x1, y1 int) gocv.Mat {
	mask := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC1)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			mask.SetUCharAt(y, x, 255)
		}
	}
	return mask
}

func TestAreaRatio(t *testing.T) {
	mask := maskWithRect(0, 0, 50, 50)
	defer mask.Close()

	assert.InDelta(t, 0.25, AreaRatio(mask), 1e-9)

	empty := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC1)
	defer empty.Close()
	assert.Equal(t, 0.0, AreaRatio(empty))
}

func TestBoxCoverage(t *testing.T) {
	mask := maskWithRect(0, 0, 50, 50)
	defer mask.Close()

	// Box fully inside the mask
	assert.InDelta(t, 1.0, BoxCoverage(mask, image.Rect(10, 10, 40, 40)), 1e-9)

	// Box half covered
	assert.InDelta(t, 0.5, BoxCoverage(mask, image.Rect(25, 0, 75, 50)), 1e-9)

	// Box entirely outside
	assert.Equal(t, 0.0, BoxCoverage(mask, image.Rect(60, 60, 90, 90)))

	// Box outside the image bounds
	assert.Equal(t, 0.0, BoxCoverage(mask, image.Rect(200, 200, 300, 300)))
}

func TestShouldRefineAcceptsSaneMask(t *testing.T) {
	mask := maskWithRect(20, 20, 70, 70)
	defer mask.Close()

	box := image.Rect(15, 15, 75, 75)
	assert.True(t, ShouldRefine(mask, box, DefaultParams()))
}

func TestShouldRefineRejectsTinyMask(t *testing.T) {
	mask := maskWithRect(48, 48, 52, 52)
	defer mask.Close()

	// 16 pixels out of 10000 is below the minimum area ratio
	box := image.Rect(45, 45, 55, 55)
	assert.False(t, ShouldRefine(mask, box, DefaultParams()))
}

func TestShouldRefineRejectsFrameFillingMask(t *testing.T) {
	mask := maskWithRect(0, 0, 100, 100)
	defer mask.Close()

	box := image.Rect(0, 0, 100, 100)
	assert.False(t, ShouldRefine(mask, box, DefaultParams()))
}

func TestShouldRefineRejectsLowBoxCoverage(t *testing.T) {
	// Mask big enough in the frame but covering almost none of its box
	mask := maskWithRect(0, 0, 40, 40)
	defer mask.Close()

	box := image.Rect(38, 38, 98, 98)
	assert.False(t, ShouldRefine(mask, box, DefaultParams()))
}

func TestCleanupMaskRemovesSpeckle(t *testing.T) {
	mask := maskWithRect(20, 20, 80, 80)
	defer mask.Close()

	// Isolated speckle outside the subject and a pinhole inside it
	mask.SetUCharAt(5, 5, 255)
	mask.SetUCharAt(50, 50, 0)

	CleanupMask(&mask, DefaultParams())

	assert.Equal(t, uint8(0), mask.GetUCharAt(5, 5), "speckle survived morphological open")
	assert.Equal(t, uint8(255), mask.GetUCharAt(50, 50), "pinhole survived morphological close")

	// Dimensions unchanged by cleanup
	assert.Equal(t, 100, mask.Rows())
	assert.Equal(t, 100, mask.Cols())
}
