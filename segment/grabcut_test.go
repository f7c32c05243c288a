package segment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gocv.io/x/gocv"
)

// subjectScene builds an image with a bright square on a dark background
// and a mask roughly covering the square
func subjectScene() (gocv.Mat, gocv.Mat) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(20, 20, 20, 0), 100, 100, gocv.MatTypeCV8UC3)
	for y := 25; y < 75; y++ {
		for x := 25; x < 75; x++ {
			img.SetUCharAt(y, x*3+0, 40)
			img.SetUCharAt(y, x*3+1, 160)
			img.SetUCharAt(y, x*3+2, 220)
		}
	}

	mask := maskWithRect(27, 27, 73, 73)
	return img, mask
}

func masksEqual(t *testing.T, a, b gocv.Mat) bool {
	t.Helper()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)
	return gocv.CountNonZero(diff) == 0
}

func TestRefineWithGrabCutDeterministic(t *testing.T) {
	img, mask := subjectScene()
	defer img.Close()
	defer mask.Close()

	params := DefaultParams()

	first := RefineWithGrabCut(img, mask, params)
	defer first.Close()
	second := RefineWithGrabCut(img, mask, params)
	defer second.Close()

	assert.True(t, masksEqual(t, first, second), "repeated refinement produced a different mask")
}

func TestRefineWithGrabCutConcurrentMatchesSerial(t *testing.T) {
	img, mask := subjectScene()
	defer img.Close()
	defer mask.Close()

	params := DefaultParams()

	baseline := RefineWithGrabCut(img, mask, params)
	defer baseline.Close()

	const workers = 4
	results := make([]gocv.Mat, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = RefineWithGrabCut(img, mask, params)
		}(i)
	}
	wg.Wait()

	for i, refined := range results {
		assert.True(t, masksEqual(t, baseline, refined),
			"concurrent refinement %d diverged from serial result", i)
		refined.Close()
	}
}
