package metrics

import (
	"testing"

	"recolorlab/recolor"
	"recolorlab/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocv.io/x/gocv"
)

func solidImage(b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), 64, 64, gocv.MatTypeCV8UC3)
}

func rectMask(x0, y0, x1, y1 int) gocv.Mat {
	mask := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC1)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			mask.SetUCharAt(y, x, 255)
		}
	}
	return mask
}

func TestSSIMIdenticalImages(t *testing.T) {
	img := solidImage(120, 60, 200)
	defer img.Close()

	score, err := SSIM(img, img)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-6)
}

func TestSSIMDifferentImages(t *testing.T) {
	a := solidImage(0, 0, 0)
	defer a.Close()
	b := solidImage(255, 255, 255)
	defer b.Close()

	score, err := SSIM(a, b)
	require.NoError(t, err)
	assert.Less(t, score, 0.1)
}

func TestSSIMSizeMismatch(t *testing.T) {
	a := solidImage(0, 0, 0)
	defer a.Close()
	b := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	defer b.Close()

	_, err := SSIM(a, b)
	assert.Error(t, err)
}

func TestPSNROutsideIdenticalIsCapped(t *testing.T) {
	orig := solidImage(10, 20, 30)
	defer orig.Close()
	mask := rectMask(16, 16, 48, 48)
	defer mask.Close()

	// Output differs only inside the excluded region
	out := orig.Clone()
	defer out.Close()
	for y := 20; y < 40; y++ {
		for x := 20; x < 40; x++ {
			out.SetUCharAt(y, x*3+2, 255)
		}
	}

	psnr, err := PSNROutside(orig, out, mask)
	require.NoError(t, err)
	assert.Equal(t, PSNRCap, psnr)
}

func TestPSNROutsideDetectsLeakage(t *testing.T) {
	orig := solidImage(10, 20, 30)
	defer orig.Close()
	mask := rectMask(16, 16, 48, 48)
	defer mask.Close()

	// Output differs outside the excluded region
	out := orig.Clone()
	defer out.Close()
	out.SetUCharAt(0, 0*3+0, 255)

	psnr, err := PSNROutside(orig, out, mask)
	require.NoError(t, err)
	assert.Less(t, psnr, PSNRCap)
}

func TestMeanDeltaEDecreasesAfterRecolor(t *testing.T) {
	target, err := recolor.ParseTarget("#D32F2F")
	require.NoError(t, err)

	// Original: gray subject. Recolored: exact target color inside mask.
	orig := solidImage(128, 128, 128)
	defer orig.Close()
	mask := rectMask(8, 8, 56, 56)
	defer mask.Close()

	recolored := orig.Clone()
	defer recolored.Close()
	for y := 8; y < 56; y++ {
		for x := 8; x < 56; x++ {
			recolored.SetUCharAt(y, x*3+0, target.B)
			recolored.SetUCharAt(y, x*3+1, target.G)
			recolored.SetUCharAt(y, x*3+2, target.R)
		}
	}

	before, err := MeanDeltaEToTarget(orig, mask, target, CIE76)
	require.NoError(t, err)
	after, err := MeanDeltaEToTarget(recolored, mask, target, CIE76)
	require.NoError(t, err)

	assert.Less(t, after, before)
	assert.InDelta(t, 0, after, 0.01)

	// CIE94 agrees on the ordering
	before94, err := MeanDeltaEToTarget(orig, mask, target, CIE94)
	require.NoError(t, err)
	after94, err := MeanDeltaEToTarget(recolored, mask, target, CIE94)
	require.NoError(t, err)
	assert.Less(t, after94, before94)
}

func TestMeanDeltaEEmptyMask(t *testing.T) {
	target, err := recolor.ParseTarget("#FFFFFF")
	require.NoError(t, err)

	img := solidImage(0, 0, 0)
	defer img.Close()
	mask := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC1)
	defer mask.Close()

	_, err = MeanDeltaEToTarget(img, mask, target, CIE76)
	assert.Error(t, err)
}

func TestBoundaryLeakageZeroWhenClean(t *testing.T) {
	orig := solidImage(40, 80, 120)
	defer orig.Close()
	mask := rectMask(16, 16, 48, 48)
	defer mask.Close()

	// Recolor strictly inside the mask: no bleed in the outside ring
	out := orig.Clone()
	defer out.Close()
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			out.SetUCharAt(y, x*3+2, 240)
		}
	}

	leak, err := BoundaryLeakage(orig, out, mask, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, leak)
}

func TestBoundaryLeakageDetectsBleed(t *testing.T) {
	orig := solidImage(40, 80, 120)
	defer orig.Close()
	mask := rectMask(16, 16, 48, 48)
	defer mask.Close()

	// Bleed one pixel past the mask edge
	out := orig.Clone()
	defer out.Close()
	for y := 15; y < 49; y++ {
		for x := 15; x < 49; x++ {
			out.SetUCharAt(y, x*3+2, 240)
		}
	}

	leak, err := BoundaryLeakage(orig, out, mask, 3)
	require.NoError(t, err)
	assert.Greater(t, leak, 0.0)
}

func TestUnionMask(t *testing.T) {
	a := rectMask(0, 0, 32, 32)
	defer a.Close()
	b := rectMask(16, 16, 48, 48)
	defer b.Close()

	union := UnionMask(a, b)
	defer union.Close()

	// 32*32 + 32*32 - 16*16 overlap
	assert.Equal(t, 32*32+32*32-16*16, gocv.CountNonZero(union))
}

func TestEdgeAlignmentPrefersImageEdges(t *testing.T) {
	// High-contrast square on dark background
	img := solidImage(10, 10, 10)
	defer img.Close()
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			img.SetUCharAt(y, x*3+0, 230)
			img.SetUCharAt(y, x*3+1, 230)
			img.SetUCharAt(y, x*3+2, 230)
		}
	}

	aligned := rectMask(16, 16, 48, 48)
	defer aligned.Close()
	misaligned := rectMask(24, 24, 56, 56)
	defer misaligned.Close()

	alignedScore, err := EdgeAlignment(img, aligned)
	require.NoError(t, err)
	misalignedScore, err := EdgeAlignment(img, misaligned)
	require.NoError(t, err)

	assert.Greater(t, alignedScore, misalignedScore)

	// Delta is positive when the refined mask follows edges better
	delta, err := EdgeAlignmentDelta(img, misaligned, aligned)
	require.NoError(t, err)
	assert.Greater(t, delta, 0.0)
}

func TestAggregate(t *testing.T) {
	records := []types.MetricRecord{
		{SSIM: 0.9, PSNROutside: 100, DeltaE76Raw: 10, DeltaE76GC: 8},
		{SSIM: 0.7, PSNROutside: 90, DeltaE76Raw: 12, DeltaE76GC: 6},
	}

	summaries := Aggregate(records)
	require.NotEmpty(t, summaries)

	byName := make(map[string]Summary)
	for _, s := range summaries {
		byName[s.Name] = s
	}

	assert.InDelta(t, 0.8, byName["ssim"].Mean, 1e-9)
	assert.InDelta(t, 95, byName["psnr_outside"].Mean, 1e-9)
	assert.InDelta(t, 11, byName["delta_e76_raw"].Mean, 1e-9)
	assert.InDelta(t, 7, byName["delta_e76_gc"].Mean, 1e-9)
	assert.Equal(t, 2, byName["ssim"].N)

	assert.Nil(t, Aggregate(nil))
}
