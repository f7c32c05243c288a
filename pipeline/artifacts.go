package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"recolorlab/imageio"
	"recolorlab/metrics"
	"recolorlab/types"

	"gocv.io/x/gocv"
)

// artifactPaths holds the output file locations for one image
type artifactPaths struct {
	rawMask, gcMask, rawOut, gcOut string
}

// writeArtifacts writes both masks and both recolored outputs as PNG to
// the project output directory, which is created on demand.
func writeArtifacts(options Options, path string, rawMask, gcMask, rawOut, gcOut gocv.Mat) (artifactPaths, error) {
	if err := imageio.EnsureDir(options.OutputDir); err != nil {
		return artifactPaths{}, err
	}

	stem := stemOf(path)
	colorTag := strings.TrimPrefix(options.TargetColor, "#")

	paths := artifactPaths{
		rawMask: filepath.Join(options.OutputDir, fmt.Sprintf("%s_%s_mask_raw.png", stem, colorTag)),
		gcMask:  filepath.Join(options.OutputDir, fmt.Sprintf("%s_%s_mask_gc.png", stem, colorTag)),
		rawOut:  filepath.Join(options.OutputDir, fmt.Sprintf("%s_%s_raw.png", stem, colorTag)),
		gcOut:   filepath.Join(options.OutputDir, fmt.Sprintf("%s_%s_gc.png", stem, colorTag)),
	}

	writes := []struct {
		dst string
		img gocv.Mat
	}{
		{paths.rawMask, rawMask},
		{paths.gcMask, gcMask},
		{paths.rawOut, rawOut},
		{paths.gcOut, gcOut},
	}
	for _, w := range writes {
		if err := imageio.WritePNG(w.dst, w.img); err != nil {
			return artifactPaths{}, err
		}
	}

	return paths, nil
}

// computeMetrics runs the metrics stage for one image. The outside-mask
// PSNR is the worse of the two outputs against the original, measured
// outside the union of both masks.
func computeMetrics(orig, rawOut, gcOut, rawMask, gcMask gocv.Mat,
	stages *Stages, options Options, path string) (types.MetricRecord, error) {

	record := types.MetricRecord{
		Path:        path,
		TargetColor: options.TargetColor,
		Prompt:      options.Prompt,
	}

	ssim, err := metrics.SSIM(rawOut, gcOut)
	if err != nil {
		return record, err
	}
	record.SSIM = ssim

	union := metrics.UnionMask(rawMask, gcMask)
	defer union.Close()

	psnrRaw, err := metrics.PSNROutside(orig, rawOut, union)
	if err != nil {
		return record, err
	}
	psnrGC, err := metrics.PSNROutside(orig, gcOut, union)
	if err != nil {
		return record, err
	}
	record.PSNROutside = psnrRaw
	if psnrGC < psnrRaw {
		record.PSNROutside = psnrGC
	}

	record.DeltaE76Raw, err = metrics.MeanDeltaEToTarget(rawOut, rawMask, stages.Target, metrics.CIE76)
	if err != nil {
		return record, err
	}
	record.DeltaE76GC, err = metrics.MeanDeltaEToTarget(gcOut, gcMask, stages.Target, metrics.CIE76)
	if err != nil {
		return record, err
	}
	record.DeltaE94Raw, err = metrics.MeanDeltaEToTarget(rawOut, rawMask, stages.Target, metrics.CIE94)
	if err != nil {
		return record, err
	}
	record.DeltaE94GC, err = metrics.MeanDeltaEToTarget(gcOut, gcMask, stages.Target, metrics.CIE94)
	if err != nil {
		return record, err
	}

	record.LeakageRaw, err = metrics.BoundaryLeakage(orig, rawOut, rawMask, 3)
	if err != nil {
		return record, err
	}
	record.LeakageGC, err = metrics.BoundaryLeakage(orig, gcOut, gcMask, 3)
	if err != nil {
		return record, err
	}

	record.EdgeAlignDelta, err = metrics.EdgeAlignmentDelta(orig, rawMask, gcMask)
	if err != nil {
		return record, err
	}

	return record, nil
}
