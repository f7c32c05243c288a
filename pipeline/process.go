package pipeline

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recolorlab/database"
	"recolorlab/detect"
	"recolorlab/imageio"
	"recolorlab/logging"
	"recolorlab/recolor"
	"recolorlab/types"
)

// processImage runs the full pipeline on a single image: detect, segment,
// recolor with both mask variants, compute metrics, write artifacts, and
// store records. Returns a skip result when the image cannot be processed
// for a non-fatal reason.
func processImage(db *sql.DB, stages *Stages, path string, options Options) ProcessImageResult {
	result := ProcessImageResult{
		Path:    path,
		Success: false,
	}

	// Skip processing if this image/color/prompt combination is already stored
	if !options.ForceRewrite {
		if skipResult := checkAndSkipIfProcessed(db, path, options); skipResult != nil {
			return *skipResult
		}
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		result.Error = fmt.Errorf("cannot stat file %s: %v", path, err)
		return result
	}

	mat, err := imageio.LoadImage(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to load image %s: %v", path, err)
		return result
	}
	defer mat.Close()

	src, err := mat.ToImage()
	if err != nil {
		result.Error = fmt.Errorf("failed to convert image %s: %v", path, err)
		return result
	}

	// Stage 1a: detection
	boxes, err := stages.Detector.Detect(src, options.Prompt)
	if err != nil {
		result.Error = fmt.Errorf("detection failed for %s: %v", path, err)
		return result
	}

	box, ok := detect.BestBox(boxes)
	if !ok {
		// Per-image skip condition, not a hard failure
		result.Success = true
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("no detection box for prompt %q", options.Prompt)
		return result
	}

	// Stage 1b: segmentation with guarded GrabCut refinement
	pair, err := stages.Engine.SegmentBox(mat, src, box.Rect, stages.SegParams)
	if err != nil {
		result.Error = fmt.Errorf("segmentation failed for %s: %v", path, err)
		return result
	}
	defer pair.Close()

	// Stage 2: identical recolor transform with both mask variants
	rawOut, gcOut, err := recolor.RecolorBoth(mat, pair.Raw, pair.Refined, stages.Target, stages.RecolorParams)
	if err != nil {
		result.Error = fmt.Errorf("recoloring failed for %s: %v", path, err)
		return result
	}
	defer rawOut.Close()
	defer gcOut.Close()

	// Write artifacts
	paths, err := writeArtifacts(options, path, pair.Raw, pair.Refined, rawOut, gcOut)
	if err != nil {
		result.Error = err
		return result
	}

	// Stage 3: metrics
	record, err := computeMetrics(mat, rawOut, gcOut, pair.Raw, pair.Refined, stages, options, path)
	if err != nil {
		result.Error = fmt.Errorf("metrics failed for %s: %v", path, err)
		return result
	}

	// Capture metadata (best-effort) and store records
	meta := imageio.ProbeMetadata(path)

	imageResult := types.ImageResult{
		Path:        path,
		Stem:        stemOf(path),
		Prompt:      options.Prompt,
		TargetColor: options.TargetColor,
		Width:       mat.Cols(),
		Height:      mat.Rows(),
		BoxScore:    float64(box.Score),
		GrabCutUsed: pair.RefinementApplied,
		RawMaskPath: paths.rawMask,
		GCMaskPath:  paths.gcMask,
		RawOutPath:  paths.rawOut,
		GCOutPath:   paths.gcOut,
		CameraModel: meta.CameraModel,
		CapturedAt:  meta.CapturedAt,
		ModifiedAt:  fileInfo.ModTime().Format(time.RFC3339),
		Size:        fileInfo.Size(),
	}

	if err := database.StoreResult(db, imageResult, options.ForceRewrite); err != nil {
		result.Error = fmt.Errorf("cannot store result for %s: %v", path, err)
		return result
	}
	if err := database.StoreMetrics(db, record, options.ForceRewrite); err != nil {
		result.Error = fmt.Errorf("cannot store metrics for %s: %v", path, err)
		return result
	}

	if options.DebugMode {
		logging.DebugLog("Processed %s: box score %.3f, grabcut=%v, ssim=%.4f",
			path, box.Score, pair.RefinementApplied, record.SSIM)
	}

	result.Success = true
	result.GrabCutUsed = pair.RefinementApplied
	return result
}

// stemOf returns the filename without directory or extension
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// checkAndSkipIfProcessed checks if an image can be skipped because it was
// already processed for this color and prompt and has not changed since
func checkAndSkipIfProcessed(db *sql.DB, path string, options Options) *ProcessImageResult {
	exists, storedModTime, err := database.CheckImageProcessed(db, path, options.TargetColor, options.Prompt)
	if err != nil {
		return &ProcessImageResult{
			Path:    path,
			Success: false,
			Error:   fmt.Errorf("database error for %s: %v", path, err),
		}
	}

	if exists {
		fileInfo, err := os.Stat(path)
		if err != nil {
			return &ProcessImageResult{
				Path:    path,
				Success: false,
				Error:   fmt.Errorf("cannot stat file %s: %v", path, err),
			}
		}

		storedTime, err := time.Parse(time.RFC3339, storedModTime)
		if err != nil {
			return &ProcessImageResult{
				Path:    path,
				Success: false,
				Error:   fmt.Errorf("cannot parse stored time for %s: %v", path, err),
			}
		}

		// If file hasn't been modified, skip processing
		if !fileInfo.ModTime().After(storedTime) {
			if options.DebugMode {
				logging.DebugLog("Skipping already processed image: %s", path)
			}
			return &ProcessImageResult{
				Path:       path,
				Success:    true,
				Skipped:    true,
				SkipReason: "already processed for this color and prompt",
			}
		}
	}

	return nil
}
