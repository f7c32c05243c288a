package segment

import (
	"fmt"
	"image"

	"recolorlab/logging"

	"gocv.io/x/gocv"
)

// MaskPair holds the two mask variants produced for one image.
// Raw is the cleaned SAM mask; Refined is the GrabCut result, or a copy
// of Raw when the refinement guard rejected the image. Both are
// image-sized 0/255 masks and are read-only after creation.
type MaskPair struct {
	Raw               gocv.Mat
	Refined           gocv.Mat
	RefinementApplied bool
	MaskScore         float32
}

// Close releases both masks
func (m *MaskPair) Close() {
	m.Raw.Close()
	m.Refined.Close()
}

// SegmentBox produces both mask variants for an image and detection box:
// SAM decode, fixed morphological cleanup, then guarded GrabCut.
func (e *Engine) SegmentBox(mat gocv.Mat, src image.Image, box image.Rectangle, params Params) (*MaskPair, error) {
	raw, score, err := e.DecodeBoxMask(src, box, params)
	if err != nil {
		return nil, err
	}

	CleanupMask(&raw, params)

	if raw.Rows() != mat.Rows() || raw.Cols() != mat.Cols() {
		raw.Close()
		return nil, fmt.Errorf("mask size %dx%d does not match image %dx%d",
			raw.Cols(), raw.Rows(), mat.Cols(), mat.Rows())
	}

	pair := &MaskPair{Raw: raw, MaskScore: score}

	if ShouldRefine(raw, box, params) {
		pair.Refined = RefineWithGrabCut(mat, raw, params)
		pair.RefinementApplied = true
		logging.DebugLog("GrabCut refinement applied (mask score %.4f)", score)
	} else {
		pair.Refined = raw.Clone()
		logging.DebugLog("GrabCut refinement skipped by guard (mask score %.4f)", score)
	}

	return pair, nil
}
