package segment

// Params controls mask cleanup and the GrabCut refinement guard
type Params struct {
	// Mask binarization threshold on decoder logits
	MaskThreshold float32

	// Morphological cleanup kernel sizes (pixels, ellipse)
	OpenKernelSize  int
	CloseKernelSize int

	// GrabCut refinement
	GrabCutIterations int
	// Erosion applied to the raw mask to seed sure-foreground pixels
	SureForegroundErosion int
	// Dilation applied to the raw mask to bound probable-background pixels
	ProbableRegionDilation int

	// Refinement guard: GrabCut runs only when the raw mask looks sane.
	// MinAreaRatio/MaxAreaRatio bound the mask area relative to the image;
	// MinBoxCoverage bounds how much of the detection box the mask fills.
	// Outside these bounds refinement tends to degenerate (tiny or
	// ambiguous masks), so the raw mask is kept as-is.
	MinAreaRatio   float64
	MaxAreaRatio   float64
	MinBoxCoverage float64
}

// DefaultParams returns cleanup and guard parameters tuned for
// single-subject photos with a dominant detection box.
func DefaultParams() Params {
	return Params{
		MaskThreshold: 0.0, // decoder emits logits; zero is the 0.5 sigmoid point

		OpenKernelSize:  5, // remove speckle outside the subject
		CloseKernelSize: 7, // fill pinholes inside the subject

		GrabCutIterations:      5,
		SureForegroundErosion:  11,
		ProbableRegionDilation: 15,

		MinAreaRatio:   0.01, // below 1% of the frame the mask is too small to refine
		MaxAreaRatio:   0.90, // above 90% the mask is degenerate
		MinBoxCoverage: 0.30, // mask should fill a meaningful part of its box
	}
}
