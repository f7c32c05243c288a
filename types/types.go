package types

// ImageResult holds the per-image pipeline outcome and file metadata
type ImageResult struct {
	ID          int64   `json:"id"`
	Path        string  `json:"path"`
	Stem        string  `json:"stem"`
	Prompt      string  `json:"prompt"`
	TargetColor string  `json:"target_color"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	BoxScore    float64 `json:"box_score"`
	GrabCutUsed bool    `json:"grabcut_used"`
	RawMaskPath string  `json:"raw_mask_path"`
	GCMaskPath  string  `json:"gc_mask_path"`
	RawOutPath  string  `json:"raw_out_path"`
	GCOutPath   string  `json:"gc_out_path"`
	CameraModel string  `json:"camera_model"`
	CapturedAt  string  `json:"captured_at"`
	ModifiedAt  string  `json:"modified_at"`
	Size        int64   `json:"size"`
}

// MetricRecord holds the five comparison scores for one image
type MetricRecord struct {
	ID             int64   `json:"id"`
	Path           string  `json:"path"`
	TargetColor    string  `json:"target_color"`
	Prompt         string  `json:"prompt"`
	SSIM           float64 `json:"ssim"`
	PSNROutside    float64 `json:"psnr_outside"`
	DeltaE76Raw    float64 `json:"delta_e76_raw"`
	DeltaE76GC     float64 `json:"delta_e76_gc"`
	DeltaE94Raw    float64 `json:"delta_e94_raw"`
	DeltaE94GC     float64 `json:"delta_e94_gc"`
	LeakageRaw     float64 `json:"leakage_raw"`
	LeakageGC      float64 `json:"leakage_gc"`
	EdgeAlignDelta float64 `json:"edge_align_delta"`
}

// RunStats summarizes a completed pipeline run
type RunStats struct {
	TotalImages  int
	Processed    int
	Skipped      int
	Errors       int
	GrabCutCount int
}
