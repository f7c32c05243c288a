package pipeline

import (
	"sync"
	"time"

	"recolorlab/detect"
	"recolorlab/recolor"
	"recolorlab/segment"
)

// Options defines the options for a pipeline run
type Options struct {
	ProjectDir   string
	ImagesDir    string
	OutputDir    string
	Prompt       string
	TargetColor  string
	ForceRewrite bool
	DebugMode    bool
	DbPath       string
	MaxWorkers   int
}

// Stages bundles the loaded model sessions and stage parameters shared
// across all images of a run. Sessions serialize inference internally;
// the parameter structs are read-only.
type Stages struct {
	Detector      *detect.Detector
	Engine        *segment.Engine
	SegParams     segment.Params
	RecolorParams recolor.Params
	Target        recolor.Target
}

// ProcessImageResult holds the result of processing an image
type ProcessImageResult struct {
	Path        string
	Success     bool
	Skipped     bool
	SkipReason  string
	GrabCutUsed bool
	Error       error
}

// FileStats tracks information about files to be processed
type FileStats struct {
	totalFiles int
	tifFiles   int
}

// ProgressTracker tracks progress of the pipeline run
type ProgressTracker struct {
	processed    int
	skipped      int
	errors       int
	grabcutCount int
	ticker       *time.Ticker
	done         chan bool
	drained      chan struct{}
	mu           sync.Mutex
	totalFiles   int
}
