package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTrackerCountsAllBufferedResults(t *testing.T) {
	resultsChan := make(chan ProcessImageResult, 100)
	tracker := NewProgressTracker(FileStats{totalFiles: 60}, resultsChan)
	defer tracker.stop()

	// Fill the buffer before the tracker has a chance to drain: 40
	// successes (15 with GrabCut), 12 skips, 8 errors
	for i := 0; i < 40; i++ {
		resultsChan <- ProcessImageResult{
			Path:        fmt.Sprintf("img_%d.jpg", i),
			Success:     true,
			GrabCutUsed: i < 15,
		}
	}
	for i := 0; i < 12; i++ {
		resultsChan <- ProcessImageResult{
			Path:       fmt.Sprintf("skip_%d.jpg", i),
			Success:    true,
			Skipped:    true,
			SkipReason: "already processed for this color and prompt",
		}
	}
	for i := 0; i < 8; i++ {
		resultsChan <- ProcessImageResult{
			Path:  fmt.Sprintf("bad_%d.jpg", i),
			Error: fmt.Errorf("failed to load image"),
		}
	}

	close(resultsChan)
	tracker.waitDrained()

	processed, skipped, errors, grabcut := tracker.Snapshot()
	assert.Equal(t, 60, processed)
	assert.Equal(t, 12, skipped)
	assert.Equal(t, 8, errors)
	assert.Equal(t, 15, grabcut)
}
