package pipeline

import (
	"fmt"
	"time"

	"recolorlab/logging"
)

// NewProgressTracker initializes the progress tracker
func NewProgressTracker(stats FileStats, resultsChan chan ProcessImageResult) *ProgressTracker {
	tracker := &ProgressTracker{
		ticker:     time.NewTicker(500 * time.Millisecond),
		done:       make(chan bool),
		drained:    make(chan struct{}),
		totalFiles: stats.totalFiles,
	}

	// Start progress display goroutine
	go tracker.displayProgress()

	// Start result processor goroutine
	go tracker.processResults(resultsChan)

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 || p.skipped > 0 {
				fmt.Printf("\rProgress: %d/%d (Skipped: %d, Errors: %d, GrabCut: %d)",
					p.processed, p.totalFiles, p.skipped, p.errors, p.grabcutCount)
			} else {
				fmt.Printf("\rProgress: %d/%d (GrabCut: %d)",
					p.processed, p.totalFiles, p.grabcutCount)
			}
			p.mu.Unlock()
		}
	}
}

// processResults updates the tracker state based on processing results.
// The drained channel is closed once the results channel is exhausted, so
// completion stats never read a partially drained tracker.
func (p *ProgressTracker) processResults(resultsChan chan ProcessImageResult) {
	defer close(p.drained)

	for result := range resultsChan {
		p.mu.Lock()
		p.processed++

		switch {
		case result.Skipped:
			p.skipped++
			logging.LogImageSkipped(result.Path, result.SkipReason)
		case !result.Success:
			p.errors++
			if result.Error != nil {
				logging.LogImageProcessed(result.Path, false, result.Error.Error())
			}
		default:
			if result.GrabCutUsed {
				p.grabcutCount++
			}
			logging.LogImageProcessed(result.Path, true, "")
		}

		p.mu.Unlock()
	}
}

// stop ends the progress tracking
func (p *ProgressTracker) stop() {
	p.ticker.Stop()
	p.done <- true
}

// waitDrained blocks until every queued result has been counted. The
// results channel must be closed before calling.
func (p *ProgressTracker) waitDrained() {
	<-p.drained
}

// Snapshot returns the current counters
func (p *ProgressTracker) Snapshot() (processed, skipped, errors, grabcut int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.skipped, p.errors, p.grabcutCount
}
