// Package pipeline orchestrates the segmentation, recoloring, and metrics
// stages over every image in a project's input directory.
package pipeline

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"recolorlab/imageio"
	"recolorlab/logging"
)

// Run walks the input directory and processes each image through the full
// pipeline, storing results and metrics in the database. Per-image
// failures are reported and skipped; the batch continues.
func Run(db *sql.DB, stages *Stages, options Options) error {
	var wg sync.WaitGroup
	resultsChan := make(chan ProcessImageResult, 100)

	maxWorkers := options.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	semaphore := make(chan struct{}, maxWorkers)

	// Count files before processing
	fileStats := countFilesToProcess(options)

	printStartupInfo(fileStats, options)

	progressTracker := NewProgressTracker(fileStats, resultsChan)
	defer progressTracker.stop()

	startTime := time.Now()
	err := walkAndProcessFiles(db, stages, options, &wg, resultsChan, semaphore)

	// Wait for all processing to complete, then for the tracker to drain
	// any buffered results before reading its counters
	wg.Wait()
	close(resultsChan)
	close(semaphore)
	progressTracker.waitDrained()

	printCompletionStats(progressTracker, startTime, options)

	return err
}

// countFilesToProcess counts files the pipeline can handle
func countFilesToProcess(options Options) FileStats {
	stats := FileStats{}

	if options.DebugMode {
		logging.DebugLog("Starting pipeline run on folder: %s", options.ImagesDir)
		logging.DebugLog("Target color: %s, Prompt: %q, Force rewrite: %v",
			options.TargetColor, options.Prompt, options.ForceRewrite)
	}

	filepath.Walk(options.ImagesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if imageio.IsImageFile(path) {
			stats.totalFiles++
			if imageio.IsTiffFormat(path) {
				stats.tifFiles++
			}
		}
		return nil
	})

	return stats
}

// printStartupInfo displays information about the run before starting
func printStartupInfo(stats FileStats, options Options) {
	fmt.Printf("Starting recolor pipeline...\n")
	fmt.Printf("Total image files to process: %d (including %d TIF files)\n",
		stats.totalFiles, stats.tifFiles)
	fmt.Printf("Target color: %s\n", options.TargetColor)
	fmt.Printf("Detection prompt: %q\n", options.Prompt)
	fmt.Printf("Force rewrite mode: %v\n", options.ForceRewrite)

	if options.DebugMode {
		fmt.Printf("Debug mode: enabled\n")
		logging.LogInfo("Found %d image files to process (%d TIF files)",
			stats.totalFiles, stats.tifFiles)
	}
}

// walkAndProcessFiles traverses the input directory and processes each file
func walkAndProcessFiles(db *sql.DB, stages *Stages, options Options,
	wg *sync.WaitGroup, resultsChan chan ProcessImageResult, semaphore chan struct{}) error {

	return filepath.Walk(options.ImagesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			if err != nil && options.DebugMode {
				logging.LogError("Error accessing path %s: %v", path, err)
			}
			return nil
		}

		if imageio.IsImageFile(path) {
			wg.Add(1)
			// Acquire semaphore
			semaphore <- struct{}{}

			go func(p string) {
				defer wg.Done()
				defer func() { <-semaphore }() // Release semaphore when done

				result := processImage(db, stages, p, options)
				resultsChan <- result
			}(path)
		}

		return nil
	})
}

// printCompletionStats displays statistics after run completion
func printCompletionStats(tracker *ProgressTracker, startTime time.Time, options Options) {
	elapsed := time.Since(startTime)
	processed, skipped, errors, grabcut := tracker.Snapshot()

	if options.DebugMode {
		logging.DebugLog("Run completed in %v. Processed: %d, Skipped: %d, Errors: %d, GrabCut applied: %d",
			elapsed, processed, skipped, errors, grabcut)
	}

	fmt.Println("\nPipeline complete.")
	fmt.Printf("Processed %d images in %v.\n", processed, elapsed.Round(time.Second))
	fmt.Printf("GrabCut refinement applied to %d images.\n", grabcut)

	if skipped > 0 {
		fmt.Printf("Skipped %d images (no detection or already processed).\n", skipped)
	}

	if errors > 0 {
		fmt.Printf("Encountered %d errors during the run.\n", errors)
		fmt.Println("Check the log file for details.")
	}
}
