package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"recolorlab/database"
	"recolorlab/detect"
	"recolorlab/logging"
	"recolorlab/metrics"
	"recolorlab/pipeline"
	"recolorlab/recolor"
	"recolorlab/segment"
	"recolorlab/signalhandler"
	"recolorlab/utils"
)

const (
	defaultTargetColor = "#D32F2F"
	defaultPrompt      = "car body"
)

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()

	// Set the optimal number of CPUs to use
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	// Parse command line arguments into a map
	args := utils.ParseArguments()

	// Get the command (run or report)
	command, hasCommand := args["command"]

	// Resolve the project root
	projectDir := utils.GetDefaultProjectDir()
	if customDir, ok := args["project"]; ok && customDir != "" {
		projectDir = customDir
	}

	// Set default database path
	dbPath := utils.GetDefaultDatabasePath(projectDir)
	if customDB, ok := args["database"]; ok && customDB != "" {
		dbPath = customDB
	} else if customDB, ok := args["db"]; ok && customDB != "" {
		// Allow --db as an alias for --database
		dbPath = customDB
	}

	// Setup debug logging if enabled
	debugMode := false
	if _, ok := args["debug"]; ok {
		debugMode = true
		logPath := "recolorlab.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			defer logging.CloseLogger()
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
	}

	if !hasCommand {
		utils.PrintUsage()
		os.Exit(1)
	}

	switch command {
	case "run":
		handleRunCommand(args, projectDir, dbPath, debugMode)
	case "report":
		handleReportCommand(args, dbPath)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}
}

func handleRunCommand(args map[string]string, projectDir, dbPath string, debugMode bool) {
	// Verify project directory exists
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		log.Fatalf("Project directory not found: %s", projectDir)
	}

	imagesDir := utils.GetImagesDir(projectDir)
	if info, err := os.Stat(imagesDir); err != nil || !info.IsDir() {
		log.Fatalf("Input image directory not found: %s (create it and add images)", imagesDir)
	}

	// Parse the target color once; it is reused for both recolor passes
	targetHex := defaultTargetColor
	if c, ok := args["color"]; ok && c != "" {
		targetHex = c
	}
	target, err := recolor.ParseTarget(targetHex)
	if err != nil {
		log.Fatalf("Invalid target color: %v", err)
	}

	prompt := defaultPrompt
	if p, ok := args["prompt"]; ok && p != "" {
		prompt = p
	}

	forceRewrite := false
	if _, ok := args["force"]; ok {
		forceRewrite = true
	}

	// Missing model checkpoints are a fatal startup error
	modelsDir := utils.GetModelsDir(projectDir)
	detectorPath := filepath.Join(modelsDir, "detector.onnx")
	detectorMeta := filepath.Join(modelsDir, "detector.json")
	encoderPath := filepath.Join(modelsDir, "sam_encoder.onnx")
	decoderPath := filepath.Join(modelsDir, "sam_decoder.onnx")
	for _, p := range []string{detectorPath, detectorMeta, encoderPath, decoderPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			log.Fatalf("Model checkpoint not found: %s", p)
		}
	}

	startTime := time.Now()

	// Initialize database with retry logic
	var db *sql.DB
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		db, err = database.InitDatabase(dbPath)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Printf("Error initializing database (attempt %d/%d): %v - retrying...",
				i+1, maxRetries, err)
			time.Sleep(time.Second * time.Duration(i+1))
		} else {
			log.Fatalf("Error initializing database after %d attempts: %v", maxRetries, err)
		}
	}
	defer db.Close()

	// Load model sessions once; they are reused read-only across images.
	// The shared ONNX environment must outlive both sessions, so its
	// teardown is registered before either session is created.
	if err := detect.EnsureEnvironment(); err != nil {
		log.Fatalf("Error initializing ONNX runtime: %v", err)
	}
	defer detect.DestroyEnvironment()

	detector, err := detect.NewDetector(detectorPath, detectorMeta)
	if err != nil {
		log.Fatalf("Error loading detector checkpoint: %v", err)
	}
	defer detector.Close()

	engine, err := segment.NewEngine(encoderPath, decoderPath)
	if err != nil {
		log.Fatalf("Error loading segmentation checkpoints: %v", err)
	}
	defer engine.Close()

	stages := &pipeline.Stages{
		Detector:      detector,
		Engine:        engine,
		SegParams:     segment.DefaultParams(),
		RecolorParams: recolor.DefaultParams(),
		Target:        target,
	}

	options := pipeline.Options{
		ProjectDir:   projectDir,
		ImagesDir:    imagesDir,
		OutputDir:    utils.GetOutputDir(projectDir),
		Prompt:       prompt,
		TargetColor:  targetHex,
		ForceRewrite: forceRewrite,
		DebugMode:    debugMode,
		DbPath:       dbPath,
		MaxWorkers:   signalhandler.GetOptimalProcs(),
	}

	// Run pipeline with graceful completion handling
	errChan := make(chan error, 1)
	doneChan := make(chan bool, 1)

	go func() {
		err := pipeline.Run(db, stages, options)
		if err != nil {
			errChan <- err
		} else {
			doneChan <- true
		}
	}()

	select {
	case err := <-errChan:
		log.Fatalf("Error running pipeline: %v", err)
	case <-doneChan:
		duration := time.Since(startTime)
		fmt.Printf("\nPipeline finished successfully!\n")
		fmt.Printf("Total execution time: %v\n", duration)
		fmt.Printf("Database: %s\n", dbPath)

		// Print summary statistics if available
		stats, err := database.GetRunStats(db, targetHex)
		if err == nil && stats != nil {
			fmt.Printf("\nSummary:\n")
			fmt.Printf("- Total images recorded: %d\n", stats.TotalImages)
			fmt.Printf("- GrabCut refinement applied: %d\n", stats.GrabCutCount)
			fmt.Printf("- Distinct target colors: %d\n", stats.ColorCount)
		}
	}
}

func handleReportCommand(args map[string]string, dbPath string) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Fatalf("Database does not exist: %s. Run the pipeline first.", dbPath)
	}

	// Optional target color filter
	colorFilter := ""
	if c, ok := args["color"]; ok && c != "" {
		colorFilter = c
	}

	db, err := database.OpenDatabase(dbPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	records, err := database.QueryMetrics(db, colorFilter)
	if err != nil {
		log.Fatalf("Error querying metrics: %v", err)
	}

	if len(records) == 0 {
		fmt.Println("No metric records found.")
		return
	}

	fmt.Printf("Metric records: %d\n\n", len(records))
	for _, r := range records {
		fmt.Printf("%s (color %s, prompt %q)\n", r.Path, r.TargetColor, r.Prompt)
		fmt.Printf("  SSIM raw/gc outputs : %.4f\n", r.SSIM)
		fmt.Printf("  PSNR outside masks  : %.2f dB\n", r.PSNROutside)
		fmt.Printf("  dE76 raw/gc         : %.2f / %.2f\n", r.DeltaE76Raw, r.DeltaE76GC)
		fmt.Printf("  dE94 raw/gc         : %.2f / %.2f\n", r.DeltaE94Raw, r.DeltaE94GC)
		fmt.Printf("  leakage raw/gc      : %.3f / %.3f\n", r.LeakageRaw, r.LeakageGC)
		fmt.Printf("  edge align delta    : %+.4f\n", r.EdgeAlignDelta)
	}

	fmt.Printf("\nAggregates:\n")
	for _, s := range metrics.Aggregate(records) {
		fmt.Printf("  %s\n", s)
	}
}
