package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments() map[string]string {
	args := make(map[string]string)

	// First, identify the command (run/report)
	command := ""
	commandIndex := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "run" || os.Args[i] == "report" {
			command = os.Args[i]
			commandIndex = i
			break
		}
	}

	if command != "" {
		args["command"] = command
	}

	// Process all arguments, skipping the command
	for i := 1; i < len(os.Args); i++ {
		if i == commandIndex {
			continue
		}

		arg := os.Args[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value)
			if i+1 >= len(os.Args) || strings.HasPrefix(os.Args[i+1], "--") {
				args[flagName] = "true"
			} else {
				// The next argument is the value
				args[flagName] = os.Args[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args
}

// GetDefaultProjectDir returns the project root, defaulting to the working directory
func GetDefaultProjectDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// GetDefaultDatabasePath returns the default path for the results database
func GetDefaultDatabasePath(projectDir string) string {
	return filepath.Join(projectDir, "results.db")
}

// GetImagesDir returns the input image directory for a project
func GetImagesDir(projectDir string) string {
	return filepath.Join(projectDir, "data", "images")
}

// GetOutputDir returns the output directory for a project
func GetOutputDir(projectDir string) string {
	return filepath.Join(projectDir, "output")
}

// GetModelsDir returns the model checkpoint directory for a project
func GetModelsDir(projectDir string) string {
	return filepath.Join(projectDir, "models")
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s run [--project=PATH] [--color=#RRGGBB] [--prompt=TEXT] [--database=PATH] [--force] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s report [--database=PATH] [--color=#RRGGBB] [--debug]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --project     : Path to project root (default: current directory)\n")
	fmt.Printf("  --color       : Target recolor color as hex, e.g. #D32F2F (default: #D32F2F)\n")
	fmt.Printf("  --prompt      : Detection prompt for the segmentation stage (default: car body)\n")
	fmt.Printf("  --database    : Path to results database file (default: <project>/results.db)\n")
	fmt.Printf("  --force       : Reprocess images already recorded for this color and prompt\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: recolorlab.log)\n")
	fmt.Printf("\nProject layout:\n")
	fmt.Printf("  <project>/data/images   : input images\n")
	fmt.Printf("  <project>/models        : detector.onnx, detector.json, sam_encoder.onnx, sam_decoder.onnx\n")
	fmt.Printf("  <project>/output        : recolored outputs and masks (created automatically)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s run --project=/data/cars --color=#D32F2F --prompt=\"car body\"\n", os.Args[0])
	fmt.Printf("  %s report --database=/data/cars/results.db\n", os.Args[0])
}

// ParseHexColor parses a #RRGGBB color string into 8-bit RGB components
func ParseHexColor(hex string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: want #RRGGBB", hex)
	}

	v, parseErr := strconv.ParseUint(s, 16, 32)
	if parseErr != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %v", hex, parseErr)
	}

	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
