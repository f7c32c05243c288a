package detect

import (
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// EnsureEnvironment initializes the shared ONNX runtime environment once.
// The ONNXRUNTIME_LIB environment variable overrides the library location
// when the runtime is not on the default search path.
func EnsureEnvironment() error {
	if ort.IsInitialized() {
		return nil
	}

	if libPath := os.Getenv("ONNXRUNTIME_LIB"); libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// DestroyEnvironment tears down the shared ONNX runtime environment
func DestroyEnvironment() {
	if ort.IsInitialized() {
		ort.DestroyEnvironment()
	}
}
