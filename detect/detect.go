// Package detect runs an open-vocabulary object detector exported to ONNX.
//
// The checkpoint is exported with a fixed phrase vocabulary; the sidecar
// metadata file lists the phrases alongside tensor shapes, and the runtime
// prompt selects which phrase's boxes are kept.
package detect

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Metadata describes the exported detector checkpoint
type Metadata struct {
	InputShape     []int64  `json:"input_shape"`
	OutputShape    []int64  `json:"output_shape"`
	Labels         []string `json:"labels"`
	ScoreThreshold float32  `json:"score_threshold"`
	NMSThreshold   float32  `json:"nms_threshold"`
}

// validate rejects checkpoint metadata whose tensor shapes the decoder
// cannot consume
func (m *Metadata) validate() error {
	if len(m.InputShape) != 4 || len(m.OutputShape) != 3 {
		return fmt.Errorf("unexpected detector shapes: input=%v output=%v",
			m.InputShape, m.OutputShape)
	}
	if m.OutputShape[2] != detectionRowLen {
		return fmt.Errorf("unexpected detector output row width %d: want %d",
			m.OutputShape[2], detectionRowLen)
	}
	return nil
}

// Detector wraps an ONNX detection session
type Detector struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewDetector loads the detector checkpoint and its metadata sidecar.
// ONNX environment initialization is shared with the segmentation engine.
func NewDetector(modelPath, metadataPath string) (*Detector, error) {
	if err := EnsureEnvironment(); err != nil {
		return nil, err
	}

	metaFile, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read detector metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse detector metadata: %w", err)
	}
	if metadata.ScoreThreshold == 0 {
		metadata.ScoreThreshold = 0.35
	}
	if metadata.NMSThreshold == 0 {
		metadata.NMSThreshold = 0.5
	}
	if err := metadata.validate(); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create detector session: %w", err)
	}

	return &Detector{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Detect runs the detector on an image and returns boxes for the prompt,
// score-filtered and deduplicated, scaled to original image coordinates.
func (d *Detector) Detect(img image.Image, prompt string) ([]Box, error) {
	labelIdx := d.labelIndex(prompt)
	if labelIdx < 0 {
		return nil, fmt.Errorf("prompt %q not in detector vocabulary %v", prompt, d.Metadata.Labels)
	}

	inputData, err := Preprocess(img, int(d.Metadata.InputShape[3]), int(d.Metadata.InputShape[2]))
	if err != nil {
		return nil, err
	}

	// ONNX sessions are not safe for concurrent Run
	d.mu.Lock()
	copy(d.inputTensor.GetData(), inputData)
	if err := d.session.Run(); err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("detector inference failed: %w", err)
	}
	raw := make([]float32, len(d.outputTensor.GetData()))
	copy(raw, d.outputTensor.GetData())
	d.mu.Unlock()

	bounds := img.Bounds()
	candidates := DecodeBoxes(raw, int(d.Metadata.OutputShape[1]), labelIdx,
		d.Metadata.ScoreThreshold, bounds.Dx(), bounds.Dy())

	return NonMaxSuppress(candidates, float64(d.Metadata.NMSThreshold)), nil
}

// labelIndex finds the vocabulary index of a prompt (case-insensitive)
func (d *Detector) labelIndex(prompt string) int {
	p := strings.ToLower(strings.TrimSpace(prompt))
	for i, lbl := range d.Metadata.Labels {
		if strings.ToLower(lbl) == p {
			return i
		}
	}
	return -1
}

// Close releases the session and its tensors
func (d *Detector) Close() {
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
	}
	if d.session != nil {
		d.session.Destroy()
	}
}
