// Package segment produces subject masks from a detection box using a
// SAM-style ONNX encoder/decoder pair, with morphological cleanup and a
// guarded GrabCut refinement pass.
package segment

import (
	"fmt"
	"image"
	"sync"

	"recolorlab/detect"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// SAM prompt point labels for box corners
const (
	labelBoxTopLeft  = 2.0
	labelBoxBotRight = 3.0
)

// Encoder/decoder tensor geometry for the exported SAM checkpoint
const (
	encoderInputSize = 1024
	embeddingDim     = 256
	embeddingSide    = 64
	decoderMaskSide  = 256
)

// Engine wraps the SAM encoder and decoder ONNX sessions
type Engine struct {
	encoder *ort.AdvancedSession
	decoder *ort.AdvancedSession

	encInput  *ort.Tensor[float32]
	embedding *ort.Tensor[float32]

	decEmbedding *ort.Tensor[float32]
	decCoords    *ort.Tensor[float32]
	decLabels    *ort.Tensor[float32]
	decMask      *ort.Tensor[float32]
	decScore     *ort.Tensor[float32]

	mu sync.Mutex
}

// NewEngine loads the SAM encoder and decoder checkpoints
func NewEngine(encoderPath, decoderPath string) (*Engine, error) {
	if err := detect.EnsureEnvironment(); err != nil {
		return nil, err
	}

	e := &Engine{}
	var err error

	e.encInput, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, encoderInputSize, encoderInputSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder input tensor: %w", err)
	}
	e.embedding, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, embeddingDim, embeddingSide, embeddingSide))
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create embedding tensor: %w", err)
	}

	e.encoder, err = ort.NewAdvancedSession(encoderPath,
		[]string{"image"}, []string{"image_embeddings"},
		[]ort.ArbitraryTensor{e.encInput}, []ort.ArbitraryTensor{e.embedding},
		nil)
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create encoder session: %w", err)
	}

	e.decEmbedding, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, embeddingDim, embeddingSide, embeddingSide))
	if err == nil {
		e.decCoords, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 2, 2))
	}
	if err == nil {
		e.decLabels, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	}
	if err == nil {
		e.decMask, err = ort.NewEmptyTensor[float32](
			ort.NewShape(1, 1, decoderMaskSide, decoderMaskSide))
	}
	if err == nil {
		e.decScore, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	}
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create decoder tensors: %w", err)
	}

	e.decoder, err = ort.NewAdvancedSession(decoderPath,
		[]string{"image_embeddings", "point_coords", "point_labels"},
		[]string{"masks", "iou_predictions"},
		[]ort.ArbitraryTensor{e.decEmbedding, e.decCoords, e.decLabels},
		[]ort.ArbitraryTensor{e.decMask, e.decScore},
		nil)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create decoder session: %w", err)
	}

	return e, nil
}

// DecodeBoxMask encodes the image and decodes a mask for the given
// detection box. Returns an image-sized binary mask (0/255, CV8UC1) and
// the decoder's mask quality score.
func (e *Engine) DecodeBoxMask(img image.Image, box image.Rectangle, params Params) (gocv.Mat, float32, error) {
	inputData, err := detect.Preprocess(img, encoderInputSize, encoderInputSize)
	if err != nil {
		return gocv.NewMat(), 0, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scaleX := float32(encoderInputSize) / float32(w)
	scaleY := float32(encoderInputSize) / float32(h)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.encInput.GetData(), inputData)
	if err := e.encoder.Run(); err != nil {
		return gocv.NewMat(), 0, fmt.Errorf("SAM encoder failed: %w", err)
	}

	copy(e.decEmbedding.GetData(), e.embedding.GetData())

	// Box corners as labeled prompt points, in encoder input coordinates
	coords := e.decCoords.GetData()
	coords[0] = float32(box.Min.X) * scaleX
	coords[1] = float32(box.Min.Y) * scaleY
	coords[2] = float32(box.Max.X) * scaleX
	coords[3] = float32(box.Max.Y) * scaleY

	labels := e.decLabels.GetData()
	labels[0] = labelBoxTopLeft
	labels[1] = labelBoxBotRight

	if err := e.decoder.Run(); err != nil {
		return gocv.NewMat(), 0, fmt.Errorf("SAM decoder failed: %w", err)
	}

	score := e.decScore.GetData()[0]
	mask := logitsToMask(e.decMask.GetData(), params.MaskThreshold, w, h)
	return mask, score, nil
}

// logitsToMask thresholds the low-resolution decoder logits and upscales
// the result to the original image size as a 0/255 binary mask.
func logitsToMask(logits []float32, threshold float32, width, height int) gocv.Mat {
	low := gocv.NewMatWithSize(decoderMaskSide, decoderMaskSide, gocv.MatTypeCV8UC1)
	for y := 0; y < decoderMaskSide; y++ {
		for x := 0; x < decoderMaskSide; x++ {
			if logits[y*decoderMaskSide+x] > threshold {
				low.SetUCharAt(y, x, 255)
			}
		}
	}
	defer low.Close()

	full := gocv.NewMat()
	gocv.Resize(low, &full, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationNearestNeighbor)
	return full
}

func (e *Engine) destroyTensors() {
	for _, t := range []*ort.Tensor[float32]{
		e.encInput, e.embedding,
		e.decEmbedding, e.decCoords, e.decLabels, e.decMask, e.decScore,
	} {
		if t != nil {
			t.Destroy()
		}
	}
}

// Close releases both sessions and their tensors
func (e *Engine) Close() {
	if e.encoder != nil {
		e.encoder.Destroy()
	}
	if e.decoder != nil {
		e.decoder.Destroy()
	}
	e.destroyTensors()
}
