package detect

import (
	"image"
	"sort"
)

// detectionRowLen is the width of one detector output row:
// [cx, cy, w, h, score, label]
const detectionRowLen = 6

// Box is a detection result in original image coordinates
type Box struct {
	Rect  image.Rectangle
	Score float32
	Label int
}

// DecodeBoxes converts the flat detector output into candidate boxes.
// Each row of the output is [cx, cy, w, h, score, label] with box
// coordinates normalized to [0,1] relative to the model input.
func DecodeBoxes(raw []float32, numRows, labelIdx int, scoreThreshold float32, imgW, imgH int) []Box {
	var boxes []Box
	for i := 0; i < numRows; i++ {
		row := raw[i*detectionRowLen : i*detectionRowLen+detectionRowLen]
		score := row[4]
		label := int(row[5] + 0.5)

		if label != labelIdx || score < scoreThreshold {
			continue
		}

		cx, cy, w, h := float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])
		x1 := (cx - w/2) * float64(imgW)
		y1 := (cy - h/2) * float64(imgH)
		x2 := (cx + w/2) * float64(imgW)
		y2 := (cy + h/2) * float64(imgH)

		rect := image.Rect(int(x1+0.5), int(y1+0.5), int(x2+0.5), int(y2+0.5))
		rect = rect.Intersect(image.Rect(0, 0, imgW, imgH))
		if rect.Empty() {
			continue
		}

		boxes = append(boxes, Box{Rect: rect, Score: score, Label: label})
	}
	return boxes
}

// NonMaxSuppress removes overlapping boxes, keeping the highest scoring one
// from each overlapping group.
func NonMaxSuppress(boxes []Box, iouThreshold float64) []Box {
	if len(boxes) <= 1 {
		return boxes
	}

	sorted := make([]Box, len(boxes))
	copy(sorted, boxes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	var kept []Box
	for _, b := range sorted {
		suppressed := false
		for _, k := range kept {
			if IoU(b.Rect, k.Rect) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, b)
		}
	}
	return kept
}

// BestBox returns the highest scoring box, or false if none exist
func BestBox(boxes []Box) (Box, bool) {
	if len(boxes) == 0 {
		return Box{}, false
	}
	best := boxes[0]
	for _, b := range boxes[1:] {
		if b.Score > best.Score {
			best = b
		}
	}
	return best, true
}

// IoU computes intersection-over-union of two rectangles
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
