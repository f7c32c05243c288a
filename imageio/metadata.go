package imageio

import (
	"fmt"

	"recolorlab/logging"

	exiftool "github.com/barasher/go-exiftool"
)

// Metadata holds the capture metadata extracted from an image file
type Metadata struct {
	CameraModel string
	CapturedAt  string
}

// ProbeMetadata extracts camera metadata from an image via exiftool.
// Best-effort: a missing exiftool binary or unreadable tags returns an
// empty Metadata rather than failing the image.
func ProbeMetadata(path string) Metadata {
	var meta Metadata

	et, err := exiftool.NewExiftool()
	if err != nil {
		logging.LogWarning("exiftool unavailable, skipping metadata for %s: %v", path, err)
		return meta
	}
	defer et.Close()

	fileInfos := et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return meta
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		logging.DebugLog("metadata extraction failed for %s: %v", path, fileInfo.Err)
		return meta
	}

	if model, err := fileInfo.GetString("Model"); err == nil {
		meta.CameraModel = model
	}
	for _, tag := range []string{"DateTimeOriginal", "CreateDate", "ModifyDate"} {
		if ts, err := fileInfo.GetString(tag); err == nil && ts != "" {
			meta.CapturedAt = ts
			break
		}
	}

	return meta
}

// String renders metadata for debug logging
func (m Metadata) String() string {
	return fmt.Sprintf("model=%q captured=%q", m.CameraModel, m.CapturedAt)
}
