package photos

import (
	"fmt"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
)

// exifTimeLayout is exiftool's native timestamp format.
const exifTimeLayout = "2006:01:02 15:04:05"

// ExifTool reads and writes photo metadata by driving a long-lived exiftool
// process. Close must be called when done.
type ExifTool struct {
	et *exiftool.Exiftool
}

// NewExifTool starts the exiftool helper. Print conversion is disabled so GPS
// coordinates come back as decimal numbers instead of degree strings.
func NewExifTool() (*ExifTool, error) {
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

// Close stops the exiftool helper.
func (t *ExifTool) Close() error {
	return t.et.Close()
}

// Read extracts GPS, capture time, and existing keywords from the photo.
func (t *ExifTool) Read(path string) (Metadata, error) {
	metas := t.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return Metadata{}, fmt.Errorf("no metadata for %s", path)
	}
	meta := metas[0]
	if meta.Err != nil {
		return Metadata{}, fmt.Errorf("extract metadata for %s: %w", path, meta.Err)
	}

	var result Metadata
	if lat, err := meta.GetFloat("GPSLatitude"); err == nil {
		ref, _ := meta.GetString("GPSLatitudeRef")
		value := applyRef(lat, ref)
		result.Latitude = &value
	}
	if lon, err := meta.GetFloat("GPSLongitude"); err == nil {
		ref, _ := meta.GetString("GPSLongitudeRef")
		value := applyRef(lon, ref)
		result.Longitude = &value
	}

	for _, field := range []string{"DateTimeOriginal", "CreateDate"} {
		raw, err := meta.GetString(field)
		if err != nil {
			continue
		}
		if captured, err := parseCaptureTime(raw); err == nil {
			result.CapturedAt = captured
			break
		}
	}

	if keywords, err := meta.GetStrings("Keywords"); err == nil {
		result.Keywords = keywords
	}
	return result, nil
}

// AddKeywords merges the given keywords into the photo's keyword list and
// writes the result back. Already-present keywords are not duplicated.
func (t *ExifTool) AddKeywords(path string, keywords []string) error {
	metas := t.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return fmt.Errorf("no metadata for %s", path)
	}
	meta := metas[0]
	if meta.Err != nil {
		return fmt.Errorf("extract metadata for %s: %w", path, meta.Err)
	}

	existing, _ := meta.GetStrings("Keywords")
	merged := mergeKeywords(existing, keywords)
	meta.SetStrings("Keywords", merged)

	batch := []exiftool.FileMetadata{meta}
	t.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		return fmt.Errorf("write keywords for %s: %w", path, batch[0].Err)
	}
	return nil
}

// applyRef signs a coordinate by its hemisphere reference. Values already
// signed (composite tags) pass through untouched.
func applyRef(value float64, ref string) float64 {
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		if value > 0 {
			return -value
		}
	}
	return value
}

func parseCaptureTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	// Some cameras append a timezone offset; take the bare timestamp.
	if len(raw) > len(exifTimeLayout) {
		raw = raw[:len(exifTimeLayout)]
	}
	return time.ParseInLocation(exifTimeLayout, raw, time.Local)
}

func mergeKeywords(existing, added []string) []string {
	merged := make([]string, 0, len(existing)+len(added))
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, keyword := range list {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			if _, ok := seen[keyword]; ok {
				continue
			}
			seen[keyword] = struct{}{}
			merged = append(merged, keyword)
		}
	}
	return merged
}
