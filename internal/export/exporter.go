package export

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"naturatag/internal/config"
	"naturatag/internal/logging"
)

// UploadFileName is the fixed name of the temp JPEG sent to the API.
const UploadFileName = "naturatag_upload.jpg"

const lockFileName = "naturatag_export.lock"

// Exporter writes downscaled JPEG copies of source photos into the temp
// directory. A file lock serializes exports across processes sharing the
// same temp directory.
type Exporter struct {
	tempDir  string
	longEdge int
	quality  int
	lock     *flock.Flock
	logger   *slog.Logger
}

// NewExporter builds an Exporter from configuration.
func NewExporter(cfg *config.Config, logger *slog.Logger) *Exporter {
	return &Exporter{
		tempDir:  cfg.Paths.TempDir,
		longEdge: cfg.Export.LongEdge,
		quality:  cfg.Export.Quality,
		lock:     flock.New(filepath.Join(cfg.Paths.TempDir, lockFileName)),
		logger:   logging.WithComponent(logger, "export"),
	}
}

// Export renders sourcePath into the upload slot and returns the path of the
// written JPEG. Stale JPEGs in the temp directory are removed first.
func (e *Exporter) Export(ctx context.Context, sourcePath string) (string, error) {
	if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure temp directory: %w", err)
	}

	locked, err := e.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("acquire export lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("export lock held by another process")
	}
	defer e.lock.Unlock()

	if err := e.clearStale(); err != nil {
		return "", err
	}

	img, err := decodeImage(sourcePath)
	if err != nil {
		return "", err
	}
	scaled := scaleToLongEdge(img, e.longEdge)

	target := filepath.Join(e.tempDir, UploadFileName)
	partial := target + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if err := jpeg.Encode(out, scaled, &jpeg.Options{Quality: e.quality}); err != nil {
		out.Close()
		os.Remove(partial)
		return "", fmt.Errorf("encode upload jpeg: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("finalize upload file: %w", err)
	}

	bounds := scaled.Bounds()
	e.logger.Debug("exported photo",
		logging.String(logging.FieldPhoto, filepath.Base(sourcePath)),
		logging.Int("width", bounds.Dx()),
		logging.Int("height", bounds.Dy()),
	)
	return target, nil
}

// Cleanup removes the upload slot after a run completes.
func (e *Exporter) Cleanup() error {
	err := os.Remove(filepath.Join(e.tempDir, UploadFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

func (e *Exporter) clearStale() error {
	entries, err := os.ReadDir(e.tempDir)
	if err != nil {
		return fmt.Errorf("scan temp directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg":
			if err := os.Remove(filepath.Join(e.tempDir, entry.Name())); err != nil {
				return fmt.Errorf("remove stale export %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source photo: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode source photo: %w", err)
	}
	return img, nil
}

// scaleToLongEdge resizes so the longer side equals longEdge, preserving
// aspect ratio. Photos already at or below the target are returned unscaled;
// the API does not reward upsampling.
func scaleToLongEdge(img image.Image, longEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= longEdge {
		return img
	}

	scale := float64(longEdge) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0,
		int(float64(width)*scale+0.5),
		int(float64(height)*scale+0.5),
	))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
