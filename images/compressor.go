package images

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"mediaforge/archive"
)

// Quality names map to JPEG encoder quality values.
var qualityLevels = map[string]int{
	"high":     80,
	"medium":   75,
	"low":      60,
	"very low": 50,
}

const defaultQuality = "high"

var supportedFormats = []string{".jpg", ".jpeg", ".png"}

// QualityValue resolves a quality name, falling back to high for
// unrecognized names.
func QualityValue(name string) int {
	if q, ok := qualityLevels[strings.ToLower(name)]; ok {
		return q
	}
	return qualityLevels[defaultQuality]
}

// ValidQuality reports whether name is one of the accepted quality levels.
func ValidQuality(name string) bool {
	_, ok := qualityLevels[strings.ToLower(name)]
	return ok
}

// Compressor recompresses images to JPEG at a chosen quality. Files at or
// below the size threshold pass through unchanged.
type Compressor struct {
	quality       string
	sizeThreshold int64 // kilobytes
}

func NewCompressor(quality string, sizeThresholdKB int64) *Compressor {
	if !ValidQuality(quality) {
		quality = defaultQuality
	}
	if sizeThresholdKB <= 0 {
		sizeThresholdKB = 500
	}
	return &Compressor{quality: quality, sizeThreshold: sizeThresholdKB}
}

// ProcessFile compresses a single image if it exceeds the size threshold,
// writing the result next to the original. It returns the path to serve:
// the compressed copy for large files, the original otherwise.
func (c *Compressor) ProcessFile(path string) (string, error) {
	large, err := c.isLarge(path)
	if err != nil {
		return "", err
	}
	if !large {
		return path, nil
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	outPath := fmt.Sprintf("%s_optimize_%s.jpg", base, strings.ReplaceAll(c.quality, " ", "_"))
	if err := compressImage(path, outPath, QualityValue(c.quality)); err != nil {
		return "", err
	}
	return outPath, nil
}

// ProcessDir walks dir recursively, compressing every supported image that
// exceeds the threshold in place. It returns the paths that should end up in
// the output bundle, paired with their archive names relative to dir.
func (c *Compressor) ProcessDir(dir string) ([][2]string, error) {
	var out [][2]string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedImage(path) {
			return nil
		}

		processed, err := c.ProcessFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, processed)
		if err != nil {
			return err
		}
		out = append(out, [2]string{processed, filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to process image directory")
	}
	return out, nil
}

// ProcessBundle expands a zip of images, compresses the contents, and
// returns the processed paths with archive names. The extraction directory
// is the zip path minus its extension; callers clean it up after packaging.
func (c *Compressor) ProcessBundle(zipPath string) ([][2]string, string, error) {
	extractDir := strings.TrimSuffix(zipPath, filepath.Ext(zipPath))
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return nil, "", errors.Wrap(err, "failed to create extraction directory")
	}
	if err := archive.Extract(zipPath, extractDir); err != nil {
		return nil, "", err
	}

	processed, err := c.ProcessDir(extractDir)
	if err != nil {
		return nil, "", err
	}
	return processed, extractDir, nil
}

func (c *Compressor) isLarge(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Wrap(err, "failed to stat image")
	}
	return info.Size()/1024 > c.sizeThreshold, nil
}

func compressImage(inPath, outPath string, quality int) error {
	in, err := os.Open(inPath)
	if err != nil {
		return errors.Wrap(err, "failed to open image")
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return errors.Wrap(err, "failed to decode image")
	}

	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "failed to create compressed image")
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: quality}); err != nil {
		return errors.Wrap(err, "failed to encode image")
	}
	return nil
}

func isSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range supportedFormats {
		if ext == s {
			return true
		}
	}
	return false
}

// IsSupportedImage reports whether the filename looks like an image this
// package can compress.
func IsSupportedImage(name string) bool {
	return isSupportedImage(name)
}
