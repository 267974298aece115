package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Extractor derives audio tracks and sampled frames from fetched video
// using ffmpeg.
type Extractor struct {
	bin    string
	logger *logrus.Logger
}

func NewExtractor(ffmpegPath string) *Extractor {
	return &Extractor{
		bin:    ffmpegPath,
		logger: logrus.StandardLogger(),
	}
}

// ExtractAudio derives an mp3 audio track next to the video file.
func (e *Extractor) ExtractAudio(ctx context.Context, handle *Handle) (string, error) {
	audioPath := strings.TrimSuffix(handle.VideoPath, filepath.Ext(handle.VideoPath)) + ".mp3"

	args := []string{
		"-i", handle.VideoPath,
		"-vn",
		"-q:a", "2",
		"-y",
		audioPath,
	}

	if _, err := runCommand(ctx, e.logger, e.bin, args...); err != nil {
		return "", errors.Wrap(err, "audio extraction failed")
	}

	e.logger.WithFields(logrus.Fields{
		"video": handle.VideoPath,
		"audio": audioPath,
	}).Info("Extracted audio")

	return audioPath, nil
}

// SampleFrames extracts still images at the given cadence (frames per
// second of source video) into <dir>/frames. The returned paths follow
// video timeline order; downstream summarization depends on that order.
func (e *Extractor) SampleFrames(ctx context.Context, handle *Handle, perSecond float64) ([]string, error) {
	if perSecond <= 0 {
		perSecond = 1
	}

	framesDir := filepath.Join(handle.Dir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create frames directory")
	}

	args := []string{
		"-i", handle.VideoPath,
		"-vf", fmt.Sprintf("fps=%g", perSecond),
		"-q:v", "2",
		"-y",
		filepath.Join(framesDir, "frame_%05d.jpg"),
	}

	if _, err := runCommand(ctx, e.logger, e.bin, args...); err != nil {
		return nil, errors.Wrap(err, "frame extraction failed")
	}

	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read frames directory")
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		frames = append(frames, filepath.Join(framesDir, entry.Name()))
	}
	// frame_%05d names sort into timeline order
	sort.Strings(frames)

	e.logger.WithFields(logrus.Fields{
		"video":  handle.VideoPath,
		"frames": len(frames),
	}).Info("Sampled frames")

	return frames, nil
}
