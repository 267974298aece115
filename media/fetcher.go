package media

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Handle references locally materialized media. All paths live under Dir,
// the run-scoped directory created for this fetch.
type Handle struct {
	Dir       string
	VideoPath string
	Title     string
	Slug      string
	Duration  float64
}

// Downloader retrieves remote media with yt-dlp. Each fetch gets its own
// subdirectory named <slug>-<uid> so concurrent runs never collide even
// when they target the same content.
type Downloader struct {
	bin    string
	logger *logrus.Logger
}

func NewDownloader(ytdlpPath string) *Downloader {
	return &Downloader{
		bin:    ytdlpPath,
		logger: logrus.StandardLogger(),
	}
}

type probeResult struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// Fetch downloads the media behind url into a fresh directory under
// destRoot and returns a Handle for it. It never retries.
func (d *Downloader) Fetch(ctx context.Context, url, destRoot string) (*Handle, error) {
	provider := Classify(url)
	if provider == ProviderUnsupported {
		return nil, errors.Errorf("unsupported source URL: %s", url)
	}

	info, err := d.probe(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to probe media")
	}

	title := info.Title
	if title == "" {
		if provider == ProviderInstagram {
			title = Shortcode(url)
		} else {
			title = info.ID
		}
	}

	slug := safeTitle(title)
	dir := filepath.Join(destRoot, slug+"-"+uuid.New().String()[:8])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create content directory")
	}

	args := []string{
		"--no-playlist",
		"-o", filepath.Join(dir, "%(title)s.%(ext)s"),
	}
	switch provider {
	case ProviderYouTube:
		args = append(args, "-f", "mp4")
	case ProviderInstagram:
		args = append(args, "--write-description", "--write-thumbnail")
	}
	args = append(args, url)

	if _, err := runCommand(ctx, d.logger, d.bin, args...); err != nil {
		return nil, errors.Wrap(err, "download failed")
	}

	videoPath, err := findVideoFile(dir)
	if err != nil {
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"url":   url,
		"dir":   dir,
		"video": videoPath,
	}).Info("Fetched media")

	return &Handle{
		Dir:       dir,
		VideoPath: videoPath,
		Title:     title,
		Slug:      slug,
		Duration:  info.Duration,
	}, nil
}

func (d *Downloader) probe(ctx context.Context, url string) (*probeResult, error) {
	output, err := runCommand(ctx, d.logger, d.bin,
		"--dump-single-json", "--skip-download", "--no-playlist", url)
	if err != nil {
		return nil, err
	}

	var info probeResult
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		return nil, errors.Wrap(err, "failed to parse media metadata")
	}
	return &info, nil
}

var videoExtensions = []string{".mp4", ".mkv", ".webm", ".mov"}

func findVideoFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to read content directory")
	}

	for _, ext := range videoExtensions {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
				return filepath.Join(dir, entry.Name()), nil
			}
		}
	}

	return "", errors.New("no video file found in downloaded content")
}

// safeTitle generates a filesystem-safe directory name.
func safeTitle(title string) string {
	var b strings.Builder
	for _, c := range title {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "content"
	}
	return slug
}
