package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mediaforge/activity"
	"mediaforge/archive"
	"mediaforge/errors"
	"mediaforge/images"
	"mediaforge/models"
	"mediaforge/services/pipeline"
	"mediaforge/services/summary"
)

// ArchiveStore copies produced archives to durable storage. Uploads are
// best-effort; responses never wait on them.
type ArchiveStore interface {
	UploadArchive(ctx context.Context, username, archivePath string) (string, error)
}

type ToolsHandler struct {
	pipeline     *pipeline.Orchestrator
	recorder     *activity.Recorder
	store        ArchiveStore
	processedDir string
	tempDir      string
}

// NewToolsHandler builds the tools handler. store may be nil when archive
// uploads are disabled.
func NewToolsHandler(p *pipeline.Orchestrator, recorder *activity.Recorder, store ArchiveStore, processedDir, tempDir string) *ToolsHandler {
	return &ToolsHandler{
		pipeline:     p,
		recorder:     recorder,
		store:        store,
		processedDir: processedDir,
		tempDir:      tempDir,
	}
}

func (h *ToolsHandler) uploadArchive(username, archivePath string) {
	if h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if key, err := h.store.UploadArchive(ctx, username, archivePath); err != nil {
			logrus.WithError(err).WithField("archive", archivePath).Warn("Archive upload failed")
		} else {
			logrus.WithField("key", key).Debug("Archive uploaded")
		}
	}()
}

type sourceRequest struct {
	URL     string `json:"url" form:"url"`
	Confirm bool   `json:"confirm" form:"confirm"`
}

func (h *ToolsHandler) parseSource(c *fiber.Ctx, op string) (*sourceRequest, models.Principal, error) {
	principal, ok := principalFromCtx(c)
	if !ok {
		return nil, models.Principal{}, errors.Unauthorized(op, nil)
	}

	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, models.Principal{}, errors.InvalidInput(op, err, "Invalid request body")
	}
	if req.URL == "" {
		return nil, models.Principal{}, errors.InvalidInput(op, nil, "URL is required")
	}

	return &req, principal, nil
}

// Download fetches media and returns it as a zip.
func (h *ToolsHandler) Download(c *fiber.Ctx) error {
	req, principal, err := h.parseSource(c, "ToolsHandler.Download")
	if err != nil {
		return err
	}

	zipPath, err := h.pipeline.Download(c.Context(), req.URL)
	if err != nil {
		return err
	}

	h.recorder.Record(principal.Username, "downloaded media from "+req.URL, c.IP())
	h.uploadArchive(principal.Username, zipPath)

	return c.Download(zipPath)
}

// ExtractAudio fetches media, derives the audio track, and returns a zip.
func (h *ToolsHandler) ExtractAudio(c *fiber.Ctx) error {
	req, principal, err := h.parseSource(c, "ToolsHandler.ExtractAudio")
	if err != nil {
		return err
	}

	zipPath, err := h.pipeline.ExtractAudio(c.Context(), req.URL)
	if err != nil {
		return err
	}

	h.recorder.Record(principal.Username, "extracted audio from "+req.URL, c.IP())
	h.uploadArchive(principal.Username, zipPath)

	return c.Download(zipPath)
}

// Transcribe fetches media, transcribes its audio, and returns a zip
// containing video, audio, and transcript.
func (h *ToolsHandler) Transcribe(c *fiber.Ctx) error {
	req, principal, err := h.parseSource(c, "ToolsHandler.Transcribe")
	if err != nil {
		return err
	}

	result, err := h.pipeline.Transcribe(c.Context(), req.URL)
	if err != nil {
		return err
	}

	h.recorder.Record(principal.Username, "transcribed media from "+req.URL, c.IP())
	h.uploadArchive(principal.Username, result.ArchivePath)

	return c.Download(result.ArchivePath)
}

// AudioSummary transcribes media and reports the summarization cost; with
// confirm it also returns the summary.
func (h *ToolsHandler) AudioSummary(c *fiber.Ctx) error {
	req, principal, err := h.parseSource(c, "ToolsHandler.AudioSummary")
	if err != nil {
		return err
	}

	result, err := h.pipeline.AudioSummary(c.Context(), principal, req.URL, req.Confirm)
	if err != nil {
		return err
	}

	h.recorder.Record(principal.Username, "summarized audio from "+req.URL, c.IP())

	return c.JSON(result)
}

// VideoSummary estimates the token cost of a vision analysis; with confirm
// it describes each frame and returns the final summary.
func (h *ToolsHandler) VideoSummary(c *fiber.Ctx) error {
	req, principal, err := h.parseSource(c, "ToolsHandler.VideoSummary")
	if err != nil {
		return err
	}

	result, err := h.pipeline.VideoSummary(c.Context(), principal, req.URL, req.Confirm)
	if err != nil {
		return err
	}

	h.recorder.Record(principal.Username, "summarized video from "+req.URL, c.IP())

	return c.JSON(result)
}

// Analyze runs the full combined analysis of a clip: transcript plus frame
// descriptions feeding one summary.
func (h *ToolsHandler) Analyze(c *fiber.Ctx) error {
	req, principal, err := h.parseSource(c, "ToolsHandler.Analyze")
	if err != nil {
		return err
	}

	result, err := h.pipeline.Analyze(c.Context(), principal, req.URL)
	if err != nil {
		return err
	}

	h.recorder.Record(principal.Username, "analyzed media from "+req.URL, c.IP())
	h.uploadArchive(principal.Username, result.ArchivePath)

	return c.JSON(result)
}

type tokenCountRequest struct {
	Text      string `json:"text"`
	ModelName string `json:"model_name"`
}

// CalculateTokens estimates the token count of arbitrary text.
func (h *ToolsHandler) CalculateTokens(c *fiber.Ctx) error {
	const op = "ToolsHandler.CalculateTokens"

	var req tokenCountRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput(op, err, "Invalid request body")
	}
	if req.Text == "" {
		return errors.InvalidInput(op, nil, "Text must be provided")
	}
	if req.ModelName == "" {
		req.ModelName = "gpt-4"
	}

	return c.JSON(fiber.Map{
		"model_name":  req.ModelName,
		"token_count": summary.EstimateTokens(req.Text),
	})
}

// CompressImages recompresses uploaded images (and zip bundles of images)
// and returns them as one zip.
func (h *ToolsHandler) CompressImages(c *fiber.Ctx) error {
	const op = "ToolsHandler.CompressImages"

	principal, ok := principalFromCtx(c)
	if !ok {
		return errors.Unauthorized(op, nil)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid multipart form")
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return errors.InvalidInput(op, nil, "At least one file is required")
	}

	quality := c.FormValue("quality", "high")
	if !images.ValidQuality(quality) {
		return errors.InvalidInput(op, nil, "Unknown quality level")
	}
	threshold, _ := strconv.ParseInt(c.FormValue("size_threshold", "500"), 10, 64)

	compressor := images.NewCompressor(quality, threshold)

	runToken := uuid.New().String()[:8]
	workDir := filepath.Join(h.tempDir, "compress-"+runToken)
	outDir := filepath.Join(workDir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Internal(op, err, "Failed to prepare working directory")
	}
	defer os.RemoveAll(workDir)

	for _, upload := range uploads {
		if err := h.compressUpload(compressor, upload, workDir, outDir); err != nil {
			return err
		}
	}

	zipPath, err := archive.Package(outDir)
	if err != nil {
		return errors.Packaging(op, err, "Failed to package compressed images")
	}
	finalPath := filepath.Join(h.processedDir, compressArchiveName(principal.Username, runToken))
	if err := os.Rename(zipPath, finalPath); err != nil {
		return errors.Internal(op, err, "Failed to store compressed archive")
	}

	h.recorder.Record(principal.Username, "compressed images with "+quality+" quality", c.IP())

	return c.Download(finalPath)
}

// compressArchiveName scopes the final archive to one run, so concurrent
// requests from the same user never collide in the processed directory.
func compressArchiveName(username, runToken string) string {
	return fmt.Sprintf("%s_compressed_images_%s.zip", username, runToken)
}

func (h *ToolsHandler) compressUpload(compressor *images.Compressor, upload *multipart.FileHeader, workDir, outDir string) error {
	const op = "ToolsHandler.CompressImages"

	name := filepath.Base(upload.Filename)
	tempPath := filepath.Join(workDir, name)
	if err := saveUpload(upload, tempPath); err != nil {
		return errors.Internal(op, err, "Failed to store upload")
	}

	switch {
	case strings.EqualFold(filepath.Ext(name), ".zip"):
		processed, extractDir, err := compressor.ProcessBundle(tempPath)
		if err != nil {
			return errors.InvalidInput(op, err, "Failed to process image bundle")
		}
		defer os.RemoveAll(extractDir)
		for _, entry := range processed {
			target := filepath.Join(outDir, filepath.FromSlash(entry[1]))
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Internal(op, err, "Failed to collect processed image")
			}
			if err := os.Rename(entry[0], target); err != nil {
				return errors.Internal(op, err, "Failed to collect processed image")
			}
		}
	case images.IsSupportedImage(name):
		processed, err := compressor.ProcessFile(tempPath)
		if err != nil {
			return errors.InvalidInput(op, err, "Failed to compress image")
		}
		if err := os.Rename(processed, filepath.Join(outDir, filepath.Base(processed))); err != nil {
			return errors.Internal(op, err, "Failed to collect processed image")
		}
	}
	return nil
}

func saveUpload(upload *multipart.FileHeader, dest string) error {
	src, err := upload.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
