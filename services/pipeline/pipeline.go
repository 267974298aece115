package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "mediaforge/errors"
	"mediaforge/media"
	"mediaforge/models"
	"mediaforge/repository"
)

// Stage names the phases a run moves through. Every stage failure
// short-circuits the run; there are no retries.
type Stage string

const (
	StageReceived    Stage = "received"
	StageValidated   Stage = "validated"
	StageFetched     Stage = "fetched"
	StageExtracted   Stage = "extracted"
	StageExternalAPI Stage = "external_api"
	StagePackaged    Stage = "packaged"
	StageResponded   Stage = "responded"
	StageErrored     Stage = "errored"
)

// Fetcher materializes remote media into a local run directory.
type Fetcher interface {
	Fetch(ctx context.Context, url, destRoot string) (*media.Handle, error)
}

// Extractor derives audio and frames from fetched media.
type Extractor interface {
	ExtractAudio(ctx context.Context, handle *media.Handle) (string, error)
	SampleFrames(ctx context.Context, handle *media.Handle, perSecond float64) ([]string, error)
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Summarizer produces summaries and frame descriptions with token usage.
type Summarizer interface {
	SummarizeTranscript(ctx context.Context, transcript string) (string, int, error)
	SummarizeFrames(ctx context.Context, descriptions []string) (string, int, error)
	SummarizeCombined(ctx context.Context, transcript string, descriptions []string) (string, int, error)
	DescribeFrame(ctx context.Context, framePath string) (string, int, error)
}

// Packager bundles a run directory into an archive.
type Packager interface {
	Package(dir string) (string, error)
}

// PackagerFunc adapts a plain packaging function to the Packager interface.
type PackagerFunc func(dir string) (string, error)

func (f PackagerFunc) Package(dir string) (string, error) { return f(dir) }

// EstimateFrames and EstimateTranscript predict token usage without touching
// the provider, so dry runs stay free.
type Estimator interface {
	EstimateFrames(n int) int
	EstimateTranscript(transcript string) int
}

// Config carries the orchestrator's tunables.
type Config struct {
	ProcessedRoot   string
	FramesPerSecond float64
	FetchTimeout    time.Duration
}

// Orchestrator composes the capabilities into the named operations. Each run
// owns one directory under the processed root; zip-producing operations
// return the archive path inside it.
type Orchestrator struct {
	fetcher     Fetcher
	extractor   Extractor
	transcriber Transcriber
	summarizer  Summarizer
	packager    Packager
	estimator   Estimator
	repo        repository.UserRepository
	config      Config
	logger      *logrus.Logger
}

func NewOrchestrator(
	fetcher Fetcher,
	extractor Extractor,
	transcriber Transcriber,
	summarizer Summarizer,
	packager Packager,
	estimator Estimator,
	repo repository.UserRepository,
	config Config,
) *Orchestrator {
	if config.FramesPerSecond <= 0 {
		config.FramesPerSecond = 1
	}
	return &Orchestrator{
		fetcher:     fetcher,
		extractor:   extractor,
		transcriber: transcriber,
		summarizer:  summarizer,
		packager:    packager,
		estimator:   estimator,
		repo:        repo,
		config:      config,
		logger:      logrus.StandardLogger(),
	}
}

// TranscriptResult is returned by Transcribe and AudioSummary.
type TranscriptResult struct {
	Transcript  string `json:"transcript"`
	TokenCount  int    `json:"token_count"`
	Summary     string `json:"summary"`
	ArchivePath string `json:"-"`
}

// VideoResult is returned by VideoSummary. TokensUsed is zero for dry runs.
type VideoResult struct {
	EstimatedTokens   int      `json:"estimated_total_token_usage"`
	FrameDescriptions []string `json:"frame_descriptions,omitempty"`
	Summary           string   `json:"video_summary,omitempty"`
	TokensUsed        int      `json:"open_ai_token_counter"`
}

// AnalysisResult is returned by Analyze: the combined transcript-and-frames
// summary plus the packaged run directory.
type AnalysisResult struct {
	Summary           string   `json:"summary"`
	Transcript        string   `json:"transcript"`
	FrameDescriptions []string `json:"frame_descriptions"`
	TokensUsed        int      `json:"open_ai_token_counter"`
	ArchivePath       string   `json:"-"`
}

func (o *Orchestrator) fetch(ctx context.Context, url string) (*media.Handle, error) {
	const op = "pipeline.fetch"

	if media.Classify(url) == media.ProviderUnsupported {
		return nil, apperrors.UnsupportedSource(op, "Unsupported URL type provided")
	}
	o.logStage(url, StageValidated)

	if o.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.FetchTimeout)
		defer cancel()
	}

	handle, err := o.fetcher.Fetch(ctx, url, o.config.ProcessedRoot)
	if err != nil {
		return nil, o.failStage(url, apperrors.Fetch(op, err, "Failed to download media"))
	}
	o.logStage(url, StageFetched)
	return handle, nil
}

func (o *Orchestrator) pack(handle *media.Handle) (string, error) {
	zipPath, err := o.packager.Package(handle.Dir)
	if err != nil {
		return "", o.failStage(handle.Dir, apperrors.Packaging("pipeline.pack", err, "Failed to package content"))
	}
	o.logStage(handle.Dir, StagePackaged)
	return zipPath, nil
}

func (o *Orchestrator) logStage(subject string, stage Stage) {
	o.logger.WithFields(logrus.Fields{
		"subject": subject,
		"stage":   stage,
	}).Debug("Run stage")
}

// failStage records the absorbing errored state and hands the error back, so
// every failure path logs the same way.
func (o *Orchestrator) failStage(subject string, err error) error {
	o.logStage(subject, StageErrored)
	return err
}

// Download fetches the media and returns a zip of the run directory.
func (o *Orchestrator) Download(ctx context.Context, url string) (string, error) {
	handle, err := o.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return o.pack(handle)
}

// ExtractAudio fetches the media, derives the audio track, and returns a zip
// holding both.
func (o *Orchestrator) ExtractAudio(ctx context.Context, url string) (string, error) {
	handle, err := o.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if _, err := o.extractor.ExtractAudio(ctx, handle); err != nil {
		return "", o.failStage(handle.Dir, apperrors.Extraction("pipeline.ExtractAudio", err, "Failed to extract audio"))
	}

	return o.pack(handle)
}

// Transcribe fetches, extracts audio, transcribes it, writes the transcript
// into the run directory, and packages everything. The transcript and its
// token estimate come back alongside the archive path.
func (o *Orchestrator) Transcribe(ctx context.Context, url string) (*TranscriptResult, error) {
	const op = "pipeline.Transcribe"

	handle, err := o.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	transcript, err := o.transcribeAudio(ctx, op, handle)
	if err != nil {
		return nil, err
	}

	if err := o.writeTranscript(handle, transcript); err != nil {
		return nil, o.failStage(handle.Dir, apperrors.Internal(op, err, "Failed to store transcript"))
	}

	zipPath, err := o.pack(handle)
	if err != nil {
		return nil, err
	}

	return &TranscriptResult{
		Transcript:  transcript,
		TokenCount:  o.estimator.EstimateTranscript(transcript),
		ArchivePath: zipPath,
	}, nil
}

// AudioSummary transcribes the media and reports the token cost of
// summarizing it. With confirm set it also runs the summarization; a dry run
// stops at the estimate. Transcription itself always runs, so the counter
// advances either way.
func (o *Orchestrator) AudioSummary(ctx context.Context, principal models.Principal, url string, confirm bool) (*TranscriptResult, error) {
	const op = "pipeline.AudioSummary"

	handle, err := o.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	transcript, err := o.transcribeAudio(ctx, op, handle)
	if err != nil {
		return nil, err
	}

	result := &TranscriptResult{
		Transcript: transcript,
		TokenCount: o.estimator.EstimateTranscript(transcript),
	}

	if confirm {
		summaryText, _, err := o.summarizer.SummarizeTranscript(ctx, transcript)
		if err != nil {
			return nil, o.failStage(handle.Dir, apperrors.Summarization(op, err, "Failed to summarize the text"))
		}
		result.Summary = summaryText
	}

	o.bumpCounter(ctx, principal)

	return result, nil
}

// VideoSummary samples frames and reports the estimated token cost of
// describing them. With confirm set it describes every frame in timeline
// order and produces the final summary; without it the run performs no
// provider calls at all. The estimate and the confirmed pass use the same
// frame set.
func (o *Orchestrator) VideoSummary(ctx context.Context, principal models.Principal, url string, confirm bool) (*VideoResult, error) {
	const op = "pipeline.VideoSummary"

	handle, err := o.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	frames, err := o.sampleFrames(ctx, op, handle)
	if err != nil {
		return nil, err
	}

	result := &VideoResult{
		EstimatedTokens: o.estimator.EstimateFrames(len(frames)),
	}

	if !confirm {
		return result, nil
	}

	descriptions, tokensUsed, err := o.describeFrames(ctx, op, handle, frames)
	if err != nil {
		return nil, err
	}

	summaryText, summaryTokens, err := o.summarizer.SummarizeFrames(ctx, descriptions)
	if err != nil {
		return nil, o.failStage(handle.Dir, apperrors.Summarization(op, err, "Failed to summarize the video"))
	}
	tokensUsed += summaryTokens

	o.writeSummary(handle, url, summaryText)

	result.FrameDescriptions = descriptions
	result.Summary = summaryText
	result.TokensUsed = tokensUsed

	o.bumpCounter(ctx, principal)

	return result, nil
}

// Analyze runs the full combined analysis: transcript and frame
// descriptions both feed one summary, and the whole run directory comes back
// as an archive. Unlike the summary operations there is no dry-run form; the
// caller has already committed to the provider cost.
func (o *Orchestrator) Analyze(ctx context.Context, principal models.Principal, url string) (*AnalysisResult, error) {
	const op = "pipeline.Analyze"

	handle, err := o.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	transcript, err := o.transcribeAudio(ctx, op, handle)
	if err != nil {
		return nil, err
	}
	if err := o.writeTranscript(handle, transcript); err != nil {
		return nil, o.failStage(handle.Dir, apperrors.Internal(op, err, "Failed to store transcript"))
	}

	frames, err := o.sampleFrames(ctx, op, handle)
	if err != nil {
		return nil, err
	}

	descriptions, tokensUsed, err := o.describeFrames(ctx, op, handle, frames)
	if err != nil {
		return nil, err
	}

	summaryText, summaryTokens, err := o.summarizer.SummarizeCombined(ctx, transcript, descriptions)
	if err != nil {
		return nil, o.failStage(handle.Dir, apperrors.Summarization(op, err, "Failed to summarize the content"))
	}
	tokensUsed += summaryTokens

	o.writeSummary(handle, url, summaryText)

	zipPath, err := o.pack(handle)
	if err != nil {
		return nil, err
	}

	o.bumpCounter(ctx, principal)

	return &AnalysisResult{
		Summary:           summaryText,
		Transcript:        transcript,
		FrameDescriptions: descriptions,
		TokensUsed:        tokensUsed,
		ArchivePath:       zipPath,
	}, nil
}

func (o *Orchestrator) transcribeAudio(ctx context.Context, op string, handle *media.Handle) (string, error) {
	audioPath, err := o.extractor.ExtractAudio(ctx, handle)
	if err != nil {
		return "", o.failStage(handle.Dir, apperrors.Extraction(op, err, "Failed to extract audio"))
	}
	o.logStage(handle.Dir, StageExtracted)

	transcript, err := o.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", o.failStage(handle.Dir, apperrors.Transcription(op, err, "Failed to transcribe audio"))
	}
	o.logStage(handle.Dir, StageExternalAPI)

	return transcript, nil
}

func (o *Orchestrator) sampleFrames(ctx context.Context, op string, handle *media.Handle) ([]string, error) {
	frames, err := o.extractor.SampleFrames(ctx, handle, o.config.FramesPerSecond)
	if err != nil {
		return nil, o.failStage(handle.Dir, apperrors.Extraction(op, err, "Failed to extract frames"))
	}
	o.logStage(handle.Dir, StageExtracted)
	return frames, nil
}

func (o *Orchestrator) describeFrames(ctx context.Context, op string, handle *media.Handle, frames []string) ([]string, int, error) {
	descriptions := make([]string, 0, len(frames))
	tokensUsed := 0
	for _, frame := range frames {
		description, tokens, err := o.summarizer.DescribeFrame(ctx, frame)
		if err != nil {
			return nil, 0, o.failStage(handle.Dir, apperrors.Summarization(op, err, "Failed to describe video frames"))
		}
		descriptions = append(descriptions, description)
		tokensUsed += tokens
	}
	o.logStage(handle.Dir, StageExternalAPI)
	return descriptions, tokensUsed, nil
}

func (o *Orchestrator) writeTranscript(handle *media.Handle, transcript string) error {
	transcriptPath := filepath.Join(handle.Dir, handle.Slug+"_transcription.txt")
	return os.WriteFile(transcriptPath, []byte(transcript), 0644)
}

// writeSummary stores the summary in the run directory. Failures are logged
// only; the caller still has the text to return.
func (o *Orchestrator) writeSummary(handle *media.Handle, url, summaryText string) {
	summaryPath := filepath.Join(handle.Dir, "final_summary.txt")
	if err := os.WriteFile(summaryPath, []byte("URL: "+url+"\n\n"+summaryText), 0644); err != nil {
		o.logger.WithError(err).Warn("Failed to store summary file")
	}
}

// bumpCounter advances the user's API-usage counter after a provider call.
// Counter failures never fail the run.
func (o *Orchestrator) bumpCounter(ctx context.Context, principal models.Principal) {
	if principal.ID == 0 {
		return
	}
	if err := o.repo.IncrementAPICounter(ctx, principal.ID); err != nil {
		o.logger.WithError(err).WithField("username", principal.Username).Warn("Failed to increment API counter")
	}
}
