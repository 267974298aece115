package summary

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Token estimation constants for vision runs.
const (
	TokensPerImage           = 280
	TokensPerSummaryPrompt   = 250
	TokensPerSummaryResponse = 750
)

// maxResponseTokens bounds chat completions and doubles as the response
// budget in transcript estimates.
const maxResponseTokens = 600

const framePrompt = `Describe the scene captured in this frame, focusing on key elements such as actions, objects, settings, and any text. Mention the main activity, characters, and mood, if discernible. Include text details: 'Visible Text: [text]'. Note any significant symbols or signs.
Guidelines: **250 character Max Response Length**, concise language, prioritize visual elements and text, if any.`

const transcriptPromptPrefix = "Construct a structured summary of the video based on the audio transcription:\n"

const framesSummaryPrompt = `Create a comprehensive summary of the video combining the provided image descriptions. Focus on the overarching story, key events, and important details:

1. **Summary:** Deliver a clear overview of the video's content, emphasizing major points, storyline, and critical details captured in the descriptions and transcription.

2. **Key Elements:** Identify and list main characters, significant events, and any pivotal moments or messages portrayed, integrating both audio and visual elements.

3. **Notable Visuals and Texts:** Highlight any significant visual symbols, texts, or elements that add to the understanding or narrative of the video.

Guidelines for Construction:
- Ensure the summary is informative and accessible, catering to a broad audience, including those who are deaf.
- Maintain clarity and succinctness, focusing on elements that contribute to a comprehensive understanding of the video's content.
- 500 tokens or 1500 characters max
Frame Descriptions: `

// Summarizer produces summaries and frame descriptions, reporting token
// usage for each call.
type Summarizer interface {
	SummarizeTranscript(ctx context.Context, transcript string) (string, int, error)
	SummarizeFrames(ctx context.Context, descriptions []string) (string, int, error)
	SummarizeCombined(ctx context.Context, transcript string, descriptions []string) (string, int, error)
	DescribeFrame(ctx context.Context, framePath string) (string, int, error)
}

// Service talks to an OpenAI-compatible chat API. Frame descriptions go
// through an internal rate limiter so sequential per-frame calls are paced
// apart instead of bursting.
type Service struct {
	client      *openai.Client
	chatModel   string
	visionModel string
	limiter     *rate.Limiter
	logger      *logrus.Logger
}

func NewService(client *openai.Client, chatModel, visionModel string, framePacing time.Duration) *Service {
	if framePacing <= 0 {
		framePacing = 200 * time.Millisecond
	}
	return &Service{
		client:      client,
		chatModel:   chatModel,
		visionModel: visionModel,
		limiter:     rate.NewLimiter(rate.Every(framePacing), 1),
		logger:      logrus.StandardLogger(),
	}
}

// SummarizeTranscript summarizes a transcript and returns the summary text
// plus total tokens consumed by the call.
func (s *Service) SummarizeTranscript(ctx context.Context, transcript string) (string, int, error) {
	return s.complete(ctx, transcriptPromptPrefix+transcript)
}

// SummarizeFrames aggregates per-frame descriptions into a final video
// summary.
func (s *Service) SummarizeFrames(ctx context.Context, descriptions []string) (string, int, error) {
	return s.complete(ctx, framesSummaryPrompt+strings.Join(descriptions, " "))
}

// SummarizeCombined produces one summary from both the audio transcript and
// the per-frame descriptions.
func (s *Service) SummarizeCombined(ctx context.Context, transcript string, descriptions []string) (string, int, error) {
	return s.complete(ctx, buildCombinedPrompt(transcript, descriptions))
}

// buildCombinedPrompt carries frame descriptions and the transcript in one
// prompt. The transcript may be song lyrics rather than narration; the model
// is told to disregard it in that case.
func buildCombinedPrompt(transcript string, descriptions []string) string {
	var b strings.Builder
	b.WriteString(framesSummaryPrompt)
	b.WriteString(strings.Join(descriptions, " "))
	b.WriteString("\nThe audio transcription might be lyrics, if they are disregard.\nAudio Transcription: ")
	b.WriteString(transcript)
	return b.String()
}

func (s *Service) complete(ctx context.Context, prompt string) (string, int, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxResponseTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", 0, errors.Wrap(err, "summary request failed")
	}
	if len(resp.Choices) == 0 {
		return "", 0, errors.New("summary response contained no choices")
	}

	tokens := resp.Usage.TotalTokens
	if tokens == 0 {
		tokens = EstimateTokens(prompt) + maxResponseTokens
	}
	return resp.Choices[0].Message.Content, tokens, nil
}

// DescribeFrame sends one frame image for description, waiting on the pacing
// limiter first. Callers iterate frames sequentially; the limiter spaces the
// calls apart.
func (s *Service) DescribeFrame(ctx context.Context, framePath string) (string, int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", 0, errors.Wrap(err, "frame description canceled")
	}

	data, err := os.ReadFile(framePath)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed to read frame")
	}
	dataURL := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(data))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: framePrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   70,
		Temperature: 0.5,
	})
	if err != nil {
		return "", 0, errors.Wrap(err, "frame description request failed")
	}
	if len(resp.Choices) == 0 {
		return "", 0, errors.New("frame description response contained no choices")
	}

	s.logger.WithFields(logrus.Fields{
		"frame":  framePath,
		"tokens": resp.Usage.TotalTokens,
	}).Debug("Frame described")

	return resp.Choices[0].Message.Content, resp.Usage.TotalTokens, nil
}

// EstimateFrames and EstimateTranscript on Service let callers depend on a
// single summarization interface for both live calls and dry-run estimates.
func (s *Service) EstimateFrames(n int) int { return EstimateFrames(n) }

func (s *Service) EstimateTranscript(transcript string) int { return EstimateTranscript(transcript) }

// EstimateTokens approximates token count as one token per four characters.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// EstimateFrames predicts total token usage for a vision run over n frames.
func EstimateFrames(n int) int {
	return n*TokensPerImage + TokensPerSummaryPrompt + TokensPerSummaryResponse
}

// EstimateTranscript predicts total token usage for summarizing a
// transcript: prompt tokens plus the maximum response size.
func EstimateTranscript(transcript string) int {
	return EstimateTokens(transcriptPromptPrefix+transcript) + maxResponseTokens
}
