package transcription

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Service transcribes audio through the Whisper API. A counting semaphore
// caps how many transcriptions run at once so a burst of long uploads cannot
// starve request handling.
type Service struct {
	client *openai.Client
	model  string
	sem    chan struct{}
	logger *logrus.Logger
}

func NewService(client *openai.Client, model string, workers int) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		client: client,
		model:  model,
		sem:    make(chan struct{}, workers),
		logger: logrus.StandardLogger(),
	}
}

// Transcribe sends the audio file for transcription and returns the full
// text. It blocks while all worker slots are busy; the context bounds both
// the wait and the API call.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (string, error) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "transcription canceled while queued")
	}

	s.logger.WithField("audio", audioPath).Info("Starting transcription")

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", errors.Wrap(err, "transcription request failed")
	}

	s.logger.WithFields(logrus.Fields{
		"audio": audioPath,
		"chars": len(resp.Text),
	}).Info("Transcription complete")

	return resp.Text, nil
}
