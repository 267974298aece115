package summary

import (
	"strings"
	"testing"
)

func TestEstimateFrames(t *testing.T) {
	tests := []struct {
		frames int
		want   int
	}{
		{0, 1000},
		{1, 1280},
		{10, 3800},
		{60, 17800},
	}

	for _, tt := range tests {
		if got := EstimateFrames(tt.frames); got != tt.want {
			t.Errorf("EstimateFrames(%d) = %d, want %d", tt.frames, got, tt.want)
		}
	}
}

func TestEstimateTranscript(t *testing.T) {
	transcript := strings.Repeat("word ", 100)
	got := EstimateTranscript(transcript)
	want := len(transcriptPromptPrefix+transcript)/4 + maxResponseTokens
	if got != want {
		t.Errorf("EstimateTranscript = %d, want %d", got, want)
	}

	// Even an empty transcript carries the prompt and response budget.
	if empty := EstimateTranscript(""); empty <= maxResponseTokens {
		t.Errorf("EstimateTranscript(\"\") = %d, want > %d", empty, maxResponseTokens)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{strings.Repeat("x", 400), 100},
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
