// Package summary enriches lead hand-offs with a short model-generated
// summary when the calling platform supplied none.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You summarize sales call transcripts. Reply with 2-3 plain sentences " +
	"covering who called, what they need, and any next step agreed. No preamble, no markdown."

// maxTranscriptChars bounds what we send per request.
const maxTranscriptChars = 24000

// Summarizer generates call summaries with the OpenAI chat API.
type Summarizer struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// New builds a Summarizer. An empty API key yields nil, which the dispatcher
// treats as summarization unavailable.
func New(apiKey, model string, log zerolog.Logger) *Summarizer {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Summarizer{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.With().Str("component", "summary").Logger(),
	}
}

// Summarize produces a short summary of the transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", fmt.Errorf("empty transcript")
	}
	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.log.Debug().Int("transcriptChars", len(transcript)).Int("summaryChars", len(out)).Msg("generated summary")
	return out, nil
}
