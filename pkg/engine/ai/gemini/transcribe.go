package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/engine/voice"
)

const transcribePrompt = `Transcribe the spoken audio. Respond with JSON only, no markdown fences:
{"transcript": "...", "duration": <seconds>, "words": [{"word": "...", "start": <seconds>, "end": <seconds>, "confidence": <0..1>}]}
Word timings must be monotonically increasing and cover the full transcript in order.`

// Transcriber implements voice.Transcriber over the same Gemini credential.
// The model both transcribes and emits word-level timings; malformed timing
// data degrades to an empty word list, which the analyzer treats as
// metrics-unavailable.
type Transcriber struct {
	client *Client
	model  string
}

// NewTranscriber wraps a Client for speech-to-text use.
func NewTranscriber(c *Client, model string) *Transcriber {
	if strings.TrimSpace(model) == "" {
		model = c.defaultModel
	}
	return &Transcriber{client: c, model: model}
}

type transcription struct {
	Transcript string       `json:"transcript"`
	Duration   float64      `json:"duration"`
	Words      []voice.Word `json:"words"`
}

// Transcribe implements voice.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, []voice.Word, float64, error) {
	if len(audio) == 0 {
		return "", nil, 0, nil
	}

	parts := []*genai.Part{
		genai.NewPartFromText(transcribePrompt),
		genai.NewPartFromBytes(audio, "audio/wav"),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := t.client.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return "", nil, 0, classifyError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", nil, 0, ai.NewAPIError("gemini: empty transcription response")
	}

	var out transcription
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		// The model answered in prose; keep it as the transcript with no timings.
		return text, nil, 0, nil
	}
	return out.Transcript, out.Words, out.Duration, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
