// Package voice defines the speech-capability boundary of the engine and the
// prosody metrics derived from a transcript.
package voice

import "context"

// Word is a single transcribed word with timing.
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"` // seconds
	End        float64 `json:"end"`   // seconds
	Confidence float64 `json:"confidence,omitempty"`
}

// Pause is a silent gap between words.
type Pause struct {
	AfterWord int     `json:"after_word"` // index into the word list
	Duration  float64 `json:"duration"`   // seconds
}

// Analysis is the per-answer voice snapshot. It lives only inside the owning
// response record and is never persisted on its own.
type Analysis struct {
	Transcript      string         `json:"transcript"`
	Confidence      float64        `json:"confidence"`       // 0..100
	Hesitations     int            `json:"hesitations"`
	FillerWords     map[string]int `json:"filler_words"`
	Pauses          []Pause        `json:"pauses"`
	WordsPerMinute  float64        `json:"words_per_minute"`
	ClarityScore    float64        `json:"clarity_score"` // 0..100
	SpeechPatterns  []string       `json:"speech_patterns,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// HasData reports whether the analysis carries a usable signal.
func (a *Analysis) HasData() bool {
	return a != nil && a.Transcript != ""
}

// Analyzer turns raw audio into an Analysis. Implementations must degrade to
// a zero-value analysis on malformed input instead of returning an error;
// voice analysis is best-effort everywhere in the engine.
type Analyzer interface {
	Analyze(ctx context.Context, audio []byte) (*Analysis, error)
}

// Transcriber is the opaque speech-to-text capability: raw audio in,
// transcript plus word-level timing and confidence out.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (transcript string, words []Word, duration float64, err error)
}

// NewAnalyzer builds the default Analyzer over a Transcriber: transcription is
// delegated, the prosody metrics are computed locally from word timings.
func NewAnalyzer(t Transcriber) Analyzer {
	return &transcriptAnalyzer{stt: t}
}

type transcriptAnalyzer struct {
	stt Transcriber
}

func (a *transcriptAnalyzer) Analyze(ctx context.Context, audio []byte) (*Analysis, error) {
	if len(audio) == 0 {
		return &Analysis{FillerWords: map[string]int{}}, nil
	}
	transcript, words, duration, err := a.stt.Transcribe(ctx, audio)
	if err != nil {
		// Degrade, never fail: an empty analysis scores as "no voice data".
		return &Analysis{FillerWords: map[string]int{}}, nil
	}
	return Metrics(transcript, words, duration), nil
}
