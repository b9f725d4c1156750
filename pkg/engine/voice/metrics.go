package voice

import (
	"strings"
)

const (
	hesitationGapSeconds = 1.0
	pauseGapSeconds      = 1.5
)

// fillerTokens are matched case-insensitively against transcript words.
// Multi-word fillers are matched as bigrams.
var fillerTokens = []string{"um", "uh", "like", "basically", "actually", "literally"}

var fillerBigrams = []string{"you know", "i mean", "sort of", "kind of"}

// Metrics computes the prosody snapshot from a transcript and its word
// timings. Pure; safe on empty input.
func Metrics(transcript string, words []Word, duration float64) *Analysis {
	a := &Analysis{
		Transcript:      transcript,
		FillerWords:     map[string]int{},
		DurationSeconds: duration,
	}
	if strings.TrimSpace(transcript) == "" {
		return a
	}

	tokens := strings.Fields(strings.ToLower(transcript))
	for _, tok := range tokens {
		clean := strings.Trim(tok, ".,!?;:")
		for _, filler := range fillerTokens {
			if clean == filler {
				a.FillerWords[filler]++
			}
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		pair := strings.Trim(tokens[i], ".,!?;:") + " " + strings.Trim(tokens[i+1], ".,!?;:")
		for _, filler := range fillerBigrams {
			if pair == filler {
				a.FillerWords[filler]++
			}
		}
	}

	var confSum float64
	var confCount int
	for i, w := range words {
		if w.Confidence > 0 {
			confSum += w.Confidence
			confCount++
		}
		if i == 0 {
			continue
		}
		gap := w.Start - words[i-1].End
		if gap > pauseGapSeconds {
			a.Pauses = append(a.Pauses, Pause{AfterWord: i - 1, Duration: gap})
		} else if gap > hesitationGapSeconds {
			a.Hesitations++
		}
	}
	if confCount > 0 {
		a.Confidence = clampPct(confSum / float64(confCount) * 100)
	} else {
		a.Confidence = 70 // no word confidence from the provider, assume decent
	}

	if duration <= 0 && len(words) > 0 {
		duration = words[len(words)-1].End
		a.DurationSeconds = duration
	}
	if duration > 0 {
		a.WordsPerMinute = float64(len(tokens)) / duration * 60
	}

	a.ClarityScore = clarity(len(tokens), totalFillers(a.FillerWords), a.Hesitations, len(a.Pauses))
	a.SpeechPatterns = patterns(a)
	return a
}

func totalFillers(m map[string]int) int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}

// clarity starts from 100 and charges for fillers, hesitations and long
// pauses relative to how much was said.
func clarity(wordCount, fillers, hesitations, pauses int) float64 {
	if wordCount == 0 {
		return 0
	}
	score := 100.0
	score -= float64(fillers) / float64(wordCount) * 200 // 10% fillers costs 20 points
	score -= float64(hesitations) * 3
	score -= float64(pauses) * 4
	return clampPct(score)
}

func patterns(a *Analysis) []string {
	var out []string
	switch {
	case a.WordsPerMinute == 0:
	case a.WordsPerMinute < 100:
		out = append(out, "slow pace")
	case a.WordsPerMinute > 180:
		out = append(out, "rushed pace")
	default:
		out = append(out, "steady pace")
	}
	if totalFillers(a.FillerWords) >= 5 {
		out = append(out, "frequent fillers")
	}
	if a.Hesitations >= 3 {
		out = append(out, "hesitant delivery")
	}
	if len(a.Pauses) == 0 && a.WordsPerMinute >= 100 && a.WordsPerMinute <= 180 {
		out = append(out, "fluent delivery")
	}
	return out
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
