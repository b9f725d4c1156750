// Package score blends AI evaluation sub-scores with voice-derived signal
// into a normalized overall score, and decides difficulty adjustments over a
// trailing score window. Everything here is pure and deterministic.
package score

import (
	"fmt"
	"math"

	"github.com/prepwise/interviewd/pkg/engine/voice"
)

// Fixed dimension weights. They sum to 1.0; the invariant is checked in tests.
const (
	weightCorrectness   = 0.30
	weightReasoning     = 0.25
	weightCommunication = 0.20
	weightConfidence    = 0.15
	weightStructure     = 0.10
)

// Blend ratios between AI sub-scores and voice signal.
const (
	commAIShare      = 0.60
	commVoiceShare   = 0.40
	confAIShare      = 0.40
	confVoiceShare   = 0.60
	hesitationFactor = 5.0
	fillerFactor     = 2.0
	pauseFactor      = 5.0
	hesitationCap    = 30.0
	fillerCap        = 20.0
	pauseCap         = 15.0
)

// AIScores are the sub-scores the evaluator returned. Missing dimensions stay
// zero: an AI failure pulls the overall toward zero instead of silently
// passing, unless the caller substituted the documented fallback evaluation.
type AIScores struct {
	Correctness   float64 `json:"correctness"`
	Reasoning     float64 `json:"reasoning"`
	Communication float64 `json:"communication"`
	Confidence    float64 `json:"confidence"`
	Structure     float64 `json:"structure"`
}

// Scores is the final per-dimension result for one answer.
type Scores struct {
	Correctness   int  `json:"correctness"`
	Reasoning     int  `json:"reasoning"`
	Communication int  `json:"communication"`
	Confidence    int  `json:"confidence"`
	Structure     int  `json:"structure"`
	Overall       int  `json:"overall"`
	Presence      *int `json:"presence,omitempty"`
}

// Aggregate fuses AI sub-scores with the voice snapshot. The communication
// and confidence dimensions blend in voice signal when it exists; the other
// three pass through. Overall is the weighted sum, rounded and clamped.
func Aggregate(aiScores AIScores, v *voice.Analysis) Scores {
	comm := aiScores.Communication
	conf := aiScores.Confidence

	if v.HasData() {
		comm = commAIShare*aiScores.Communication + commVoiceShare*v.ClarityScore
		comm += paceNudge(v.WordsPerMinute)

		composite := v.Confidence
		composite -= math.Min(float64(v.Hesitations)*hesitationFactor, hesitationCap)
		composite -= math.Min(float64(totalFillers(v))*fillerFactor, fillerCap)
		composite -= math.Min(float64(len(v.Pauses))*pauseFactor, pauseCap)
		if composite < 0 {
			composite = 0
		}
		conf = confAIShare*aiScores.Confidence + confVoiceShare*composite
	}

	s := Scores{
		Correctness:   clampRound(aiScores.Correctness),
		Reasoning:     clampRound(aiScores.Reasoning),
		Communication: clampRound(comm),
		Confidence:    clampRound(conf),
		Structure:     clampRound(aiScores.Structure),
	}
	s.Overall = clampRound(
		weightCorrectness*float64(s.Correctness) +
			weightReasoning*float64(s.Reasoning) +
			weightCommunication*float64(s.Communication) +
			weightConfidence*float64(s.Confidence) +
			weightStructure*float64(s.Structure))
	return s
}

// paceNudge rewards the optimal speaking band and penalizes the extremes.
func paceNudge(wpm float64) float64 {
	switch {
	case wpm == 0:
		return 0
	case wpm >= 120 && wpm <= 160:
		return 5
	case wpm < 100 || wpm > 180:
		return -10
	default:
		return 0
	}
}

// WithPresence appends the optional presence/posture dimension, averaged from
// two externally supplied percentage scores. It is reported alongside the
// others but is not part of the weighted overall.
func (s Scores) WithPresence(postureScore, presenceScore float64) Scores {
	p := clampRound((postureScore + presenceScore) / 2)
	s.Presence = &p
	return s
}

// VoiceFeedback produces the per-dimension feedback lines derived from the
// voice snapshot. Lines are appended by the caller, never overwritten.
func VoiceFeedback(v *voice.Analysis) []string {
	if !v.HasData() {
		return nil
	}
	var out []string
	switch {
	case v.WordsPerMinute == 0:
	case v.WordsPerMinute < 100:
		out = append(out, fmt.Sprintf("Your pace of %.0f words per minute is on the slow side; aim for 120-160.", v.WordsPerMinute))
	case v.WordsPerMinute > 180:
		out = append(out, fmt.Sprintf("You spoke at %.0f words per minute, which is hard to follow; aim for 120-160.", v.WordsPerMinute))
	case v.WordsPerMinute >= 120 && v.WordsPerMinute <= 160:
		out = append(out, "Your speaking pace was in the optimal range.")
	}
	if fillers := totalFillers(v); fillers >= 3 {
		out = append(out, fmt.Sprintf("You used filler words %d times; pausing silently instead reads as more confident.", fillers))
	}
	if v.Hesitations >= 3 {
		out = append(out, fmt.Sprintf("There were %d noticeable hesitations; structuring your answer first can help.", v.Hesitations))
	}
	return out
}

func totalFillers(v *voice.Analysis) int {
	n := 0
	for _, c := range v.FillerWords {
		n += c
	}
	return n
}

func clampRound(f float64) int {
	n := int(math.Round(f))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
