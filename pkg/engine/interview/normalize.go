package interview

import (
	"strings"

	"github.com/prepwise/interviewd/pkg/engine/score"
)

// The provider is asked for fixed JSON keys but real output drifts between a
// few shapes (question vs questionText vs a bare content blob). These
// adapters map every accepted shape onto the normalized internal types,
// defaulting unknown fields instead of guessing.

// normalizeQuestion maps extracted provider JSON onto a Question. ok is false
// when no usable question text could be found.
func normalizeQuestion(payload map[string]any, fallbackType string, difficulty score.Difficulty) (Question, bool) {
	text := firstString(payload, "question", "questionText", "text", "content")
	if strings.TrimSpace(text) == "" {
		return Question{}, false
	}
	q := Question{
		Text:       strings.TrimSpace(text),
		Type:       fallbackType,
		Difficulty: difficulty,
	}
	if t := firstString(payload, "type", "questionType"); t != "" && t != "text" {
		q.Type = t
	}
	if d := score.Difficulty(firstString(payload, "difficulty")); score.ValidDifficulty(d) {
		q.Difficulty = d
	}
	q.ExpectedTopics = stringSlice(payload["expectedTopics"])
	return q, true
}

// normalizeEvaluation maps extracted provider JSON onto an Evaluation. ok is
// false when no scores object is present; callers substitute the fallback.
func normalizeEvaluation(payload map[string]any) (Evaluation, bool) {
	rawScores, ok := payload["scores"].(map[string]any)
	if !ok {
		// Some responses flatten the sub-scores to the top level.
		rawScores = payload
	}
	s := score.AIScores{
		Correctness:   number(rawScores, "correctness"),
		Reasoning:     number(rawScores, "reasoning"),
		Communication: number(rawScores, "communication"),
		Confidence:    number(rawScores, "confidence"),
		Structure:     number(rawScores, "structure"),
	}
	if s == (score.AIScores{}) {
		return Evaluation{}, false
	}
	ev := Evaluation{
		Scores:      s,
		Strengths:   stringSlice(payload["strengths"]),
		Weaknesses:  stringSlice(payload["weaknesses"]),
		Suggestions: stringSlice(payload["suggestions"]),
	}
	for _, key := range []string{"followUpWarranted", "followUp", "needsFollowUp"} {
		if b, ok := payload[key].(bool); ok {
			ev.FollowUpWarranted = b
			break
		}
	}
	return ev, true
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func number(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
