package interview

import (
	"fmt"
	"strings"

	"github.com/prepwise/interviewd/pkg/engine/score"
	"github.com/prepwise/interviewd/pkg/engine/voice"
)

func openingPrompt(interviewType string, difficulty score.Difficulty) string {
	return fmt.Sprintf(
		"Ask the opening question of this %s interview at %s difficulty. "+
			"Respond with JSON keys: question, type, difficulty, expectedTopics.",
		interviewType, difficulty)
}

func nextQuestionPrompt(interviewType string, difficulty score.Difficulty) string {
	return fmt.Sprintf(
		"Ask the next %s interview question on a fresh topic at %s difficulty. "+
			"Respond with JSON keys: question, type, difficulty, expectedTopics.",
		interviewType, difficulty)
}

func followUpPrompt() string {
	return "The last answer left gaps. Ask one focused follow-up question probing those gaps. " +
		"Respond with JSON keys: question, type, difficulty, expectedTopics."
}

func evaluationPrompt(q Question, answerText string, va *voice.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate the candidate's answer.\n\nQuestion: %s\n\nAnswer: %s\n", q.Text, answerText)
	if len(q.ExpectedTopics) > 0 {
		fmt.Fprintf(&b, "\nExpected topics: %s\n", strings.Join(q.ExpectedTopics, ", "))
	}
	if va.HasData() {
		fmt.Fprintf(&b, "\nDelivery metrics: %.0f words/minute, %d hesitations, %d filler words.\n",
			va.WordsPerMinute, va.Hesitations, fillerTotal(va))
	}
	b.WriteString("\nRespond with JSON keys: scores (correctness, reasoning, communication, confidence, structure, each 0-100), " +
		"strengths, weaknesses, suggestions, followUpWarranted.")
	return b.String()
}

func fillerTotal(va *voice.Analysis) int {
	n := 0
	for _, c := range va.FillerWords {
		n += c
	}
	return n
}
