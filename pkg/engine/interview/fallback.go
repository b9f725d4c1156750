package interview

import (
	"github.com/prepwise/interviewd/pkg/engine/score"
)

// Static fallback content, used whenever the provider is unavailable. The
// interview must always produce a next question or a completion; it never
// dead-ends on an AI outage.

var fallbackOpenings = map[string]string{
	"technical":     "Walk me through a technically challenging project you have worked on. What made it hard, and how did you approach it?",
	"behavioral":    "Tell me about a time you disagreed with a teammate about an important decision. How did you handle it?",
	"system-design": "Design a URL shortening service. Start with the core requirements and walk me through your high-level architecture.",
	"hr":            "Tell me about yourself and what you are looking for in your next role.",
}

var fallbackPools = map[string][]string{
	"technical": {
		"How would you debug a service whose latency suddenly doubled in production?",
		"Explain the difference between concurrency and parallelism, with an example from your own work.",
		"What happens between typing a URL into a browser and the page rendering?",
		"How do you decide between optimizing code and rewriting it?",
	},
	"behavioral": {
		"Describe a situation where you had to deliver under a tight deadline. What did you trade off?",
		"Tell me about a piece of critical feedback you received. What did you do with it?",
		"Give me an example of a time you took ownership of a problem outside your responsibilities.",
	},
	"system-design": {
		"How would you design a rate limiter for a public API?",
		"Design a notification system that delivers over email, SMS, and push.",
		"How would you store and serve user feeds for a social application?",
	},
	"hr": {
		"Where do you see yourself in five years?",
		"What kind of team environment brings out your best work?",
		"Why are you interested in this role?",
	},
}

// fallbackOpening returns the fixed-by-type opening question.
func fallbackOpening(interviewType string, difficulty score.Difficulty) Question {
	text, ok := fallbackOpenings[interviewType]
	if !ok {
		text = fallbackOpenings["technical"]
	}
	return Question{Text: text, Type: interviewType, Difficulty: difficulty}
}

// fallbackQuestion picks deterministically from the per-type pool, keyed by
// how many questions were already issued so consecutive fallbacks differ.
func fallbackQuestion(interviewType string, difficulty score.Difficulty, issued int) Question {
	pool, ok := fallbackPools[interviewType]
	if !ok {
		pool = fallbackPools["technical"]
	}
	return Question{
		Text:       pool[issued%len(pool)],
		Type:       interviewType,
		Difficulty: difficulty,
	}
}

// fallbackEvaluation is the documented neutral evaluation substituted when the
// provider cannot score an answer. The 65-70 band keeps a failing provider
// from either tanking or inflating the candidate's aggregate.
func fallbackEvaluation() Evaluation {
	return Evaluation{
		Scores: score.AIScores{
			Correctness:   65,
			Reasoning:     65,
			Communication: 70,
			Confidence:    70,
			Structure:     65,
		},
		Suggestions: []string{"The evaluation service was unavailable for this answer; these scores are neutral placeholders."},
		Fallback:    true,
	}
}

// fallbackOverall is the overall reported for a fallback evaluation instead
// of the weighted formula.
const fallbackOverall = 65
