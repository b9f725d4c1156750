package interview

import (
	"math"
	"sort"
)

const (
	trendThreshold    = 10.0
	strengthThreshold = 80
	weaknessThreshold = 60
	maxReportedTopics = 3
)

// aggregateScores computes per-dimension means across answered responses.
func aggregateScores(s *Session) *OverallScores {
	var sums [6]float64
	n := 0
	for _, r := range s.Responses {
		if !r.Answered() || r.Scores == nil {
			continue
		}
		n++
		sums[0] += float64(r.Scores.Correctness)
		sums[1] += float64(r.Scores.Reasoning)
		sums[2] += float64(r.Scores.Communication)
		sums[3] += float64(r.Scores.Confidence)
		sums[4] += float64(r.Scores.Structure)
		sums[5] += float64(r.Scores.Overall)
	}
	if n == 0 {
		return &OverallScores{}
	}
	mean := func(i int) int { return int(math.Round(sums[i] / float64(n))) }
	return &OverallScores{
		Correctness:   mean(0),
		Reasoning:     mean(1),
		Communication: mean(2),
		Confidence:    mean(3),
		Structure:     mean(4),
		Overall:       mean(5),
	}
}

// computeAnalytics derives the completion snapshot: difficulty progression,
// first-half vs second-half trend, and strengths/weaknesses from both the
// per-dimension aggregates and frequency-ranked AI-reported topics.
func computeAnalytics(s *Session, overall *OverallScores) *Analytics {
	a := &Analytics{Trend: "stable"}

	for _, r := range s.Responses {
		a.DifficultyProgression = append(a.DifficultyProgression, r.Question.Difficulty)
	}

	var answered []int
	for _, r := range s.Responses {
		if r.Answered() && r.Scores != nil {
			answered = append(answered, r.Scores.Overall)
		}
	}
	if len(answered) >= 2 {
		half := len(answered) / 2
		firstMean := meanOf(answered[:half])
		secondMean := meanOf(answered[half:])
		switch {
		case secondMean-firstMean >= trendThreshold:
			a.Trend = "improving"
		case firstMean-secondMean >= trendThreshold:
			a.Trend = "declining"
		}
	}

	for name, v := range map[string]int{
		"correctness":   overall.Correctness,
		"reasoning":     overall.Reasoning,
		"communication": overall.Communication,
		"confidence":    overall.Confidence,
		"structure":     overall.Structure,
	} {
		if v >= strengthThreshold {
			a.Strengths = append(a.Strengths, name)
		} else if v < weaknessThreshold {
			a.Weaknesses = append(a.Weaknesses, name)
		}
	}
	sort.Strings(a.Strengths)
	sort.Strings(a.Weaknesses)

	a.StrongTopics = rankTopics(s, func(r *ResponseRecord) []string { return r.Strengths })
	a.WeakTopics = rankTopics(s, func(r *ResponseRecord) []string { return r.Weaknesses })
	return a
}

// rankTopics frequency-ranks AI-reported topic strings across responses.
func rankTopics(s *Session, pick func(*ResponseRecord) []string) []string {
	counts := map[string]int{}
	for i := range s.Responses {
		for _, topic := range pick(&s.Responses[i]) {
			counts[topic]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	topics := make([]string, 0, len(counts))
	for t := range counts {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > maxReportedTopics {
		topics = topics[:maxReportedTopics]
	}
	return topics
}

func meanOf(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

// recentOverallScores returns the trailing window fed into the difficulty
// decision: overall scores of answered responses, in order.
func recentOverallScores(s *Session) []int {
	var out []int
	for _, r := range s.Responses {
		if r.Answered() && r.Scores != nil {
			out = append(out, r.Scores.Overall)
		}
	}
	return out
}
