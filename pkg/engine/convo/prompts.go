package convo

import (
	"fmt"
	"strings"
)

// Context is the immutable interview framing a conversation is seeded with.
type Context struct {
	InterviewType   string   `json:"interview_type"`
	Personality     string   `json:"personality"`
	Difficulty      string   `json:"difficulty"`
	TargetCompany   string   `json:"target_company,omitempty"`
	TargetRole      string   `json:"target_role,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
	Skills          []string `json:"skills,omitempty"`
}

var personalityTemplates = map[string]string{
	"friendly":    "You are a warm, encouraging interviewer. Put the candidate at ease, acknowledge good points, and keep the tone conversational.",
	"professional": "You are a composed, businesslike interviewer. Stay neutral and courteous, focus on substance over small talk.",
	"challenging":  "You are a demanding interviewer. Probe every answer, push back on vague claims, and ask pointed follow-ups.",
}

var typeTemplates = map[string]string{
	"technical":     "This is a technical interview. Ask questions that test concrete engineering knowledge, trade-offs, and problem solving.",
	"behavioral":    "This is a behavioral interview. Ask questions about past situations, teamwork, conflict, and decision making. Expect STAR-style answers.",
	"system-design": "This is a system design interview. Ask the candidate to design and reason about distributed systems, covering scalability, reliability, and trade-offs.",
	"hr":            "This is an HR screening interview. Ask about motivation, career goals, salary expectations, and culture fit.",
}

const promptDirectives = "Always respond with a single JSON object and nothing else. " +
	"When asked for a question use keys: question, type, difficulty, expectedTopics. " +
	"When asked for an evaluation use keys: scores (correctness, reasoning, communication, confidence, structure), " +
	"strengths, weaknesses, suggestions, followUpWarranted."

// acknowledgement is the fixed model turn that closes the two-turn seed.
const acknowledgement = `{"content": "Understood. I am ready to conduct the interview.", "type": "text"}`

// SystemPrompt assembles the deterministic system prompt for a context:
// personality template x interview-type template x structured candidate
// details. Unknown personalities and types fall back to the professional
// technical framing rather than failing.
func SystemPrompt(c Context) string {
	personality, ok := personalityTemplates[c.Personality]
	if !ok {
		personality = personalityTemplates["professional"]
	}
	kind, ok := typeTemplates[c.InterviewType]
	if !ok {
		kind = typeTemplates["technical"]
	}

	var b strings.Builder
	b.WriteString(personality)
	b.WriteString("\n\n")
	b.WriteString(kind)
	b.WriteString(fmt.Sprintf("\n\nDifficulty level: %s.", c.Difficulty))
	if c.TargetCompany != "" {
		b.WriteString(fmt.Sprintf(" The candidate is preparing for %s", c.TargetCompany))
		if c.TargetRole != "" {
			b.WriteString(fmt.Sprintf(" (%s)", c.TargetRole))
		}
		b.WriteString(".")
	} else if c.TargetRole != "" {
		b.WriteString(fmt.Sprintf(" Target role: %s.", c.TargetRole))
	}
	if c.ExperienceYears > 0 {
		b.WriteString(fmt.Sprintf(" Candidate experience: %d years.", c.ExperienceYears))
	}
	if len(c.Skills) > 0 {
		b.WriteString(fmt.Sprintf(" Candidate skills: %s.", strings.Join(c.Skills, ", ")))
	}
	b.WriteString("\n\n")
	b.WriteString(promptDirectives)
	return b.String()
}
