// Package interview implements the session state machine: question issuance,
// answer intake, evaluation, adaptive difficulty, and completion.
package interview

import (
	"time"

	"github.com/prepwise/interviewd/pkg/engine/score"
	"github.com/prepwise/interviewd/pkg/engine/voice"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Question is the normalized internal question shape. Provider output arrives
// in several duck-typed forms; normalize.go maps them all onto this.
type Question struct {
	Text           string           `json:"text"`
	Type           string           `json:"type"`
	Difficulty     score.Difficulty `json:"difficulty"`
	ExpectedTopics []string         `json:"expected_topics,omitempty"`
	IsFollowUp     bool             `json:"is_follow_up,omitempty"`
}

// Answer is the candidate's submitted answer.
type Answer struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Evaluation is the normalized evaluation of one answer.
type Evaluation struct {
	Scores            score.AIScores `json:"scores"`
	Strengths         []string       `json:"strengths,omitempty"`
	Weaknesses        []string       `json:"weaknesses,omitempty"`
	Suggestions       []string       `json:"suggestions,omitempty"`
	FollowUpWarranted bool           `json:"follow_up_warranted,omitempty"`
	Fallback          bool           `json:"fallback,omitempty"`
}

// ResponseRecord is one question/answer pair. It is created when the question
// is issued and mutated exactly once, when the answer lands.
type ResponseRecord struct {
	Index       int             `json:"index"`
	Question    Question        `json:"question"`
	Answer      *Answer         `json:"answer,omitempty"`
	Voice       *voice.Analysis `json:"voice,omitempty"`
	Scores      *score.Scores   `json:"scores,omitempty"`
	Strengths   []string        `json:"strengths,omitempty"`
	Weaknesses  []string        `json:"weaknesses,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Feedback    []string        `json:"feedback,omitempty"`
	FollowUp    string          `json:"follow_up,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Answered reports whether this record has received its answer.
func (r *ResponseRecord) Answered() bool { return r.CompletedAt != nil }

// OverallScores are the session-wide per-dimension means across answered
// responses.
type OverallScores struct {
	Correctness   int `json:"correctness"`
	Reasoning     int `json:"reasoning"`
	Communication int `json:"communication"`
	Confidence    int `json:"confidence"`
	Structure     int `json:"structure"`
	Overall       int `json:"overall"`
}

// Analytics is the derived snapshot computed at completion.
type Analytics struct {
	DifficultyProgression []score.Difficulty `json:"difficulty_progression"`
	Trend                 string             `json:"trend"` // improving | declining | stable
	Strengths             []string           `json:"strengths,omitempty"`
	Weaknesses            []string           `json:"weaknesses,omitempty"`
	StrongTopics          []string           `json:"strong_topics,omitempty"`
	WeakTopics            []string           `json:"weak_topics,omitempty"`
}

// Session is the persisted interview state.
//
// Invariants: CurrentQuestionIndex addresses the response awaiting an answer,
// and is out of bounds exactly when Status is completed. QuestionsAnswered
// never exceeds TotalQuestions; equality triggers completion immediately.
type Session struct {
	ID                   string           `json:"id"`
	Owner                string           `json:"owner"`
	Type                 string           `json:"type"`
	SubCategory          string           `json:"sub_category,omitempty"`
	Personality          string           `json:"personality"`
	TargetCompany        string           `json:"target_company,omitempty"`
	TargetRole           string           `json:"target_role,omitempty"`
	InitialDifficulty    score.Difficulty `json:"initial_difficulty"`
	CurrentDifficulty    score.Difficulty `json:"current_difficulty"`
	TotalQuestions       int              `json:"total_questions"`
	QuestionsAnswered    int              `json:"questions_answered"`
	CurrentQuestionIndex int              `json:"current_question_index"`
	Responses            []ResponseRecord `json:"responses"`
	Status               Status           `json:"status"`
	StartedAt            time.Time        `json:"started_at"`
	PausedAt             *time.Time       `json:"paused_at,omitempty"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	LastActivityAt       time.Time        `json:"last_activity_at"`
	Overall              *OverallScores   `json:"overall,omitempty"`
	Analytics            *Analytics       `json:"analytics,omitempty"`
}

// PendingResponse returns the record awaiting an answer, or nil when the
// index is out of bounds (completed session, or stale client state).
func (s *Session) PendingResponse() *ResponseRecord {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Responses) {
		return nil
	}
	return &s.Responses[s.CurrentQuestionIndex]
}

// Terminal reports whether the session can no longer accept answers.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAbandoned
}
