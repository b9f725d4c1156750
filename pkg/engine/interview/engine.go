package interview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/engine/convo"
	"github.com/prepwise/interviewd/pkg/engine/score"
	"github.com/prepwise/interviewd/pkg/engine/voice"
)

const (
	defaultTotalQuestions = 5
	followUpThreshold     = 70
)

// Engine drives the interview session lifecycle. It is a long-lived service:
// construct once at process start and pass by reference into handlers.
type Engine struct {
	store    Store
	convo    *convo.Store
	analyzer voice.Analyzer
	logger   *slog.Logger

	defaultTotal int
	newID        func() string
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultTotalQuestions overrides the question count used when the caller
// does not specify one.
func WithDefaultTotalQuestions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultTotal = n
		}
	}
}

// WithAnalyzer attaches the optional speech capability. Without one, audio is
// ignored and answers are scored on text alone.
func WithAnalyzer(a voice.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// NewEngine creates an engine over the given persistence and conversation
// stores.
func NewEngine(store Store, convoStore *convo.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:        store,
		convo:        convoStore,
		logger:       logger,
		defaultTotal: defaultTotalQuestions,
		newID:        func() string { return uuid.NewString() },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartInput is the caller-supplied interview context.
type StartInput struct {
	Owner           string           `json:"owner"`
	Type            string           `json:"type"`
	SubCategory     string           `json:"sub_category,omitempty"`
	Personality     string           `json:"personality,omitempty"`
	Difficulty      score.Difficulty `json:"difficulty,omitempty"`
	TargetCompany   string           `json:"target_company,omitempty"`
	TargetRole      string           `json:"target_role,omitempty"`
	ExperienceYears int              `json:"experience_years,omitempty"`
	Skills          []string         `json:"skills,omitempty"`
	TotalQuestions  int              `json:"total_questions,omitempty"`
}

// StartResult is returned from Start.
type StartResult struct {
	SessionID      string           `json:"session_id"`
	FirstQuestion  Question         `json:"first_question"`
	Difficulty     score.Difficulty `json:"difficulty"`
	TotalQuestions int              `json:"total_questions"`
}

// Start allocates a session, seeds the conversation, and issues the opening
// question. A provider failure never blocks session creation: the fixed
// by-type fallback opening is substituted instead.
func (e *Engine) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	id := e.newID()

	difficulty := in.Difficulty
	if !score.ValidDifficulty(difficulty) {
		difficulty = score.DifficultyMedium
	}
	total := in.TotalQuestions
	if total <= 0 {
		total = e.defaultTotal
	}
	interviewType := in.Type
	if interviewType == "" {
		interviewType = "technical"
	}

	convoCtx := convo.Context{
		InterviewType:   interviewType,
		Personality:     in.Personality,
		Difficulty:      string(difficulty),
		TargetCompany:   in.TargetCompany,
		TargetRole:      in.TargetRole,
		ExperienceYears: in.ExperienceYears,
		Skills:          in.Skills,
	}
	if _, err := e.convo.GetOrCreate(ctx, id, convoCtx); err != nil {
		return nil, fmt.Errorf("seed conversation: %w", err)
	}

	question := e.generateQuestion(ctx, id, openingPrompt(interviewType, difficulty), interviewType, difficulty, true, 0)

	now := e.now()
	sess := &Session{
		ID:                id,
		Owner:             in.Owner,
		Type:              interviewType,
		SubCategory:       in.SubCategory,
		Personality:       in.Personality,
		TargetCompany:     in.TargetCompany,
		TargetRole:        in.TargetRole,
		InitialDifficulty: difficulty,
		CurrentDifficulty: difficulty,
		TotalQuestions:    total,
		Status:            StatusInProgress,
		StartedAt:         now,
		LastActivityAt:    now,
		Responses: []ResponseRecord{{
			Index:     0,
			Question:  question,
			StartedAt: now,
		}},
	}
	if err := e.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &StartResult{
		SessionID:      id,
		FirstQuestion:  question,
		Difficulty:     difficulty,
		TotalQuestions: total,
	}, nil
}

// SubmitResult is returned from SubmitAnswer.
type SubmitResult struct {
	Evaluation        Evaluation       `json:"evaluation"`
	Scores            score.Scores     `json:"scores"`
	Feedback          []string         `json:"feedback,omitempty"`
	DifficultyChanged bool             `json:"difficulty_changed"`
	NewDifficulty     score.Difficulty `json:"new_difficulty"`
	IsComplete        bool             `json:"is_complete"`
	NextQuestion      *Question        `json:"next_question,omitempty"`
	Overall           *OverallScores   `json:"overall,omitempty"`
}

// SubmitAnswer records the answer for the pending question, evaluates it,
// applies any difficulty change, and either issues the next question or
// completes the session. Provider failures are recovered with deterministic
// fallbacks; only session/state errors surface.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, owner, answerText string, audio []byte) (*SubmitResult, error) {
	sess, err := e.store.Get(ctx, sessionID, owner)
	if err != nil {
		return nil, err
	}
	if sess.Terminal() {
		return nil, ErrAlreadyCompleted
	}
	if sess.Status != StatusInProgress {
		return nil, ErrNotInProgress
	}
	pending := sess.PendingResponse()
	if pending == nil || pending.Answered() {
		return nil, ErrNoPendingQuestion
	}

	va := e.analyzeAudio(ctx, audio)

	evaluation := e.evaluate(ctx, sessionID, pending.Question, answerText, va)
	scores := score.Aggregate(evaluation.Scores, va)
	if evaluation.Fallback {
		// The neutral substitute reports its own fixed overall instead of the
		// weighted formula; see fallback.go.
		scores.Overall = fallbackOverall
	}

	now := e.now()
	answer := &Answer{Text: answerText}
	if va.HasData() {
		answer.DurationSeconds = va.DurationSeconds
	}
	pending.Answer = answer
	if va.HasData() {
		pending.Voice = va
	}
	pending.Scores = &scores
	pending.Strengths = evaluation.Strengths
	pending.Weaknesses = evaluation.Weaknesses
	pending.Suggestions = evaluation.Suggestions
	pending.Feedback = append(pending.Feedback, score.VoiceFeedback(va)...)
	pending.CompletedAt = &now

	sess.QuestionsAnswered++
	sess.LastActivityAt = now

	newDifficulty, changed := score.Decide(recentOverallScores(sess), sess.CurrentDifficulty)
	if changed {
		e.logger.Info("difficulty adjusted",
			"session_id", sessionID, "from", sess.CurrentDifficulty, "to", newDifficulty)
		sess.CurrentDifficulty = newDifficulty
	}

	result := &SubmitResult{
		Evaluation:        evaluation,
		Scores:            scores,
		Feedback:          pending.Feedback,
		DifficultyChanged: changed,
		NewDifficulty:     sess.CurrentDifficulty,
	}

	if sess.QuestionsAnswered >= sess.TotalQuestions {
		e.complete(ctx, sess)
		result.IsComplete = true
		result.Overall = sess.Overall
	} else {
		next := e.nextQuestion(ctx, sess, evaluation, scores.Overall)
		if next.IsFollowUp {
			pending.FollowUp = next.Text
		}
		sess.Responses = append(sess.Responses, ResponseRecord{
			Index:     len(sess.Responses),
			Question:  next,
			StartedAt: now,
		})
		sess.CurrentQuestionIndex = len(sess.Responses) - 1
		result.NextQuestion = &next
	}

	if err := e.store.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return result, nil
}

// EndResult is returned from End.
type EndResult struct {
	QuestionsAnswered int            `json:"questions_answered"`
	Overall           *OverallScores `json:"overall"`
	Analytics         *Analytics     `json:"analytics,omitempty"`
}

// End forces completion, running the same aggregation as natural completion.
// Ending an already-completed session is idempotent: the stored aggregates
// come back unchanged.
func (e *Engine) End(ctx context.Context, sessionID, owner string) (*EndResult, error) {
	sess, err := e.store.Get(ctx, sessionID, owner)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted {
		return &EndResult{QuestionsAnswered: sess.QuestionsAnswered, Overall: sess.Overall, Analytics: sess.Analytics}, nil
	}
	if sess.Status != StatusInProgress {
		return nil, ErrNotInProgress
	}

	e.complete(ctx, sess)
	if err := e.store.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return &EndResult{QuestionsAnswered: sess.QuestionsAnswered, Overall: sess.Overall, Analytics: sess.Analytics}, nil
}

// StatusResult is returned from Status.
type StatusResult struct {
	Status            Status           `json:"status"`
	QuestionsAnswered int              `json:"questions_answered"`
	TotalQuestions    int              `json:"total_questions"`
	CurrentQuestion   *Question        `json:"current_question,omitempty"`
	Difficulty        score.Difficulty `json:"difficulty"`
	Overall           *OverallScores   `json:"overall,omitempty"`
}

// Status reports progress without mutating anything.
func (e *Engine) Status(ctx context.Context, sessionID, owner string) (*StatusResult, error) {
	sess, err := e.store.Get(ctx, sessionID, owner)
	if err != nil {
		return nil, err
	}
	out := &StatusResult{
		Status:            sess.Status,
		QuestionsAnswered: sess.QuestionsAnswered,
		TotalQuestions:    sess.TotalQuestions,
		Difficulty:        sess.CurrentDifficulty,
		Overall:           sess.Overall,
	}
	// Terminal sessions have no pending question even when a record was still
	// awaiting an answer at abandonment.
	if pending := sess.PendingResponse(); !sess.Terminal() && pending != nil && !pending.Answered() {
		out.CurrentQuestion = &pending.Question
	}
	return out, nil
}

// Pause suspends an in-progress session. No provider call is made.
func (e *Engine) Pause(ctx context.Context, sessionID, owner string) error {
	sess, err := e.store.Get(ctx, sessionID, owner)
	if err != nil {
		return err
	}
	if sess.Terminal() {
		return ErrAlreadyCompleted
	}
	if sess.Status != StatusInProgress {
		return ErrNotInProgress
	}
	now := e.now()
	sess.Status = StatusPaused
	sess.PausedAt = &now
	sess.LastActivityAt = now
	return e.store.Update(ctx, sess)
}

// Resume returns a paused session to in-progress and restores the view of the
// pending question.
func (e *Engine) Resume(ctx context.Context, sessionID, owner string) (*StatusResult, error) {
	sess, err := e.store.Get(ctx, sessionID, owner)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusPaused {
		return nil, ErrNotPaused
	}
	sess.Status = StatusInProgress
	sess.PausedAt = nil
	sess.LastActivityAt = e.now()
	if err := e.store.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return e.Status(ctx, sessionID, owner)
}

// complete transitions to completed and computes aggregates and analytics.
// The conversation memory is released; completion must not fail on its
// account.
func (e *Engine) complete(ctx context.Context, sess *Session) {
	now := e.now()
	sess.Status = StatusCompleted
	sess.CompletedAt = &now
	sess.LastActivityAt = now
	sess.CurrentQuestionIndex = len(sess.Responses) // deliberately out of bounds
	sess.Overall = aggregateScores(sess)
	sess.Analytics = computeAnalytics(sess, sess.Overall)

	if err := e.convo.Clear(ctx, sess.ID); err != nil {
		e.logger.Warn("clear conversation failed", "session_id", sess.ID, "error", err)
	}
}

// analyzeAudio runs best-effort voice analysis. Failures and missing
// analyzers both yield an empty analysis.
func (e *Engine) analyzeAudio(ctx context.Context, audio []byte) *voice.Analysis {
	if e.analyzer == nil || len(audio) == 0 {
		return nil
	}
	va, err := e.analyzer.Analyze(ctx, audio)
	if err != nil {
		e.logger.Warn("voice analysis failed", "error", err)
		return nil
	}
	return va
}

// evaluate asks the provider to score an answer, substituting the neutral
// fallback evaluation on any failure.
func (e *Engine) evaluate(ctx context.Context, sessionID string, q Question, answerText string, va *voice.Analysis) Evaluation {
	text, err := e.convo.SendMessage(ctx, sessionID, evaluationPrompt(q, answerText, va))
	if err != nil {
		e.logger.Warn("evaluation failed, using fallback", "session_id", sessionID, "error", err)
		return fallbackEvaluation()
	}
	evaluation, ok := normalizeEvaluation(ai.ExtractJSON(text))
	if !ok {
		e.logger.Warn("evaluation unparseable, using fallback", "session_id", sessionID)
		return fallbackEvaluation()
	}
	return evaluation
}

// nextQuestion decides between a follow-up and a fresh topic question.
// Follow-up generation is best-effort: a failure simply falls through to a
// fresh question.
func (e *Engine) nextQuestion(ctx context.Context, sess *Session, evaluation Evaluation, overall int) Question {
	if evaluation.FollowUpWarranted && overall < followUpThreshold {
		text, err := e.convo.SendMessage(ctx, sess.ID, followUpPrompt())
		if err == nil {
			if q, ok := normalizeQuestion(ai.ExtractJSON(text), sess.Type, sess.CurrentDifficulty); ok {
				q.IsFollowUp = true
				return q
			}
		}
		e.logger.Warn("follow-up generation failed, issuing fresh question", "session_id", sess.ID)
	}
	return e.generateQuestion(ctx, sess.ID,
		nextQuestionPrompt(sess.Type, sess.CurrentDifficulty),
		sess.Type, sess.CurrentDifficulty, false, len(sess.Responses))
}

// generateQuestion asks the provider for a question, falling back to the
// deterministic pool on failure.
func (e *Engine) generateQuestion(ctx context.Context, sessionID, prompt, interviewType string, difficulty score.Difficulty, opening bool, issued int) Question {
	text, err := e.convo.SendMessage(ctx, sessionID, prompt)
	if err == nil {
		if q, ok := normalizeQuestion(ai.ExtractJSON(text), interviewType, difficulty); ok {
			return q
		}
	} else {
		e.logger.Warn("question generation failed, using fallback", "session_id", sessionID, "error", err)
	}
	if opening {
		return fallbackOpening(interviewType, difficulty)
	}
	return fallbackQuestion(interviewType, difficulty, issued)
}
