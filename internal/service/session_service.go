package service

import (
	"context"
	"errors"
	"log"
	"time"

	"exam-service/internal/adaptive"
	"exam-service/internal/grading"
	"exam-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionStore is the session persistence the service depends on. The
// backing document is the source of truth between requests: the service
// re-fetches on every call and saves before responding.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*models.ExamSession, error)
	Create(ctx context.Context, session *models.ExamSession) error
	Save(ctx context.Context, session *models.ExamSession) error
}

type QuestionStore interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	SampleInBand(ctx context.Context, minDifficulty, maxDifficulty int, excludeIDs []string) (*models.Question, error)
}

type AnswerStore interface {
	Create(ctx context.Context, answer *models.ExamAnswer) error
	FindBySession(ctx context.Context, sessionID string) ([]models.ExamAnswer, error)
}

// Grader scores one answer. Implementations never fail; degraded grading is
// reported inside the result.
type Grader interface {
	Grade(ctx context.Context, question *models.Question, submitted string) *models.GradingResult
}

// EventPublisher is satisfied by event.Publisher; nil-able at wiring time.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

// AnswerOutcome is what the client sees after a submission.
type AnswerOutcome struct {
	IsCorrect        bool                  `json:"is_correct"`
	Score            float64               `json:"score"`
	CurrentScore     float64               `json:"current_score"`
	IncorrectAnswers int                   `json:"incorrect_answers"`
	Completed        bool                  `json:"completed"`
	Grading          *models.GradingResult `json:"grading,omitempty"`
	Result           *models.TestResult    `json:"result,omitempty"`
}

// SessionService drives the exam session state machine: initialize, issue
// questions, score answers, terminate.
type SessionService struct {
	sessions  SessionStore
	questions QuestionStore
	answers   AnswerStore
	grader    Grader
	finalizer *Finalizer
	engine    *adaptive.Engine
	publisher EventPublisher
}

func NewSessionService(
	sessions SessionStore,
	questions QuestionStore,
	answers AnswerStore,
	grader Grader,
	finalizer *Finalizer,
	engine *adaptive.Engine,
	publisher EventPublisher,
) *SessionService {
	if engine == nil {
		engine = adaptive.NewEngine(nil)
	}
	return &SessionService{
		sessions:  sessions,
		questions: questions,
		answers:   answers,
		grader:    grader,
		finalizer: finalizer,
		engine:    engine,
		publisher: publisher,
	}
}

// InitializeSession creates a fresh active session at the starting
// difficulty.
func (s *SessionService) InitializeSession(ctx context.Context, userID, testType string) (*models.ExamSession, error) {
	if testType != models.TestTypePractice && testType != models.TestTypeOfficial {
		return nil, ErrInvalidTestType
	}

	session := &models.ExamSession{
		UserID:            userID,
		SessionToken:      uuid.NewString(),
		Type:              testType,
		CurrentDifficulty: s.engine.StartDifficulty(),
		AskedQuestionIDs:  []string{},
		History:           []models.QuestionAttempt{},
		ProctorEvents:     []models.ProctorEvent{},
		StartTime:         time.Now(),
		Status:            models.SessionStatusActive,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.publish("exam.session.started", map[string]interface{}{
		"session_id": session.ID,
		"user_id":    userID,
		"type":       testType,
	})
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*models.ExamSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// NextQuestion issues one question in the current difficulty band. Fetching
// again while a question is pending re-serves the same question. When the
// bank is exhausted the session auto-finalizes and completed=true is
// returned with the result.
func (s *SessionService) NextQuestion(ctx context.Context, sessionID string) (*models.Question, *models.TestResult, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.IsTerminal() {
		return nil, nil, ErrSessionComplete
	}

	if session.PendingQuestionID != "" {
		question, err := s.questions.FindByID(ctx, session.PendingQuestionID)
		if err != nil {
			return nil, nil, err
		}
		return question, nil, nil
	}

	for _, band := range s.engine.Bands(session.CurrentDifficulty, session.Type) {
		question, err := s.questions.SampleInBand(ctx, band.Min, band.Max, session.AskedQuestionIDs)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				continue
			}
			return nil, nil, err
		}

		// A question is issued at most once per session, even if the
		// sampler's exclusion list lags behind.
		if session.HasAsked(question.ID) {
			continue
		}

		session.PendingQuestionID = question.ID
		session.AskedQuestionIDs = append(session.AskedQuestionIDs, question.ID)
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, nil, err
		}
		s.publish("exam.question.issued", map[string]interface{}{
			"session_id":  session.ID,
			"question_id": question.ID,
			"difficulty":  question.Difficulty,
		})
		return question, nil, nil
	}

	// No unseen question anywhere on the scale: terminal signal.
	log.Printf("question bank exhausted for session %s after %d questions", session.ID, len(session.AskedQuestionIDs))
	result, err := s.finalizer.Finalize(ctx, session, models.CompletionExhausted)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, ErrQuestionsExhausted
}

// SubmitAnswer scores the pending question, updates the session aggregates
// and advances the difficulty cursor. It auto-finalizes at the incorrect
// threshold.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, questionID, submitted string, timeSpentSeconds int) (*AnswerOutcome, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, ErrSessionComplete
	}
	if session.PendingQuestionID == "" {
		return nil, ErrNoPendingQuestion
	}
	if questionID != session.PendingQuestionID {
		// Covers double-submits of an already-scored question: the replay
		// is rejected and nothing is counted twice.
		return nil, ErrQuestionMismatch
	}

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	gradingResult := s.grader.Grade(ctx, question, submitted)
	isCorrect := grading.IsCorrect(question, gradingResult)

	session.History = append(session.History, models.QuestionAttempt{
		QuestionID:       question.ID,
		Category:         question.Category(),
		Difficulty:       question.Difficulty,
		Correct:          isCorrect,
		Score:            gradingResult.Score,
		TimeSpentSeconds: timeSpentSeconds,
		AnsweredAt:       time.Now(),
	})
	session.Score = session.RunningScore()
	session.PendingQuestionID = ""
	if !isCorrect {
		session.IncorrectAnswers++
	}
	session.CurrentDifficulty = s.engine.NextDifficulty(session.CurrentDifficulty, isCorrect, session.Type)

	outcome := &AnswerOutcome{
		IsCorrect:        isCorrect,
		Score:            gradingResult.Score,
		CurrentScore:     session.Score,
		IncorrectAnswers: session.IncorrectAnswers,
		Grading:          gradingResult,
	}

	if session.IncorrectAnswers >= models.MaxIncorrectAnswers {
		result, err := s.finalizer.Finalize(ctx, session, models.CompletionThreshold)
		if err != nil {
			return nil, err
		}
		outcome.Completed = true
		outcome.Result = result
	} else if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	if s.answers != nil {
		record := &models.ExamAnswer{
			SessionID:        session.ID,
			QuestionID:       question.ID,
			UserAnswer:       submitted,
			IsCorrect:        isCorrect,
			Score:            gradingResult.Score,
			Grading:          gradingResult,
			TimeSpentSeconds: timeSpentSeconds,
			AnsweredAt:       time.Now(),
			QuestionSequence: len(session.History),
		}
		if err := s.answers.Create(ctx, record); err != nil {
			log.Printf("failed to store answer record for session %s: %v", session.ID, err)
		}
	}

	s.publish("exam.answer.submitted", map[string]interface{}{
		"session_id":  session.ID,
		"question_id": question.ID,
		"is_correct":  isCorrect,
		"score":       gradingResult.Score,
	})
	if gradingResult.Degraded {
		s.publish("exam.grading.degraded", map[string]interface{}{
			"session_id":  session.ID,
			"question_id": question.ID,
			"method":      gradingResult.Method,
		})
	}
	return outcome, nil
}

// FinalizeSession terminates a session on explicit request. Idempotent:
// repeat calls return the stored result.
func (s *SessionService) FinalizeSession(ctx context.Context, sessionID string) (*models.TestResult, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.finalizer.Finalize(ctx, session, models.CompletionManual)
}

// RecordProctorEvent appends a proctoring observation to an active session.
func (s *SessionService) RecordProctorEvent(ctx context.Context, sessionID, eventType, details string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsTerminal() {
		return ErrSessionComplete
	}
	session.ProctorEvents = append(session.ProctorEvents, models.ProctorEvent{
		Type:    eventType,
		Details: details,
		At:      time.Now(),
	})
	return s.sessions.Save(ctx, session)
}

func (s *SessionService) GetSessionAnswers(ctx context.Context, sessionID string) ([]models.ExamAnswer, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.answers.FindBySession(ctx, sessionID)
}

func (s *SessionService) publish(eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, payload); err != nil {
		log.Printf("failed to publish %s: %v", eventType, err)
	}
}
