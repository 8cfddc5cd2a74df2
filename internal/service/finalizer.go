package service

import (
	"context"
	"errors"
	"log"
	"time"

	"exam-service/internal/models"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/mongo"
)

// MinResultsForPercentile is the smallest historical corpus a percentile is
// computed against; below this the ranking is statistically meaningless and
// is omitted.
const MinResultsForPercentile = 10

type ResultStore interface {
	Create(ctx context.Context, result *models.TestResult) error
	FindByID(ctx context.Context, id string) (*models.TestResult, error)
	FindBySession(ctx context.Context, sessionID string) (*models.TestResult, error)
	FindByUser(ctx context.Context, userID string) ([]models.TestResult, error)
	FinalScoresByType(ctx context.Context, testType, excludeUserID string) ([]float64, error)
}

type UserStore interface {
	AppendTestResult(ctx context.Context, userID, resultID string) error
}

// Finalizer turns a finished session into an immutable TestResult and marks
// the session terminal.
type Finalizer struct {
	sessions  SessionStore
	results   ResultStore
	users     UserStore
	publisher EventPublisher
}

func NewFinalizer(sessions SessionStore, results ResultStore, users UserStore, publisher EventPublisher) *Finalizer {
	return &Finalizer{
		sessions:  sessions,
		results:   results,
		users:     users,
		publisher: publisher,
	}
}

// Finalize computes and persists the result. Idempotent: a session that
// already has a result gets the stored snapshot back, bit for bit, with no
// recomputation.
func (f *Finalizer) Finalize(ctx context.Context, session *models.ExamSession, completionType string) (*models.TestResult, error) {
	if existing, err := f.results.FindBySession(ctx, session.ID); err == nil {
		// A result with a still-active session means a prior attempt died
		// between creating the result and saving the session. Repair the
		// session here so the retry leaves it terminal.
		if !session.IsTerminal() {
			if err := f.markTerminal(ctx, session, existing.CompletionType, existing.ID); err != nil {
				return nil, err
			}
		}
		return existing, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	now := time.Now()
	result := &models.TestResult{
		ID:                 uuid.NewString(),
		SessionID:          session.ID,
		UserID:             session.UserID,
		Type:               session.Type,
		FinalScore:         session.RunningScore(),
		QuestionBreakdown:  categoryBreakdown(session.History),
		QuestionsAttempted: len(session.History),
		IncorrectAnswers:   session.IncorrectAnswers,
		ProctoringEvents:   session.ProctorEvents,
		CompletionType:     completionType,
		TotalTimeSeconds:   int(now.Sub(session.StartTime).Seconds()),
		CreatedAt:          now,
	}

	if len(session.History) > 0 {
		difficulties := make([]float64, len(session.History))
		times := make([]float64, len(session.History))
		for i, a := range session.History {
			difficulties[i] = float64(a.Difficulty)
			times[i] = float64(a.TimeSpentSeconds)
		}
		if mean, err := stats.Mean(difficulties); err == nil {
			result.AverageDifficulty = mean
		}
		if max, err := stats.Max(difficulties); err == nil {
			result.MaxDifficulty = int(max)
		}
		if mean, err := stats.Mean(times); err == nil {
			result.TimePerQuestion = mean
		}
	}

	result.Percentile = f.percentile(ctx, session.Type, session.UserID, result.FinalScore)

	if err := f.results.Create(ctx, result); err != nil {
		return nil, err
	}
	if err := f.users.AppendTestResult(ctx, session.UserID, result.ID); err != nil {
		// The result document is the source of truth; the history pointer
		// can be repaired later.
		log.Printf("failed to append result %s to user %s history: %v", result.ID, session.UserID, err)
	}

	if err := f.markTerminal(ctx, session, completionType, result.ID); err != nil {
		return nil, err
	}

	if f.publisher != nil {
		if err := f.publisher.Publish("exam.session.finalized", map[string]interface{}{
			"session_id":      session.ID,
			"user_id":         session.UserID,
			"final_score":     result.FinalScore,
			"completion_type": completionType,
		}); err != nil {
			log.Printf("failed to publish finalize event for session %s: %v", session.ID, err)
		}
	}
	return result, nil
}

// markTerminal moves the session to its completed state and persists it.
func (f *Finalizer) markTerminal(ctx context.Context, session *models.ExamSession, completionType, resultID string) error {
	session.Status = models.SessionStatusCompleted
	session.CompletionType = completionType
	session.EndTime = time.Now()
	session.PendingQuestionID = ""
	session.ResultID = resultID
	return f.sessions.Save(ctx, session)
}

// percentile is the share of other users' prior same-type results scoring
// strictly below this score. Nil when the corpus is too small to rank
// against.
func (f *Finalizer) percentile(ctx context.Context, testType, userID string, finalScore float64) *float64 {
	priors, err := f.results.FinalScoresByType(ctx, testType, userID)
	if err != nil {
		log.Printf("percentile lookup failed for type %s: %v", testType, err)
		return nil
	}
	if len(priors) < MinResultsForPercentile {
		return nil
	}
	below := 0
	for _, score := range priors {
		if score < finalScore {
			below++
		}
	}
	pct := float64(below) / float64(len(priors)) * 100
	return &pct
}

func categoryBreakdown(history []models.QuestionAttempt) map[string]models.CategoryBreakdown {
	breakdown := make(map[string]models.CategoryBreakdown)
	for _, a := range history {
		entry := breakdown[a.Category]
		entry.Total++
		if a.Correct {
			entry.Correct++
		}
		breakdown[a.Category] = entry
	}
	return breakdown
}
