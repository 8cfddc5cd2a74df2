package models

import "time"

const (
	TestTypePractice = "practice"
	TestTypeOfficial = "official"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

const (
	CompletionThreshold = "incorrect_threshold"
	CompletionExhausted = "questions_exhausted"
	CompletionManual    = "manual_finalize"
)

// MaxIncorrectAnswers terminates a session once reached.
const MaxIncorrectAnswers = 5

// QuestionAttempt is one answered question in a session's history.
type QuestionAttempt struct {
	QuestionID       string    `bson:"question_id" json:"question_id"`
	Category         string    `bson:"category" json:"category"`
	Difficulty       int       `bson:"difficulty" json:"difficulty"`
	Correct          bool      `bson:"correct" json:"correct"`
	Score            float64   `bson:"score" json:"score"`
	TimeSpentSeconds int       `bson:"time_spent_seconds" json:"time_spent_seconds"`
	AnsweredAt       time.Time `bson:"answered_at" json:"answered_at"`
}

// ProctorEvent is a client-reported proctoring observation (tab switch,
// window blur, camera loss) attached to the session.
type ProctorEvent struct {
	Type    string    `bson:"type" json:"type"`
	Details string    `bson:"details,omitempty" json:"details,omitempty"`
	At      time.Time `bson:"at" json:"at"`
}

type ExamSession struct {
	ID                string            `bson:"_id,omitempty" json:"id"`
	UserID            string            `bson:"user_id" json:"user_id"`
	SessionToken      string            `bson:"session_token" json:"session_token"`
	Type              string            `bson:"type" json:"type"`
	CurrentDifficulty int               `bson:"current_difficulty" json:"current_difficulty"`
	Score             float64           `bson:"score" json:"score"`
	IncorrectAnswers  int               `bson:"incorrect_answers" json:"incorrect_answers"`
	AskedQuestionIDs  []string          `bson:"asked_question_ids" json:"asked_question_ids"`
	PendingQuestionID string            `bson:"pending_question_id" json:"pending_question_id"`
	History           []QuestionAttempt `bson:"history" json:"history"`
	ProctorEvents     []ProctorEvent    `bson:"proctor_events" json:"proctor_events"`
	StartTime         time.Time         `bson:"start_time" json:"start_time"`
	EndTime           time.Time         `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Status            string            `bson:"status" json:"status"`
	CompletionType    string            `bson:"completion_type,omitempty" json:"completion_type,omitempty"`
	ResultID          string            `bson:"result_id,omitempty" json:"result_id,omitempty"`
}

// IsTerminal reports whether the session accepts no further answers.
func (s *ExamSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted
}

// HasAsked reports whether a question was already issued in this session.
func (s *ExamSession) HasAsked(questionID string) bool {
	for _, id := range s.AskedQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// RunningScore is the mean of all per-question scores so far.
func (s *ExamSession) RunningScore() float64 {
	if len(s.History) == 0 {
		return 0
	}
	total := 0.0
	for _, a := range s.History {
		total += a.Score
	}
	return total / float64(len(s.History))
}
