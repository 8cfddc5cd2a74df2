package models

import "time"

// CategoryBreakdown counts correct answers per question category.
type CategoryBreakdown struct {
	Correct int `bson:"correct" json:"correct"`
	Total   int `bson:"total" json:"total"`
}

// TestResult is the immutable final snapshot of a completed session.
// Percentile is nil when too few prior results exist to rank against.
type TestResult struct {
	ID                 string                       `bson:"_id,omitempty" json:"id"`
	SessionID          string                       `bson:"session_id" json:"session_id"`
	UserID             string                       `bson:"user_id" json:"user_id"`
	Type               string                       `bson:"type" json:"type"`
	FinalScore         float64                      `bson:"final_score" json:"final_score"`
	Percentile         *float64                     `bson:"percentile,omitempty" json:"percentile,omitempty"`
	QuestionBreakdown  map[string]CategoryBreakdown `bson:"question_breakdown" json:"question_breakdown"`
	AverageDifficulty  float64                      `bson:"average_difficulty" json:"average_difficulty"`
	MaxDifficulty      int                          `bson:"max_difficulty" json:"max_difficulty"`
	TimePerQuestion    float64                      `bson:"time_per_question" json:"time_per_question"`
	TotalTimeSeconds   int                          `bson:"total_time_seconds" json:"total_time_seconds"`
	QuestionsAttempted int                          `bson:"questions_attempted" json:"questions_attempted"`
	IncorrectAnswers   int                          `bson:"incorrect_answers" json:"incorrect_answers"`
	ProctoringEvents   []ProctorEvent               `bson:"proctoring_events,omitempty" json:"proctoring_events,omitempty"`
	CompletionType     string                       `bson:"completion_type" json:"completion_type"`
	CreatedAt          time.Time                    `bson:"created_at" json:"created_at"`
}
