package models

import "time"

// Grading methods, most to least trustworthy.
const (
	GradingMethodExactMatch  = "exact_match"
	GradingMethodAI          = "ai"
	GradingMethodRubricProxy = "rubric_proxy"
	GradingMethodAIFallback  = "ai_unavailable"
)

// ConceptFeedback is the per-rubric-criterion outcome of grading an
// open-ended answer.
type ConceptFeedback struct {
	Concept           string  `bson:"concept" json:"concept"`
	Addressed         bool    `bson:"addressed" json:"addressed"`
	QualityPercentage float64 `bson:"quality_percentage" json:"quality_percentage"`
	Feedback          string  `bson:"feedback" json:"feedback"`
	Weight            float64 `bson:"weight" json:"weight"`
}

// GradingResult is produced for every submitted answer. The holistic Score is
// the score of record; RubricScore and ConceptsFeedback are diagnostic.
type GradingResult struct {
	Score            float64           `bson:"score" json:"score"`
	ConceptsFeedback []ConceptFeedback `bson:"concepts_feedback,omitempty" json:"concepts_feedback,omitempty"`
	HolisticFeedback string            `bson:"holistic_feedback,omitempty" json:"holistic_feedback,omitempty"`
	RubricScore      float64           `bson:"rubric_score" json:"rubric_score"`
	Method           string            `bson:"method" json:"method"`
	Degraded         bool              `bson:"degraded" json:"degraded"`
}

// ExamAnswer is the persisted record of one submitted answer.
type ExamAnswer struct {
	ID               string         `bson:"_id,omitempty" json:"id"`
	SessionID        string         `bson:"session_id" json:"session_id"`
	QuestionID       string         `bson:"question_id" json:"question_id"`
	UserAnswer       string         `bson:"user_answer" json:"user_answer"`
	IsCorrect        bool           `bson:"is_correct" json:"is_correct"`
	Score            float64        `bson:"score" json:"score"`
	Grading          *GradingResult `bson:"grading,omitempty" json:"grading,omitempty"`
	TimeSpentSeconds int            `bson:"time_spent_seconds" json:"time_spent_seconds"`
	AnsweredAt       time.Time      `bson:"answered_at" json:"answered_at"`
	QuestionSequence int            `bson:"question_sequence" json:"question_sequence"`
}
