package models

import (
	"fmt"
	"math"
	"time"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeOpenEnded      = "open_ended"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// RubricWeightTolerance is how far criterion weights may drift from 100.
const RubricWeightTolerance = 5.0

type RubricCriterion struct {
	Concept     string  `bson:"concept" json:"concept"`
	Description string  `bson:"description" json:"description"`
	Weight      float64 `bson:"weight" json:"weight"`
}

type Rubric struct {
	Criteria []RubricCriterion `bson:"criteria" json:"criteria"`
}

// TotalWeight sums all criterion weights.
func (r *Rubric) TotalWeight() float64 {
	total := 0.0
	for _, c := range r.Criteria {
		total += c.Weight
	}
	return total
}

// Validate checks that the rubric has criteria and weights summing to 100
// within tolerance.
func (r *Rubric) Validate() error {
	if len(r.Criteria) == 0 {
		return fmt.Errorf("rubric has no criteria")
	}
	for i, c := range r.Criteria {
		if c.Concept == "" {
			return fmt.Errorf("rubric criterion %d has no concept", i)
		}
		if c.Weight < 0 {
			return fmt.Errorf("rubric criterion %q has negative weight", c.Concept)
		}
	}
	if total := r.TotalWeight(); math.Abs(total-100) > RubricWeightTolerance {
		return fmt.Errorf("rubric weights sum to %.1f, expected 100 (±%.0f)", total, RubricWeightTolerance)
	}
	return nil
}

type Question struct {
	ID                string    `bson:"_id,omitempty" json:"id"`
	Text              string    `bson:"text" json:"text"`
	Type              string    `bson:"type" json:"type"`
	Options           []string  `bson:"options,omitempty" json:"options,omitempty"`
	CorrectOption     string    `bson:"correct_option,omitempty" json:"correct_option,omitempty"`
	Answer            string    `bson:"answer,omitempty" json:"answer,omitempty"`
	Explanation       string    `bson:"explanation,omitempty" json:"explanation,omitempty"`
	Difficulty        int       `bson:"difficulty" json:"difficulty"`
	Topics            []string  `bson:"topics" json:"topics"`
	IndustryVerticals []string  `bson:"industry_verticals" json:"industry_verticals"`
	Roles             []string  `bson:"roles" json:"roles"`
	Rubric            *Rubric   `bson:"rubric,omitempty" json:"rubric,omitempty"`
	Source            string    `bson:"source" json:"source"`
	Status            string    `bson:"status" json:"status"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}

// ValidTopics is the fixed topic enumeration questions are tagged with.
var ValidTopics = map[string]bool{
	"accounting":         true,
	"corporate_finance":  true,
	"valuation":          true,
	"financial_modeling": true,
	"market_analysis":    true,
	"risk_management":    true,
	"economics":          true,
	"statistics":         true,
	"ethics":             true,
	"general":            true,
}

var ValidIndustryVerticals = map[string]bool{
	"investment_banking": true,
	"private_equity":     true,
	"hedge_funds":        true,
	"asset_management":   true,
	"consulting":         true,
	"corporate":          true,
	"technology":         true,
}

var ValidRoles = map[string]bool{
	"analyst":    true,
	"associate":  true,
	"vp":         true,
	"director":   true,
	"intern":     true,
	"generalist": true,
}

// Category is the primary classification bucket used for result breakdowns.
func (q *Question) Category() string {
	if len(q.Topics) > 0 {
		return q.Topics[0]
	}
	return "general"
}

// Validate checks structural and tag constraints before a question is stored.
func (q *Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("question text is required")
	}
	if q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty {
		return fmt.Errorf("difficulty %d out of range [%d,%d]", q.Difficulty, MinDifficulty, MaxDifficulty)
	}
	switch q.Type {
	case QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("multiple choice question needs at least 2 options")
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectOption {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("correct option %q is not among the options", q.CorrectOption)
		}
	case QuestionTypeOpenEnded:
		if q.Answer == "" {
			return fmt.Errorf("open ended question needs a canonical answer")
		}
		if q.Rubric != nil {
			if err := q.Rubric.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	for _, t := range q.Topics {
		if !ValidTopics[t] {
			return fmt.Errorf("unknown topic %q", t)
		}
	}
	for _, v := range q.IndustryVerticals {
		if !ValidIndustryVerticals[v] {
			return fmt.Errorf("unknown industry vertical %q", v)
		}
	}
	for _, r := range q.Roles {
		if !ValidRoles[r] {
			return fmt.Errorf("unknown role %q", r)
		}
	}
	return nil
}

// Sanitized returns a copy safe to send to a test taker: answer, explanation,
// rubric and the correct option are stripped.
func (q *Question) Sanitized() *Question {
	out := *q
	out.CorrectOption = ""
	out.Answer = ""
	out.Explanation = ""
	out.Rubric = nil
	return &out
}
