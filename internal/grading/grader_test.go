package grading

import (
	"context"
	"errors"
	"math"
	"testing"

	"exam-service/internal/models"
)

// scriptedClient returns canned responses in call order, or a shared error.
type scriptedClient struct {
	responses []string
	err       error
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if c.calls >= len(c.responses) {
		return "", errors.New("no scripted response left")
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func openEndedQuestion() *models.Question {
	return &models.Question{
		ID:          "q1",
		Text:        "Walk me through a DCF valuation.",
		Type:        models.QuestionTypeOpenEnded,
		Answer:      "Project free cash flows, discount at WACC, add terminal value.",
		Explanation: "A DCF values a company as the present value of its future cash flows.",
		Difficulty:  6,
		Rubric: &models.Rubric{
			Criteria: []models.RubricCriterion{
				{Concept: "reasoning", Description: "Sound chain of reasoning", Weight: 50},
				{Concept: "terminology", Description: "", Weight: 50},
			},
		},
	}
}

func TestMultipleChoiceExactness(t *testing.T) {
	question := &models.Question{
		Type:          models.QuestionTypeMultipleChoice,
		Options:       []string{"Paris", "London"},
		CorrectOption: "Paris",
	}
	grader := NewGrader(&scriptedClient{err: errors.New("should not be called")})

	testCases := []struct {
		name      string
		submitted string
		expected  float64
	}{
		{"verbatim match scores full", "Paris", 100},
		{"lowercase variant scores zero", "paris", 0},
		{"whitespace variant scores zero", " Paris", 0},
		{"wrong option scores zero", "London", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := grader.Grade(context.Background(), question, tc.submitted)
			if result.Score != tc.expected {
				t.Errorf("score = %.0f, want %.0f", result.Score, tc.expected)
			}
			if result.Method != models.GradingMethodExactMatch {
				t.Errorf("method = %s, want %s", result.Method, models.GradingMethodExactMatch)
			}
		})
	}
}

func TestFullAIGradingPath(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"score": 85, "feedback": "Solid reasoning with correct DCF terminology."}`,
		`{"extractions": [{"concept": "reasoning", "phrases": ["discount at WACC"]}, {"concept": "terminology", "phrases": ["free cash flow"]}]}`,
		`{"concepts": [{"concept": "reasoning", "addressed": true, "quality_percentage": 90, "feedback": "clear"}, {"concept": "terminology", "addressed": true, "quality_percentage": 80, "feedback": "precise"}]}`,
	}}
	grader := NewGrader(client)

	result := grader.Grade(context.Background(), openEndedQuestion(), "Project FCF, discount at WACC...")

	if result.Score != 85 {
		t.Errorf("holistic score = %.1f, want 85", result.Score)
	}
	if result.Method != models.GradingMethodAI {
		t.Errorf("method = %s, want %s", result.Method, models.GradingMethodAI)
	}
	if result.Degraded {
		t.Error("result should not be degraded on the happy path")
	}
	if len(result.ConceptsFeedback) != 2 {
		t.Fatalf("concepts feedback length = %d, want 2", len(result.ConceptsFeedback))
	}
	// (90*50 + 80*50) / 100 = 85
	if math.Abs(result.RubricScore-85) > 0.01 {
		t.Errorf("rubric score = %.2f, want 85", result.RubricScore)
	}
	// Weights come from the rubric, not the model output.
	for _, cf := range result.ConceptsFeedback {
		if cf.Weight != 50 {
			t.Errorf("concept %s weight = %.1f, want 50", cf.Concept, cf.Weight)
		}
	}
}

func TestRubricProxyFallbackOnMalformedEvaluation(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"score": 70, "feedback": "Reasonable reasoning but imprecise terminology."}`,
		`{"extractions": [{"concept": "reasoning", "phrases": ["discounting cash flows"]}]}`,
		`this is not json at all`,
	}}
	grader := NewGrader(client)

	question := openEndedQuestion()
	result := grader.Grade(context.Background(), question, "We discount the cash flows.")

	if result.Score != 70 {
		t.Errorf("holistic score = %.1f, want 70 (score of record survives rubric failure)", result.Score)
	}
	if result.Method != models.GradingMethodRubricProxy {
		t.Errorf("method = %s, want %s", result.Method, models.GradingMethodRubricProxy)
	}
	if !result.Degraded {
		t.Error("expected degraded flag on proxy fallback")
	}
	if len(result.ConceptsFeedback) != len(question.Rubric.Criteria) {
		t.Fatalf("concepts feedback length = %d, want %d", len(result.ConceptsFeedback), len(question.Rubric.Criteria))
	}
	for _, cf := range result.ConceptsFeedback {
		if cf.QualityPercentage < 0 || cf.QualityPercentage > 100 {
			t.Errorf("concept %s quality %.1f out of range", cf.Concept, cf.QualityPercentage)
		}
	}
}

func TestProxyFallbackKeepsPhraseBoostAcrossCase(t *testing.T) {
	// The extraction pass capitalizes the concept; the proxy path must still
	// credit the extracted phrases to the rubric's lowercase criterion.
	client := &scriptedClient{responses: []string{
		`{"score": 60, "feedback": "Covers the mechanics."}`,
		`{"extractions": [{"concept": "Reasoning", "phrases": ["discount the cash flows"]}]}`,
		`not json`,
	}}
	grader := NewGrader(client)

	result := grader.Grade(context.Background(), openEndedQuestion(), "We discount the cash flows.")

	if result.Method != models.GradingMethodRubricProxy {
		t.Fatalf("method = %s, want %s", result.Method, models.GradingMethodRubricProxy)
	}
	var reasoning *models.ConceptFeedback
	for i := range result.ConceptsFeedback {
		if result.ConceptsFeedback[i].Concept == "reasoning" {
			reasoning = &result.ConceptsFeedback[i]
		}
	}
	if reasoning == nil {
		t.Fatal("reasoning concept missing from feedback")
	}
	if !reasoning.Addressed {
		t.Error("concept with extracted phrases should be addressed regardless of case")
	}
}

func TestProxyFallbackOnOmittedConcept(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"score": 60, "feedback": "Partial answer."}`,
		`{"extractions": []}`,
		`{"concepts": [{"concept": "reasoning", "addressed": true, "quality_percentage": 60, "feedback": "ok"}]}`,
	}}
	grader := NewGrader(client)

	question := openEndedQuestion()
	result := grader.Grade(context.Background(), question, "Short answer.")

	if result.Method != models.GradingMethodRubricProxy {
		t.Errorf("method = %s, want %s when a concept is omitted", result.Method, models.GradingMethodRubricProxy)
	}
	if len(result.ConceptsFeedback) != len(question.Rubric.Criteria) {
		t.Errorf("concepts feedback length = %d, want %d", len(result.ConceptsFeedback), len(question.Rubric.Criteria))
	}
}

func TestExactMatchFallbackWhenLLMDown(t *testing.T) {
	grader := NewGrader(&scriptedClient{err: errors.New("connection refused")})
	question := openEndedQuestion()

	testCases := []struct {
		name      string
		submitted string
		expected  float64
	}{
		{"canonical answer scores full", "Project free cash flows, discount at WACC, add terminal value.", 100},
		{"case and padding are forgiven", "  project free cash flows, discount at wacc, add terminal value.  ", 100},
		{"anything else scores zero", "I would guess the multiples approach.", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := grader.Grade(context.Background(), question, tc.submitted)
			if result.Score != tc.expected {
				t.Errorf("score = %.0f, want %.0f", result.Score, tc.expected)
			}
			if result.Method != models.GradingMethodAIFallback {
				t.Errorf("method = %s, want %s", result.Method, models.GradingMethodAIFallback)
			}
			if !result.Degraded {
				t.Error("expected degraded flag")
			}
			if len(result.ConceptsFeedback) != len(question.Rubric.Criteria) {
				t.Fatalf("concepts feedback length = %d, want %d", len(result.ConceptsFeedback), len(question.Rubric.Criteria))
			}
			for _, cf := range result.ConceptsFeedback {
				if cf.QualityPercentage != 0 || cf.Addressed {
					t.Errorf("concept %s should report 0%% unaddressed when AI is down", cf.Concept)
				}
				if cf.Feedback != "AI grading unavailable" {
					t.Errorf("concept %s feedback = %q", cf.Concept, cf.Feedback)
				}
			}
		})
	}
}

func TestGradingNeverReturnsMalformedResult(t *testing.T) {
	question := openEndedQuestion()

	malformedResponses := []string{
		``,
		`{}`,
		`{"score": "not a number"}`,
		`{"feedback": "no score field"}`,
		"```json\n{broken\n```",
		`[1,2,3]`,
	}

	for _, raw := range malformedResponses {
		client := &scriptedClient{responses: []string{raw, raw, raw}}
		grader := NewGrader(client)

		result := grader.Grade(context.Background(), question, "An answer.")
		if result == nil {
			t.Fatalf("nil result for response %q", raw)
		}
		if math.IsNaN(result.Score) || result.Score < 0 || result.Score > 100 {
			t.Errorf("score %v out of range for response %q", result.Score, raw)
		}
		if len(result.ConceptsFeedback) != len(question.Rubric.Criteria) {
			t.Errorf("concepts feedback length = %d, want %d for response %q",
				len(result.ConceptsFeedback), len(question.Rubric.Criteria), raw)
		}
	}
}

func TestParseModelJSONStripsFences(t *testing.T) {
	var parsed holisticResponse
	raw := "```json\n{\"score\": 42, \"feedback\": \"ok\"}\n```"
	if err := parseModelJSON(raw, &parsed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Score == nil || *parsed.Score != 42 {
		t.Errorf("score not parsed from fenced JSON")
	}
}

func TestIsCorrectThreshold(t *testing.T) {
	open := openEndedQuestion()
	mc := &models.Question{Type: models.QuestionTypeMultipleChoice}

	testCases := []struct {
		name     string
		question *models.Question
		score    float64
		expected bool
	}{
		{"open ended at threshold", open, 50, true},
		{"open ended below threshold", open, 49.9, false},
		{"open ended high", open, 90, true},
		{"multiple choice full credit", mc, 100, true},
		{"multiple choice partial is wrong", mc, 99, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsCorrect(tc.question, &models.GradingResult{Score: tc.score})
			if got != tc.expected {
				t.Errorf("IsCorrect(score=%.1f) = %v, want %v", tc.score, got, tc.expected)
			}
		})
	}
}
