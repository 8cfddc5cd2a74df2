package grading

import (
	"math"
	"testing"

	"exam-service/internal/models"
)

func TestBackfillRubricDescriptions(t *testing.T) {
	rubric := &models.Rubric{
		Criteria: []models.RubricCriterion{
			{Concept: "reasoning", Description: "", Weight: 40},
			{Concept: "terminology", Description: "N/A", Weight: 30},
			{Concept: "obscure concept", Description: "", Weight: 30},
			{Concept: "clarity", Description: "Already described", Weight: 0},
		},
	}

	filled := BackfillRubric(rubric)

	for _, c := range filled.Criteria {
		if c.Description == "" || c.Description == "N/A" {
			t.Errorf("criterion %q still has unusable description %q", c.Concept, c.Description)
		}
	}
	if filled.Criteria[3].Description != "Already described" {
		t.Errorf("existing description was overwritten: %q", filled.Criteria[3].Description)
	}
	// Source rubric must not be mutated.
	if rubric.Criteria[0].Description != "" {
		t.Error("BackfillRubric mutated the input rubric")
	}
}

func TestBackfillRubricNil(t *testing.T) {
	if BackfillRubric(nil) != nil {
		t.Error("expected nil for nil rubric")
	}
}

func TestWeightedRubricScore(t *testing.T) {
	testCases := []struct {
		name     string
		feedback []models.ConceptFeedback
		expected float64
	}{
		{
			"perfect scores",
			[]models.ConceptFeedback{
				{QualityPercentage: 100, Weight: 60},
				{QualityPercentage: 100, Weight: 40},
			},
			100,
		},
		{
			"weighted blend",
			[]models.ConceptFeedback{
				{QualityPercentage: 80, Weight: 50},
				{QualityPercentage: 40, Weight: 50},
			},
			60,
		},
		{
			"weights at tolerance edge still bounded",
			[]models.ConceptFeedback{
				{QualityPercentage: 100, Weight: 55},
				{QualityPercentage: 100, Weight: 50},
			},
			100,
		},
		{"empty feedback", nil, 0},
		{"zero weights", []models.ConceptFeedback{{QualityPercentage: 90, Weight: 0}}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedRubricScore(tc.feedback)
			if math.Abs(got-tc.expected) > 0.01 {
				t.Errorf("WeightedRubricScore = %.2f, want %.2f", got, tc.expected)
			}
			if got < 0 || got > 100 {
				t.Errorf("score %.2f out of [0,100]", got)
			}
		})
	}
}

func TestKeywordOverlap(t *testing.T) {
	testCases := []struct {
		name    string
		concept string
		text    string
		want    float64
	}{
		{"full overlap", "discount valuation", "the valuation uses a discount rate", 1.0},
		{"no overlap", "terminal value", "completely unrelated words here", 0.0},
		{"empty concept", "", "some text", 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := keywordOverlap(tc.concept, tc.text)
			if math.Abs(got-tc.want) > 0.01 {
				t.Errorf("keywordOverlap(%q, %q) = %.2f, want %.2f", tc.concept, tc.text, got, tc.want)
			}
		})
	}
}

func TestProxyConceptFeedbackCaseInsensitivePhrases(t *testing.T) {
	rubric := &models.Rubric{
		Criteria: []models.RubricCriterion{
			{Concept: "Reasoning", Description: "chain of reasoning", Weight: 100},
		},
	}
	// Extraction keys are stored lowercased regardless of how the model
	// capitalized the concept.
	extractions := map[string][]string{"reasoning": {"first we project cash flows"}}

	feedback := proxyConceptFeedback(rubric, 60, "solid argument", extractions)
	if len(feedback) != 1 {
		t.Fatalf("feedback length = %d, want 1", len(feedback))
	}
	if !feedback[0].Addressed {
		t.Error("extracted phrases should mark the concept addressed despite case differences")
	}
	if feedback[0].QualityPercentage <= 60*0.4 {
		t.Errorf("quality %.1f shows the phrase boost was lost", feedback[0].QualityPercentage)
	}
}

func TestProxyConceptFeedbackDistribution(t *testing.T) {
	rubric := &models.Rubric{
		Criteria: []models.RubricCriterion{
			{Concept: "valuation", Description: "valuation methodology", Weight: 50},
			{Concept: "risk", Description: "risks and trade-offs", Weight: 50},
		},
	}
	holisticFeedback := "Good valuation methodology but risks were not discussed."
	extractions := map[string][]string{"valuation": {"DCF approach"}}

	feedback := proxyConceptFeedback(rubric, 80, holisticFeedback, extractions)

	if len(feedback) != 2 {
		t.Fatalf("feedback length = %d, want 2", len(feedback))
	}

	var valuation, risk models.ConceptFeedback
	for _, f := range feedback {
		switch f.Concept {
		case "valuation":
			valuation = f
		case "risk":
			risk = f
		}
	}

	// The concept with extracted phrases and feedback mentions gets the boost.
	if valuation.QualityPercentage <= risk.QualityPercentage {
		t.Errorf("expected valuation (%.1f) to outscore risk (%.1f)",
			valuation.QualityPercentage, risk.QualityPercentage)
	}
	if !valuation.Addressed {
		t.Error("concept with extracted phrases should be addressed")
	}
	for _, f := range feedback {
		if f.QualityPercentage < 0 || f.QualityPercentage > 100 {
			t.Errorf("concept %s quality %.1f out of range", f.Concept, f.QualityPercentage)
		}
		if f.Weight != 50 {
			t.Errorf("concept %s lost its weight", f.Concept)
		}
	}
}
