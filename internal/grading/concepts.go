package grading

import (
	"fmt"
	"strings"

	"exam-service/internal/models"
)

// conceptDescriptions backfills rubric criteria that were stored without a
// usable description, so prompts never carry placeholder text.
var conceptDescriptions = map[string]string{
	"accuracy":             "Whether the factual claims in the answer are correct",
	"completeness":         "Whether the answer covers every part of the question",
	"clarity":              "Whether the answer is organized and easy to follow",
	"terminology":          "Whether domain terms are used correctly and precisely",
	"reasoning":            "Whether the answer shows a sound chain of reasoning",
	"quantitative":         "Whether calculations and figures are correct",
	"assumptions":          "Whether assumptions are stated and justified",
	"risk":                 "Whether relevant risks and trade-offs are identified",
	"valuation":            "Whether valuation methodology is applied correctly",
	"market context":       "Whether the answer reflects current market context",
	"practical judgment":   "Whether the answer shows practical, real-world judgment",
	"structure":            "Whether the response follows a logical structure",
	"depth":                "Whether the answer goes beyond surface-level points",
	"examples":             "Whether concrete examples support the argument",
	"financial statements": "Whether the three financial statements are linked correctly",
}

// BackfillRubric fills in missing criterion descriptions from the lookup
// table, or a generic one when the concept is unknown. Returns a copy; the
// stored rubric is never mutated.
func BackfillRubric(rubric *models.Rubric) *models.Rubric {
	if rubric == nil {
		return nil
	}
	out := &models.Rubric{Criteria: make([]models.RubricCriterion, len(rubric.Criteria))}
	copy(out.Criteria, rubric.Criteria)
	for i := range out.Criteria {
		c := &out.Criteria[i]
		desc := strings.TrimSpace(c.Description)
		if desc == "" || strings.EqualFold(desc, "n/a") {
			if known, ok := conceptDescriptions[strings.ToLower(c.Concept)]; ok {
				c.Description = known
			} else {
				c.Description = fmt.Sprintf("How well the answer addresses %s", c.Concept)
			}
		}
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "with": true,
	"that": true, "this": true, "from": true, "how": true, "well": true,
	"whether": true, "answer": true, "question": true, "about": true,
	"into": true, "over": true, "their": true, "your": true, "has": true,
	"have": true, "was": true, "were": true, "been": true, "its": true,
}

// tokenize lowercases and splits on non-letter runs, dropping stopwords and
// short fragments.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// keywordOverlap is the fraction of concept keywords that appear in the text,
// in [0,1]. Zero keywords yields zero overlap.
func keywordOverlap(conceptText, text string) float64 {
	keywords := tokenize(conceptText)
	if len(keywords) == 0 {
		return 0
	}
	present := map[string]bool{}
	for _, tok := range tokenize(text) {
		present[tok] = true
	}
	matched := 0
	for _, kw := range keywords {
		if present[kw] {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// proxyConceptFeedback derives per-concept feedback when the rubric pass
// failed but the holistic pass succeeded: the holistic score is distributed
// across concepts weighted by how relevant each concept is to the holistic
// feedback text, boosted when phrases were extracted for the concept.
func proxyConceptFeedback(
	rubric *models.Rubric,
	holisticScore float64,
	holisticFeedback string,
	extractions map[string][]string,
) []models.ConceptFeedback {
	feedback := make([]models.ConceptFeedback, 0, len(rubric.Criteria))
	for _, c := range rubric.Criteria {
		relevance := keywordOverlap(c.Concept+" "+c.Description, holisticFeedback)
		quality := holisticScore * (0.4 + 0.6*relevance)
		hasPhrases := len(extractions[strings.ToLower(c.Concept)]) > 0
		if hasPhrases {
			quality *= 1.25
		}
		if quality > 100 {
			quality = 100
		}
		if quality < 0 {
			quality = 0
		}
		feedback = append(feedback, models.ConceptFeedback{
			Concept:           c.Concept,
			Addressed:         hasPhrases || quality >= 40,
			QualityPercentage: quality,
			Feedback:          "Estimated from overall answer quality; detailed rubric evaluation was unavailable",
			Weight:            c.Weight,
		})
	}
	return feedback
}

// unavailableConceptFeedback is the bottom of the fallback ladder: grading
// ran without any AI assistance.
func unavailableConceptFeedback(rubric *models.Rubric) []models.ConceptFeedback {
	if rubric == nil {
		return nil
	}
	feedback := make([]models.ConceptFeedback, 0, len(rubric.Criteria))
	for _, c := range rubric.Criteria {
		feedback = append(feedback, models.ConceptFeedback{
			Concept:           c.Concept,
			Addressed:         false,
			QualityPercentage: 0,
			Feedback:          "AI grading unavailable",
			Weight:            c.Weight,
		})
	}
	return feedback
}

// WeightedRubricScore folds per-concept quality into a single 0-100 number.
func WeightedRubricScore(feedback []models.ConceptFeedback) float64 {
	if len(feedback) == 0 {
		return 0
	}
	total := 0.0
	weights := 0.0
	for _, f := range feedback {
		total += f.QualityPercentage / 100 * f.Weight
		weights += f.Weight
	}
	if weights == 0 {
		return 0
	}
	// Normalize so a rubric at 95 or 105 total weight still maps to [0,100].
	score := total / weights * 100
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
