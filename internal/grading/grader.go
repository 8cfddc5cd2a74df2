package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"exam-service/internal/models"
)

// CorrectnessThreshold is the holistic score at or above which an open-ended
// answer counts as correct for the session's incorrect-answer counter.
const CorrectnessThreshold = 50.0

// Grader scores submitted answers. Every path returns a well-formed
// GradingResult; AI failures degrade through the fallback ladder and are
// never surfaced as errors.
type Grader struct {
	llm Client
}

func NewGrader(llm Client) *Grader {
	return &Grader{llm: llm}
}

// Grade scores an answer against a question. Bounded to [0,100], never nil.
func (g *Grader) Grade(ctx context.Context, question *models.Question, submitted string) *models.GradingResult {
	if question.Type == models.QuestionTypeMultipleChoice {
		return gradeMultipleChoice(question, submitted)
	}
	return g.gradeWrittenAnswer(ctx, question, submitted)
}

// IsCorrect applies the correctness policy to a grading result: binary for
// multiple choice, thresholded for open-ended.
func IsCorrect(question *models.Question, result *models.GradingResult) bool {
	if question.Type == models.QuestionTypeMultipleChoice {
		return result.Score == 100
	}
	return result.Score >= CorrectnessThreshold
}

// gradeMultipleChoice is exact string equality with the stored option.
// Case and whitespace variants score zero.
func gradeMultipleChoice(question *models.Question, submitted string) *models.GradingResult {
	score := 0.0
	if submitted == question.CorrectOption {
		score = 100
	}
	return &models.GradingResult{
		Score:  score,
		Method: models.GradingMethodExactMatch,
	}
}

type holisticResponse struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

type extractionResponse struct {
	Extractions []struct {
		Concept string   `json:"concept"`
		Phrases []string `json:"phrases"`
	} `json:"extractions"`
}

type evaluationResponse struct {
	Concepts []struct {
		Concept           string  `json:"concept"`
		Addressed         bool    `json:"addressed"`
		QualityPercentage float64 `json:"quality_percentage"`
		Feedback          string  `json:"feedback"`
	} `json:"concepts"`
}

// gradeWrittenAnswer runs the holistic pass, then the rubric pass when the
// question carries a rubric. The holistic score is the score of record; the
// rubric breakdown is diagnostic.
func (g *Grader) gradeWrittenAnswer(ctx context.Context, question *models.Question, submitted string) *models.GradingResult {
	rubric := BackfillRubric(question.Rubric)

	holisticScore, holisticFeedback, err := g.gradeHolistic(ctx, question, submitted)
	if err != nil {
		log.Printf("holistic grading unavailable for question %s: %v", question.ID, err)
		return exactMatchFallback(question, submitted, rubric)
	}

	result := &models.GradingResult{
		Score:            clampScore(holisticScore),
		HolisticFeedback: holisticFeedback,
		Method:           models.GradingMethodAI,
	}

	if rubric == nil {
		return result
	}

	extractions := g.extractConcepts(ctx, question, submitted, rubric)

	concepts, err := g.evaluateConcepts(ctx, question, submitted, rubric, extractions)
	if err != nil {
		log.Printf("rubric evaluation degraded for question %s: %v", question.ID, err)
		concepts = proxyConceptFeedback(rubric, result.Score, holisticFeedback, extractions)
		result.Method = models.GradingMethodRubricProxy
		result.Degraded = true
	}

	result.ConceptsFeedback = concepts
	result.RubricScore = WeightedRubricScore(concepts)
	return result
}

func (g *Grader) gradeHolistic(ctx context.Context, question *models.Question, submitted string) (float64, string, error) {
	systemPrompt := "You are an expert exam grader. Grade the student's answer " +
		"holistically against the model answer. Respond with a JSON object " +
		`{"score": <0-100>, "feedback": "<one paragraph>"} and nothing else.`

	userPrompt := fmt.Sprintf(
		"Question: %s\n\nModel answer: %s\n\nExplanation: %s\n\nStudent answer: %s",
		question.Text, question.Answer, question.Explanation, submitted,
	)

	raw, err := g.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return 0, "", err
	}

	var parsed holisticResponse
	if err := parseModelJSON(raw, &parsed); err != nil {
		return 0, "", fmt.Errorf("holistic response did not parse: %w", err)
	}
	if parsed.Score == nil {
		return 0, "", fmt.Errorf("holistic response missing score")
	}
	return *parsed.Score, parsed.Feedback, nil
}

// extractConcepts asks for verbatim phrases per rubric concept. A failure
// here only weakens the later passes, so it degrades to no extractions.
func (g *Grader) extractConcepts(ctx context.Context, question *models.Question, submitted string, rubric *models.Rubric) map[string][]string {
	concepts := make([]string, len(rubric.Criteria))
	for i, c := range rubric.Criteria {
		concepts[i] = c.Concept
	}

	systemPrompt := "You extract evidence from student answers. For each listed " +
		"concept, quote the verbatim phrases from the student answer that relate " +
		"to it. Respond with a JSON object " +
		`{"extractions": [{"concept": "...", "phrases": ["..."]}]} and nothing else.`

	userPrompt := fmt.Sprintf(
		"Question: %s\n\nConcepts: %s\n\nStudent answer: %s",
		question.Text, strings.Join(concepts, ", "), submitted,
	)

	raw, err := g.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Printf("concept extraction unavailable for question %s: %v", question.ID, err)
		return map[string][]string{}
	}

	var parsed extractionResponse
	if err := parseModelJSON(raw, &parsed); err != nil {
		log.Printf("concept extraction did not parse for question %s: %v", question.ID, err)
		return map[string][]string{}
	}

	// Keyed by lowercased concept so a model echoing "Reasoning" still maps
	// onto the rubric's "reasoning".
	extractions := make(map[string][]string, len(parsed.Extractions))
	for _, e := range parsed.Extractions {
		extractions[strings.ToLower(e.Concept)] = e.Phrases
	}
	return extractions
}

// evaluateConcepts rates each rubric concept 0-100 given the extracted
// phrases. The returned slice always covers every criterion in rubric order.
func (g *Grader) evaluateConcepts(
	ctx context.Context,
	question *models.Question,
	submitted string,
	rubric *models.Rubric,
	extractions map[string][]string,
) ([]models.ConceptFeedback, error) {
	var sb strings.Builder
	for _, c := range rubric.Criteria {
		fmt.Fprintf(&sb, "- %s: %s", c.Concept, c.Description)
		if phrases := extractions[strings.ToLower(c.Concept)]; len(phrases) > 0 {
			fmt.Fprintf(&sb, " (student wrote: %q)", strings.Join(phrases, "; "))
		}
		sb.WriteString("\n")
	}

	systemPrompt := "You are an expert exam grader. Rate how well the student " +
		"answer addresses each rubric concept. Respond with a JSON object " +
		`{"concepts": [{"concept": "...", "addressed": <bool>, ` +
		`"quality_percentage": <0-100>, "feedback": "..."}]} and nothing else.`

	userPrompt := fmt.Sprintf(
		"Question: %s\n\nModel answer: %s\n\nRubric:\n%s\nStudent answer: %s",
		question.Text, question.Answer, sb.String(), submitted,
	)

	raw, err := g.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var parsed evaluationResponse
	if err := parseModelJSON(raw, &parsed); err != nil {
		return nil, fmt.Errorf("evaluation response did not parse: %w", err)
	}

	rated := make(map[string]models.ConceptFeedback, len(parsed.Concepts))
	for _, c := range parsed.Concepts {
		rated[strings.ToLower(c.Concept)] = models.ConceptFeedback{
			Concept:           c.Concept,
			Addressed:         c.Addressed,
			QualityPercentage: clampScore(c.QualityPercentage),
			Feedback:          c.Feedback,
		}
	}

	feedback := make([]models.ConceptFeedback, 0, len(rubric.Criteria))
	for _, criterion := range rubric.Criteria {
		entry, ok := rated[strings.ToLower(criterion.Concept)]
		if !ok {
			return nil, fmt.Errorf("evaluation response omitted concept %q", criterion.Concept)
		}
		entry.Concept = criterion.Concept
		entry.Weight = criterion.Weight
		feedback = append(feedback, entry)
	}
	return feedback, nil
}

// exactMatchFallback is the bottom rung: no AI available at all. Trimmed,
// lowercased equality with the canonical answer.
func exactMatchFallback(question *models.Question, submitted string, rubric *models.Rubric) *models.GradingResult {
	score := 0.0
	if strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(question.Answer)) {
		score = 100
	}
	return &models.GradingResult{
		Score:            score,
		ConceptsFeedback: unavailableConceptFeedback(rubric),
		HolisticFeedback: "AI grading unavailable",
		Method:           models.GradingMethodAIFallback,
		Degraded:         true,
	}
}

// parseModelJSON strictly unmarshals model output after stripping a markdown
// code fence if present. Anything else malformed is an error; no scraping.
func parseModelJSON(raw string, v interface{}) error {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return json.Unmarshal([]byte(cleaned), v)
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
