package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"exam-service/internal/grading"
	"exam-service/internal/models"

	"github.com/google/uuid"
)

// QuestionStore is the slice of question persistence the generator needs.
type QuestionStore interface {
	CreateMany(ctx context.Context, questions []models.Question) error
	FindByIDs(ctx context.Context, ids []string) ([]models.Question, error)
}

// CacheStore tracks which question sets were already generated for a
// parameter fingerprint.
type CacheStore interface {
	FindFresh(ctx context.Context, fingerprint string) (*models.QuestionCacheEntry, error)
	Upsert(ctx context.Context, entry *models.QuestionCacheEntry) error
}

// Params describe one generation request.
type Params struct {
	IndustryVerticals []string `json:"industry_verticals"`
	Roles             []string `json:"roles"`
	Topics            []string `json:"topics"`
	Difficulties      []int    `json:"difficulties"`
	Count             int      `json:"count"`
	OpenEndedShare    float64  `json:"open_ended_share"`
}

// Generator produces exam questions through the LLM, caching results per
// parameter fingerprint so identical requests within the TTL reuse the same
// bank instead of burning provider calls.
type Generator struct {
	llm       grading.Client
	questions QuestionStore
	cache     CacheStore
	cacheTTL  time.Duration
}

func NewGenerator(llm grading.Client, questions QuestionStore, cache CacheStore, cacheTTL time.Duration) *Generator {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Generator{
		llm:       llm,
		questions: questions,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

type generatedQuestion struct {
	Text          string         `json:"text"`
	Type          string         `json:"type"`
	Options       []string       `json:"options"`
	CorrectOption string         `json:"correct_option"`
	Answer        string         `json:"answer"`
	Explanation   string         `json:"explanation"`
	Difficulty    int            `json:"difficulty"`
	Topics        []string       `json:"topics"`
	Rubric        *models.Rubric `json:"rubric"`
}

type generationResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

// Generate returns questions for the params, serving cached ids while fresh.
func (g *Generator) Generate(ctx context.Context, params Params) ([]models.Question, error) {
	if params.Count <= 0 {
		params.Count = 10
	}

	fingerprint := models.GenerationFingerprint(
		params.IndustryVerticals, params.Roles, params.Topics, params.Difficulties,
	)

	if entry, err := g.cache.FindFresh(ctx, fingerprint); err == nil && len(entry.QuestionIDs) > 0 {
		questions, err := g.questions.FindByIDs(ctx, entry.QuestionIDs)
		if err == nil && len(questions) > 0 {
			log.Printf("generation cache hit for fingerprint %.12s (%d questions)", fingerprint, len(questions))
			return questions, nil
		}
	}

	questions, err := g.generateFresh(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := g.questions.CreateMany(ctx, questions); err != nil {
		return nil, fmt.Errorf("failed to store generated questions: %w", err)
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	entry := &models.QuestionCacheEntry{
		Fingerprint: fingerprint,
		QuestionIDs: ids,
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(g.cacheTTL),
	}
	if err := g.cache.Upsert(ctx, entry); err != nil {
		// The questions themselves are stored; a stale cache only costs a
		// future regeneration.
		log.Printf("failed to cache generation fingerprint %.12s: %v", fingerprint, err)
	}

	return questions, nil
}

func (g *Generator) generateFresh(ctx context.Context, params Params) ([]models.Question, error) {
	systemPrompt := "You write rigorous professional exam questions. Respond with " +
		`a JSON object {"questions": [...]} where each question has "text", ` +
		`"type" ("multiple_choice" or "open_ended"), "difficulty" (1-10), ` +
		`"topics", and for multiple choice "options" plus "correct_option", ` +
		`or for open ended "answer", "explanation" and a "rubric" whose ` +
		`criteria weights sum to 100. No other output.`

	userPrompt := fmt.Sprintf(
		"Generate %d questions.\nIndustry verticals: %s\nRoles: %s\nTopics: %s\nDifficulties: %v\nRoughly %.0f%% should be open ended.",
		params.Count,
		strings.Join(params.IndustryVerticals, ", "),
		strings.Join(params.Roles, ", "),
		strings.Join(params.Topics, ", "),
		params.Difficulties,
		params.OpenEndedShare*100,
	)

	raw, err := g.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	var parsed generationResponse
	if err := json.Unmarshal([]byte(stripFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("generation response did not parse: %w", err)
	}
	if len(parsed.Questions) == 0 {
		return nil, fmt.Errorf("generation response contained no questions")
	}

	questions := make([]models.Question, 0, len(parsed.Questions))
	for _, gq := range parsed.Questions {
		q := models.Question{
			ID:                uuid.NewString(),
			Text:              gq.Text,
			Type:              gq.Type,
			Options:           gq.Options,
			CorrectOption:     gq.CorrectOption,
			Answer:            gq.Answer,
			Explanation:       gq.Explanation,
			Difficulty:        gq.Difficulty,
			Topics:            filterValid(gq.Topics, models.ValidTopics),
			IndustryVerticals: params.IndustryVerticals,
			Roles:             params.Roles,
			Rubric:            gq.Rubric,
			Source:            "generated",
			Status:            "active",
			CreatedAt:         time.Now(),
		}
		if q.Type == models.QuestionTypeOpenEnded && q.Rubric == nil {
			rubric, err := g.generateRubric(ctx, &q)
			if err != nil {
				log.Printf("rubric generation failed for %q, continuing without rubric: %v", firstWords(q.Text, 8), err)
			} else {
				q.Rubric = rubric
			}
		}
		if err := q.Validate(); err != nil {
			log.Printf("dropping invalid generated question: %v", err)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("all generated questions failed validation")
	}
	return questions, nil
}

// generateRubric is the once-per-question rubric pass; the result is cached
// on the question document.
func (g *Generator) generateRubric(ctx context.Context, q *models.Question) (*models.Rubric, error) {
	systemPrompt := "You design grading rubrics. Respond with a JSON object " +
		`{"criteria": [{"concept": "...", "description": "...", "weight": <number>}]} ` +
		"whose weights sum to 100. No other output."

	userPrompt := fmt.Sprintf("Question: %s\n\nModel answer: %s", q.Text, q.Answer)

	raw, err := g.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	var rubric models.Rubric
	if err := json.Unmarshal([]byte(stripFence(raw)), &rubric); err != nil {
		return nil, fmt.Errorf("rubric response did not parse: %w", err)
	}
	if err := rubric.Validate(); err != nil {
		return nil, err
	}
	return &rubric, nil
}

func filterValid(tags []string, valid map[string]bool) []string {
	var out []string
	for _, t := range tags {
		if valid[t] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = []string{"general"}
	}
	return out
}

func stripFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
