package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-service/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeQuestionStore struct {
	stored []models.Question
}

func (f *fakeQuestionStore) CreateMany(ctx context.Context, questions []models.Question) error {
	f.stored = append(f.stored, questions...)
	return nil
}

func (f *fakeQuestionStore) FindByIDs(ctx context.Context, ids []string) ([]models.Question, error) {
	var out []models.Question
	for _, q := range f.stored {
		for _, id := range ids {
			if q.ID == id {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

type fakeCacheStore struct {
	entries map[string]*models.QuestionCacheEntry
}

func (f *fakeCacheStore) FindFresh(ctx context.Context, fingerprint string) (*models.QuestionCacheEntry, error) {
	if entry, ok := f.entries[fingerprint]; ok && entry.ExpiresAt.After(time.Now()) {
		return entry, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeCacheStore) Upsert(ctx context.Context, entry *models.QuestionCacheEntry) error {
	if f.entries == nil {
		f.entries = map[string]*models.QuestionCacheEntry{}
	}
	f.entries[entry.Fingerprint] = entry
	return nil
}

type cannedLLM struct {
	response string
	err      error
	calls    int
}

func (c *cannedLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

const generationJSON = `{"questions": [
	{"text": "What is EBITDA?", "type": "multiple_choice", "difficulty": 3,
	 "topics": ["accounting"],
	 "options": ["Earnings metric", "A bond"], "correct_option": "Earnings metric"},
	{"text": "Walk through an LBO.", "type": "open_ended", "difficulty": 7,
	 "topics": ["valuation"], "answer": "Fund the purchase with debt, grow, exit.",
	 "explanation": "Leverage amplifies equity returns.",
	 "rubric": {"criteria": [
		{"concept": "reasoning", "description": "Sound reasoning", "weight": 60},
		{"concept": "terminology", "description": "Correct terms", "weight": 40}]}}
]}`

func TestGenerateStoresAndCaches(t *testing.T) {
	store := &fakeQuestionStore{}
	cache := &fakeCacheStore{}
	llm := &cannedLLM{response: generationJSON}

	gen := NewGenerator(llm, store, cache, time.Hour)
	params := Params{
		IndustryVerticals: []string{"investment_banking"},
		Roles:             []string{"analyst"},
		Topics:            []string{"valuation"},
		Difficulties:      []int{3, 7},
		Count:             2,
	}

	questions, err := gen.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if len(store.stored) != 2 {
		t.Errorf("stored %d questions, want 2", len(store.stored))
	}

	// Second call with identical params must come from cache without a
	// fresh LLM call.
	callsBefore := llm.calls
	again, err := gen.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error on cache hit: %v", err)
	}
	if llm.calls != callsBefore {
		t.Errorf("cache hit still called the LLM (%d -> %d calls)", callsBefore, llm.calls)
	}
	if len(again) != 2 {
		t.Errorf("cache hit returned %d questions, want 2", len(again))
	}
}

func TestGenerateFingerprintIgnoresOrder(t *testing.T) {
	a := models.GenerationFingerprint(
		[]string{"investment_banking", "private_equity"},
		[]string{"analyst"},
		[]string{"valuation", "accounting"},
		[]int{3, 7},
	)
	b := models.GenerationFingerprint(
		[]string{"private_equity", "investment_banking"},
		[]string{"analyst"},
		[]string{"accounting", "valuation"},
		[]int{7, 3},
	)
	if a != b {
		t.Error("fingerprint should be order independent")
	}

	c := models.GenerationFingerprint(
		[]string{"private_equity"},
		[]string{"analyst"},
		[]string{"accounting", "valuation"},
		[]int{7, 3},
	)
	if a == c {
		t.Error("different parameters must not collide")
	}
}

func TestGenerateInvalidQuestionsDropped(t *testing.T) {
	store := &fakeQuestionStore{}
	cache := &fakeCacheStore{}
	// Second question has an out-of-range difficulty and must be dropped.
	llm := &cannedLLM{response: `{"questions": [
		{"text": "Valid?", "type": "multiple_choice", "difficulty": 5,
		 "topics": ["general"], "options": ["Yes", "No"], "correct_option": "Yes"},
		{"text": "Broken", "type": "multiple_choice", "difficulty": 15,
		 "topics": ["general"], "options": ["A", "B"], "correct_option": "A"}
	]}`}

	gen := NewGenerator(llm, store, cache, time.Hour)
	questions, err := gen.Generate(context.Background(), Params{Count: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 {
		t.Errorf("got %d questions, want 1 after dropping the invalid one", len(questions))
	}
}

func TestGenerateLLMFailure(t *testing.T) {
	gen := NewGenerator(&cannedLLM{err: errors.New("provider down")}, &fakeQuestionStore{}, &fakeCacheStore{}, time.Hour)
	if _, err := gen.Generate(context.Background(), Params{Count: 3}); err == nil {
		t.Error("expected error when the LLM is unavailable")
	}
}
