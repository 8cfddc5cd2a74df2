package service

import (
	"context"
	"errors"
	"time"

	"exam-service/internal/models"
	"exam-service/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type QuestionService struct {
	Repo *repository.QuestionRepository
}

func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{Repo: repo}
}

func (s *QuestionService) ListQuestions(ctx context.Context) ([]models.Question, error) {
	return s.Repo.FindAll(ctx)
}

func (s *QuestionService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := question.Validate(); err != nil {
		return err
	}
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.Source == "" {
		question.Source = "seed"
	}
	question.Status = "active"
	question.CreatedAt = time.Now()
	return s.Repo.Create(ctx, question)
}

func (s *QuestionService) BulkCreateQuestions(ctx context.Context, questions []models.Question) (int, error) {
	valid := make([]models.Question, 0, len(questions))
	for i := range questions {
		q := questions[i]
		if err := q.Validate(); err != nil {
			return 0, err
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.Source == "" {
			q.Source = "seed"
		}
		q.Status = "active"
		q.CreatedAt = time.Now()
		valid = append(valid, q)
	}
	if err := s.Repo.CreateMany(ctx, valid); err != nil {
		return 0, err
	}
	return len(valid), nil
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, id string, update map[string]any) error {
	if err := s.Repo.Update(ctx, id, update); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

// DeleteQuestion soft-deletes: questions referenced by finished sessions
// must stay readable so historical scoring is reproducible.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}
