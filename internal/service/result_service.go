package service

import (
	"context"
	"errors"

	"exam-service/internal/models"
	"exam-service/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

type ResultService struct {
	Repo *repository.ResultRepository
}

func NewResultService(repo *repository.ResultRepository) *ResultService {
	return &ResultService{Repo: repo}
}

func (s *ResultService) GetResult(ctx context.Context, id string) (*models.TestResult, error) {
	result, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func (s *ResultService) GetResultBySession(ctx context.Context, sessionID string) (*models.TestResult, error) {
	result, err := s.Repo.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func (s *ResultService) GetResultsByUser(ctx context.Context, userID string) ([]models.TestResult, error) {
	return s.Repo.FindByUser(ctx, userID)
}
