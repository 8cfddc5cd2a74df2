package repository

import (
	"context"

	"exam-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("results")}
}

func (r *ResultRepository) Create(ctx context.Context, result *models.TestResult) error {
	_, err := r.Col.InsertOne(ctx, result)
	return err
}

func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.TestResult, error) {
	var result models.TestResult
	if err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultRepository) FindBySession(ctx context.Context, sessionID string) (*models.TestResult, error) {
	var result models.TestResult
	if err := r.Col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultRepository) FindByUser(ctx context.Context, userID string) ([]models.TestResult, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var results []models.TestResult
	for cur.Next(ctx) {
		var res models.TestResult
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// FinalScoresByType returns the stored final scores for one test type,
// excluding the given user's own results. Used by the finalizer to rank a
// fresh score against other test takers.
func (r *ResultRepository) FinalScoresByType(ctx context.Context, testType, excludeUserID string) ([]float64, error) {
	filter := bson.M{"type": testType}
	if excludeUserID != "" {
		filter["user_id"] = bson.M{"$ne": excludeUserID}
	}
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var scores []float64
	for cur.Next(ctx) {
		var res models.TestResult
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		scores = append(scores, res.FinalScore)
	}
	return scores, nil
}
