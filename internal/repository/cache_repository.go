package repository

import (
	"context"
	"time"

	"exam-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CacheRepository struct {
	Col *mongo.Collection
}

func NewCacheRepository(db *mongo.Database) *CacheRepository {
	return &CacheRepository{Col: db.Collection("question_cache")}
}

// EnsureTTLIndex creates the expiry index. expireAfterSeconds of 0 makes
// Mongo drop each entry at its own expires_at.
func (r *CacheRepository) EnsureTTLIndex(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// FindFresh looks up an unexpired entry for the fingerprint. The expires_at
// guard also covers the TTL monitor's sweep lag.
func (r *CacheRepository) FindFresh(ctx context.Context, fingerprint string) (*models.QuestionCacheEntry, error) {
	var entry models.QuestionCacheEntry
	filter := bson.M{
		"fingerprint": fingerprint,
		"expires_at":  bson.M{"$gt": time.Now()},
	}
	if err := r.Col.FindOne(ctx, filter).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *CacheRepository) Upsert(ctx context.Context, entry *models.QuestionCacheEntry) error {
	filter := bson.M{"fingerprint": entry.Fingerprint}
	update := bson.M{"$set": bson.M{
		"fingerprint":  entry.Fingerprint,
		"question_ids": entry.QuestionIDs,
		"created_at":   entry.CreatedAt,
		"expires_at":   entry.ExpiresAt,
	}}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
