package repository

import (
	"context"

	"exam-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("sessions")}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ExamSession, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	var session models.ExamSession
	if err := r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&session); err != nil {
		return nil, err
	}
	session.ID = id
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *models.ExamSession) error {
	res, err := r.Col.InsertOne(ctx, sessionDoc(session, primitive.NilObjectID))
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

// Save replaces the whole document. The session is small and owned by a
// single request at a time, so a full replace keeps store and memory in sync.
func (r *SessionRepository) Save(ctx context.Context, session *models.ExamSession) error {
	objID, err := primitive.ObjectIDFromHex(session.ID)
	if err != nil {
		return err
	}
	_, err = r.Col.ReplaceOne(ctx, bson.M{"_id": objID}, sessionDoc(session, objID))
	return err
}

// sessionDoc strips the hex id so Mongo keeps the ObjectID as _id.
func sessionDoc(session *models.ExamSession, id primitive.ObjectID) bson.M {
	doc := bson.M{
		"user_id":             session.UserID,
		"session_token":       session.SessionToken,
		"type":                session.Type,
		"current_difficulty":  session.CurrentDifficulty,
		"score":               session.Score,
		"incorrect_answers":   session.IncorrectAnswers,
		"asked_question_ids":  session.AskedQuestionIDs,
		"pending_question_id": session.PendingQuestionID,
		"history":             session.History,
		"proctor_events":      session.ProctorEvents,
		"start_time":          session.StartTime,
		"end_time":            session.EndTime,
		"status":              session.Status,
		"completion_type":     session.CompletionType,
		"result_id":           session.ResultID,
	}
	if !id.IsZero() {
		doc["_id"] = id
	}
	return doc
}
