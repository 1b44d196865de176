package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"whispers/backend/internal/apperr"
	"whispers/backend/internal/models"
)

// ConnectMongo dials uri and pings the primary.
func ConnectMongo(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("Successfully connected to MongoDB")
	return client, nil
}

// MongoStore keeps each user's thoughts embedded in a document keyed by the
// user id. A version counter guards the read-modify-write of RemoveByID.
type MongoStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoStore(db *mongo.Database, collection string, logger *zap.Logger) *MongoStore {
	return &MongoStore{coll: db.Collection(collection), logger: logger}
}

func (s *MongoStore) FetchAll(ctx context.Context, userID string) ([]models.Thought, error) {
	if userID == "" {
		return nil, apperr.NotAuthenticated("fetch")
	}
	rec, err := s.find(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nonNil(nil), nil
	}
	if err != nil {
		return nil, apperr.FromMongo("fetch", err, apperr.KindReadFailed)
	}
	return nonNil(rec.Thoughts), nil
}

// Append pushes the thought, creating the user document when missing.
func (s *MongoStore) Append(ctx context.Context, userID string, thought models.Thought) error {
	if userID == "" {
		return apperr.NotAuthenticated("append")
	}
	update := bson.M{
		"$push": bson.M{"thoughts": thought},
		"$inc":  bson.M{"version": 1},
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.FromMongo("append", err, apperr.KindWriteFailed)
	}
	return nil
}

// RemoveByID reads the collection, filters it and writes it back only if the
// version read is still current.
func (s *MongoStore) RemoveByID(ctx context.Context, userID, thoughtID string) error {
	if userID == "" {
		return apperr.NotAuthenticated("remove")
	}
	rec, err := s.find(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return apperr.FromMongo("remove", err, apperr.KindWriteFailed)
	}
	kept, removed := withoutThought(rec.Thoughts, thoughtID)
	if !removed {
		return nil
	}

	filter := bson.M{"_id": userID, "version": rec.Version}
	if rec.Version == 0 {
		// documents written before versioning have no counter
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}
	update := bson.M{
		"$set": bson.M{"thoughts": kept},
		"$inc": bson.M{"version": 1},
	}
	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.FromMongo("remove", err, apperr.KindWriteFailed)
	}
	if result.MatchedCount == 0 {
		s.logger.Warn("thought collection changed during remove",
			zap.String("userId", userID),
			zap.String("thoughtId", thoughtID))
		return apperr.New(apperr.KindConflict, "remove", "thought collection changed since it was read")
	}
	return nil
}

func (s *MongoStore) find(ctx context.Context, userID string) (*models.UserRecord, error) {
	var rec models.UserRecord
	if err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
