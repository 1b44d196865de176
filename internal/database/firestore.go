package database

import (
	"context"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"whispers/backend/internal/apperr"
	"whispers/backend/internal/models"
)

// FirestoreStore keeps each user's thoughts in the "thoughts" array of the
// user's document.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     *zap.Logger
}

func NewFirestoreStore(client *firestore.Client, collection string, logger *zap.Logger) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection, logger: logger}
}

func (s *FirestoreStore) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(userID)
}

func (s *FirestoreStore) FetchAll(ctx context.Context, userID string) ([]models.Thought, error) {
	if userID == "" {
		return nil, apperr.NotAuthenticated("fetch")
	}
	snap, err := s.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nonNil(nil), nil
	}
	if err != nil {
		return nil, apperr.FromStatus("fetch", err, apperr.KindReadFailed)
	}
	var rec models.UserRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, apperr.Wrap(apperr.KindReadFailed, "fetch", err)
	}
	return nonNil(rec.Thoughts), nil
}

// Append merges the thought into the array without reading the document.
func (s *FirestoreStore) Append(ctx context.Context, userID string, thought models.Thought) error {
	if userID == "" {
		return apperr.NotAuthenticated("append")
	}
	_, err := s.doc(userID).Set(ctx, map[string]interface{}{
		"thoughts": firestore.ArrayUnion(thought),
	}, firestore.MergeAll)
	if err != nil {
		return apperr.FromStatus("append", err, apperr.KindWriteFailed)
	}
	return nil
}

// RemoveByID rewrites the array without the thought inside a single-attempt
// transaction, so a concurrent change fails with a conflict instead of being
// overwritten.
func (s *FirestoreStore) RemoveByID(ctx context.Context, userID, thoughtID string) error {
	if userID == "" {
		return apperr.NotAuthenticated("remove")
	}
	ref := s.doc(userID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var rec models.UserRecord
		if err := snap.DataTo(&rec); err != nil {
			return apperr.Wrap(apperr.KindWriteFailed, "remove", err)
		}
		kept, removed := withoutThought(rec.Thoughts, thoughtID)
		if !removed {
			return nil
		}
		return tx.Set(ref, map[string]interface{}{"thoughts": kept}, firestore.MergeAll)
	}, firestore.MaxAttempts(1))
	if err != nil {
		s.logger.Warn("firestore remove failed",
			zap.String("userId", userID),
			zap.String("thoughtId", thoughtID),
			zap.Error(err))
		return apperr.FromStatus("remove", err, apperr.KindWriteFailed)
	}
	return nil
}
