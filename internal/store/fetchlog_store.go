package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
)

type FetchLogStore struct {
	col *mongo.Collection
}

func NewFetchLogStore(db *mongo.Database) *FetchLogStore {
	return &FetchLogStore{col: db.Collection("fetchlogs")}
}

// AppendOperation pushes one operation entry onto the day's log, creating the
// day document on first write. Entries are never overwritten.
func (s *FetchLogStore) AppendOperation(ctx context.Context, date string, op models.FetchOperation) error {
	update := bson.M{
		"$push":        bson.M{"operations": op},
		"$setOnInsert": bson.M{"date": date},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"date": date}, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperrors.NewPersistence("fetchlogs.appendOperation", err)
	}
	return nil
}

// FindByDate returns the day's log, or NotFound when nothing ran that day.
func (s *FetchLogStore) FindByDate(ctx context.Context, date string) (*models.FetchLog, error) {
	var log models.FetchLog
	err := s.col.FindOne(ctx, bson.M{"date": date}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("fetch log", date)
		}
		return nil, apperrors.NewPersistence("fetchlogs.findByDate", err)
	}
	return &log, nil
}
