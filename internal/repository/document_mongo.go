package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitness-tracker/internal/model"
)

// MongoDocumentStore keeps one record family in a MongoDB collection. Documents carry
// their id in _id and the owner and date in top-level owner/date fields.
type MongoDocumentStore[T Document] struct {
	coll    *mongo.Collection
	unique  bool
	timeout time.Duration
}

func NewMongoDocumentStore[T Document](db *mongo.Database, collection string, uniquePerDate bool, timeout time.Duration) *MongoDocumentStore[T] {
	return &MongoDocumentStore[T]{coll: db.Collection(collection), unique: uniquePerDate, timeout: timeout}
}

// EnsureIndexes creates the (owner, date) compound index, unique for dated families.
func (s *MongoDocumentStore[T]) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetName("owner_date").SetUnique(s.unique),
	}
	if _, err := s.coll.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("create index on %s: %w", s.coll.Name(), err)
	}
	return nil
}

func (s *MongoDocumentStore[T]) Insert(ctx context.Context, doc T) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert %s for %s: %w", s.coll.Name(), doc.RecordDate(), model.ErrConflict)
	}
	if err != nil {
		return upstream("insert "+s.coll.Name(), err)
	}
	return nil
}

func (s *MongoDocumentStore[T]) findOne(ctx context.Context, filter bson.M, what string) (T, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var doc T
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, fmt.Errorf("find %s %s: %w", s.coll.Name(), what, model.ErrNotFound)
	}
	if err != nil {
		return doc, upstream("find "+s.coll.Name(), err)
	}
	return doc, nil
}

func (s *MongoDocumentStore[T]) FindByID(ctx context.Context, id string) (T, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id)
}

func (s *MongoDocumentStore[T]) FindByOwnerAndDate(ctx context.Context, owner string, date string) (T, error) {
	return s.findOne(ctx, bson.M{"owner": owner, "date": date}, "for "+date)
}

func (s *MongoDocumentStore[T]) FindByOwner(ctx context.Context, owner string, window model.DateRange) ([]T, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"owner": owner}
	dateFilter := bson.M{}
	if window.From != "" {
		dateFilter["$gte"] = window.From
	}
	if window.To != "" {
		dateFilter["$lte"] = window.To
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, upstream("list "+s.coll.Name(), err)
	}

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, upstream("decode "+s.coll.Name(), err)
	}
	return docs, nil
}

func (s *MongoDocumentStore[T]) Replace(ctx context.Context, doc T) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.RecordID()}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("replace %s for %s: %w", s.coll.Name(), doc.RecordDate(), model.ErrConflict)
	}
	if err != nil {
		return upstream("replace "+s.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace %s %s: %w", s.coll.Name(), doc.RecordID(), model.ErrNotFound)
	}
	return nil
}

func (s *MongoDocumentStore[T]) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return upstream("delete "+s.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s %s: %w", s.coll.Name(), id, model.ErrNotFound)
	}
	return nil
}

func (s *MongoDocumentStore[T]) ExistsForOwnerAndDate(ctx context.Context, owner string, date string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.coll.CountDocuments(ctx, bson.M{"owner": owner, "date": date}, options.Count().SetLimit(1))
	if err != nil {
		return false, upstream("count "+s.coll.Name(), err)
	}
	return count > 0, nil
}
