package repository

import (
	"context"
	"fmt"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRouteWatchRepository implements RouteWatchRepository on MongoDB
type MongoRouteWatchRepository struct {
	collection *mongo.Collection
}

// NewMongoRouteWatchRepository creates the route watch repository and its indexes
func NewMongoRouteWatchRepository(ctx context.Context, db *mongo.Database) (repository.RouteWatchRepository, error) {
	collection := db.Collection("route_watches")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "originCode", Value: 1}, {Key: "destinationCode", Value: 1}, {Key: "carrierCode", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_route_watches_triple"),
		},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "lastFetchedAt", Value: 1}},
			Options: options.Index().SetName("idx_route_watches_active"),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create route watch indexes: %w", err)
	}

	return &MongoRouteWatchRepository{
		collection: collection,
	}, nil
}

// Touch returns the watch for the triple, creating an active one on first sight
func (r *MongoRouteWatchRepository) Touch(ctx context.Context, origin, destination, carrier string) (*entity.RouteWatch, error) {
	now := time.Now().UTC()
	filter := bson.M{"originCode": origin, "destinationCode": destination, "carrierCode": carrier}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"isActive":  true,
			"createdAt": now,
		},
		"$set": bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var watch entity.RouteWatch
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&watch); err != nil {
		return nil, fmt.Errorf("failed to touch route watch: %w", err)
	}
	return &watch, nil
}

// MarkFetched records when the route was last fetched
func (r *MongoRouteWatchRepository) MarkFetched(ctx context.Context, id string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"lastFetchedAt": at.UTC(),
			"updatedAt":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark route watch fetched: %w", err)
	}
	return nil
}

// ListStalest returns active watches; missing lastFetchedAt sorts first
func (r *MongoRouteWatchRepository) ListStalest(ctx context.Context, limit int) ([]*entity.RouteWatch, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "lastFetchedAt", Value: 1}, {Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list route watches: %w", err)
	}
	defer cursor.Close(ctx)

	var watches []*entity.RouteWatch
	if err := cursor.All(ctx, &watches); err != nil {
		return nil, fmt.Errorf("failed to decode route watches: %w", err)
	}
	return watches, nil
}
