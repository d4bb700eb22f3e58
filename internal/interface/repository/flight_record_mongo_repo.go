package repository

import (
	"context"
	"fmt"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFlightRecordRepository implements FlightRecordRepository on MongoDB
type MongoFlightRecordRepository struct {
	collection *mongo.Collection
}

// flightRecordDocument is the stored shape of a flight record
type flightRecordDocument struct {
	ID              string    `bson:"_id"`
	CarrierCode     string    `bson:"carrierCode"`
	FlightNumber    string    `bson:"flightNumber"`
	OriginCode      string    `bson:"originCode"`
	DestinationCode string    `bson:"destinationCode"`
	ServiceDate     time.Time `bson:"serviceDate"`
	DepartureTime   string    `bson:"departureTime"`
	ArrivalTime     string    `bson:"arrivalTime"`
	DurationMinutes int       `bson:"durationMinutes"`
	StopCount       int       `bson:"stopCount"`
	CabinClass      string    `bson:"cabinClass"`
	PointsRequired  int       `bson:"pointsRequired"`
	SeatsAvailable  int       `bson:"seatsAvailable"`
	FetchedAt       time.Time `bson:"fetchedAt"`
}

// NewMongoFlightRecordRepository creates the flight record repository and its indexes
func NewMongoFlightRecordRepository(ctx context.Context, db *mongo.Database) (repository.FlightRecordRepository, error) {
	collection := db.Collection("flight_records")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "originCode", Value: 1}, {Key: "destinationCode", Value: 1}, {Key: "serviceDate", Value: 1}},
			Options: options.Index().SetName("idx_flight_records_route"),
		},
		{
			Keys:    bson.D{{Key: "carrierCode", Value: 1}, {Key: "serviceDate", Value: 1}},
			Options: options.Index().SetName("idx_flight_records_carrier"),
		},
		{
			Keys:    bson.D{{Key: "fetchedAt", Value: 1}},
			Options: options.Index().SetName("idx_flight_records_fetched_at"),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create flight record indexes: %w", err)
	}

	return &MongoFlightRecordRepository{
		collection: collection,
	}, nil
}

// QueryByRouteAndWindow returns records on the route with service dates inside window
func (r *MongoFlightRecordRepository) QueryByRouteAndWindow(ctx context.Context, origin, destination string, window entity.DateWindow) ([]*entity.FlightRecord, error) {
	filter := bson.M{
		"originCode":      origin,
		"destinationCode": destination,
		"serviceDate": bson.M{
			"$gte": window.Start.Time,
			"$lte": window.End.Time,
		},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "serviceDate", Value: 1},
		{Key: "pointsRequired", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []flightRecordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode flight records: %w", err)
	}

	records := make([]*entity.FlightRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toEntity())
	}
	return records, nil
}

// Upsert creates or fully replaces the record keyed by its id
func (r *MongoFlightRecordRepository) Upsert(ctx context.Context, record *entity.FlightRecord) error {
	now := time.Now().UTC()
	doc := newFlightRecordDocument(record)

	update := bson.M{
		"$set": bson.M{
			"carrierCode":     doc.CarrierCode,
			"flightNumber":    doc.FlightNumber,
			"originCode":      doc.OriginCode,
			"destinationCode": doc.DestinationCode,
			"serviceDate":     doc.ServiceDate,
			"departureTime":   doc.DepartureTime,
			"arrivalTime":     doc.ArrivalTime,
			"durationMinutes": doc.DurationMinutes,
			"stopCount":       doc.StopCount,
			"cabinClass":      doc.CabinClass,
			"pointsRequired":  doc.PointsRequired,
			"seatsAvailable":  doc.SeatsAvailable,
			"fetchedAt":       doc.FetchedAt,
			"updatedAt":       now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert flight record %s: %w", record.ID, err)
	}
	return nil
}

// PurgeExpired deletes records whose service date is before today
func (r *MongoFlightRecordRepository) PurgeExpired(ctx context.Context, today entity.Date) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"serviceDate": bson.M{"$lt": today.Time}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired flight records: %w", err)
	}
	return result.DeletedCount, nil
}

func newFlightRecordDocument(record *entity.FlightRecord) flightRecordDocument {
	return flightRecordDocument{
		ID:              record.ID,
		CarrierCode:     record.CarrierCode,
		FlightNumber:    record.FlightNumber,
		OriginCode:      record.OriginCode,
		DestinationCode: record.DestinationCode,
		ServiceDate:     record.ServiceDate.Time,
		DepartureTime:   record.DepartureTime,
		ArrivalTime:     record.ArrivalTime,
		DurationMinutes: record.DurationMinutes,
		StopCount:       record.StopCount,
		CabinClass:      string(record.CabinClass),
		PointsRequired:  record.PointsRequired,
		SeatsAvailable:  record.SeatsAvailable,
		FetchedAt:       record.FetchedAt.UTC(),
	}
}

func (d flightRecordDocument) toEntity() *entity.FlightRecord {
	return &entity.FlightRecord{
		ID:              d.ID,
		CarrierCode:     d.CarrierCode,
		FlightNumber:    d.FlightNumber,
		OriginCode:      d.OriginCode,
		DestinationCode: d.DestinationCode,
		ServiceDate:     entity.NewDate(d.ServiceDate.UTC()),
		DepartureTime:   d.DepartureTime,
		ArrivalTime:     d.ArrivalTime,
		DurationMinutes: d.DurationMinutes,
		StopCount:       d.StopCount,
		CabinClass:      entity.CabinClass(d.CabinClass),
		PointsRequired:  d.PointsRequired,
		SeatsAvailable:  d.SeatsAvailable,
		FetchedAt:       d.FetchedAt.UTC(),
	}
}
