package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFetchJobRepository implements FetchJobRepository on MongoDB
type MongoFetchJobRepository struct {
	collection *mongo.Collection
}

type fetchJobDocument struct {
	ID              string     `bson:"_id"`
	RouteWatchID    string     `bson:"routeWatchId,omitempty"`
	CarrierCode     string     `bson:"carrierCode"`
	OriginCode      string     `bson:"originCode"`
	DestinationCode string     `bson:"destinationCode"`
	CabinClass      string     `bson:"cabinClass"`
	Status          string     `bson:"status"`
	StartDate       time.Time  `bson:"startDate"`
	EndDate         time.Time  `bson:"endDate"`
	StartedAt       time.Time  `bson:"startedAt"`
	CompletedAt     *time.Time `bson:"completedAt,omitempty"`
	Error           string     `bson:"error,omitempty"`
	RecordsFound    int        `bson:"recordsFound"`
}

// NewMongoFetchJobRepository creates the fetch job repository and its indexes
func NewMongoFetchJobRepository(ctx context.Context, db *mongo.Database) (repository.FetchJobRepository, error) {
	collection := db.Collection("fetch_jobs")

	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "originCode", Value: 1},
			{Key: "destinationCode", Value: 1},
			{Key: "carrierCode", Value: 1},
			{Key: "status", Value: 1},
			{Key: "completedAt", Value: -1},
		},
		Options: options.Index().SetName("idx_fetch_jobs_route"),
	}
	if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to create fetch job index: %w", err)
	}

	return &MongoFetchJobRepository{
		collection: collection,
	}, nil
}

// Create inserts a new fetch job, assigning an id when the caller left it empty
func (r *MongoFetchJobRepository) Create(ctx context.Context, job *entity.FetchJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = entity.FetchJobPending
	}

	doc := fetchJobDocument{
		ID:              job.ID,
		RouteWatchID:    job.RouteWatchID,
		CarrierCode:     job.CarrierCode,
		OriginCode:      job.OriginCode,
		DestinationCode: job.DestinationCode,
		CabinClass:      string(job.CabinClass),
		Status:          string(job.Status),
		StartDate:       job.Window.Start.Time,
		EndDate:         job.Window.End.Time,
		StartedAt:       job.StartedAt.UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create fetch job: %w", err)
	}
	return nil
}

// Complete stores the terminal status, error text and record count of a job
func (r *MongoFetchJobRepository) Complete(ctx context.Context, job *entity.FetchJob) error {
	set := bson.M{
		"status":       string(job.Status),
		"error":        job.Error,
		"recordsFound": job.RecordsFound,
	}
	if job.CompletedAt != nil {
		set["completedAt"] = job.CompletedAt.UTC()
	}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": job.ID}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to complete fetch job %s: %w", job.ID, err)
	}
	return nil
}

// LatestSuccessfulCovering finds the newest successful job whose window covers window
func (r *MongoFetchJobRepository) LatestSuccessfulCovering(ctx context.Context, origin, destination, carrier string, cabin entity.CabinClass, window entity.DateWindow) (*entity.FetchJob, error) {
	filter := bson.M{
		"originCode":      origin,
		"destinationCode": destination,
		"carrierCode":     carrier,
		"cabinClass":      string(cabin),
		"status":          string(entity.FetchJobSuccess),
		"startDate":       bson.M{"$lte": window.Start.Time},
		"endDate":         bson.M{"$gte": window.End.Time},
		"completedAt":     bson.M{"$exists": true},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	var doc fetchJobDocument
	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find covering fetch job: %w", err)
	}

	job := &entity.FetchJob{
		ID:              doc.ID,
		RouteWatchID:    doc.RouteWatchID,
		CarrierCode:     doc.CarrierCode,
		OriginCode:      doc.OriginCode,
		DestinationCode: doc.DestinationCode,
		CabinClass:      entity.CabinClass(doc.CabinClass),
		Status:          entity.FetchJobStatus(doc.Status),
		Window: entity.DateWindow{
			Start: entity.NewDate(doc.StartDate.UTC()),
			End:   entity.NewDate(doc.EndDate.UTC()),
		},
		StartedAt:    doc.StartedAt.UTC(),
		CompletedAt:  doc.CompletedAt,
		Error:        doc.Error,
		RecordsFound: doc.RecordsFound,
	}
	return job, nil
}
