package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/infrastructure/repository/entity"
	"commerce-core-square-layer/internal/ports"
)

// MongoSyncLogRepository implements SyncLogRepository using MongoDB. The
// collection is append-only; there is deliberately no update or delete.
type MongoSyncLogRepository struct {
	collection *mongo.Collection
}

// NewMongoSyncLogRepository creates a new MongoDB sync log repository.
func NewMongoSyncLogRepository(db *mongo.Database) ports.SyncLogRepository {
	return &MongoSyncLogRepository{
		collection: db.Collection("sync_logs"),
	}
}

// Create appends one sync log entry.
func (r *MongoSyncLogRepository) Create(ctx context.Context, entry *domain.SyncLogEntry) error {
	doc := entity.MongoSyncLogDocFromDomain(entry)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	entry.ID = doc.ID.Hex()
	return nil
}

// GetLastByTenant returns the most recent entry for a tenant.
func (r *MongoSyncLogRepository) GetLastByTenant(ctx context.Context, tenantID string) (*domain.SyncLogEntry, error) {
	var doc entity.MongoSyncLogDoc
	filter := bson.M{"tenantId": tenantID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync log: %w", err)
	}

	return doc.ToDomain(), nil
}
