package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/infrastructure/repository/entity"
	"commerce-core-square-layer/internal/ports"
)

// MongoMappingRepository implements ProductMappingRepository using MongoDB.
type MongoMappingRepository struct {
	collection *mongo.Collection
}

// NewMongoMappingRepository creates a new MongoDB product mapping repository.
func NewMongoMappingRepository(db *mongo.Database) ports.ProductMappingRepository {
	return &MongoMappingRepository{
		collection: db.Collection("product_mappings"),
	}
}

// GetByProviderObjectID retrieves a mapping by its Square catalog object id.
func (r *MongoMappingRepository) GetByProviderObjectID(ctx context.Context, tenantID, providerObjectID string) (*domain.ProductMapping, error) {
	return r.findOne(ctx, bson.M{"tenantId": tenantID, "providerObjectId": providerObjectID})
}

// GetByVariationID retrieves a mapping by its Square variation id, which is
// how inventory counts reference catalog objects.
func (r *MongoMappingRepository) GetByVariationID(ctx context.Context, tenantID, variationID string) (*domain.ProductMapping, error) {
	return r.findOne(ctx, bson.M{"tenantId": tenantID, "variationId": variationID})
}

// GetByPlatformProductID retrieves a mapping by its platform product id.
func (r *MongoMappingRepository) GetByPlatformProductID(ctx context.Context, tenantID, platformProductID string) (*domain.ProductMapping, error) {
	return r.findOne(ctx, bson.M{"tenantId": tenantID, "platformProductId": platformProductID})
}

func (r *MongoMappingRepository) findOne(ctx context.Context, filter bson.M) (*domain.ProductMapping, error) {
	var doc entity.MongoMappingDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product mapping: %w", err)
	}
	return doc.ToDomain(), nil
}

// Upsert creates the mapping or updates the identifiers on either side.
// Mappings are keyed by tenant + platform product so a re-linked product
// updates in place rather than duplicating.
func (r *MongoMappingRepository) Upsert(ctx context.Context, mapping *domain.ProductMapping) error {
	now := time.Now()
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now

	doc := entity.MongoMappingDocFromDomain(mapping)
	filter := bson.M{"tenantId": mapping.TenantID, "platformProductId": mapping.PlatformProductID}
	update := bson.M{
		"$set": bson.M{
			"providerObjectId": doc.ProviderObjectID,
			"variationId":      doc.VariationID,
			"updatedAt":        doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":               doc.ID,
			"tenantId":          doc.TenantID,
			"platformProductId": doc.PlatformProductID,
			"createdAt":         doc.CreatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product mapping: %w", err)
	}
	return nil
}

// ListByTenant retrieves all mappings for a tenant, including mappings
// orphaned by a disconnect.
func (r *MongoMappingRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.ProductMapping, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list product mappings: %w", err)
	}
	defer cursor.Close(ctx)

	var mappings []*domain.ProductMapping
	for cursor.Next(ctx) {
		var doc entity.MongoMappingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product mapping: %w", err)
		}
		mappings = append(mappings, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return mappings, nil
}
