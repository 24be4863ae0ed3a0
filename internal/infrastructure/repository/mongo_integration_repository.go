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

// MongoIntegrationRepository implements IntegrationRepository using MongoDB.
type MongoIntegrationRepository struct {
	collection *mongo.Collection
}

// NewMongoIntegrationRepository creates a new MongoDB integration repository.
func NewMongoIntegrationRepository(db *mongo.Database) ports.IntegrationRepository {
	return &MongoIntegrationRepository{
		collection: db.Collection("tenant_integrations"),
	}
}

// Create creates a new integration. The unique index on tenant+environment
// enforces the at-most-one-active-integration invariant.
func (r *MongoIntegrationRepository) Create(ctx context.Context, integration *domain.TenantIntegration) error {
	doc := entity.MongoIntegrationDocFromDomain(integration)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "environment", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(ctx, indexModel)

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		integration.ID = oid.Hex()
	}

	return nil
}

// GetByTenantID retrieves the integration for a tenant and environment.
func (r *MongoIntegrationRepository) GetByTenantID(ctx context.Context, tenantID string, env domain.Environment) (*domain.TenantIntegration, error) {
	var doc entity.MongoIntegrationDoc
	filter := bson.M{"tenantId": tenantID, "environment": string(env)}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}

	return doc.ToDomain(), nil
}

// Update persists token and status changes for an existing integration.
func (r *MongoIntegrationRepository) Update(ctx context.Context, integration *domain.TenantIntegration) error {
	doc := entity.MongoIntegrationDocFromDomain(integration)
	doc.UpdatedAt = time.Now()

	filter := bson.M{"tenantId": integration.TenantID, "environment": string(integration.Environment)}
	update := bson.M{"$set": bson.M{
		"merchantId":   doc.MerchantID,
		"locationId":   doc.LocationID,
		"accessToken":  doc.AccessToken,
		"refreshToken": doc.RefreshToken,
		"expiresAt":    doc.ExpiresAt,
		"scopes":       doc.Scopes,
		"status":       doc.Status,
		"updatedAt":    doc.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("integration not found for tenant %s", integration.TenantID)
	}
	return nil
}

// Delete removes an integration. Product mappings are intentionally left in
// place for audit.
func (r *MongoIntegrationRepository) Delete(ctx context.Context, tenantID string, env domain.Environment) error {
	filter := bson.M{"tenantId": tenantID, "environment": string(env)}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("integration not found")
	}
	return nil
}
