package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/infrastructure/repository/entity"
	"commerce-core-square-layer/internal/ports"
)

// MongoPlatformStore implements PlatformStore using MongoDB.
type MongoPlatformStore struct {
	products  *mongo.Collection
	inventory *mongo.Collection
}

// NewMongoPlatformStore creates a MongoDB-backed platform store.
func NewMongoPlatformStore(db *mongo.Database) ports.PlatformStore {
	return &MongoPlatformStore{
		products:  db.Collection("platform_products"),
		inventory: db.Collection("platform_inventory"),
	}
}

// ListProducts retrieves all products for a tenant.
func (s *MongoPlatformStore) ListProducts(ctx context.Context, tenantID string) ([]*domain.PlatformProduct, error) {
	cursor, err := s.products.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.PlatformProduct
	for cursor.Next(ctx) {
		var doc entity.MongoProductDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return products, nil
}

// GetProduct retrieves one product.
func (s *MongoPlatformStore) GetProduct(ctx context.Context, tenantID, productID string) (*domain.PlatformProduct, error) {
	var doc entity.MongoProductDoc
	filter := bson.M{"_id": productID, "tenantId": tenantID}

	err := s.products.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return doc.ToDomain(), nil
}

// UpsertProduct saves or updates a product, assigning an id on first write.
func (s *MongoPlatformStore) UpsertProduct(ctx context.Context, tenantID string, product *domain.PlatformProduct) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	doc := entity.MongoProductDocFromDomain(tenantID, product)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": product.ID, "tenantId": tenantID}
	update := bson.M{"$set": doc}

	if _, err := s.products.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// GetInventory retrieves the inventory record for one product.
func (s *MongoPlatformStore) GetInventory(ctx context.Context, tenantID, productID string) (*domain.PlatformInventory, error) {
	var doc entity.MongoInventoryDoc
	filter := bson.M{"productId": productID, "tenantId": tenantID}

	err := s.inventory.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}

	return doc.ToDomain(), nil
}

// UpsertInventory saves or updates an inventory record.
func (s *MongoPlatformStore) UpsertInventory(ctx context.Context, tenantID string, inventory *domain.PlatformInventory) error {
	doc := entity.MongoInventoryDocFromDomain(tenantID, inventory)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"productId": inventory.ProductID, "tenantId": tenantID}
	update := bson.M{"$set": doc}

	if _, err := s.inventory.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert inventory: %w", err)
	}
	return nil
}

// ListInventory retrieves all inventory records for a tenant.
func (s *MongoPlatformStore) ListInventory(ctx context.Context, tenantID string) ([]*domain.PlatformInventory, error) {
	cursor, err := s.inventory.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.PlatformInventory
	for cursor.Next(ctx) {
		var doc entity.MongoInventoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode inventory: %w", err)
		}
		records = append(records, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return records, nil
}
