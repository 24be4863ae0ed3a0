package entity

import (
	"time"

	"commerce-core-square-layer/internal/domain"
)

// MongoMappingDoc represents a product mapping in MongoDB. Mapping IDs are
// application-generated UUIDs, not ObjectIDs, so upserts can address them
// directly.
type MongoMappingDoc struct {
	ID                string    `bson:"_id"`
	TenantID          string    `bson:"tenantId"`
	PlatformProductID string    `bson:"platformProductId"`
	ProviderObjectID  string    `bson:"providerObjectId"`
	VariationID       string    `bson:"variationId"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoMappingDoc) ToDomain() *domain.ProductMapping {
	return &domain.ProductMapping{
		ID:                d.ID,
		TenantID:          d.TenantID,
		PlatformProductID: d.PlatformProductID,
		ProviderObjectID:  d.ProviderObjectID,
		VariationID:       d.VariationID,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// MongoMappingDocFromDomain converts a domain entity to a MongoDB document.
func MongoMappingDocFromDomain(m *domain.ProductMapping) *MongoMappingDoc {
	return &MongoMappingDoc{
		ID:                m.ID,
		TenantID:          m.TenantID,
		PlatformProductID: m.PlatformProductID,
		ProviderObjectID:  m.ProviderObjectID,
		VariationID:       m.VariationID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
