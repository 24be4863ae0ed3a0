package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commerce-core-square-layer/internal/domain"
)

// MongoIntegrationDoc represents a tenant integration in MongoDB.
type MongoIntegrationDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	TenantID     string             `bson:"tenantId"`
	Environment  string             `bson:"environment"`
	MerchantID   string             `bson:"merchantId"`
	LocationID   string             `bson:"locationId"`
	AccessToken  string             `bson:"accessToken"`
	RefreshToken string             `bson:"refreshToken"`
	ExpiresAt    time.Time          `bson:"expiresAt,omitempty"`
	Scopes       []string           `bson:"scopes"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoIntegrationDoc) ToDomain() *domain.TenantIntegration {
	return &domain.TenantIntegration{
		ID:           d.ID.Hex(),
		TenantID:     d.TenantID,
		Environment:  domain.Environment(d.Environment),
		MerchantID:   d.MerchantID,
		LocationID:   d.LocationID,
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		ExpiresAt:    d.ExpiresAt,
		Scopes:       d.Scopes,
		Status:       domain.IntegrationStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoIntegrationDocFromDomain converts a domain entity to a MongoDB document.
func MongoIntegrationDocFromDomain(integration *domain.TenantIntegration) *MongoIntegrationDoc {
	doc := &MongoIntegrationDoc{
		TenantID:     integration.TenantID,
		Environment:  string(integration.Environment),
		MerchantID:   integration.MerchantID,
		LocationID:   integration.LocationID,
		AccessToken:  integration.AccessToken,
		RefreshToken: integration.RefreshToken,
		ExpiresAt:    integration.ExpiresAt,
		Scopes:       integration.Scopes,
		Status:       string(integration.Status),
		CreatedAt:    integration.CreatedAt,
		UpdatedAt:    integration.UpdatedAt,
	}

	if integration.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(integration.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
