package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commerce-core-square-layer/internal/domain"
)

// MongoSyncLogDoc represents one immutable sync log entry in MongoDB.
type MongoSyncLogDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	TenantID      string             `bson:"tenantId"`
	IntegrationID string             `bson:"integrationId"`
	SyncType      string             `bson:"syncType"`
	Direction     string             `bson:"direction"`
	Operation     string             `bson:"operation"`
	Status        string             `bson:"status"`
	ItemsAffected int                `bson:"itemsAffected"`
	DurationMs    int64              `bson:"durationMs"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoSyncLogDoc) ToDomain() *domain.SyncLogEntry {
	return &domain.SyncLogEntry{
		ID:            d.ID.Hex(),
		TenantID:      d.TenantID,
		IntegrationID: d.IntegrationID,
		SyncType:      domain.SyncType(d.SyncType),
		Direction:     domain.SyncDirection(d.Direction),
		Operation:     d.Operation,
		Status:        domain.SyncStatus(d.Status),
		ItemsAffected: d.ItemsAffected,
		DurationMs:    d.DurationMs,
		CreatedAt:     d.CreatedAt,
	}
}

// MongoSyncLogDocFromDomain converts a domain entity to a MongoDB document.
func MongoSyncLogDocFromDomain(entry *domain.SyncLogEntry) *MongoSyncLogDoc {
	return &MongoSyncLogDoc{
		TenantID:      entry.TenantID,
		IntegrationID: entry.IntegrationID,
		SyncType:      string(entry.SyncType),
		Direction:     string(entry.Direction),
		Operation:     entry.Operation,
		Status:        string(entry.Status),
		ItemsAffected: entry.ItemsAffected,
		DurationMs:    entry.DurationMs,
		CreatedAt:     entry.CreatedAt,
	}
}
