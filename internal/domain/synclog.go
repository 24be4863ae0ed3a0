package domain

import "time"

// SyncType identifies what kind of data a sync run moves.
type SyncType string

const (
	SyncTypeCatalog   SyncType = "catalog"
	SyncTypeInventory SyncType = "inventory"
)

// SyncDirection identifies which system is being written.
type SyncDirection string

const (
	DirectionToProvider   SyncDirection = "to_provider"
	DirectionFromProvider SyncDirection = "from_provider"
)

// SyncStatus is the terminal state of a sync run.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncLogEntry is the immutable record of one sync run. Entries are
// append-only and never mutated after creation.
type SyncLogEntry struct {
	ID            string        `bson:"_id"`
	TenantID      string        `bson:"tenant_id"`
	IntegrationID string        `bson:"integration_id"`
	SyncType      SyncType      `bson:"sync_type"`
	Direction     SyncDirection `bson:"direction"`
	Operation     string        `bson:"operation"`
	Status        SyncStatus    `bson:"status"`
	ItemsAffected int           `bson:"items_affected"`
	DurationMs    int64         `bson:"duration_ms"`
	CreatedAt     time.Time     `bson:"created_at"`
}

// SyncSummary is what a sync trigger returns to the caller.
type SyncSummary struct {
	Status        SyncStatus `json:"status"`
	ItemsAffected int        `json:"itemsAffected"`
	DurationMs    int64      `json:"durationMs"`
}
