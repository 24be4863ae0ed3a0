package domain

import "time"

// Environment selects which Square environment an integration talks to.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// IntegrationStatus reflects whether an integration can currently make
// authenticated calls.
type IntegrationStatus string

const (
	IntegrationStatusConnected            IntegrationStatus = "connected"
	IntegrationStatusNeedsReauthorization IntegrationStatus = "needs_reauthorization"
)

// TenantIntegration represents a tenant's authorized connection to Square.
// At most one active integration exists per tenant and environment.
type TenantIntegration struct {
	ID           string            `json:"id" bson:"_id"`
	TenantID     string            `json:"tenant_id" bson:"tenant_id"`
	Environment  Environment       `json:"environment" bson:"environment"`
	MerchantID   string            `json:"merchant_id" bson:"merchant_id"`
	LocationID   string            `json:"location_id" bson:"location_id"`
	AccessToken  string            `json:"-" bson:"access_token"`
	RefreshToken string            `json:"-" bson:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at" bson:"expires_at"`
	Scopes       []string          `json:"scopes" bson:"scopes"`
	Status       IntegrationStatus `json:"status" bson:"status"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" bson:"updated_at"`
}

// TokenExpiresWithin reports whether the access token expires inside the
// given margin. A zero expiry means the provider issued a non-expiring token.
func (i *TenantIntegration) TokenExpiresWithin(margin time.Duration) bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return time.Until(i.ExpiresAt) < margin
}
