package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/ports"
)

// stateDelimiter joins the anti-CSRF token and the tenant id inside the
// OAuth state parameter so the callback can recover tenant context without a
// server-side session lookup.
const stateDelimiter = ":"

// DefaultScopes are the Square permissions a catalog/inventory sync needs.
var DefaultScopes = []string{
	"ITEMS_READ",
	"ITEMS_WRITE",
	"INVENTORY_READ",
	"INVENTORY_WRITE",
	"MERCHANT_PROFILE_READ",
}

// DefaultRefreshMargin is how close to expiry a token may get before it is
// refreshed ahead of an authenticated call.
const DefaultRefreshMargin = 5 * time.Minute

// ConnectionService manages the OAuth lifecycle of tenant integrations:
// the authorization handshake, token persistence, refresh, and disconnect.
type ConnectionService struct {
	integrationRepo ports.IntegrationRepository
	syncLogRepo     ports.SyncLogRepository
	provider        ports.ProviderClient
	environment     domain.Environment
	refreshMargin   time.Duration
	logger          zerolog.Logger
}

// NewConnectionService creates a new connection service.
func NewConnectionService(
	integrationRepo ports.IntegrationRepository,
	syncLogRepo ports.SyncLogRepository,
	provider ports.ProviderClient,
	environment domain.Environment,
	logger zerolog.Logger,
) *ConnectionService {
	return &ConnectionService{
		integrationRepo: integrationRepo,
		syncLogRepo:     syncLogRepo,
		provider:        provider,
		environment:     environment,
		refreshMargin:   DefaultRefreshMargin,
		logger:          logger,
	}
}

// WithRefreshMargin overrides the token refresh threshold.
func (s *ConnectionService) WithRefreshMargin(margin time.Duration) *ConnectionService {
	s.refreshMargin = margin
	return s
}

// GenerateAuthorizationURL builds the provider authorization URL for a
// tenant. The state parameter carries a random anti-CSRF token joined with
// the tenant id.
func (s *ConnectionService) GenerateAuthorizationURL(tenantID string) (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	combined := hex.EncodeToString(stateBytes) + stateDelimiter + tenantID
	return s.provider.AuthorizationURL(DefaultScopes, combined), nil
}

// ParseState splits a combined state parameter back into the anti-CSRF
// token and the tenant id. Malformed input is rejected with a typed error
// rather than returning partial data.
func ParseState(combined string) (state, tenantID string, err error) {
	parts := strings.SplitN(combined, stateDelimiter, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", domain.ErrMalformedState
	}
	return parts[0], parts[1], nil
}

// Connect exchanges an authorization code and persists the resulting
// integration. A tenant reconnecting in the same environment updates the
// existing integration in place rather than creating a second one.
func (s *ConnectionService) Connect(ctx context.Context, tenantID, code string) (*domain.TenantIntegration, error) {
	pair, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	locationID := ""
	locations, err := s.provider.ListLocations(ctx, pair.AccessToken)
	if err != nil {
		s.logger.Warn().Err(err).Str("tenantID", tenantID).Msg("Failed to list locations after connect")
	} else if len(locations) > 0 {
		locationID = locations[0]
	}

	existing, err := s.integrationRepo.GetByTenantID(ctx, tenantID, s.environment)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing integration: %w", err)
	}

	if existing != nil {
		existing.AccessToken = pair.AccessToken
		existing.RefreshToken = pair.RefreshToken
		existing.ExpiresAt = pair.ExpiresAt
		existing.MerchantID = pair.MerchantID
		existing.Scopes = pair.Scopes
		existing.Status = domain.IntegrationStatusConnected
		if locationID != "" {
			existing.LocationID = locationID
		}
		if err := s.integrationRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update integration: %w", err)
		}
		s.logger.Info().
			Str("tenantID", tenantID).
			Str("merchantID", existing.MerchantID).
			Msg("Reconnected existing integration")
		return existing, nil
	}

	integration := &domain.TenantIntegration{
		TenantID:     tenantID,
		Environment:  s.environment,
		MerchantID:   pair.MerchantID,
		LocationID:   locationID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		Scopes:       pair.Scopes,
		Status:       domain.IntegrationStatusConnected,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.integrationRepo.Create(ctx, integration); err != nil {
		return nil, fmt.Errorf("failed to create integration: %w", err)
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Str("merchantID", integration.MerchantID).
		Str("environment", string(s.environment)).
		Msg("Created new integration")

	return integration, nil
}

// EnsureFreshToken returns an access token valid for at least the refresh
// margin, transparently refreshing and persisting a new token pair when the
// current one is near expiry. A failed refresh marks the integration as
// needing reauthorization; it is never retried indefinitely.
func (s *ConnectionService) EnsureFreshToken(ctx context.Context, integration *domain.TenantIntegration) (string, error) {
	if integration.Status == domain.IntegrationStatusNeedsReauthorization {
		return "", domain.ErrReauthorizationRequired
	}
	if !integration.TokenExpiresWithin(s.refreshMargin) {
		return integration.AccessToken, nil
	}

	s.logger.Info().
		Str("tenantID", integration.TenantID).
		Time("expiresAt", integration.ExpiresAt).
		Msg("Access token near expiry, refreshing")

	pair, err := s.provider.RefreshToken(ctx, integration.RefreshToken)
	if err != nil {
		integration.Status = domain.IntegrationStatusNeedsReauthorization
		if updateErr := s.integrationRepo.Update(ctx, integration); updateErr != nil {
			s.logger.Error().Err(updateErr).Str("tenantID", integration.TenantID).Msg("Failed to mark integration for reauthorization")
		}
		s.logger.Warn().Err(err).Str("tenantID", integration.TenantID).Msg("Token refresh failed, reauthorization required")
		return "", fmt.Errorf("%w: %s", domain.ErrReauthorizationRequired, err)
	}

	integration.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		integration.RefreshToken = pair.RefreshToken
	}
	integration.ExpiresAt = pair.ExpiresAt
	if err := s.integrationRepo.Update(ctx, integration); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	return integration.AccessToken, nil
}

// Disconnect revokes the access token (best effort) and deletes the
// integration. Product mappings are orphaned, not cascade-deleted, so the
// sync history stays auditable.
func (s *ConnectionService) Disconnect(ctx context.Context, tenantID string) error {
	integration, err := s.integrationRepo.GetByTenantID(ctx, tenantID, s.environment)
	if err != nil {
		return fmt.Errorf("failed to get integration: %w", err)
	}
	if integration == nil {
		return domain.ErrNotConnected
	}

	if err := s.provider.RevokeToken(ctx, integration.AccessToken); err != nil {
		s.logger.Warn().Err(err).Str("tenantID", tenantID).Msg("Failed to revoke token during disconnect")
	}

	if err := s.integrationRepo.Delete(ctx, tenantID, s.environment); err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}

	s.logger.Info().Str("tenantID", tenantID).Msg("Disconnected integration")
	return nil
}

// ConnectionStatus is the connectivity view returned to collaborators.
type ConnectionStatus struct {
	Connected   bool                 `json:"connected"`
	Status      string               `json:"status,omitempty"`
	MerchantID  string               `json:"merchantId,omitempty"`
	Environment domain.Environment   `json:"environment"`
	LastSync    *domain.SyncLogEntry `json:"lastSync,omitempty"`
}

// Status reports current integration connectivity and the last sync summary
// for a tenant.
func (s *ConnectionService) Status(ctx context.Context, tenantID string) (*ConnectionStatus, error) {
	status := &ConnectionStatus{Environment: s.environment}

	integration, err := s.integrationRepo.GetByTenantID(ctx, tenantID, s.environment)
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	if integration == nil {
		return status, nil
	}

	status.Connected = integration.Status == domain.IntegrationStatusConnected
	status.Status = string(integration.Status)
	status.MerchantID = integration.MerchantID

	lastSync, err := s.syncLogRepo.GetLastByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync log: %w", err)
	}
	status.LastSync = lastSync

	return status, nil
}
