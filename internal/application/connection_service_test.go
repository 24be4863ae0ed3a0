package application

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/ports"
)

func TestParseStateRoundTrip(t *testing.T) {
	fx := newSyncFixture(t)

	url, err := fx.connections.GenerateAuthorizationURL("tenant-42")
	require.NoError(t, err)

	combined := url[strings.Index(url, "state=")+len("state="):]
	state, tenantID, err := ParseState(combined)
	require.NoError(t, err)
	assert.Equal(t, "tenant-42", tenantID)
	assert.Len(t, state, 32, "anti-CSRF token is 16 random bytes hex encoded")
}

func TestParseStateMalformed(t *testing.T) {
	tests := []struct {
		name     string
		combined string
	}{
		{"empty", ""},
		{"no delimiter", "abc123"},
		{"missing tenant", "abc123:"},
		{"missing token", ":tenant-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseState(tt.combined)
			assert.ErrorIs(t, err, domain.ErrMalformedState)
		})
	}
}

func TestParseStateTenantIDMayContainDelimiter(t *testing.T) {
	state, tenantID, err := ParseState("abc123:org:eu:tenant-7")
	require.NoError(t, err)
	assert.Equal(t, "abc123", state)
	assert.Equal(t, "org:eu:tenant-7", tenantID)
}

func TestConnectCreatesIntegration(t *testing.T) {
	fx := newSyncFixture(t)

	integration, err := fx.connections.Connect(context.Background(), "tenant-new", "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "tenant-new", integration.TenantID)
	assert.Equal(t, "merchant-1", integration.MerchantID)
	assert.Equal(t, "loc-1", integration.LocationID)
	assert.Equal(t, domain.IntegrationStatusConnected, integration.Status)
	assert.Equal(t, domain.EnvironmentSandbox, integration.Environment)

	stored, err := fx.integrations.GetByTenantID(context.Background(), "tenant-new", domain.EnvironmentSandbox)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "access", stored.AccessToken)
}

func TestConnectReconnectsInPlace(t *testing.T) {
	fx := newSyncFixture(t)

	first, err := fx.connections.Connect(context.Background(), "tenant-new", "code-1")
	require.NoError(t, err)

	second, err := fx.connections.Connect(context.Background(), "tenant-new", "code-2")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "reconnecting must update the existing integration, not create another")
	assert.Len(t, fx.integrations.integrations, 2) // fixture tenant plus tenant-new
}

func TestEnsureFreshTokenSkipsRefreshWhenTokenIsFresh(t *testing.T) {
	fx := newSyncFixture(t)
	integration := &domain.TenantIntegration{
		TenantID:    "tenant-1",
		Environment: domain.EnvironmentSandbox,
		AccessToken: "current",
		ExpiresAt:   time.Now().Add(time.Hour),
		Status:      domain.IntegrationStatusConnected,
	}

	token, err := fx.connections.EnsureFreshToken(context.Background(), integration)

	require.NoError(t, err)
	assert.Equal(t, "current", token)
	assert.Zero(t, fx.provider.refreshCalls)
}

func TestEnsureFreshTokenTreatsZeroExpiryAsNonExpiring(t *testing.T) {
	fx := newSyncFixture(t)
	integration := &domain.TenantIntegration{
		TenantID:    "tenant-1",
		Environment: domain.EnvironmentSandbox,
		AccessToken: "current",
		Status:      domain.IntegrationStatusConnected,
	}

	token, err := fx.connections.EnsureFreshToken(context.Background(), integration)

	require.NoError(t, err)
	assert.Equal(t, "current", token)
	assert.Zero(t, fx.provider.refreshCalls)
}

func TestEnsureFreshTokenRefreshesNearExpiry(t *testing.T) {
	fx := newSyncFixture(t)
	fx.provider.refreshed = &ports.TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	integration := &domain.TenantIntegration{
		TenantID:     "tenant-1",
		Environment:  domain.EnvironmentSandbox,
		AccessToken:  "stale",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Minute),
		Status:       domain.IntegrationStatusConnected,
	}

	token, err := fx.connections.EnsureFreshToken(context.Background(), integration)

	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, fx.provider.refreshCalls)

	stored, err := fx.integrations.GetByTenantID(context.Background(), "tenant-1", domain.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
}

func TestEnsureFreshTokenKeepsOldRefreshTokenWhenNoneReturned(t *testing.T) {
	fx := newSyncFixture(t)
	fx.provider.refreshed = &ports.TokenPair{
		AccessToken: "new-access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	integration := &domain.TenantIntegration{
		TenantID:     "tenant-1",
		Environment:  domain.EnvironmentSandbox,
		AccessToken:  "stale",
		RefreshToken: "long-lived-refresh",
		ExpiresAt:    time.Now().Add(time.Minute),
		Status:       domain.IntegrationStatusConnected,
	}

	_, err := fx.connections.EnsureFreshToken(context.Background(), integration)

	require.NoError(t, err)
	assert.Equal(t, "long-lived-refresh", integration.RefreshToken)
}

func TestEnsureFreshTokenRefreshFailureRequiresReauthorization(t *testing.T) {
	fx := newSyncFixture(t)
	fx.provider.refreshErr = fmt.Errorf("refresh token revoked")
	integration := &domain.TenantIntegration{
		TenantID:     "tenant-1",
		Environment:  domain.EnvironmentSandbox,
		AccessToken:  "stale",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Minute),
		Status:       domain.IntegrationStatusConnected,
	}

	_, err := fx.connections.EnsureFreshToken(context.Background(), integration)
	require.ErrorIs(t, err, domain.ErrReauthorizationRequired)

	stored, err := fx.integrations.GetByTenantID(context.Background(), "tenant-1", domain.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, domain.IntegrationStatusNeedsReauthorization, stored.Status)

	// Once marked, the next call fails fast without calling the provider.
	calls := fx.provider.refreshCalls
	_, err = fx.connections.EnsureFreshToken(context.Background(), stored)
	require.ErrorIs(t, err, domain.ErrReauthorizationRequired)
	assert.Equal(t, calls, fx.provider.refreshCalls)
}

func TestDisconnectRevokesAndOrphansMappings(t *testing.T) {
	fx := newSyncFixture(t)
	require.NoError(t, fx.mappings.Upsert(context.Background(), &domain.ProductMapping{
		TenantID:          "tenant-1",
		PlatformProductID: "pp-1",
		ProviderObjectID:  "sq-1",
	}))

	err := fx.connections.Disconnect(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 1, fx.provider.revokeCalls)

	stored, err := fx.integrations.GetByTenantID(context.Background(), "tenant-1", domain.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Mappings survive disconnect for audit.
	mappings, err := fx.mappings.ListByTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Len(t, mappings, 1)

	err = fx.connections.Disconnect(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestStatusReportsConnectivityAndLastSync(t *testing.T) {
	fx := newSyncFixture(t)

	status, err := fx.connections.Status(context.Background(), "tenant-ghost")
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Nil(t, status.LastSync)

	_, err = fx.service.TriggerSync(context.Background(), "tenant-1", domain.SyncTypeCatalog, domain.DirectionFromProvider)
	require.NoError(t, err)

	status, err = fx.connections.Status(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "merchant-1", status.MerchantID)
	require.NotNil(t, status.LastSync)
	assert.Equal(t, "catalog.from_provider", status.LastSync.Operation)
}
