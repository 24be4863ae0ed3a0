package domain

import "errors"

var (
	// ErrNotConnected is returned when a tenant has no active integration.
	ErrNotConnected = errors.New("tenant has no connected integration")

	// ErrSyncInProgress is returned when a sync is triggered for a
	// tenant+type that already has a run in flight.
	ErrSyncInProgress = errors.New("sync already in progress for tenant")

	// ErrReauthorizationRequired is returned when a token refresh fails and
	// the tenant must go through the OAuth flow again.
	ErrReauthorizationRequired = errors.New("integration requires reauthorization")

	// ErrMalformedState is returned when an OAuth callback state parameter
	// cannot be parsed.
	ErrMalformedState = errors.New("malformed oauth state parameter")
)
