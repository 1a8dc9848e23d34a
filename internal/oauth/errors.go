package oauth

import "errors"

// Error taxonomy for the linking and token lifecycle flows. Every failure
// mode is terminal for the current request; nothing is retried internally.
// The HTTP layer translates each sentinel to a distinct status category so
// callers can tell bad input from not-linked from upstream faults from
// operator misconfiguration.
var (
	// ErrInvalidState covers unknown, expired and already-redeemed state
	// tokens. The user must restart the connect flow.
	ErrInvalidState = errors.New("invalid or expired state")

	// ErrUnknownProvider is returned for provider names outside the
	// supported set.
	ErrUnknownProvider = errors.New("unsupported provider")

	// ErrProviderNotConfigured means the operator deployed the service
	// without credentials for the requested provider.
	ErrProviderNotConfigured = errors.New("oauth provider not configured")

	// ErrNotLinked means no credential is on file for the selector.
	ErrNotLinked = errors.New("not linked")

	// ErrTokenExchange, ErrProfileLookup and ErrRefreshFailed carry the
	// provider's error detail for the three provider exchanges.
	ErrTokenExchange = errors.New("token exchange failed")
	ErrProfileLookup = errors.New("profile lookup failed")
	ErrRefreshFailed = errors.New("refresh failed")

	// ErrUpstream covers non-success provider responses on proxied reads.
	ErrUpstream = errors.New("provider api error")
)
