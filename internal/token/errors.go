package token

import "errors"

var (
	// ErrRefreshFailed is returned by EnsureValid when an invalid token could
	// not be refreshed. The wrapped message carries the refresh failure detail.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrTokenEndpointConnection indicates the token endpoint was unreachable
	ErrTokenEndpointConnection = errors.New("failed to connect to token endpoint")

	// ErrTokenEndpointInvalidResp indicates a malformed or incomplete response body
	ErrTokenEndpointInvalidResp = errors.New("invalid token endpoint response")

	// ErrCodeExchangeFailed indicates the authorization_code grant was rejected
	ErrCodeExchangeFailed = errors.New("authorization code exchange failed")
)
