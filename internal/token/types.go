package token

import "time"

// ValidationResult is the outcome of a side-effect-free token check
type ValidationResult struct {
	Valid     bool
	ExpiresAt time.Time
	Message   string
}

// RefreshResult is the outcome of one refresh-token exchange. Success=false
// with a descriptive Message covers every failure mode: missing credential,
// missing refresh token, endpoint errors, incomplete response bodies, and
// store write-back failures.
type RefreshResult struct {
	Success      bool
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Message      string
}

// TokenPair is a freshly issued access/refresh pair from the marketplace
// token endpoint, with its tenant identity (populated on code exchange).
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	LocationID   string
	CompanyID    string
}

// tokenEndpointResponse is the marketplace token endpoint's JSON body for
// both authorization_code and refresh_token grants
type tokenEndpointResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	LocationID   string `json:"locationId"`
	CompanyID    string `json:"companyId,omitempty"`
	Error        string `json:"error,omitempty"`
	Message      string `json:"message,omitempty"`
}
