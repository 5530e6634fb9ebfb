package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"

	"golang.org/x/sync/singleflight"
)

// Grant type constants (RFC 6749 §4.1, §6)
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// Refresher answers "is this location's access token usable?" and, if not,
// exchanges the stored refresh token for a new pair via the marketplace
// token endpoint, writing the result back through the credential store.
type Refresher struct {
	store      store.CredentialStore
	config     *config.Config
	httpClient *http.Client
	metrics    metrics.Recorder

	// refreshGroup collapses concurrent refreshes for the same location into
	// one endpoint call. Without it, two callers that both see an expired
	// token would race the exchange, and the loser would present an
	// already-rotated refresh token.
	refreshGroup singleflight.Group
}

func NewRefresher(
	s store.CredentialStore,
	cfg *config.Config,
	m metrics.Recorder,
) *Refresher {
	return &Refresher{
		store:   s,
		config:  cfg,
		metrics: m,
		httpClient: &http.Client{
			Timeout: cfg.OAuthTimeout,
		},
	}
}

// Validate reports whether the stored access token is currently usable.
// It never refreshes; call sites that want auto-heal use EnsureValid.
func (r *Refresher) Validate(locationID string) *ValidationResult {
	cred, err := r.store.GetCredential(locationID)
	if err != nil {
		r.metrics.RecordTokenValidation(false)
		return &ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("no credential found for location %s", locationID),
		}
	}

	if cred.ExpiresAt.IsZero() {
		r.metrics.RecordTokenValidation(false)
		return &ValidationResult{
			Valid:   false,
			Message: "credential has no expiry instant recorded",
		}
	}

	if cred.IsExpired() {
		r.metrics.RecordTokenValidation(false)
		return &ValidationResult{
			Valid:     false,
			ExpiresAt: cred.ExpiresAt,
			Message:   fmt.Sprintf("access token expired at %s", cred.ExpiresAt.Format(time.RFC3339)),
		}
	}

	r.metrics.RecordTokenValidation(true)
	return &ValidationResult{
		Valid:     true,
		ExpiresAt: cred.ExpiresAt,
		Message:   "access token valid",
	}
}

// Refresh exchanges the stored refresh token for a new pair and persists it.
// Failures come back as Success=false with a message, never as an error:
// the caller decides whether that ends its operation.
//
// Concurrent calls for the same location share one exchange; last write wins
// across separate, non-overlapping calls.
func (r *Refresher) Refresh(ctx context.Context, locationID string) *RefreshResult {
	v, _, _ := r.refreshGroup.Do(locationID, func() (any, error) {
		return r.doRefresh(ctx, locationID), nil
	})
	return v.(*RefreshResult)
}

func (r *Refresher) doRefresh(ctx context.Context, locationID string) *RefreshResult {
	cred, err := r.store.GetCredential(locationID)
	if err != nil {
		r.metrics.RecordTokenRefresh(false)
		return &RefreshResult{
			Success: false,
			Message: fmt.Sprintf("no credential found for location %s", locationID),
		}
	}

	if cred.RefreshToken == "" {
		r.metrics.RecordTokenRefresh(false)
		return &RefreshResult{
			Success: false,
			Message: fmt.Sprintf("location %s has no refresh token stored", locationID),
		}
	}

	form := url.Values{}
	form.Set("client_id", r.config.OAuthClientID)
	form.Set("client_secret", r.config.OAuthClientSecret)
	form.Set("grant_type", GrantTypeRefreshToken)
	form.Set("refresh_token", cred.RefreshToken)

	resp, err := r.postTokenEndpoint(ctx, form)
	if err != nil {
		log.Printf("[Token] Refresh failed location=%s: %v", locationID, err)
		r.metrics.RecordTokenRefresh(false)
		return &RefreshResult{Success: false, Message: err.Error()}
	}

	// The expiry instant is anchored at the time of this exchange
	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	if err := r.store.UpdateTokenPair(
		locationID,
		resp.AccessToken,
		resp.RefreshToken,
		expiresAt,
	); err != nil {
		// The external exchange succeeded but the new pair is not durable.
		// Callers must treat this as "refresh attempted, not applied".
		log.Printf("[Token] Refresh write-back failed location=%s: %v", locationID, err)
		r.metrics.RecordTokenRefresh(false)
		return &RefreshResult{
			Success: false,
			Message: fmt.Sprintf("refresh succeeded but could not be stored: %v", err),
		}
	}

	r.metrics.RecordTokenRefresh(true)
	return &RefreshResult{
		Success:      true,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt,
		Message:      "token refreshed",
	}
}

// EnsureValid returns a usable access token for the location, refreshing
// just-in-time when the stored one has expired
func (r *Refresher) EnsureValid(ctx context.Context, locationID string) (string, error) {
	validation := r.Validate(locationID)
	if validation.Valid {
		cred, err := r.store.GetCredential(locationID)
		if err != nil {
			return "", fmt.Errorf("failed to load credential for %s: %w", locationID, err)
		}
		return cred.AccessToken, nil
	}

	result := r.Refresh(ctx, locationID)
	if !result.Success {
		return "", fmt.Errorf("%w for location %s: %s", ErrRefreshFailed, locationID, result.Message)
	}
	return result.AccessToken, nil
}

// ExchangeCode performs the one-time authorization_code exchange at OAuth
// callback time and returns the issued pair with its tenant identity
func (r *Refresher) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("client_id", r.config.OAuthClientID)
	form.Set("client_secret", r.config.OAuthClientSecret)
	form.Set("grant_type", GrantTypeAuthorizationCode)
	form.Set("code", code)

	resp, err := r.postTokenEndpoint(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchangeFailed, err)
	}
	if resp.LocationID == "" {
		return nil, fmt.Errorf("%w: response missing locationId", ErrTokenEndpointInvalidResp)
	}

	return &TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		LocationID:   resp.LocationID,
		CompanyID:    resp.CompanyID,
	}, nil
}

// postTokenEndpoint POSTs a form-encoded grant request and validates that
// the response carries a complete token pair
func (r *Refresher) postTokenEndpoint(
	ctx context.Context,
	form url.Values,
) (*tokenEndpointResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.config.OAuthTokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenEndpointConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrTokenEndpointInvalidResp)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, tokenEndpointError(body, resp.StatusCode)
	}

	var apiResp tokenEndpointResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenEndpointInvalidResp, err)
	}

	// Required fields missing means the grant is unusable even on HTTP 200
	if apiResp.AccessToken == "" || apiResp.RefreshToken == "" || apiResp.ExpiresIn <= 0 {
		return nil, fmt.Errorf(
			"%w: response missing access_token, refresh_token, or expires_in",
			ErrTokenEndpointInvalidResp,
		)
	}

	return &apiResp, nil
}

// tokenEndpointError builds a descriptive error from a non-2xx response
func tokenEndpointError(body []byte, statusCode int) error {
	var apiResp tokenEndpointResponse
	if err := json.Unmarshal(body, &apiResp); err == nil {
		if apiResp.Message != "" {
			return fmt.Errorf("token endpoint returned HTTP %d: %s", statusCode, apiResp.Message)
		}
		if apiResp.Error != "" {
			return fmt.Errorf("token endpoint returned HTTP %d: %s", statusCode, apiResp.Error)
		}
	}
	bodyPreview := string(body)
	if len(bodyPreview) > 200 {
		bodyPreview = bodyPreview[:200] + "..."
	}
	return fmt.Errorf("token endpoint returned HTTP %d: %s", statusCode, bodyPreview)
}
