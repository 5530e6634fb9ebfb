package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func testConfig(tokenURL string) *config.Config {
	return &config.Config{
		OAuthClientID:     "client-id",
		OAuthClientSecret: "client-secret",
		OAuthTokenURL:     tokenURL,
		OAuthTimeout:      5 * time.Second,
	}
}

func seedCredential(t *testing.T, s *store.Store, locationID string, expiresAt time.Time) {
	t.Helper()
	err := s.InsertCredential(&models.Credential{
		LocationID:   locationID,
		CompanyID:    "comp-1",
		AccessToken:  "A",
		RefreshToken: "R",
		ExpiresAt:    expiresAt,
	})
	require.NoError(t, err)
}

func TestValidate_FutureExpiry(t *testing.T) {
	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Now().Add(time.Hour))
	r := NewRefresher(s, testConfig("http://unused"), metrics.NewNoopMetrics())

	result := r.Validate("loc1")

	assert.True(t, result.Valid)
	assert.False(t, result.ExpiresAt.IsZero())
}

func TestValidate_PastExpiry(t *testing.T) {
	s := setupTestStore(t)
	expiry := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	seedCredential(t, s, "loc1", expiry)
	r := NewRefresher(s, testConfig("http://unused"), metrics.NewNoopMetrics())

	result := r.Validate("loc1")

	assert.False(t, result.Valid)
	// Message carries the expiry instant for diagnostics
	assert.Contains(t, result.Message, "2020-01-01T00:00:00Z")
}

func TestValidate_NoCredential(t *testing.T) {
	s := setupTestStore(t)
	r := NewRefresher(s, testConfig("http://unused"), metrics.NewNoopMetrics())

	result := r.Validate("missing")

	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "no credential found")
}

// newTokenEndpoint returns a fake marketplace token endpoint and a call counter
func newTokenEndpoint(
	t *testing.T,
	handler func(w http.ResponseWriter, form map[string]string),
) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		require.NoError(t, req.ParseForm())
		form := map[string]string{}
		for k := range req.PostForm {
			form[k] = req.PostForm.Get(k)
		}
		handler(w, form)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRefresh_Success(t *testing.T) {
	srv, calls := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		assert.Equal(t, GrantTypeRefreshToken, form["grant_type"])
		assert.Equal(t, "R", form["refresh_token"])
		assert.Equal(t, "client-id", form["client_id"])
		assert.Equal(t, "client-secret", form["client_secret"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "A2",
			"refresh_token": "R2",
			"expires_in":    3600,
			"locationId":    "loc1",
		})
	})

	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Now().Add(-time.Hour))
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	before := time.Now()
	result := r.Refresh(context.Background(), "loc1")

	require.True(t, result.Success, result.Message)
	assert.Equal(t, "A2", result.AccessToken)
	assert.Equal(t, "R2", result.RefreshToken)
	assert.Equal(t, int64(1), calls.Load())

	// Stored pair rotated, expiry anchored at refresh time + expires_in
	cred, err := s.GetCredential("loc1")
	require.NoError(t, err)
	assert.Equal(t, "A2", cred.AccessToken)
	assert.Equal(t, "R2", cred.RefreshToken)
	assert.WithinDuration(t, before.Add(3600*time.Second), cred.ExpiresAt, 10*time.Second)
}

func TestRefresh_EndpointError(t *testing.T) {
	srv, _ := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant"})
	})

	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Now().Add(-time.Hour))
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	result := r.Refresh(context.Background(), "loc1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "HTTP 401")
	assert.Contains(t, result.Message, "invalid_grant")

	// Stored pair untouched on failure
	cred, err := s.GetCredential("loc1")
	require.NoError(t, err)
	assert.Equal(t, "A", cred.AccessToken)
	assert.Equal(t, "R", cred.RefreshToken)
}

func TestRefresh_IncompleteResponse(t *testing.T) {
	srv, _ := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		// missing refresh_token and expires_in
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "A2"})
	})

	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Now().Add(-time.Hour))
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	result := r.Refresh(context.Background(), "loc1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "missing access_token, refresh_token, or expires_in")
}

func TestRefresh_NoCredential(t *testing.T) {
	s := setupTestStore(t)
	r := NewRefresher(s, testConfig("http://unused"), metrics.NewNoopMetrics())

	result := r.Refresh(context.Background(), "missing")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no credential found")
}

func TestRefresh_EmptyRefreshToken(t *testing.T) {
	s := setupTestStore(t)
	err := s.InsertCredential(&models.Credential{
		LocationID:  "loc1",
		AccessToken: "A",
		// RefreshToken deliberately empty; gorm not-null allows "" for strings
		RefreshToken: "",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	r := NewRefresher(s, testConfig("http://unused"), metrics.NewNoopMetrics())

	result := r.Refresh(context.Background(), "loc1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no refresh token")
}

func TestEnsureValid_CurrentTokenReturned(t *testing.T) {
	srv, calls := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		t.Error("token endpoint must not be called for a valid token")
	})

	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Now().Add(time.Hour))
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	accessToken, err := r.EnsureValid(context.Background(), "loc1")

	require.NoError(t, err)
	assert.Equal(t, "A", accessToken)
	assert.Equal(t, int64(0), calls.Load())
}

func TestEnsureValid_TriggersRefresh(t *testing.T) {
	srv, calls := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "A2",
			"refresh_token": "R2",
			"expires_in":    3600,
			"locationId":    "loc1",
		})
	})

	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	before := time.Now()
	accessToken, err := r.EnsureValid(context.Background(), "loc1")

	require.NoError(t, err)
	assert.Equal(t, "A2", accessToken)
	assert.Equal(t, int64(1), calls.Load())

	cred, err := s.GetCredential("loc1")
	require.NoError(t, err)
	assert.Equal(t, "A2", cred.AccessToken)
	assert.WithinDuration(t, before.Add(time.Hour), cred.ExpiresAt, 10*time.Second)
}

func TestEnsureValid_RefreshFailure(t *testing.T) {
	srv, _ := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		w.WriteHeader(http.StatusBadGateway)
	})

	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Now().Add(-time.Hour))
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	_, err := r.EnsureValid(context.Background(), "loc1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Contains(t, err.Error(), "loc1")
}

func TestEnsureValid_ConcurrentCallsShareOneExchange(t *testing.T) {
	release := make(chan struct{})
	srv, calls := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "A2",
			"refresh_token": "R2",
			"expires_in":    3600,
			"locationId":    "loc1",
		})
	})

	s := setupTestStore(t)
	seedCredential(t, s, "loc1", time.Now().Add(-time.Hour))
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	const workers = 4
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.EnsureValid(context.Background(), "loc1")
		}(i)
	}

	// Let every worker reach the in-flight exchange before releasing it
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "A2", results[i])
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestExchangeCode_Success(t *testing.T) {
	srv, _ := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		assert.Equal(t, GrantTypeAuthorizationCode, form["grant_type"])
		assert.Equal(t, "auth-code-123", form["code"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "A1",
			"refresh_token": "R1",
			"expires_in":    86400,
			"locationId":    "loc1",
			"companyId":     "comp-1",
		})
	})

	s := setupTestStore(t)
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	pair, err := r.ExchangeCode(context.Background(), "auth-code-123")

	require.NoError(t, err)
	assert.Equal(t, "A1", pair.AccessToken)
	assert.Equal(t, "R1", pair.RefreshToken)
	assert.Equal(t, "loc1", pair.LocationID)
	assert.Equal(t, "comp-1", pair.CompanyID)
	assert.WithinDuration(t, time.Now().Add(86400*time.Second), pair.ExpiresAt, 10*time.Second)
}

func TestExchangeCode_MissingLocationID(t *testing.T) {
	srv, _ := newTokenEndpoint(t, func(w http.ResponseWriter, form map[string]string) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "A1",
			"refresh_token": "R1",
			"expires_in":    86400,
		})
	})

	s := setupTestStore(t)
	r := NewRefresher(s, testConfig(srv.URL), metrics.NewNoopMetrics())

	_, err := r.ExchangeCode(context.Background(), "auth-code-123")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenEndpointInvalidResp)
}
