package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"
)

var (
	// ErrEmptyLocationID is returned before any external call is made
	ErrEmptyLocationID = errors.New("location_id must not be empty")

	// ErrInventoryAPI indicates the inventory endpoint rejected the request
	ErrInventoryAPI = errors.New("inventory API request failed")
)

// TokenSource supplies a usable access token for a location, refreshing
// just-in-time when needed
type TokenSource interface {
	EnsureValid(ctx context.Context, locationID string) (string, error)
}

// Service produces an InventorySummary for one location, hiding token
// management and the count-then-fetch pagination behind one call.
type Service struct {
	tokens     TokenSource
	config     *config.Config
	httpClient *http.Client
	metrics    metrics.Recorder
}

func NewService(tokens TokenSource, cfg *config.Config, m metrics.Recorder) *Service {
	return &Service{
		tokens:  tokens,
		config:  cfg,
		metrics: m,
		httpClient: &http.Client{
			Timeout: cfg.InventoryTimeout,
		},
	}
}

// inventoryItem is one line item from the marketplace inventory endpoint.
// AvailableQuantity is a pointer so a missing field is distinguishable from
// an explicit zero; both count as out-of-stock.
type inventoryItem struct {
	Product           string `json:"product"`
	ProductName       string `json:"productName"`
	Name              string `json:"name"`
	AvailableQuantity *int   `json:"availableQuantity"`
}

type totalEntry struct {
	Total int `json:"total"`
}

type inventoryResponse struct {
	Inventory []inventoryItem `json:"inventory"`
	Total     []totalEntry    `json:"total"`
}

// QuerySummary computes a fresh InventorySummary for the location.
// Two-step fetch: a limit=0 probe for the total count, then one
// limit=<total> page carrying every item. A zero total skips the second
// call entirely.
func (s *Service) QuerySummary(
	ctx context.Context,
	locationID string,
) (*models.InventorySummary, error) {
	if locationID == "" {
		return nil, ErrEmptyLocationID
	}

	start := time.Now()
	summary, err := s.querySummary(ctx, locationID)
	s.metrics.RecordInventoryQuery(err == nil, time.Since(start))
	return summary, err
}

func (s *Service) querySummary(
	ctx context.Context,
	locationID string,
) (*models.InventorySummary, error) {
	accessToken, err := s.tokens.EnsureValid(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token for %s: %w", locationID, err)
	}

	// Step 1: count probe
	countResp, err := s.fetchInventory(ctx, locationID, accessToken, 0)
	if err != nil {
		return nil, err
	}

	total := 0
	if len(countResp.Total) > 0 {
		total = countResp.Total[0].Total
	}

	// Empty inventory: done, no second call
	if total == 0 {
		return &models.InventorySummary{
			LocationID:      locationID,
			OutOfStockNames: []string{},
		}, nil
	}

	// Step 2: fetch every item in one page
	fullResp, err := s.fetchInventory(ctx, locationID, accessToken, total)
	if err != nil {
		return nil, err
	}

	return reduceItems(locationID, fullResp.Inventory), nil
}

// reduceItems folds the raw item list into the summary
func reduceItems(locationID string, items []inventoryItem) *models.InventorySummary {
	summary := &models.InventorySummary{
		LocationID:      locationID,
		TotalItems:      len(items),
		OutOfStockNames: []string{},
	}

	products := make(map[string]struct{})
	for _, item := range items {
		qty := 0
		if item.AvailableQuantity != nil {
			qty = *item.AvailableQuantity
		}

		summary.TotalAvailableQuantity += qty
		if item.Product != "" {
			products[item.Product] = struct{}{}
		}

		if qty > 0 {
			summary.ItemsWithStock++
		} else {
			summary.ItemsOutOfStock++
			summary.OutOfStockNames = append(summary.OutOfStockNames, displayName(item))
		}
	}
	summary.UniqueProducts = len(products)

	return summary
}

// displayName builds the human-readable label used in notification emails
func displayName(item inventoryItem) string {
	switch {
	case item.ProductName != "" && item.Name != "" && item.ProductName != item.Name:
		return item.ProductName + " - " + item.Name
	case item.ProductName != "":
		return item.ProductName
	case item.Name != "":
		return item.Name
	default:
		return item.Product
	}
}

// fetchInventory calls the inventory endpoint with bearer auth
func (s *Service) fetchInventory(
	ctx context.Context,
	locationID, accessToken string,
	limit int,
) (*inventoryResponse, error) {
	endpoint, err := url.Parse(s.config.InventoryAPIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid inventory API URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("altId", locationID)
	q.Set("altType", "location")
	q.Set("limit", fmt.Sprintf("%d", limit))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory request failed for %s: %w", locationID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory response for %s: %w", locationID, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf(
			"[Inventory] API error location=%s limit=%d status=%d",
			locationID,
			limit,
			resp.StatusCode,
		)
		return nil, fmt.Errorf("%w: HTTP %d for location %s", ErrInventoryAPI, resp.StatusCode, locationID)
	}

	var apiResp inventoryResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode inventory response for %s: %w", locationID, err)
	}

	return &apiResp, nil
}
