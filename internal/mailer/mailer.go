package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"

	"golang.org/x/sync/errgroup"
)

// ErrNoRecipients is returned when a bulk request carries an empty list
var ErrNoRecipients = errors.New("no receiver emails provided")

// Sender is the outbound email contract the notifier depends on
type Sender interface {
	SendBulk(ctx context.Context, req BulkRequest) (*BulkResult, error)
}

// BulkRequest is one email fanned out to every receiver address
type BulkRequest struct {
	SenderEmail    string
	ReceiverEmails []string
	Subject        string
	HTMLContent    string
}

// RecipientResult reports one delivery attempt
type RecipientResult struct {
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkResult aggregates per-recipient outcomes
type BulkResult struct {
	Results     []RecipientResult `json:"results"`
	TotalSent   int               `json:"totalSent"`
	TotalFailed int               `json:"totalFailed"`
}

// Client delivers email through an external HTTP transport, one request
// per recipient. Delivery failures stay inside the per-recipient results;
// the bulk call itself only errors on empty input.
type Client struct {
	config     *config.Config
	httpClient *http.Client
}

// Compile-time interface check.
var _ Sender = (*Client)(nil)

func NewClient(cfg *config.Config) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.EmailTimeout,
		},
	}
}

// sendRequest is the transport's per-message payload
type sendRequest struct {
	SenderEmail   string `json:"senderEmail"`
	ReceiverEmail string `json:"receiverEmail"`
	Subject       string `json:"subject"`
	HTMLContent   string `json:"htmlContent"`
}

// sendResponse is the transport's per-message response body
type sendResponse struct {
	MessageID string `json:"messageId"`
	Message   string `json:"message,omitempty"`
}

// SendBulk delivers the email to every recipient using the configured
// strategy. Sequential is the safe default; parallel trades rate-limit
// headroom for throughput.
func (c *Client) SendBulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if len(req.ReceiverEmails) == 0 {
		return nil, ErrNoRecipients
	}

	var results []RecipientResult
	if c.config.EmailStrategy == config.EmailStrategyParallel {
		results = c.sendParallel(ctx, req)
	} else {
		results = c.sendSequential(ctx, req)
	}

	result := &BulkResult{Results: results}
	for _, r := range results {
		if r.Success {
			result.TotalSent++
		} else {
			result.TotalFailed++
		}
	}
	return result, nil
}

func (c *Client) sendSequential(ctx context.Context, req BulkRequest) []RecipientResult {
	results := make([]RecipientResult, 0, len(req.ReceiverEmails))
	for _, email := range req.ReceiverEmails {
		results = append(results, c.sendOne(ctx, req, email))
	}
	return results
}

func (c *Client) sendParallel(ctx context.Context, req BulkRequest) []RecipientResult {
	results := make([]RecipientResult, len(req.ReceiverEmails))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, email := range req.ReceiverEmails {
		i, email := i, email
		g.Go(func() error {
			r := c.sendOne(gctx, req, email)
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures live in the results
	_ = g.Wait()

	return results
}

func (c *Client) sendOne(ctx context.Context, req BulkRequest, email string) RecipientResult {
	payload := sendRequest{
		SenderEmail:   req.SenderEmail,
		ReceiverEmail: email,
		Subject:       req.Subject,
		HTMLContent:   req.HTMLContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return RecipientResult{Email: email, Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.config.EmailAPIURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return RecipientResult{Email: email, Error: fmt.Sprintf("failed to build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.config.EmailAPIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("[Mailer] Send failed receiver=%s: %v", email, err)
		return RecipientResult{Email: email, Error: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return RecipientResult{Email: email, Error: "failed to read transport response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf(
			"[Mailer] Transport rejected receiver=%s status=%d elapsed=%s",
			email,
			resp.StatusCode,
			time.Since(start),
		)
		return RecipientResult{
			Email: email,
			Error: fmt.Sprintf("transport returned HTTP %d: %s", resp.StatusCode, previewBody(respBody)),
		}
	}

	var apiResp sendResponse
	_ = json.Unmarshal(respBody, &apiResp)

	return RecipientResult{Email: email, Success: true, MessageID: apiResp.MessageID}
}

func previewBody(body []byte) string {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return preview
}
