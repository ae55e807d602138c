// Package registrar is the gateway to the domain registrar provider. Search
// is read-only and safe to repeat; purchase is non-idempotent and is never
// retried here. A timeout after the purchase request was sent is surfaced as
// an ambiguous outcome for manual reconciliation.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ignite/domain-manager/internal/domain"
)

// Client talks to the registrar provider's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	provider   string
}

// Config holds the provider connection settings.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// NewClient creates a registrar client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("REGISTRAR_API_KEY")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		provider:   cfg.Provider,
	}
}

// Search queries availability for keyword across the requested TLDs.
func (c *Client) Search(ctx context.Context, keyword string, tlds []string) ([]SearchResult, error) {
	body, err := json.Marshal(searchRequest{Keyword: keyword, TLDs: tlds})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/domains/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RegistrarError{Op: "search", Provider: c.provider, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.providerErr("search", resp)
	}

	var payload struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	// Providers occasionally echo results outside the requested TLD set;
	// filter so the caller only ever sees what it asked for.
	if len(tlds) == 0 {
		return payload.Results, nil
	}
	wanted := make(map[string]bool, len(tlds))
	for _, tld := range tlds {
		wanted[strings.TrimPrefix(strings.ToLower(tld), ".")] = true
	}
	filtered := payload.Results[:0]
	for _, r := range payload.Results {
		parts := strings.Split(r.Domain, ".")
		if len(parts) >= 2 && wanted[parts[len(parts)-1]] {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Purchase registers the domain for the given term. It is not idempotent: a
// timeout after the request was sent returns domain.ErrPurchaseAmbiguous and
// the caller must reconcile with the provider before trying again.
func (c *Client) Purchase(ctx context.Context, name string, years int, nameservers []string) (*PurchaseResult, error) {
	if years <= 0 {
		years = 1
	}
	body, err := json.Marshal(purchaseRequest{Domain: name, Years: years, Nameservers: nameservers})
	if err != nil {
		return nil, fmt.Errorf("failed to encode purchase request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/domains/purchase", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build purchase request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("purchase of %s: %w", name, domain.ErrPurchaseAmbiguous)
		}
		return nil, &domain.RegistrarError{Op: "purchase", Provider: c.provider, Message: err.Error()}
	}
	defer resp.Body.Close()

	// 4xx with a body still carries the provider's verdict (domain taken,
	// payment declined). Decode it so the caller gets success=false with
	// the provider's error rather than a bare status code.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPaymentRequired &&
		resp.StatusCode != http.StatusConflict {
		return nil, c.providerErr("purchase", resp)
	}

	var result PurchaseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode purchase response: %w", err)
	}
	if result.Domain == "" {
		result.Domain = name
	}
	return &result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) providerErr(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var pe providerError
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &pe) == nil {
		if pe.Message != "" {
			msg = pe.Message
		} else if pe.Error != "" {
			msg = pe.Error
		}
	}
	if msg == "" {
		msg = resp.Status
	}
	return &domain.RegistrarError{Op: op, Provider: c.provider, Message: msg}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
