// Package pricing is an HTTP client for the delivery pricing API.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
)

// QuoteRequest describes the cart a delivery quote is requested for.
type QuoteRequest struct {
	Zone     string
	Currency string
	Subtotal int64
	Items    int
}

// Quote is the priced delivery in minor units of Currency.
type Quote struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Error mirrors the error body returned by the pricing API.
type Error struct {
	Message *string `json:"message,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// Client requests delivery quotes.
type Client struct {
	server     string
	httpClient *http.Client
}

// NewClient instantiates the pricing client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("pricing base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse pricing base URL: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{server: baseURL, httpClient: httpClient}, nil
}

// QuoteDelivery asks the pricing API for the delivery charge of a cart.
func (c *Client) QuoteDelivery(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("pricing client not configured")
	}
	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		return nil, errors.New("delivery zone is required")
	}
	httpReq, err := newQuoteDeliveryRequest(ctx, c.server, zone, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call pricing API: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pricing response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var quote Quote
		if err := json.Unmarshal(body, &quote); err != nil {
			return nil, fmt.Errorf("decode pricing quote: %w", err)
		}
		if quote.Amount < 0 {
			return nil, fmt.Errorf("pricing API returned negative amount %d", quote.Amount)
		}
		return &quote, nil
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("pricing API error: %s", errorMessage(body, resp.Status))
	default:
		return nil, fmt.Errorf("pricing API unexpected status: %s", resp.Status)
	}
}

func newQuoteDeliveryRequest(ctx context.Context, server, zone string, req QuoteRequest) (*http.Request, error) {
	pathParam, err := runtime.StyleParamWithLocation("simple", false, "zone", runtime.ParamLocationPath, zone)
	if err != nil {
		return nil, err
	}
	serverURL, err := url.Parse(server)
	if err != nil {
		return nil, err
	}
	queryURL, err := serverURL.Parse(fmt.Sprintf("delivery-quotes/%s", pathParam))
	if err != nil {
		return nil, err
	}

	values := queryURL.Query()
	params := []struct {
		name  string
		value any
	}{
		{"subtotal", req.Subtotal},
		{"items", req.Items},
		{"currency", req.Currency},
	}
	for _, p := range params {
		frag, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return nil, err
		}
		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return nil, err
		}
		for k, v := range parsed {
			for _, v2 := range v {
				values.Add(k, v2)
			}
		}
	}
	queryURL.RawQuery = values.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func errorMessage(body []byte, fallback string) string {
	var apiErr Error
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fallback
	}
	if apiErr.Message != nil {
		if msg := strings.TrimSpace(*apiErr.Message); msg != "" {
			return msg
		}
	}
	if apiErr.Status != nil {
		if msg := strings.TrimSpace(*apiErr.Status); msg != "" {
			return msg
		}
	}
	return fallback
}
