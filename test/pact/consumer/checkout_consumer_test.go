//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-order-taxes/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderPayload struct {
	ID         int64  `json:"id"`
	Zone       string `json:"zone"`
	Currency   string `json:"currency"`
	State      string `json:"state"`
	ItemsTotal int64  `json:"itemsTotal"`
	TaxTotal   int64  `json:"taxTotal"`
	Total      int64  `json:"total"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestCheckoutPortalContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	itemMatcher := matchers.Map{
		"id":        matchers.Like(1),
		"unitPrice": matchers.Like(pacttest.ExampleUnitPrice),
		"quantity":  matchers.Like(1),
		"variant": matchers.Map{
			"code":            matchers.Like(pacttest.ExampleVariantCode),
			"taxCategoryCode": matchers.Like(pacttest.ExampleCategoryCode),
		},
	}
	orderBody := func(taxTotal int64) matchers.Map {
		return matchers.Map{
			"id":         matchers.Like(pacttest.ExistingOrderID),
			"zone":       matchers.Like(pacttest.ExampleZone),
			"currency":   matchers.Like(pacttest.ExampleCurrency),
			"state":      matchers.Term("cart", "cart|finalized"),
			"items":      matchers.EachLike(itemMatcher, 1),
			"itemsTotal": matchers.Like(pacttest.ExampleUnitPrice),
			"taxTotal":   matchers.Like(taxTotal),
			"total":      matchers.Like(pacttest.ExampleUnitPrice + taxTotal),
		}
	}

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to fetch an existing order").
		WithRequest("GET", fmt.Sprintf("/v1/orders/%d", pacttest.ExistingOrderID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderBody(0))
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to recalculate taxes of an order").
		WithRequest("POST", fmt.Sprintf("/v1/orders/%d/recalculate", pacttest.ExistingOrderID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			taxedItem := matchers.Map{
				"id":        matchers.Like(1),
				"unitPrice": matchers.Like(pacttest.ExampleUnitPrice),
				"quantity":  matchers.Like(1),
				"units": matchers.EachLike(matchers.Map{
					"id": matchers.Like(1),
					"adjustments": matchers.EachLike(matchers.Map{
						"type":   matchers.S("tax"),
						"amount": matchers.Like(60),
					}, 1),
				}, 1),
			}
			body := orderBody(pacttest.ExampleTaxTotal)
			body["items"] = matchers.EachLike(taxedItem, 1)
			b.JSONBody(body)
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a request for a missing order").
		WithRequest("GET", fmt.Sprintf("/v1/orders/%d", pacttest.MissingOrderID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newOrderClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fetched, err := client.GetOrder(ctx, pacttest.ExistingOrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if fetched.ID != pacttest.ExistingOrderID {
			return fmt.Errorf("expected order id %d, got %+v", pacttest.ExistingOrderID, fetched)
		}

		recalculated, err := client.RecalculateTaxes(ctx, pacttest.ExistingOrderID)
		if err != nil {
			return fmt.Errorf("recalculate taxes: %w", err)
		}
		if recalculated.Total != recalculated.ItemsTotal+recalculated.TaxTotal {
			return fmt.Errorf("total %d does not add up for %+v", recalculated.Total, recalculated)
		}

		if _, err := client.GetOrder(ctx, pacttest.MissingOrderID); err == nil {
			return fmt.Errorf("expected 404 for order %d", pacttest.MissingOrderID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.Status())
		}
		return nil
	})
	require.NoError(t, err)
}

type orderClient struct {
	baseURL    string
	httpClient *http.Client
}

func newOrderClient(config pactconsumer.MockServerConfig) *orderClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &orderClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *orderClient) GetOrder(ctx context.Context, id int64) (*orderPayload, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("%s/v1/orders/%d", c.baseURL, id))
}

func (c *orderClient) RecalculateTaxes(ctx context.Context, id int64) (*orderPayload, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("%s/v1/orders/%d/recalculate", c.baseURL, id))
}

func (c *orderClient) do(ctx context.Context, method, url string) (*orderPayload, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var payload orderPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{status: status, title: problem.Title, detail: problem.Detail}
}
