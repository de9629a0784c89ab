// Package stripe provides a minimal Stripe REST API client covering the
// charge and subscription listings the payment sync needs.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public Stripe API endpoint.
	DefaultBaseURL = "https://api.stripe.com"
	// apiVersion pins the Stripe API contract this client was written against.
	apiVersion = "2024-06-20"
	// pageLimit is Stripe's maximum page size.
	pageLimit = 100
)

// Charge is one Stripe charge object, reduced to the fields the sync uses.
type Charge struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Customer string `json:"customer"`
	Paid     bool   `json:"paid"`
	Refunded bool   `json:"refunded"`
	Status   string `json:"status"`
	Created  int64  `json:"created"`
	Invoice  string `json:"invoice"`
	// BillingDetails carries the customer email when the charge has no
	// customer object attached.
	BillingDetails struct {
		Email string `json:"email"`
	} `json:"billing_details"`
}

// CreatedAt converts the Unix creation timestamp.
func (c Charge) CreatedAt() time.Time {
	return time.Unix(c.Created, 0).UTC()
}

// SubscriptionItem is one line of a subscription.
type SubscriptionItem struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
	Price    struct {
		UnitAmount int64  `json:"unit_amount"`
		Currency   string `json:"currency"`
		Recurring  struct {
			Interval      string `json:"interval"`
			IntervalCount int64  `json:"interval_count"`
		} `json:"recurring"`
	} `json:"price"`
}

// Subscription is one Stripe subscription, reduced to the fields the sync uses.
type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
}

// MonthlyAmountCents sums the subscription's items normalized to a monthly
// rate. Yearly prices contribute a twelfth per interval count; weekly and
// daily prices are left at their face value times a monthly multiplier.
func (s Subscription) MonthlyAmountCents() int64 {
	var total int64
	for _, item := range s.Items.Data {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		amount := item.Price.UnitAmount * qty
		count := item.Price.Recurring.IntervalCount
		if count == 0 {
			count = 1
		}
		switch item.Price.Recurring.Interval {
		case "year":
			total += amount / (12 * count)
		case "week":
			total += amount * 4 / count
		case "day":
			total += amount * 30 / count
		default:
			total += amount / count
		}
	}
	return total
}

type listEnvelope[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a thin HTTP client for the Stripe REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Stripe client. An empty baseURL falls back to the public API.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListCharges pages through every charge, oldest pages last, following
// Stripe's cursor pagination.
func (c *Client) ListCharges(ctx context.Context) ([]Charge, error) {
	var all []Charge
	startingAfter := ""
	for {
		page, hasMore, err := c.listChargesPage(ctx, startingAfter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if !hasMore || len(page) == 0 {
			return all, nil
		}
		startingAfter = page[len(page)-1].ID
	}
}

func (c *Client) listChargesPage(ctx context.Context, startingAfter string) ([]Charge, bool, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageLimit))
	if startingAfter != "" {
		params.Set("starting_after", startingAfter)
	}

	var envelope listEnvelope[Charge]
	if err := c.get(ctx, "/v1/charges", params, &envelope); err != nil {
		return nil, false, fmt.Errorf("list charges: %w", err)
	}
	return envelope.Data, envelope.HasMore, nil
}

// ListActiveSubscriptions pages through every active subscription.
func (c *Client) ListActiveSubscriptions(ctx context.Context) ([]Subscription, error) {
	var all []Subscription
	startingAfter := ""
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(pageLimit))
		params.Set("status", "active")
		if startingAfter != "" {
			params.Set("starting_after", startingAfter)
		}

		var envelope listEnvelope[Subscription]
		if err := c.get(ctx, "/v1/subscriptions", params, &envelope); err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		all = append(all, envelope.Data...)
		if !envelope.HasMore || len(envelope.Data) == 0 {
			return all, nil
		}
		startingAfter = envelope.Data[len(envelope.Data)-1].ID
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Stripe-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("stripe API %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("stripe API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
