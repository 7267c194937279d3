// Package orderapi is the HTTP client for the order-persistence API.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/repository"
)

const (
	headerAPIKey    = "api_key"
	headerRequestID = "X-Request-Id"
)

// StatusError is returned for any non-2xx answer
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: order api returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: order api returned %d: %s", e.Op, e.StatusCode, e.Message)
}

type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
	APIKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid order api base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid order api base url %q: scheme and host required", baseURL)
	}
	return &Client{
		Name:    "order-api",
		BaseURL: u,
		HTTP:    &http.Client{Timeout: timeout},
		APIKey:  apiKey,
	}, nil
}

func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	u := c.BaseURL.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set(headerAPIKey, c.APIKey)
	}
	if rid := chimiddleware.GetReqID(ctx); rid != "" {
		req.Header.Set(headerRequestID, rid)
	}

	return c.HTTP.Do(req)
}

// CreateOrder posts the order-creation payload. It implements the checkout
// workflow's order creator.
func (c *Client) CreateOrder(ctx context.Context, in models.CreateOrderRequest) (*models.Order, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/api/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	var order models.Order
	if err := decode(resp, "create order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches one order; an unknown id is repository.ErrOrderNotFound.
func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	defer resp.Body.Close()

	var order models.Order
	if err := decode(resp, "get order", &order); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders returns a user's orders, newest first. A 404 from the order API
// means the user has none.
func (c *Client) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer resp.Body.Close()

	var orders []models.Order
	if err := decode(resp, "list orders", &orders); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return []models.Order{}, nil
		}
		return nil, err
	}
	return orders, nil
}

func decode(resp *http.Response, op string, v any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage pulls "error" out of the API's error envelope.
func errorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil {
		return ""
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
