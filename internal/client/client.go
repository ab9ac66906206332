// Package client is a Go client for the storefront HTTP API and the
// per-session counters a UI renders from it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davex-ai/SwiftBites/internal/auth"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the storefront.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storefront: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("storefront: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	role       domain.Role
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRole sets the role header sent with every request.
func WithRole(role domain.Role) Option {
	return func(c *Client) { c.role = role }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		role: domain.RoleUser,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cartMutation struct {
	Cart []domain.CartLine `json:"cart"`
}

type wishlistBody struct {
	Products []domain.Product `json:"products"`
}

type productRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// Cart returns the user's resolved cart lines.
func (c *Client) Cart(ctx context.Context, userID string) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	if err := c.do(ctx, http.MethodGet, "/my-cart", userID, nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (c *Client) Wishlist(ctx context.Context, userID string) ([]domain.Product, error) {
	var body wishlistBody
	if err := c.do(ctx, http.MethodGet, "/wishlist", userID, nil, &body); err != nil {
		return nil, err
	}
	return body.Products, nil
}

func (c *Client) AddToCart(ctx context.Context, userID, productID string, quantity int) ([]domain.CartLine, error) {
	var body cartMutation
	req := productRequest{ProductID: productID, Quantity: &quantity}
	if err := c.do(ctx, http.MethodPost, "/cart", userID, req, &body); err != nil {
		return nil, err
	}
	return body.Cart, nil
}

func (c *Client) UpdateCartQuantity(ctx context.Context, userID, productID string, quantity int) ([]domain.CartLine, error) {
	var body cartMutation
	path := "/cart/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodPatch, path, userID, map[string]int{"quantity": quantity}, &body); err != nil {
		return nil, err
	}
	return body.Cart, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, userID, productID string) ([]domain.CartLine, error) {
	var body cartMutation
	if err := c.do(ctx, http.MethodDelete, "/cart", userID, productRequest{ProductID: productID}, &body); err != nil {
		return nil, err
	}
	return body.Cart, nil
}

func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/cart-clear", userID, nil, nil)
}

func (c *Client) AddToWishlist(ctx context.Context, userID, productID string) ([]domain.Product, error) {
	var body wishlistBody
	if err := c.do(ctx, http.MethodPost, "/wishlist", userID, productRequest{ProductID: productID}, &body); err != nil {
		return nil, err
	}
	return body.Products, nil
}

func (c *Client) RemoveFromWishlist(ctx context.Context, userID, productID string) ([]domain.Product, error) {
	var body wishlistBody
	if err := c.do(ctx, http.MethodDelete, "/wishlist", userID, productRequest{ProductID: productID}, &body); err != nil {
		return nil, err
	}
	return body.Products, nil
}

func (c *Client) do(ctx context.Context, method, path, userID string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(auth.HeaderUserID, userID)
	req.Header.Set(auth.HeaderUserRole, string(c.role))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
