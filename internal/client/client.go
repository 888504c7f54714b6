package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/ecommerce-backend/internal/middleware"
)

// Client is a Go consumer of the storefront HTTP API. Session tokens
// travel as HttpOnly cookies, so the client keeps them in a cookie jar
// and never touches token values directly. Any request answered with
// 401 triggers one coordinated session refresh followed by a single
// replay of the original request; a replayed request that fails again
// surfaces the failure instead of looping.
type Client struct {
	baseURL string
	base    *url.URL
	http    *http.Client
	coord   *RefreshCoordinator
}

// New builds a client for the API at baseURL.
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		base:    base,
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
		coord:   NewRefreshCoordinator(0),
	}, nil
}

// APIError carries a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized
}

// User mirrors the API's user payload.
type User struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Product mirrors the API's product payload.
type Product struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
	IsFeatured  bool   `json:"isFeatured"`
}

// CheckoutResult is the outcome of a checkout call.
type CheckoutResult struct {
	OrderID     string `json:"orderId"`
	TotalAmount int64  `json:"totalAmount"`
}

// Signup registers a new account and establishes a session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (User, error) {
	var u User
	body := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/v1/auth/signup", body, &u)
	return u, err
}

// Login authenticates and establishes a session.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var u User
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", body, &u)
	return u, err
}

// Logout revokes the server-side session and drops local cookies.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	c.clearSession()
	return err
}

// Profile returns the authenticated user.
func (c *Client) Profile(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/v1/auth/profile", nil, &u)
	return u, err
}

// FeaturedProducts lists the featured catalog entries.
func (c *Client) FeaturedProducts(ctx context.Context) ([]Product, error) {
	var ps []Product
	err := c.do(ctx, http.MethodGet, "/v1/products/featured", nil, &ps)
	return ps, err
}

// Checkout places an order for a product, optionally with a coupon code.
func (c *Client) Checkout(ctx context.Context, productID uint64, couponCode string) (CheckoutResult, error) {
	var res CheckoutResult
	body := map[string]any{"productId": productID}
	if couponCode != "" {
		body["couponCode"] = couponCode
	}
	err := c.do(ctx, http.MethodPost, "/v1/payments/checkout", body, &res)
	return res, err
}

// do performs one API call with the 401-refresh-replay policy. The
// request body is marshalled once so a replay sends identical bytes.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	retried := false
	for {
		status, data, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized && !retried {
			retried = true
			if rerr := c.coord.Do(ctx, c.refreshSession); rerr != nil {
				c.clearSession()
				return fmt.Errorf("session refresh: %w", rerr)
			}
			continue
		}
		if status >= 400 {
			return &APIError{StatusCode: status, Message: errorMessage(data)}
		}
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// refreshSession asks the server for a fresh access cookie. It runs
// only under the coordinator, so at most one call is in flight.
func (c *Client) refreshSession(ctx context.Context) error {
	status, data, err := c.send(ctx, http.MethodPost, "/v1/auth/refresh", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &APIError{StatusCode: status, Message: errorMessage(data)}
	}
	return nil
}

// clearSession expires the credential cookies through the jar so the
// next call starts logged out. The jar itself is never replaced: the
// http.Client reads its Jar field without locking, so the field must
// stay fixed while requests may be in flight. cookiejar.Jar deletes an
// entry when handed MaxAge < 0, and its methods are safe for
// concurrent use with in-flight requests.
func (c *Client) clearSession() {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{
		{Name: middleware.AccessTokenCookie, Path: "/", MaxAge: -1},
		{Name: middleware.RefreshTokenCookie, Path: "/", MaxAge: -1},
	})
}

func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}
