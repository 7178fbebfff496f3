// Package broker implements the authenticated HTTP client for the DSB
// message broker: login with the gateway DID to obtain a bearer token, and
// the health probe the gateway exposes through its own API.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// tokenExpirySlack refreshes the token slightly before its exp claim.
const tokenExpirySlack = 30 * time.Second

// Client is an authenticated client for the message broker API. Transient
// transport failures are retried by the underlying retryable HTTP client;
// a 401 triggers a single re-login and one replay of the request.
type Client struct {
	baseURL    string
	did        string
	httpClient *http.Client
	log        *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Config holds the broker connection parameters.
type Config struct {
	// BaseURL is the message broker base URL.
	BaseURL string

	// DID identifies the gateway when logging in.
	DID string

	// RetryMax bounds transport-level retries per request.
	RetryMax int
}

// NewClient creates a broker client for the gateway identity.
func NewClient(cfg Config, log *slog.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.Logger = nil

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		did:        cfg.DID,
		httpClient: retryClient.StandardClient(),
		log:        log,
	}
}

// HealthResult is the broker health endpoint outcome.
type HealthResult struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message,omitempty"`
}

// Health probes the broker health endpoint with a valid login token.
func (c *Client) Health(ctx context.Context) (HealthResult, error) {
	resp, err := c.doAuthenticated(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return HealthResult{}, fmt.Errorf("could not read health response: %w", err)
	}

	result := HealthResult{StatusCode: resp.StatusCode}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err == nil && status.Status != "" {
		result.Message = status.Status
	} else if len(body) > 0 {
		result.Message = strings.TrimSpace(string(body))
	}
	return result, nil
}

// doAuthenticated performs a request with a bearer token, re-logging in at
// most once when the broker rejects the token.
func (c *Client) doAuthenticated(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	c.log.Debug("Broker rejected token, re-authenticating")
	token, err = c.login(ctx)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, body, token)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("broker request failed: %w", err)
	}
	return resp, nil
}

// ensureToken returns a cached token while it is still valid, logging in
// otherwise.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiry := c.token, c.tokenExpiry
	c.mu.Unlock()

	if token != "" && (expiry.IsZero() || time.Now().Before(expiry.Add(-tokenExpirySlack))) {
		return token, nil
	}
	return c.login(ctx)
}

type loginRequest struct {
	DID       string `json:"did"`
	RequestID string `json:"requestId"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// login authenticates against the broker and caches the returned token
// until its JWT exp claim (minus slack). Tokens without an exp claim are
// cached until the next 401.
func (c *Client) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(loginRequest{
		DID:       c.did,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("broker login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("broker login returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("could not parse login response: %w", err)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("broker login returned an empty token")
	}

	c.mu.Lock()
	c.token = parsed.Token
	c.tokenExpiry = tokenExpiry(parsed.Token)
	c.mu.Unlock()

	c.log.Debug("Logged in to message broker", "did", c.did)
	return parsed.Token, nil
}

// tokenExpiry extracts the exp claim without verifying the signature; the
// broker is the token's authority, the gateway only schedules refreshes.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
