// Package discord implements the announcement sink on the Discord REST
// API. Only the message-create endpoint is wrapped; the hub never reads
// from the gateway here, it only speaks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/notification"
	"github.com/guildhub/guild-xp-hub/pkg/circuitbreaker"
	"github.com/guildhub/guild-xp-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Discord client.
type ClientConfig struct {
	// Token is the bot token.
	Token string

	// BaseURL is the Discord API base URL (default: https://discord.com/api/v10)
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:   token,
		BaseURL: "https://discord.com/api/v10",
		Timeout: 15 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// API TYPES
// ══════════════════════════════════════════════════════════════════════════════

// allowedMentions is Discord's mention gate. An empty parse list renders
// mentions as plain text without pinging anyone.
type allowedMentions struct {
	Parse []string `json:"parse"`
}

// createMessageRequest is the body of the message-create call.
type createMessageRequest struct {
	Content         string          `json:"content"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
}

// apiError is an error response from the Discord API.
type apiError struct {
	Status     int
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

// Error implements the error interface.
func (e *apiError) Error() string {
	return fmt.Sprintf("discord api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Discord REST client. It implements notification.Announcer.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new Discord client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://discord.com/api/v10"
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	logger := config.Logger.With("component", "discord")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		retrier: retry.New(
			retry.WithMaxAttempts(4),
			retry.WithInitialDelay(250*time.Millisecond),
			retry.WithMaxDelay(5*time.Second),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				logger.Warn("retrying discord call",
					"attempt", attempt,
					"delay", delay.String(),
					"error", err,
				)
			}),
		),
		breaker: circuitbreaker.New("discord",
			circuitbreaker.WithFailureThreshold(5),
			circuitbreaker.WithTimeout(30*time.Second),
		),
	}
}

// Announce implements notification.Announcer. A pinging announcement
// opens the mention gate for user mentions only; a silent one keeps the
// gate shut so the member still sees their name but gets no push.
func (c *Client) Announce(ctx context.Context, a notification.Announcement) error {
	if !a.ChannelID.IsSet() {
		return errors.New("announce: channel is not set")
	}

	parse := []string{}
	if a.Mentions == notification.MentionAll {
		parse = []string{"users"}
	}

	body := createMessageRequest{
		Content:         a.Content,
		AllowedMentions: allowedMentions{Parse: parse},
	}

	path := fmt.Sprintf("/channels/%d/messages", a.ChannelID.Int64())

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.post(ctx, path, body)
		})
	})
	if err != nil {
		return fmt.Errorf("announce: %w", err)
	}

	c.logger.Debug("announcement delivered",
		"channel_id", a.ChannelID.Int64(),
		"mentions", string(a.Mentions),
	)

	return nil
}

// post performs a single API call and classifies the failure for the
// retrier: rate limits and server errors retry, other client errors are
// permanent.
func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)

	apiErr := &apiError{Status: resp.StatusCode}
	if len(respBody) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(respBody, apiErr)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if apiErr.RetryAfter > 0 {
			wait := time.Duration(apiErr.RetryAfter * float64(time.Second))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		return retry.Retryable(apiErr)
	}

	if resp.StatusCode >= 500 {
		return retry.Retryable(apiErr)
	}

	return retry.Permanent(apiErr)
}

// IsHealthy reports whether the API answers the gateway probe.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/gateway", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
