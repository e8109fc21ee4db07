package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// maxErrorBody bounds how much of a non-JSON response ends up in errors.
const maxErrorBody = 512

// Client sends messages to one chat through one bot.
type Client struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token, chatID string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("telegram"),
	}
}

// Send delivers text and reports whether Telegram accepted it. Failures are
// logged, never returned: delivery is best effort.
func (c *Client) Send(ctx context.Context, text string) bool {
	if err := c.SendMessage(ctx, text); err != nil {
		c.logger.Warn("failed to send telegram message", zap.String("chat_id", c.chatID), zap.Error(err))
		return false
	}
	c.logger.Debug("telegram message sent", zap.String("chat_id", c.chatID))
	return true
}

// SendMessage posts text to the configured chat with HTML parse mode.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(SendMessageRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.baseURL + "/bot" + c.token + "/sendMessage"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", c.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", c.redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return fmt.Errorf("decode response (http %d): %w: %s", resp.StatusCode, err, raw)
	}

	if !apiResp.OK {
		return &APIError{
			StatusCode:  resp.StatusCode,
			ErrorCode:   apiResp.ErrorCode,
			Description: apiResp.Description,
		}
	}

	return nil
}

// redact strips the bot token from URLs embedded in transport errors.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if c.token != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<redacted>")
	}
	return err
}
