package telegram

import (
	"encoding/json"
	"fmt"
)

// ParseModeHTML tells the Bot API to render basic HTML tags.
const ParseModeHTML = "HTML"

// SendMessageRequest is the body of sendMessage.
type SendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// APIResponse is the envelope every Bot API method returns.
type APIResponse struct {
	OK          bool            `json:"ok"`          // true on success
	Description string          `json:"description"` // human-readable error, set when OK is false
	ErrorCode   int             `json:"error_code"`  // Telegram error code, set when OK is false
	Result      json.RawMessage `json:"result"`      // method-specific payload
}

// APIError is returned when Telegram answers with ok=false.
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d (http %d): %s", e.ErrorCode, e.StatusCode, e.Description)
}
