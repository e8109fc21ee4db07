package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError names the configuration field that made startup fail.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "config error [" + e.Field + "]: " + e.Reason
}

// Validate checks that everything needed to connect and notify is present.
func (c *Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"polymarket.api_key", c.Polymarket.APIKey},
		{"polymarket.api_secret", c.Polymarket.APISecret},
		{"polymarket.api_passphrase", c.Polymarket.APIPassphrase},
		{"telegram.bot_token", c.Telegram.BotToken},
		{"telegram.chat_id", c.Telegram.ChatID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "missing"}
		}
	}

	url := c.Polymarket.WS.URL
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		return &ValidationError{Field: "polymarket.ws.url", Reason: fmt.Sprintf("invalid websocket url %q", url)}
	}

	if c.Monitor.HeartbeatInterval <= 0 {
		return &ValidationError{Field: "monitor.heartbeat_interval", Reason: "must be positive"}
	}
	if c.Monitor.ReconnectDelay < 0 {
		return &ValidationError{Field: "monitor.reconnect_delay", Reason: "must not be negative"}
	}
	if c.Monitor.MaxReconnectAttempts < 0 {
		return &ValidationError{Field: "monitor.max_reconnect_attempts", Reason: "must not be negative"}
	}
	if c.Monitor.TimeZone != "" {
		if _, err := time.LoadLocation(c.Monitor.TimeZone); err != nil {
			return &ValidationError{Field: "monitor.timezone", Reason: fmt.Sprintf("unknown time zone %q", c.Monitor.TimeZone)}
		}
	}

	if c.Journal.Enabled {
		if c.Journal.Retention < 0 {
			return &ValidationError{Field: "journal.retention", Reason: "must not be negative"}
		}
		switch c.Journal.Driver {
		case JournalDriverSQLite:
			if c.Journal.SQLitePath == "" {
				return &ValidationError{Field: "journal.sqlite_path", Reason: "missing"}
			}
		case JournalDriverPostgres:
		default:
			return &ValidationError{Field: "journal.driver", Reason: fmt.Sprintf("unknown driver %q", c.Journal.Driver)}
		}
	}

	return nil
}

// Journal drivers.
const (
	JournalDriverSQLite   = "sqlite"
	JournalDriverPostgres = "postgres"
)
