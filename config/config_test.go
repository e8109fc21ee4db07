package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func validConfig() *Config {
	return &Config{
		Polymarket: PolymarketConfig{
			WS:            WSConfig{URL: "wss://example.test/ws/user"},
			APIKey:        "key",
			APISecret:     "secret",
			APIPassphrase: "pass",
		},
		Telegram: TelegramConfig{BotToken: "1:a", ChatID: "-1"},
		Monitor: MonitorConfig{
			HeartbeatInterval:    10 * time.Second,
			ReconnectDelay:       5 * time.Second,
			MaxReconnectAttempts: 10,
		},
	}
}

// go test -v --run TestLoadFile
func TestLoadFile(t *testing.T) {
	yaml := `
polymarket:
  ws:
    url: wss://example.test/ws/user
    read_timeout: 45s
monitor:
  heartbeat_interval: 15s
  max_reconnect_attempts: 3
telegram:
  chat_label: Alerts
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Polymarket.WS.URL != "wss://example.test/ws/user" {
		t.Errorf("WS.URL = %q", cfg.Polymarket.WS.URL)
	}
	if cfg.Polymarket.WS.ReadTimeout != 45*time.Second {
		t.Errorf("WS.ReadTimeout = %v, want 45s", cfg.Polymarket.WS.ReadTimeout)
	}
	if cfg.Monitor.HeartbeatInterval != 15*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 15s", cfg.Monitor.HeartbeatInterval)
	}
	if cfg.Monitor.MaxReconnectAttempts != 3 {
		t.Errorf("MaxReconnectAttempts = %d, want 3", cfg.Monitor.MaxReconnectAttempts)
	}
	// untouched keys keep their defaults
	if cfg.Monitor.ReconnectDelay != 5*time.Second {
		t.Errorf("ReconnectDelay = %v, want default 5s", cfg.Monitor.ReconnectDelay)
	}
	if cfg.Telegram.ChatLabel != "Alerts" {
		t.Errorf("ChatLabel = %q, want Alerts", cfg.Telegram.ChatLabel)
	}
	if cfg.Journal.Retention != 30*24*time.Hour {
		t.Errorf("Journal.Retention = %v, want default 720h", cfg.Journal.Retention)
	}
}

// go test -v --run TestLoadEnvAndFlagOverrides
func TestLoadEnvAndFlagOverrides(t *testing.T) {
	t.Setenv("POLYNOTIFY_TELEGRAM_CHAT_ID", "-42")
	t.Setenv("POLYNOTIFY_MONITOR_RECONNECT_DELAY", "2s")
	t.Setenv("POLYNOTIFY_LOG_LEVEL", "warn")

	path := writeTempFile(t, "config.yaml", "log:\n  level: info\n")

	cfg, err := Load([]string{"--config", path, "--log-level", "debug"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.ChatID != "-42" {
		t.Errorf("ChatID = %q, want -42", cfg.Telegram.ChatID)
	}
	if cfg.Monitor.ReconnectDelay != 2*time.Second {
		t.Errorf("ReconnectDelay = %v, want 2s", cfg.Monitor.ReconnectDelay)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, flag should win", cfg.Log.Level)
	}
}

// go test -v --run TestLoadMissingExplicitFile
func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

// go test -v --run TestParsePolymarketCredentials
func TestParsePolymarketCredentials(t *testing.T) {
	content := `api_key='k-123', api_secret='s3cr3t', api_passphrase="phrase"`

	creds := ParsePolymarketCredentials(content)

	if creds.APIKey != "k-123" || creds.APISecret != "s3cr3t" || creds.APIPassphrase != "phrase" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	partial := ParsePolymarketCredentials("api_key='only'")
	if partial.APIKey != "only" || partial.APISecret != "" {
		t.Errorf("unexpected partial credentials: %+v", partial)
	}
}

// go test -v --run TestParseTelegramCredentials
func TestParseTelegramCredentials(t *testing.T) {
	content := `
123456789:AAH-token_chars
OtherChat: 555
DXHNotice: -1001234567890
`
	creds := ParseTelegramCredentials(content, "DXHNotice")

	if creds.BotToken != "123456789:AAH-token_chars" {
		t.Errorf("BotToken = %q", creds.BotToken)
	}
	if creds.ChatID != "-1001234567890" {
		t.Errorf("ChatID = %q", creds.ChatID)
	}

	none := ParseTelegramCredentials("not a token\nDXHNotice: abc", "DXHNotice")
	if none.BotToken != "" || none.ChatID != "" {
		t.Errorf("expected nothing parsed, got %+v", none)
	}
}

// go test -v --run TestResolveCredentialsFromFiles
func TestResolveCredentialsFromFiles(t *testing.T) {
	cfg := validConfig()
	cfg.Polymarket.APIKey, cfg.Polymarket.APISecret, cfg.Polymarket.APIPassphrase = "", "", ""
	cfg.Telegram.BotToken = ""
	cfg.Telegram.ChatID = "-7" // set explicitly, must not be overwritten
	cfg.Telegram.ChatLabel = "DXHNotice"
	cfg.Credentials = CredentialsConfig{
		Source:         CredentialSourceFile,
		PolymarketFile: writeTempFile(t, "polyprivate.key", "api_key='k', api_secret='s', api_passphrase='p'"),
		TelegramFile:   writeTempFile(t, "telegramChatid.txt", "42:tok\nDXHNotice: -99\n"),
	}

	if err := cfg.ResolveCredentials(context.Background()); err != nil {
		t.Fatalf("ResolveCredentials failed: %v", err)
	}

	if cfg.Polymarket.APIKey != "k" || cfg.Polymarket.APISecret != "s" || cfg.Polymarket.APIPassphrase != "p" {
		t.Errorf("polymarket credentials not loaded: %+v", cfg.Polymarket)
	}
	if cfg.Telegram.BotToken != "42:tok" {
		t.Errorf("BotToken = %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != "-7" {
		t.Errorf("ChatID = %q, explicit value should win", cfg.Telegram.ChatID)
	}
}

// go test -v --run TestResolveCredentialsMissingField
func TestResolveCredentialsMissingField(t *testing.T) {
	cfg := validConfig()
	cfg.Polymarket.APIPassphrase = ""
	cfg.Telegram.ChatLabel = "DXHNotice"
	cfg.Credentials = CredentialsConfig{
		Source:         CredentialSourceFile,
		PolymarketFile: writeTempFile(t, "polyprivate.key", "api_key='k'"),
	}

	err := cfg.ResolveCredentials(context.Background())

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "polymarket.api_passphrase" {
		t.Errorf("Field = %q", verr.Field)
	}
}

// go test -v --run TestResolveCredentialsUnreadableFile
func TestResolveCredentialsUnreadableFile(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials = CredentialsConfig{
		Source:         CredentialSourceFile,
		PolymarketFile: filepath.Join(t.TempDir(), "missing.key"),
	}

	if err := cfg.ResolveCredentials(context.Background()); err == nil {
		t.Fatal("expected error for missing credential file")
	}
}

// go test -v --run TestResolveCredentialsUnknownSource
func TestResolveCredentialsUnknownSource(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.Source = "vault"

	var verr *ValidationError
	if err := cfg.ResolveCredentials(context.Background()); !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

// go test -v --run TestValidate
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing api key", func(c *Config) { c.Polymarket.APIKey = "" }, "polymarket.api_key"},
		{"missing secret", func(c *Config) { c.Polymarket.APISecret = " " }, "polymarket.api_secret"},
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }, "telegram.bot_token"},
		{"missing chat id", func(c *Config) { c.Telegram.ChatID = "" }, "telegram.chat_id"},
		{"http url", func(c *Config) { c.Polymarket.WS.URL = "https://x" }, "polymarket.ws.url"},
		{"zero heartbeat", func(c *Config) { c.Monitor.HeartbeatInterval = 0 }, "monitor.heartbeat_interval"},
		{"negative budget", func(c *Config) { c.Monitor.MaxReconnectAttempts = -1 }, "monitor.max_reconnect_attempts"},
		{"known zone", func(c *Config) { c.Monitor.TimeZone = "Asia/Shanghai" }, ""},
		{"unknown zone", func(c *Config) { c.Monitor.TimeZone = "Mars/Olympus_Mons" }, "monitor.timezone"},
		{"negative retention", func(c *Config) {
			c.Journal.Enabled = true
			c.Journal.Driver = JournalDriverSQLite
			c.Journal.SQLitePath = "journal.db"
			c.Journal.Retention = -time.Hour
		}, "journal.retention"},
		{"bad journal driver", func(c *Config) {
			c.Journal.Enabled = true
			c.Journal.Driver = "mysql"
		}, "journal.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

type fakeParameterGetter map[string]string

func (f fakeParameterGetter) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	v, ok := f[*in.Name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	if !*in.WithDecryption {
		return nil, errors.New("expected decryption")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: &v}}, nil
}

// go test -v --run TestLoadCredentialsFromStore
func TestLoadCredentialsFromStore(t *testing.T) {
	store := &ParameterStore{client: fakeParameterGetter{
		"/poly/key":    "k",
		"/poly/secret": "s",
		"/poly/pass":   "p",
		"/tg/token":    "1:tok",
		"/tg/chat":     "-5",
	}}

	cfg := validConfig()
	cfg.Polymarket.APIKey, cfg.Polymarket.APISecret, cfg.Polymarket.APIPassphrase = "", "", ""
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "", ""
	cfg.Credentials.SSM = SSMConfig{
		APIKey:        "/poly/key",
		APISecret:     "/poly/secret",
		APIPassphrase: "/poly/pass",
		BotToken:      "/tg/token",
		ChatID:        "/tg/chat",
	}

	if err := cfg.loadCredentialsFromStore(context.Background(), store); err != nil {
		t.Fatalf("loadCredentialsFromStore failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Telegram.ChatID != "-5" || cfg.Polymarket.APIPassphrase != "p" {
		t.Errorf("unexpected values: %+v %+v", cfg.Polymarket, cfg.Telegram)
	}

	cfg.Polymarket.APIKey = ""
	cfg.Credentials.SSM.APIKey = "/poly/missing"
	if err := cfg.loadCredentialsFromStore(context.Background(), store); err == nil {
		t.Fatal("expected error for unknown parameter")
	}
}

// go test -v --run TestPostgresDSN
func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		DBName:   "polynotify",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	dsn := cfg.DSN("dev")
	want := "host=localhost port=5432 user=postgres password=pw dbname=polynotify sslmode=disable TimeZone=UTC"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}

	if !strings.Contains(cfg.MaintenanceDSN(), "dbname=postgres") {
		t.Errorf("MaintenanceDSN = %q", cfg.MaintenanceDSN())
	}
}

// go test -v --run TestMonitorLocation
func TestMonitorLocation(t *testing.T) {
	if loc := (MonitorConfig{TimeZone: "Not/AZone"}).Location(); loc != time.UTC {
		t.Errorf("unknown zone should fall back to UTC, got %v", loc)
	}
	if loc := (MonitorConfig{}).Location(); loc != time.UTC {
		t.Errorf("empty zone should be UTC, got %v", loc)
	}
}
