package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. POLYNOTIFY_TELEGRAM_BOT_TOKEN.
const EnvPrefix = "POLYNOTIFY"

type Config struct {
	Environment string            `mapstructure:"environment"` // "dev" or "prod"
	Polymarket  PolymarketConfig  `mapstructure:"polymarket"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Log         LogConfig         `mapstructure:"log"`
	Journal     JournalConfig     `mapstructure:"journal"`
}

type PolymarketConfig struct {
	WS            WSConfig `mapstructure:"ws"`
	APIKey        string   `mapstructure:"api_key"`
	APISecret     string   `mapstructure:"api_secret"`
	APIPassphrase string   `mapstructure:"api_passphrase"`
}

type WSConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"` // 0 disables the read deadline
	BufferSize       int           `mapstructure:"buffer_size"`
}

type TelegramConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	BotToken  string        `mapstructure:"bot_token"`
	ChatID    string        `mapstructure:"chat_id"`
	ChatLabel string        `mapstructure:"chat_label"` // label in front of the chat id in the credential file
	Timeout   time.Duration `mapstructure:"timeout"`
}

type MonitorConfig struct {
	HeartbeatInterval    time.Duration `mapstructure:"heartbeat_interval"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	NotifyTimeout        time.Duration `mapstructure:"notify_timeout"`
	TimeZone             string        `mapstructure:"timezone"`
}

// Location resolves TimeZone, falling back to UTC when it is unknown.
// Validate rejects unknown zones, so the fallback only applies to unvalidated configs.
func (m MonitorConfig) Location() *time.Location {
	if m.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(m.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// JournalConfig controls the optional delivery journal.
type JournalConfig struct {
	Enabled        bool           `mapstructure:"enabled"`
	Driver         string         `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLitePath     string         `mapstructure:"sqlite_path"`
	CreateDatabase bool           `mapstructure:"create_database"`
	Retention      time.Duration  `mapstructure:"retention"` // records older than this are pruned at startup, 0 keeps all
	Postgres       PostgresConfig `mapstructure:"postgres"`
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("polymarket.ws.url", "wss://ws-subscriptions-clob.polymarket.com/ws/user")
	v.SetDefault("polymarket.ws.handshake_timeout", 10*time.Second)
	v.SetDefault("polymarket.ws.write_timeout", 5*time.Second)
	v.SetDefault("polymarket.ws.read_timeout", 30*time.Second)
	v.SetDefault("polymarket.ws.buffer_size", 256)
	v.SetDefault("polymarket.api_key", "")
	v.SetDefault("polymarket.api_secret", "")
	v.SetDefault("polymarket.api_passphrase", "")

	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.chat_label", "DXHNotice")
	v.SetDefault("telegram.timeout", 10*time.Second)

	v.SetDefault("monitor.heartbeat_interval", 10*time.Second)
	v.SetDefault("monitor.reconnect_delay", 5*time.Second)
	v.SetDefault("monitor.max_reconnect_attempts", 10)
	v.SetDefault("monitor.notify_timeout", 15*time.Second)
	v.SetDefault("monitor.timezone", "Asia/Shanghai")

	v.SetDefault("credentials.source", CredentialSourceFile)
	v.SetDefault("credentials.polymarket_file", "polyprivate.key")
	v.SetDefault("credentials.telegram_file", "telegramChatid.txt")
	v.SetDefault("credentials.ssm.timeout", 5*time.Second)
	v.SetDefault("credentials.ssm.api_key", "")
	v.SetDefault("credentials.ssm.api_secret", "")
	v.SetDefault("credentials.ssm.api_passphrase", "")
	v.SetDefault("credentials.ssm.bot_token", "")
	v.SetDefault("credentials.ssm.chat_id", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.driver", JournalDriverSQLite)
	v.SetDefault("journal.sqlite_path", "data/journal.db")
	v.SetDefault("journal.create_database", false)
	v.SetDefault("journal.retention", 30*24*time.Hour)
	v.SetDefault("journal.postgres.host", "localhost")
	v.SetDefault("journal.postgres.port", 5432)
	v.SetDefault("journal.postgres.user", "")
	v.SetDefault("journal.postgres.password", "")
	v.SetDefault("journal.postgres.dbname", "polynotify")
	v.SetDefault("journal.postgres.sslmode", "disable")
	v.SetDefault("journal.postgres.timezone", "UTC")
}

// Load builds the configuration from, in increasing precedence: defaults,
// config.yaml, .env / environment variables, command line flags.
// A missing config.yaml is fine unless --config names one explicitly.
func Load(args []string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("polynotify", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to config.yaml")
	fs.String("log-level", "", "log level override (debug, info, warn, error)")
	fs.String("credentials-source", "", "credential source override (file, ssm, env)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
	}

	// Support environment variables with dot notation (e.g., POLYNOTIFY_TELEGRAM_CHAT_ID)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("log.level", fs.Lookup("log-level")); err != nil {
		return nil, fmt.Errorf("bind flag: %w", err)
	}
	if err := v.BindPFlag("credentials.source", fs.Lookup("credentials-source")); err != nil {
		return nil, fmt.Errorf("bind flag: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
