package config

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Credential sources.
const (
	CredentialSourceFile = "file" // polyprivate.key + telegramChatid.txt
	CredentialSourceSSM  = "ssm"  // AWS SSM Parameter Store
	CredentialSourceEnv  = "env"  // config.yaml / environment only
)

type CredentialsConfig struct {
	Source         string    `mapstructure:"source"`
	PolymarketFile string    `mapstructure:"polymarket_file"`
	TelegramFile   string    `mapstructure:"telegram_file"`
	SSM            SSMConfig `mapstructure:"ssm"`
}

// SSMConfig names the Parameter Store entries holding each secret.
type SSMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	APISecret     string        `mapstructure:"api_secret"`
	APIPassphrase string        `mapstructure:"api_passphrase"`
	BotToken      string        `mapstructure:"bot_token"`
	ChatID        string        `mapstructure:"chat_id"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// PolymarketCredentials is the API key triple.
type PolymarketCredentials struct {
	APIKey        string
	APISecret     string
	APIPassphrase string
}

// TelegramCredentials identifies the bot and the destination chat.
type TelegramCredentials struct {
	BotToken string
	ChatID   string
}

var (
	apiKeyPattern        = quotedValuePattern("api_key")
	apiSecretPattern     = quotedValuePattern("api_secret")
	apiPassphrasePattern = quotedValuePattern("api_passphrase")

	botTokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)
)

// quotedValuePattern matches key='value' or key="value".
func quotedValuePattern(key string) *regexp.Regexp {
	return regexp.MustCompile(key + `\s*=\s*['"]([^'"]+)['"]`)
}

// ParsePolymarketCredentials extracts the quoted api_key / api_secret /
// api_passphrase pairs. Missing pairs stay empty.
func ParsePolymarketCredentials(content string) PolymarketCredentials {
	return PolymarketCredentials{
		APIKey:        firstGroup(apiKeyPattern, content),
		APISecret:     firstGroup(apiSecretPattern, content),
		APIPassphrase: firstGroup(apiPassphrasePattern, content),
	}
}

// ParseTelegramCredentials scans lines for a bot token ("digits:token-chars")
// and a "<label>: <chat id>" entry. The chat id may be negative (groups).
func ParseTelegramCredentials(content, label string) TelegramCredentials {
	var creds TelegramCredentials
	chatPattern := regexp.MustCompile(regexp.QuoteMeta(label) + `:\s*(-?\d+)`)

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case label != "" && strings.Contains(line, label+":"):
			if id := firstGroup(chatPattern, line); id != "" {
				creds.ChatID = id
			}
		case botTokenPattern.MatchString(line):
			creds.BotToken = line
		}
	}

	return creds
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ResolveCredentials fills empty credential fields from the configured source,
// then validates the result. Values already set through config.yaml or the
// environment take precedence.
func (c *Config) ResolveCredentials(ctx context.Context) error {
	switch c.Credentials.Source {
	case CredentialSourceFile, "":
		if err := c.loadCredentialFiles(); err != nil {
			return err
		}
	case CredentialSourceSSM:
		store, err := NewParameterStore(ctx)
		if err != nil {
			return err
		}
		if err := c.loadCredentialsFromStore(ctx, store); err != nil {
			return err
		}
	case CredentialSourceEnv:
	default:
		return &ValidationError{Field: "credentials.source", Reason: fmt.Sprintf("unknown source %q", c.Credentials.Source)}
	}

	return c.Validate()
}

func (c *Config) loadCredentialFiles() error {
	if path := c.Credentials.PolymarketFile; path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read polymarket credentials: %w", err)
		}
		creds := ParsePolymarketCredentials(string(content))
		fillEmpty(&c.Polymarket.APIKey, creds.APIKey)
		fillEmpty(&c.Polymarket.APISecret, creds.APISecret)
		fillEmpty(&c.Polymarket.APIPassphrase, creds.APIPassphrase)
	}

	if path := c.Credentials.TelegramFile; path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read telegram credentials: %w", err)
		}
		creds := ParseTelegramCredentials(string(content), c.Telegram.ChatLabel)
		fillEmpty(&c.Telegram.BotToken, creds.BotToken)
		fillEmpty(&c.Telegram.ChatID, creds.ChatID)
	}

	return nil
}

func (c *Config) loadCredentialsFromStore(ctx context.Context, store *ParameterStore) error {
	timeout := c.Credentials.SSM.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := []struct {
		name   string
		target *string
	}{
		{c.Credentials.SSM.APIKey, &c.Polymarket.APIKey},
		{c.Credentials.SSM.APISecret, &c.Polymarket.APISecret},
		{c.Credentials.SSM.APIPassphrase, &c.Polymarket.APIPassphrase},
		{c.Credentials.SSM.BotToken, &c.Telegram.BotToken},
		{c.Credentials.SSM.ChatID, &c.Telegram.ChatID},
	}

	for _, p := range params {
		if p.name == "" || *p.target != "" {
			continue
		}
		v, err := store.Get(ctx, p.name)
		if err != nil {
			return err
		}
		*p.target = v
	}

	return nil
}

func fillEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
