package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Telegram
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIEndpoint string `env:"TELEGRAM_API_ENDPOINT" envDefault:"https://api.telegram.org/bot%s/%s"`
	WebhookBaseURL      string `env:"WEBHOOK_BASE_URL"`
	MessageParseMode    string `env:"MESSAGE_PARSE_MODE" envDefault:"Markdown"`
	CommunityLink       string `env:"COMMUNITY_LINK"`
	WebsiteLink         string `env:"WEBSITE_LINK"`

	// Image provider
	ImageAPIKey     string     `env:"IMAGE_API_KEY"`
	ImageAPIBaseURL string     `env:"IMAGE_API_BASE_URL" envDefault:"https://api.a4f.co/v1"`
	ImageSize       string     `env:"IMAGE_SIZE" envDefault:"1024x1024"`
	ImageModels     ModelTable `env:"IMAGE_MODELS"`
	DefaultModel    string     `env:"DEFAULT_MODEL" envDefault:"flux"`

	// Time budgets
	UpdateTimeout   time.Duration `env:"UPDATE_TIMEOUT" envDefault:"120s"`
	LogWriteTimeout time.Duration `env:"LOG_WRITE_TIMEOUT" envDefault:"10s"`

	// Storage
	LogStore         string `env:"LOG_STORE" envDefault:"file"`
	LogFilePath      string `env:"LOG_FILE_PATH" envDefault:"logs/telegram_log.jsonl"`
	RedisURL         string `env:"REDIS_URL"`
	RedisLogKey      string `env:"REDIS_LOG_KEY" envDefault:"telegram:logs"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"data/teleimage.db"`
	JSONBinURL       string `env:"JSONBIN_URL"`
	JSONBinMasterKey string `env:"JSONBIN_MASTER_KEY"`

	// Reports
	AdminChatID    int64  `env:"ADMIN_CHAT_ID"`
	ReportSchedule string `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`
}

// ModelTable maps model aliases to provider model ids. It is read from
// "alias=id,alias=id".
type ModelTable map[string]string

func (m *ModelTable) UnmarshalText(text []byte) error {
	table := ModelTable{}
	for _, pair := range strings.Split(string(text), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		alias, id, ok := strings.Cut(pair, "=")
		alias, id = strings.TrimSpace(alias), strings.TrimSpace(id)
		if !ok || alias == "" || id == "" {
			return fmt.Errorf("invalid model entry %q, want alias=id", pair)
		}
		table[alias] = id
	}
	*m = table
	return nil
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	envErr := godotenv.Load(".env")
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if envErr != nil {
		return cfg, &DotEnvWarning{Err: envErr}
	}
	return cfg, nil
}

// LoadFrom parses an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// DotEnvWarning reports a missing or unreadable .env file. The config is still usable.
type DotEnvWarning struct{ Err error }

func (w *DotEnvWarning) Error() string { return ".env file not loaded: " + w.Err.Error() }
func (w *DotEnvWarning) Unwrap() error { return w.Err }

// IsDotEnvWarning reports whether err only signals a missing .env file.
func IsDotEnvWarning(err error) bool {
	var w *DotEnvWarning
	return errors.As(err, &w)
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// RequireTelegram checks the settings every Telegram call needs.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	return nil
}

// RequireWebhookURL checks the settings needed to register the webhook.
func (c *Config) RequireWebhookURL() error {
	if err := c.RequireTelegram(); err != nil {
		return err
	}
	if c.WebhookBaseURL == "" {
		return errors.New("WEBHOOK_BASE_URL is not set")
	}
	return nil
}
